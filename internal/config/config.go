package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/wb-go/wbf/retry"
)

const defaultConfigPath = "config/config.yaml"

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Server   ServerConfig   `yaml:"server"`
	Preview  PreviewConfig  `yaml:"preview"`
	Fonts    FontsConfig    `yaml:"fonts"`
	Boundary BoundaryConfig `yaml:"boundary"`
	Export   ExportConfig   `yaml:"export"`
	Cache    CacheConfig    `yaml:"cache"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Worker   WorkerConfig   `yaml:"worker"`
	Retry    RetryConfig    `yaml:"retry"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// Root confines every path received over HTTP. Empty allows any path.
	Root string `yaml:"root" env:"SERVER_ROOT"`
}

type PreviewConfig struct {
	MinEdge     int    `yaml:"min_edge" env:"PREVIEW_MIN_EDGE" env-default:"480"`
	MaxEdge     int    `yaml:"max_edge" env:"PREVIEW_MAX_EDGE" env-default:"720"`
	TextPolicy  string `yaml:"text_policy" env:"PREVIEW_TEXT_POLICY" env-default:"center"`
	ImagePolicy string `yaml:"image_policy" env:"PREVIEW_IMAGE_POLICY" env-default:"center"`
	GridMargin  int    `yaml:"grid_margin" env:"PREVIEW_GRID_MARGIN" env-default:"20"`
}

type FontsConfig struct {
	Dirs          []string `yaml:"dirs" env:"FONT_DIRS" env-separator:","`
	DefaultFamily string   `yaml:"default_family" env:"FONT_DEFAULT_FAMILY" env-default:"Go"`
	CJKFamilies   []string `yaml:"cjk_families" env:"FONT_CJK_FAMILIES" env-separator:","`
	CacheSize     int      `yaml:"cache_size" env:"FONT_CACHE_SIZE" env-default:"64"`
}

type BoundaryConfig struct {
	Margin        int `yaml:"margin" env:"BOUNDARY_MARGIN" env-default:"5"`
	EdgeAllowance int `yaml:"edge_allowance" env:"BOUNDARY_EDGE_ALLOWANCE" env-default:"2"`
}

type ExportConfig struct {
	OutputDir string `yaml:"output_dir" env:"EXPORT_OUTPUT_DIR" env-default:"exports"`
	// Format is empty to keep each source's own format.
	Format         string `yaml:"format" env:"EXPORT_FORMAT"`
	Quality        int    `yaml:"quality" env:"EXPORT_QUALITY" env-default:"95"`
	Prefix         string `yaml:"prefix" env:"EXPORT_PREFIX"`
	Suffix         string `yaml:"suffix" env:"EXPORT_SUFFIX" env-default:"_watermarked"`
	FailedNameList int    `yaml:"failed_name_list" env:"EXPORT_FAILED_NAME_LIST" env-default:"5"`
	Sink           string `yaml:"sink" env:"EXPORT_SINK" env-default:"local"`
	// MaxEdge bounds every rendered bitmap, preview and layers included.
	MaxEdge int `yaml:"max_edge" env:"EXPORT_MAX_EDGE" env-default:"16384"`
}

type CacheConfig struct {
	Renders int `yaml:"renders" env:"CACHE_RENDERS" env-default:"32"`
	Sources int `yaml:"sources" env:"CACHE_SOURCES" env-default:"4"`
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	JobsTopic    string   `yaml:"jobs_topic" env:"KAFKA_JOBS_TOPIC" env-default:"watermark-export-jobs"`
	ResultsTopic string   `yaml:"results_topic" env:"KAFKA_RESULTS_TOPIC" env-default:"watermark-export-results"`
	GroupID      string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"watermark-export-group"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"watermarks"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"2"`
}

type RetryConfig struct {
	Attempts int           `yaml:"attempts" env:"RETRY_ATTEMPTS" env-default:"3"`
	Delay    time.Duration `yaml:"delay" env:"RETRY_DELAY" env-default:"200ms"`
	Backoff  float64       `yaml:"backoff" env:"RETRY_BACKOFF" env-default:"2"`
}

// MustLoad reads CONFIG_PATH (or config/config.yaml) and applies
// environment overrides. A missing file falls back to env and defaults.
func MustLoad() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: c.Retry.Attempts,
		Delay:    c.Retry.Delay,
		Backoff:  c.Retry.Backoff,
	}
}

func (c *Config) validate() error {
	if c.Preview.MinEdge <= 0 || c.Preview.MaxEdge < c.Preview.MinEdge {
		return fmt.Errorf("invalid preview band %d-%d", c.Preview.MinEdge, c.Preview.MaxEdge)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be positive, got %d", c.Worker.Concurrency)
	}
	if c.Export.Quality < 0 || c.Export.Quality > 100 {
		return fmt.Errorf("export quality %d outside [0,100]", c.Export.Quality)
	}
	if c.Export.MaxEdge <= 0 {
		return fmt.Errorf("export max edge must be positive, got %d", c.Export.MaxEdge)
	}
	if c.Retry.Attempts <= 0 {
		return fmt.Errorf("retry attempts must be positive, got %d", c.Retry.Attempts)
	}
	return nil
}
