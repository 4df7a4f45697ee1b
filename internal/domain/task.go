package domain

// ExportItem pairs one source image with its own watermark settings, in
// the serialized dictionary form exchanged with the settings store.
type ExportItem struct {
	SourcePath string         `json:"source_path" validate:"required"`
	Settings   map[string]any `json:"settings" validate:"required"`
	// Scale is the compression scale the settings' preview coordinates were
	// recorded at; zero when the settings carry a source-space position.
	Scale float64 `json:"scale,omitempty" validate:"gte=0"`
}

type NamingRule struct {
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

type ExportOptions struct {
	Format ImageFormat `json:"format" validate:"omitempty,oneof=jpeg png bmp tiff"`
	// Quality is nil for the configured default; 0 is the lowest quality.
	Quality *int       `json:"quality,omitempty" validate:"omitempty,gte=0,lte=100"`
	Resize  ResizeSpec `json:"resize"`
	Naming  NamingRule `json:"naming"`
	// OutputDir is a local directory or an object key prefix, depending on the sink.
	OutputDir string `json:"output_dir"`
}

// ExportJob is a batch export request carried over the job queue.
type ExportJob struct {
	ID      string        `json:"id"`
	Items   []ExportItem  `json:"items" validate:"required,min=1,dive"`
	Options ExportOptions `json:"options"`
}

type ExportFailure struct {
	SourcePath string `json:"source_path"`
	Error      string `json:"error"`
}

// ExportSummary is reported once per batch; failures never abort a batch.
type ExportSummary struct {
	JobID       string          `json:"job_id"`
	Status      ExportStatus    `json:"status"`
	Total       int             `json:"total"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Skipped     int             `json:"skipped"`
	FailedNames []string        `json:"failed_names,omitempty"`
	Failures    []ExportFailure `json:"failures,omitempty"`
	Outputs     []string        `json:"outputs,omitempty"`
}
