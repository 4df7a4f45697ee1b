package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photo-watermark/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type Usecase struct {
	renderer    renderer
	encoder     encoder
	sink        Sink
	validate    *validator.Validate
	failedNames int
	defaults    domain.ExportOptions
	logger      *zlog.Zerolog
}

func NewUsecase(r renderer, e encoder, sink Sink, failedNames int, logger *zlog.Zerolog) *Usecase {
	if logger == nil {
		logger = &zlog.Logger
	}
	if failedNames <= 0 {
		failedNames = domain.DefaultFailedNameList
	}
	return &Usecase{
		renderer:    r,
		encoder:     e,
		sink:        sink,
		validate:    validator.New(),
		failedNames: failedNames,
		logger:      logger,
	}
}

// WithDefaults sets the options used for every field a request leaves
// empty. A request naming rule replaces the default one as a whole.
func (u *Usecase) WithDefaults(d domain.ExportOptions) *Usecase {
	u.defaults = d
	return u
}

func (u *Usecase) merge(opts domain.ExportOptions) domain.ExportOptions {
	if opts.Format == "" {
		opts.Format = u.defaults.Format
	}
	if opts.Quality == nil {
		opts.Quality = u.defaults.Quality
	}
	if opts.Naming == (domain.NamingRule{}) {
		opts.Naming = u.defaults.Naming
	}
	if opts.OutputDir == "" {
		opts.OutputDir = u.defaults.OutputDir
	}
	return opts
}

// Export renders and stores a single image.
func (u *Usecase) Export(ctx context.Context, item domain.ExportItem, opts domain.ExportOptions) (*domain.ExportedImage, error) {
	opts = u.merge(opts)
	spec, err := domain.DecodeSettings(item.Settings, item.Scale)
	if err != nil {
		return nil, err
	}

	format := OutputFormat(item.SourcePath, opts)
	name := OutputName(item.SourcePath, opts)
	if samePath(u.sink.Location(name), item.SourcePath) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOverwriteSource, item.SourcePath)
	}

	img, _, err := u.renderer.RenderExport(ctx, item.SourcePath, spec, opts.Resize)
	if err != nil {
		return nil, err
	}

	quality := domain.DefaultJPEGQuality
	if opts.Quality != nil {
		quality = *opts.Quality
	}
	data, err := u.encoder.EncodeBytes(img, format, quality)
	if err != nil {
		return nil, err
	}

	location, err := u.sink.Put(ctx, name, data, format.ContentType())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExportIO, err)
	}

	b := img.Bounds()
	return &domain.ExportedImage{
		SourcePath: item.SourcePath,
		OutputPath: location,
		Format:     format,
		Size:       int64(len(data)),
		Width:      b.Dx(),
		Height:     b.Dy(),
		CreatedAt:  time.Now(),
	}, nil
}

// Run exports every item of job. A failing item is recorded and the batch
// moves on; cancellation is checked only between items.
func (u *Usecase) Run(ctx context.Context, job domain.ExportJob, progress Progress) (*domain.ExportSummary, error) {
	if len(job.Items) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := u.validate.Struct(job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	summary := &domain.ExportSummary{
		JobID:  job.ID,
		Status: domain.StatusRunning,
		Total:  len(job.Items),
	}

	u.logger.Info().Str("job_id", job.ID).Int("total", summary.Total).Msg("Export batch started")

	for i, item := range job.Items {
		if err := ctx.Err(); err != nil {
			summary.Skipped = summary.Total - i
			summary.Status = domain.StatusCancelled
			u.logger.Warn().Str("job_id", job.ID).Int("skipped", summary.Skipped).Msg("Export batch cancelled")
			return summary, nil
		}

		out, err := u.Export(ctx, item, job.Options)
		if err != nil {
			u.recordFailure(summary, item, err)
			u.logger.Error().Err(err).
				Str("job_id", job.ID).
				Str("source", item.SourcePath).
				Bool("io", errors.Is(err, domain.ErrExportIO)).
				Msg("Export failed")
		} else {
			summary.Succeeded++
			summary.Outputs = append(summary.Outputs, out.OutputPath)
		}

		if progress != nil {
			progress(i+1, summary.Total, item.SourcePath)
		}
	}

	summary.Status = batchStatus(summary)
	u.logger.Info().
		Str("job_id", job.ID).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Str("status", string(summary.Status)).
		Msg("Export batch finished")
	return summary, nil
}

func (u *Usecase) recordFailure(s *domain.ExportSummary, item domain.ExportItem, err error) {
	s.Failed++
	s.Failures = append(s.Failures, domain.ExportFailure{SourcePath: item.SourcePath, Error: err.Error()})
	if len(s.FailedNames) < u.failedNames {
		s.FailedNames = append(s.FailedNames, item.SourcePath)
	}
}

func batchStatus(s *domain.ExportSummary) domain.ExportStatus {
	switch {
	case s.Failed == 0:
		return domain.StatusCompleted
	case s.Succeeded == 0:
		return domain.StatusFailed
	default:
		return domain.StatusPartial
	}
}
