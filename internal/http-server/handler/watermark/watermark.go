package watermark

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"

	"photo-watermark/internal/domain"
	"photo-watermark/internal/http-server/handler/watermark/dto"
	"photo-watermark/internal/usecase/export"
	"photo-watermark/internal/usecase/processor/geometry"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

const maxBodySize = 4 << 20

type WatermarkHandler struct {
	renderer previewRenderer
	exporter exporter
	jobs     jobPublisher
	boundary boundaryChecker
	root     string
	validate *validator.Validate
	logger   *zlog.Zerolog
}

// NewWatermarkHandler serves the preview and export API. A non-empty root
// confines every path in a request to that directory.
func NewWatermarkHandler(renderer previewRenderer, exporter exporter, jobs jobPublisher, boundary boundaryChecker, root string, logger *zlog.Zerolog) *WatermarkHandler {
	if logger == nil {
		logger = &zlog.Logger
	}
	return &WatermarkHandler{
		renderer: renderer,
		exporter: exporter,
		jobs:     jobs,
		boundary: boundary,
		root:     root,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *WatermarkHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.PreviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	path, err := h.resolvePath(req.SourcePath)
	if err != nil {
		h.respondError(w, http.StatusForbidden, "Source path is not allowed", err)
		return
	}

	spec, err := domain.DecodeSettings(req.Settings, req.Scale)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid watermark settings", err)
		return
	}
	if spec.Kind == domain.KindImage {
		if spec.Image.SourcePath, err = h.resolvePath(spec.Image.SourcePath); err != nil {
			h.respondError(w, http.StatusForbidden, "Watermark path is not allowed", err)
			return
		}
	}

	target := domain.Size{Width: req.Target.Width, Height: req.Target.Height}
	bitmap, info, err := h.renderer.RenderPreview(r.Context(), path, spec, target)
	if err != nil {
		h.handleRenderError(w, err, req.SourcePath)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, bitmap); err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to encode preview", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.PreviewResponse{
		Image:             base64.StdEncoding.EncodeToString(buf.Bytes()),
		ContentType:       domain.FormatPNG.ContentType(),
		SourceDimensions:  info.SourceDimensions,
		PreviewDimensions: info.PreviewDimensions,
		CompressionScale:  info.CompressionScale,
		Position:          info.Position,
		PreviewPosition:   info.PreviewPosition,
		Footprint:         info.Footprint,
		Boundary:          info.Boundary,
		Settings:          domain.EncodeSettings(info.Spec, info.CompressionScale),
		CacheHit:          info.CacheHit,
		Notices:           info.Notices,
	})
}

func (h *WatermarkHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	path, err := h.resolvePath(r.URL.Query().Get("path"))
	if err != nil || path == "" {
		h.respondError(w, http.StatusBadRequest, "Query parameter path is required", err)
		return
	}
	h.renderer.Invalidate(path)
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatermarkHandler) SetScale(w http.ResponseWriter, r *http.Request) {
	var req dto.ScaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Scale == 0 {
		h.renderer.ClearCompressionScale()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.renderer.SetCompressionScale(req.Scale); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid compression scale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatermarkHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req dto.ExportRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.resolveItem(req.Item)
	if err != nil {
		h.respondError(w, http.StatusForbidden, "Path is not allowed", err)
		return
	}

	out, err := h.exporter.Export(r.Context(), item, req.Options)
	if err != nil {
		h.handleExportError(w, err, req.Item.SourcePath)
		return
	}

	h.logger.Info().
		Str("source", out.SourcePath).
		Str("output", out.OutputPath).
		Int64("size", out.Size).
		Msg("Image exported")

	h.respondJSON(w, http.StatusOK, dto.ExportResponse{
		SourcePath: out.SourcePath,
		OutputPath: out.OutputPath,
		Format:     out.Format,
		Size:       out.Size,
		Width:      out.Width,
		Height:     out.Height,
	})
}

func (h *WatermarkHandler) Boundary(w http.ResponseWriter, r *http.Request) {
	var req dto.BoundaryRequest
	if !h.decode(w, r, &req) {
		return
	}

	box := domain.Rect{X: req.Origin.X, Y: req.Origin.Y, Width: req.Size.Width, Height: req.Size.Height}
	if req.Rotation != 0 {
		box = geometry.RotatedRect(box, float64(req.Rotation))
	}

	result := h.boundary.Check(box, domain.Size{Width: req.Canvas.Width, Height: req.Canvas.Height})
	h.respondJSON(w, http.StatusOK, result)
}

// Drag applies one pointer delta, measured from origin, using the zoom and
// compression scale of the image's last preview.
func (h *WatermarkHandler) Drag(w http.ResponseWriter, r *http.Request) {
	var req dto.DragRequest
	if !h.decode(w, r, &req) {
		return
	}

	path, err := h.resolvePath(req.SourcePath)
	if err != nil {
		h.respondError(w, http.StatusForbidden, "Source path is not allowed", err)
		return
	}

	if req.Zoom > 0 {
		if err := h.renderer.SetZoomScale(path, req.Zoom); err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid zoom", err)
			return
		}
	}

	session, err := h.renderer.NewDragSession(path, domain.Point{X: req.Origin.X, Y: req.Origin.Y})
	if err != nil {
		h.respondError(w, http.StatusConflict, "Image has not been previewed", err)
		return
	}
	if _, err := session.Move(req.DX, req.DY); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid drag", err)
		return
	}
	pos, err := session.End()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid drag", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.DragResponse{Position: pos})
}

func (h *WatermarkHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var job domain.ExportJob
	if !h.decode(w, r, &job) {
		return
	}

	for i, item := range job.Items {
		resolved, err := h.resolveItem(item)
		if err != nil {
			h.respondError(w, http.StatusForbidden, "Path is not allowed", err)
			return
		}
		job.Items[i] = resolved
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	if err := h.jobs.PublishJob(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to queue export job")
		h.respondError(w, http.StatusServiceUnavailable, "Failed to queue export job", err)
		return
	}

	h.logger.Info().Str("job_id", job.ID).Int("items", len(job.Items)).Msg("Export job queued")
	h.respondJSON(w, http.StatusAccepted, dto.JobResponse{
		JobID:  job.ID,
		Status: string(domain.StatusQueued),
		Total:  len(job.Items),
	})
}

func (h *WatermarkHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation failed", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return false
	}
	return true
}

func (h *WatermarkHandler) resolveItem(item domain.ExportItem) (domain.ExportItem, error) {
	path, err := h.resolvePath(item.SourcePath)
	if err != nil {
		return item, err
	}
	item.SourcePath = path

	if raw, ok := item.Settings[domain.KeyImagePath]; ok {
		if s, isString := raw.(string); isString && s != "" {
			resolved, err := h.resolvePath(s)
			if err != nil {
				return item, err
			}
			settings := make(map[string]any, len(item.Settings))
			for k, v := range item.Settings {
				settings[k] = v
			}
			settings[domain.KeyImagePath] = resolved
			item.Settings = settings
		}
	}
	return item, nil
}

func (h *WatermarkHandler) resolvePath(p string) (string, error) {
	if h.root == "" || p == "" {
		return p, nil
	}

	root, err := filepath.Abs(h.root)
	if err != nil {
		return "", err
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, p)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathNotAllowed, p)
	}
	return full, nil
}

func (h *WatermarkHandler) handleRenderError(w http.ResponseWriter, err error, source string) {
	switch {
	case errors.Is(err, domain.ErrSourceImage):
		h.logger.Info().Str("source", source).Msg("Source image not found")
		h.respondError(w, http.StatusNotFound, "Source image not found", err)
	case errors.Is(err, domain.ErrInvalidSpec), errors.Is(err, domain.ErrInvalidGeometry):
		h.respondError(w, http.StatusBadRequest, "Invalid watermark settings", err)
	default:
		h.logger.Error().Err(err).Str("source", source).Msg("Preview failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to render preview", err)
	}
}

func (h *WatermarkHandler) handleExportError(w http.ResponseWriter, err error, source string) {
	switch {
	case errors.Is(err, domain.ErrSourceImage):
		h.respondError(w, http.StatusNotFound, "Source image not found", err)
	case errors.Is(err, domain.ErrInvalidSpec), errors.Is(err, domain.ErrUnsupportedFormat):
		h.respondError(w, http.StatusBadRequest, "Invalid export request", err)
	case errors.Is(err, domain.ErrOverwriteSource):
		h.respondError(w, http.StatusConflict, "Export would overwrite the source image", err)
	case errors.Is(err, export.ErrInvalidBatch):
		h.respondError(w, http.StatusBadRequest, "Invalid export request", err)
	default:
		h.logger.Error().Err(err).Str("source", source).Msg("Export failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to export image", err)
	}
}

func (h *WatermarkHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *WatermarkHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
