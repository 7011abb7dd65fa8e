package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/snarg/chunkd/internal/metrics"
	"github.com/snarg/chunkd/internal/multipart"
	"github.com/snarg/chunkd/internal/segment"
)

// Splitter runs the request-to-segments pipeline over one raw body.
type Splitter interface {
	Process(ctx context.Context, body []byte, contentType string, seconds int) ([]segment.Chunk, error)
}

// SplitHandler handles POST /api/v1/split: one multipart upload in, an
// ordered JSON array of base64-encoded chunks out, all in one
// synchronous response.
type SplitHandler struct {
	splitter       Splitter
	defaultSeconds int
	maxBytes       int64
	log            zerolog.Logger
}

// NewSplitHandler creates a split handler.
func NewSplitHandler(splitter Splitter, defaultSeconds int, maxBytes int64, log zerolog.Logger) *SplitHandler {
	return &SplitHandler{
		splitter:       splitter,
		defaultSeconds: defaultSeconds,
		maxBytes:       maxBytes,
		log:            log.With().Str("handler", "split").Logger(),
	}
}

// Split handles the upload. Validation failures return 400 with a short
// plain-text reason; transcoder and filesystem failures return 500 with
// a generic message while the detail goes to the log.
func (h *SplitHandler) Split(w http.ResponseWriter, r *http.Request) {
	seconds := h.defaultSeconds
	if v := r.URL.Query().Get("seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			metrics.SplitsTotal.WithLabelValues("invalid").Inc()
			WriteText(w, http.StatusBadRequest, "invalid seconds parameter")
			return
		}
		seconds = n
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		metrics.SplitsTotal.WithLabelValues("invalid").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteText(w, http.StatusBadRequest, "request body too large")
			return
		}
		WriteText(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	chunks, err := h.splitter.Process(r.Context(), body, r.Header.Get("Content-Type"), seconds)
	if err != nil {
		h.writeError(w, err)
		return
	}

	metrics.SplitsTotal.WithLabelValues("ok").Inc()
	WriteJSON(w, http.StatusOK, chunks)
}

func (h *SplitHandler) writeError(w http.ResponseWriter, err error) {
	var ve *multipart.ValidationError
	if errors.As(err, &ve) {
		metrics.SplitsTotal.WithLabelValues("invalid").Inc()
		WriteText(w, http.StatusBadRequest, ve.Reason)
		return
	}

	var pe *segment.ProcessError
	if errors.As(err, &pe) {
		metrics.SplitsTotal.WithLabelValues("failed").Inc()
		h.log.Error().Err(pe.Err).Str("stderr", pe.Stderr).Msg("transcoder failed")
		WriteText(w, http.StatusInternalServerError, "audio processing failed")
		return
	}

	// Workspace or file IO — internal either way.
	metrics.SplitsTotal.WithLabelValues("failed").Inc()
	h.log.Error().Err(err).Msg("split pipeline failed")
	WriteText(w, http.StatusInternalServerError, "internal error")
}
