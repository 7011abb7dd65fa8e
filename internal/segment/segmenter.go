// Package segment drives the external transcoder over a workspace and
// collects the segment files it produces.
package segment

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Fixed output format. Every run re-encodes to MP3 at a constant bitrate
// regardless of the input format, so all chunks share one media type.
const (
	OutputPrefix  = "chunk_"
	OutputMIME    = "audio/mpeg"
	outputPattern = "chunk_%03d.mp3"
	audioCodec    = "libmp3lame"
	audioBitrate  = "128k"
	defaultExt    = "mp3"
)

// Input extensions we pass through to the transcoder. Anything else
// falls back to mp3; the transcoder sniffs the real container anyway.
var knownExts = map[string]bool{
	"mp3": true, "mp4": true, "mpeg": true, "mpga": true,
	"m4a": true, "wav": true, "webm": true, "ogg": true, "flac": true,
}

// ProcessError reports a transcoder launch failure or non-zero exit.
// Stderr carries the captured diagnostic output; callers log it but
// never return it to clients.
type ProcessError struct {
	Err    error
	Stderr string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("transcoder failed: %v", e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Segmenter invokes the transcoder binary resolved once at startup.
type Segmenter struct {
	ffmpeg string
	log    zerolog.Logger
}

// NewSegmenter returns a Segmenter using the given transcoder binary.
func NewSegmenter(ffmpegPath string, log zerolog.Logger) *Segmenter {
	return &Segmenter{
		ffmpeg: ffmpegPath,
		log:    log.With().Str("component", "segmenter").Logger(),
	}
}

// Run writes data to input.<ext> inside dir and invokes the transcoder
// once, blocking until it exits. On success dir contains chunk_000.mp3,
// chunk_001.mp3, ... — one file per seconds-long slice of the audio
// stream. An input shorter than seconds yields exactly one chunk.
func (s *Segmenter) Run(ctx context.Context, dir string, data []byte, filename string, seconds int) error {
	in := filepath.Join(dir, "input."+inputExt(filename))
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return fmt.Errorf("write input file: %w", err)
	}

	// Fixed template: drop video/subtitles/data, keep the first audio
	// stream, segment at fixed durations with per-segment timestamps,
	// always re-encode to the one target format.
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", in,
		"-vn", "-sn", "-dn",
		"-map", "0:a:0",
		"-f", "segment",
		"-segment_time", strconv.Itoa(seconds),
		"-reset_timestamps", "1",
		"-c:a", audioCodec,
		"-b:a", audioBitrate,
		filepath.Join(dir, outputPattern),
	}

	cmd := exec.CommandContext(ctx, s.ffmpeg, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return &ProcessError{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	s.log.Debug().
		Int("segment_seconds", seconds).
		Dur("duration_ms", time.Since(start)).
		Msg("transcoder finished")
	return nil
}

// inputExt picks the workspace input extension from the uploaded
// filename, defaulting to mp3 when missing or unrecognized.
func inputExt(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if knownExts[ext] {
		return ext
	}
	return defaultExt
}
