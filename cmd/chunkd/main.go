package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/chunkd/internal/api"
	"github.com/snarg/chunkd/internal/config"
	"github.com/snarg/chunkd/internal/pipeline"
	"github.com/snarg/chunkd/internal/segment"
	"github.com/snarg/chunkd/internal/workspace"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "http-addr", "", "listen address (overrides HTTP_ADDR)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flag.StringVar(&overrides.FFmpegPath, "ffmpeg", "", "transcoder binary (overrides FFMPEG_PATH)")
	flag.IntVar(&overrides.SegmentSeconds, "segment-seconds", 0, "default segment length (overrides SEGMENT_SECONDS)")
	flag.StringVar(&overrides.TempDir, "temp-dir", "", "workspace root (overrides TEMP_DIR)")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("chunkd starting")

	// Resolve the transcoder once; read-only for the rest of the
	// process lifetime. A missing binary is a deployment error.
	ffmpeg, err := exec.LookPath(cfg.FFmpegPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.FFmpegPath).Msg("transcoder binary not found")
	}
	cfg.FFmpegPath = ffmpeg
	log.Info().Str("ffmpeg", ffmpeg).Int("segment_seconds", cfg.SegmentSeconds).Msg("transcoder resolved")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pipeline
	ws := workspace.NewManager(cfg.TempDir, log)
	seg := segment.NewSegmenter(ffmpeg, log)
	pipe := pipeline.New(ws, seg, log)

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, pipe, version, startTime, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("chunkd stopped")
}
