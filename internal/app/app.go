// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     app
// Description: Application wiring for the dictation pipeline
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/echotype/echotype/internal/audio"
	"github.com/echotype/echotype/internal/config"
	"github.com/echotype/echotype/internal/hotkeys"
	"github.com/echotype/echotype/internal/listen"
	"github.com/echotype/echotype/internal/metrics"
	"github.com/echotype/echotype/internal/output"
	"github.com/echotype/echotype/internal/stt"
	"github.com/echotype/echotype/internal/vad"
	"github.com/echotype/echotype/pkg/core/logging"
	"github.com/echotype/echotype/pkg/core/version"
)

// App assembles capture, voice detection, the controller, transcription,
// and the text sink into one running pipeline.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	capture    *audio.Capture
	engine     vad.Engine
	stt        stt.Transcriber
	sink       output.Sink
	controller *listen.Controller
	metrics    *metrics.Metrics
	metricsSrv *metrics.Server
	hk         *hotkeys.Manager
}

// New builds the pipeline from configuration
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(logging.Config{
		Service: "echotype",
		Level:   cfg.General.LogLevel,
		Format:  cfg.General.LogFormat,
		Output:  os.Stderr,
	})

	listenCfg := cfg.Listen.Controller()

	capture, err := audio.NewCapture(audio.CaptureConfig{
		SampleRate: listenCfg.SampleRate,
		FrameSize:  listenCfg.FrameSize(),
		Channels:   cfg.Audio.Channels,
		DeviceName: cfg.Audio.Device,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up audio capture: %w", err)
	}

	engine, err := vad.New(cfg.VAD.Engine, vad.Config{
		SampleRate: listenCfg.SampleRate,
		FrameSize:  listenCfg.FrameSize(),
		Threshold:  listenCfg.VADThreshold,
		Smoothing:  cfg.VAD.Smoothing,
		Mode:       cfg.VAD.Mode,
	})
	if err != nil {
		capture.Close()
		return nil, fmt.Errorf("failed to create voice detector: %w", err)
	}

	transcriber, err := stt.New(cfg.STT.Backend, stt.Config{
		URL:        cfg.STT.URL,
		Language:   cfg.STT.Language,
		SampleRate: listenCfg.SampleRate,
		Timeout:    cfg.STT.Timeout.Duration,
	})
	if err != nil {
		capture.Close()
		engine.Close()
		return nil, fmt.Errorf("failed to create transcription client: %w", err)
	}

	sink, err := output.New(cfg.Output.Sink)
	if err != nil {
		capture.Close()
		engine.Close()
		transcriber.Close()
		return nil, fmt.Errorf("failed to create output sink: %w", err)
	}

	controller, err := listen.NewController(listenCfg, engine, textTranscriber{transcriber}, capture.Frames(), logger)
	if err != nil {
		capture.Close()
		engine.Close()
		transcriber.Close()
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		capture:    capture,
		engine:     engine,
		stt:        transcriber,
		sink:       sink,
		controller: controller,
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(nil)
		a.metricsSrv = metrics.NewServer(cfg.Metrics.ListenAddr, logger)
		controller.SetObserver(a.metrics)
	}

	return a, nil
}

// Logger returns the application logger
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Controller returns the listening controller
func (a *App) Controller() *listen.Controller {
	return a.controller
}

// AddStateListener forwards a state listener to the controller. Must be
// called before Run.
func (a *App) AddStateListener(l listen.StateListener) {
	a.controller.AddStateListener(l)
}

// TogglePause pauses a running controller or resumes a paused one
func (a *App) TogglePause() {
	if a.controller.Status().State == listen.StatePaused {
		a.controller.Resume()
	} else {
		a.controller.Pause()
	}
}

// Stop asks the controller to shut down
func (a *App) Stop() {
	a.controller.Stop()
}

// Run starts the pipeline and blocks until the controller stops or the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("starting",
		"version", version.String(),
		"vad_engine", a.cfg.VAD.Engine,
		"stt_backend", a.cfg.STT.Backend,
		"sink", a.cfg.Output.Sink)

	if err := a.capture.Start(ctx); err != nil {
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	if a.cfg.Hotkeys.Enabled {
		a.hk = hotkeys.NewManager(a.logger)
		if err := a.hk.Register(a.cfg.Hotkeys.PauseResume, a.TogglePause); err != nil {
			a.logger.Warn("pause/resume hotkey unavailable", "error", err)
		}
		if err := a.hk.Register(a.cfg.Hotkeys.Stop, a.Stop); err != nil {
			a.logger.Warn("stop hotkey unavailable", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return a.controller.Run(gctx)
	})

	g.Go(func() error {
		a.consumeResults()
		return nil
	})

	g.Go(func() error {
		a.consumeErrors()
		return nil
	})

	if a.metricsSrv != nil {
		g.Go(func() error {
			return a.metricsSrv.Run(gctx)
		})
	}

	err := g.Wait()
	a.shutdown()
	return err
}

// consumeResults forwards transcribed text to the configured sink
func (a *App) consumeResults() {
	for result := range a.controller.Results() {
		a.logger.Info("utterance transcribed",
			"utterance_id", result.ID,
			"audio_duration", result.AudioDuration,
			"chars", len(result.Text))
		if result.Text == "" {
			continue
		}
		if err := a.sink.Write(result.Text); err != nil {
			a.logger.Error("failed to write transcription", "error", err)
		}
	}
}

// consumeErrors logs recoverable pipeline errors
func (a *App) consumeErrors() {
	for err := range a.controller.Errors() {
		a.logger.Warn("recoverable pipeline error", "error", err)
	}
}

// shutdown releases all resources
func (a *App) shutdown() {
	if a.hk != nil {
		a.hk.Close()
		a.hk = nil
	}
	if err := a.capture.Close(); err != nil {
		a.logger.Warn("failed to close audio capture", "error", err)
	}
	if err := a.engine.Close(); err != nil {
		a.logger.Warn("failed to close voice detector", "error", err)
	}
	if err := a.stt.Close(); err != nil {
		a.logger.Warn("failed to close transcription client", "error", err)
	}
}

// textTranscriber adapts the transcription client to the controller's
// Transcriber interface.
type textTranscriber struct {
	stt stt.Transcriber
}

func (t textTranscriber) Transcribe(ctx context.Context, samples []float32) (string, error) {
	result, err := t.stt.Transcribe(ctx, samples)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}
