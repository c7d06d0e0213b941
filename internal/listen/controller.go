// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     listen
// Description: Always-listen controller state machine
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package listen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/echotype/echotype/internal/vad"
)

var (
	// ErrChannelClosed is returned when the inbound frame channel closes,
	// which shuts the controller down in an orderly way
	ErrChannelClosed = errors.New("audio frame channel closed")

	// ErrTranscriptionFailed wraps errors from the transcription boundary
	ErrTranscriptionFailed = errors.New("transcription failed")

	// errStopped signals a clean shutdown through the Stop command
	errStopped = errors.New("stopped")
)

// Transcriber converts a finalized utterance into text
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Observer receives controller telemetry. Callbacks run on the controller
// goroutine and must not block.
type Observer interface {
	FrameProcessed(voiced bool)
	UtteranceFinalized(samples int)
	UtteranceDropped(reason string)
	TranscriptionDone(took time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) FrameProcessed(bool)                 {}
func (nopObserver) UtteranceFinalized(int)              {}
func (nopObserver) UtteranceDropped(string)             {}
func (nopObserver) TranscriptionDone(time.Duration, error) {}

// Config holds the controller's timing and detection parameters. It is
// immutable for the controller's lifetime.
type Config struct {
	// PreRollDuration is how much lead-in audio an utterance keeps
	PreRollDuration time.Duration

	// MinSpeechDuration is how much voiced audio confirms speech onset
	MinSpeechDuration time.Duration

	// PostSilenceDuration is how much silence ends an utterance
	PostSilenceDuration time.Duration

	// VADThreshold is the voice decision threshold in [0,1]
	VADThreshold float64

	// MaxUtteranceDuration is the hard cap on recording length
	MaxUtteranceDuration time.Duration

	// CooldownDuration is the re-arm delay after an utterance completes
	CooldownDuration time.Duration

	// FrameDuration is the length of one audio frame
	FrameDuration time.Duration

	// SampleRate is the audio sample rate in Hz
	SampleRate int

	// MinUtteranceDuration drops finalized utterances shorter than this
	// as noise blips before they reach transcription
	MinUtteranceDuration time.Duration
}

// DefaultConfig returns the default controller configuration
func DefaultConfig() Config {
	return Config{
		PreRollDuration:      500 * time.Millisecond,
		MinSpeechDuration:    300 * time.Millisecond,
		PostSilenceDuration:  2 * time.Second,
		VADThreshold:         0.015,
		MaxUtteranceDuration: 30 * time.Second,
		CooldownDuration:     200 * time.Millisecond,
		FrameDuration:        30 * time.Millisecond,
		SampleRate:           16000,
		MinUtteranceDuration: 100 * time.Millisecond,
	}
}

// Validate checks the configuration for errors
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.FrameDuration <= 0 {
		return fmt.Errorf("frame_duration must be positive, got %v", c.FrameDuration)
	}
	if c.FrameSize() <= 0 {
		return fmt.Errorf("frame_duration %v too short for sample_rate %d", c.FrameDuration, c.SampleRate)
	}
	if c.PreRollDuration <= 0 {
		return fmt.Errorf("pre_roll_duration must be positive, got %v", c.PreRollDuration)
	}
	if c.MinSpeechDuration <= 0 {
		return fmt.Errorf("min_speech_duration must be positive, got %v", c.MinSpeechDuration)
	}
	if c.PostSilenceDuration <= 0 {
		return fmt.Errorf("post_silence_duration must be positive, got %v", c.PostSilenceDuration)
	}
	if c.VADThreshold < 0 || c.VADThreshold > 1 {
		return fmt.Errorf("vad_threshold must be in [0,1], got %f", c.VADThreshold)
	}
	if c.CooldownDuration < 0 {
		return fmt.Errorf("cooldown_duration must not be negative, got %v", c.CooldownDuration)
	}
	if c.MinUtteranceDuration < 0 {
		return fmt.Errorf("min_utterance_duration must not be negative, got %v", c.MinUtteranceDuration)
	}
	// Otherwise the hard cap fires before any utterance can complete
	if c.MaxUtteranceDuration <= c.PreRollDuration+c.MinSpeechDuration {
		return fmt.Errorf("max_utterance_duration %v must exceed pre_roll_duration + min_speech_duration (%v)",
			c.MaxUtteranceDuration, c.PreRollDuration+c.MinSpeechDuration)
	}
	return nil
}

// FrameSize returns the number of samples in one frame
func (c Config) FrameSize() int {
	return int(time.Duration(c.SampleRate) * c.FrameDuration / time.Second)
}

// PreRollSamples returns the pre-roll ring capacity in samples
func (c Config) PreRollSamples() int {
	return int(time.Duration(c.SampleRate) * c.PreRollDuration / time.Second)
}

// Result is one successfully transcribed utterance
type Result struct {
	// ID identifies the utterance across logs and metrics
	ID string

	// Text is the recognized text
	Text string

	// AudioDuration is the length of the submitted audio
	AudioDuration time.Duration

	// Samples is the utterance length in samples
	Samples int
}

// Controller is the always-listen state machine. It consumes audio frames
// and commands, drives the VAD engine and the buffer manager, and dispatches
// finished utterances to the transcription boundary.
//
// All mutable state is confined to the goroutine running Run; other
// goroutines interact only through Pause/Resume/Stop, the outbound channels,
// and Status snapshots.
type Controller struct {
	cfg         Config
	engine      vad.Engine
	transcriber Transcriber
	logger      *slog.Logger
	obs         Observer

	frames   <-chan []float32
	commands chan Command
	results  chan Result
	errs     chan error

	buffers   *BufferManager
	status    atomic.Pointer[Status]
	listeners []StateListener

	frameSize   int
	framesSeen  uint64
	utterances  uint64
	utteranceID string
}

// NewController creates a controller reading frames from the given channel
func NewController(cfg Config, engine vad.Engine, transcriber Transcriber, frames <-chan []float32, logger *slog.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("controller config: %w", err)
	}
	if engine == nil {
		return nil, errors.New("vad engine is required")
	}
	if transcriber == nil {
		return nil, errors.New("transcriber is required")
	}
	if frames == nil {
		return nil, errors.New("frame channel is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		cfg:         cfg,
		engine:      engine,
		transcriber: transcriber,
		logger:      logger,
		obs:         nopObserver{},
		frames:      frames,
		commands:    make(chan Command, 16),
		results:     make(chan Result, 16),
		errs:        make(chan error, 16),
		buffers:     NewBufferManager(cfg.PreRollSamples()),
		frameSize:   cfg.FrameSize(),
	}
	c.publish(StateListening)
	return c, nil
}

// SetObserver installs a telemetry observer. Must be called before Run.
func (c *Controller) SetObserver(obs Observer) {
	if obs != nil {
		c.obs = obs
	}
}

// AddStateListener registers a transition listener. Must be called before Run.
func (c *Controller) AddStateListener(l StateListener) {
	c.listeners = append(c.listeners, l)
}

// Results returns the outbound channel of transcribed utterances
func (c *Controller) Results() <-chan Result {
	return c.results
}

// Errors returns the outbound channel of recoverable errors
func (c *Controller) Errors() <-chan error {
	return c.errs
}

// Status returns an immutable snapshot of the controller
func (c *Controller) Status() Status {
	return *c.status.Load()
}

// Pause mutes the controller and discards any in-flight utterance
func (c *Controller) Pause() {
	c.send(CommandPause)
}

// Resume returns a paused controller to listening
func (c *Controller) Resume() {
	c.send(CommandResume)
}

// Stop shuts the controller down
func (c *Controller) Stop() {
	c.send(CommandStop)
}

func (c *Controller) send(cmd Command) {
	select {
	case c.commands <- cmd:
	default:
		c.logger.Warn("command channel full, dropping command", "command", cmd.String())
	}
}

// Run executes the controller loop until a Stop command, a closed frame
// channel, or context cancellation. It must be called exactly once.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.results)
	defer close(c.errs)

	ph := listening()
	clock := time.Duration(0)

	for {
		// Commands always outrank audio on the same frame boundary
		if done, err := c.drainCommands(&ph); done {
			return finishErr(err)
		}

		if ph.state == StatePaused {
			select {
			case cmd := <-c.commands:
				if done, err := c.apply(cmd, &ph); done {
					return finishErr(err)
				}
			case frame, ok := <-c.frames:
				if !ok {
					c.shutdown(&ph)
					return ErrChannelClosed
				}
				_ = frame // muted
			case <-ctx.Done():
				c.shutdown(&ph)
				return ctx.Err()
			}
			continue
		}

		select {
		case cmd := <-c.commands:
			if done, err := c.apply(cmd, &ph); done {
				return finishErr(err)
			}
		case frame, ok := <-c.frames:
			if !ok {
				c.shutdown(&ph)
				return ErrChannelClosed
			}
			// A command that raced this frame still wins
			if done, err := c.drainCommands(&ph); done {
				return finishErr(err)
			}
			if ph.state == StatePaused {
				continue
			}
			clock += c.cfg.FrameDuration
			if err := c.handleFrame(ctx, frame, &ph, &clock); err != nil {
				return finishErr(err)
			}
		case <-ctx.Done():
			c.shutdown(&ph)
			return ctx.Err()
		}
	}
}

// finishErr maps the internal stop sentinel to a clean return
func finishErr(err error) error {
	if errors.Is(err, errStopped) {
		return nil
	}
	return err
}

// drainCommands applies every pending command before audio logic runs
func (c *Controller) drainCommands(ph *phase) (bool, error) {
	for {
		select {
		case cmd := <-c.commands:
			if done, err := c.apply(cmd, ph); done {
				return true, err
			}
		default:
			return false, nil
		}
	}
}

// apply executes one command. Returns done=true when the controller must
// terminate.
func (c *Controller) apply(cmd Command, ph *phase) (bool, error) {
	switch cmd {
	case CommandPause:
		if ph.state == StatePaused {
			return false, nil
		}
		c.logger.Info("paused", "from", ph.state.String())
		c.buffers.Clear()
		c.engine.Reset()
		c.utteranceID = ""
		c.transition(ph, paused())
	case CommandResume:
		if ph.state != StatePaused {
			c.logger.Debug("resume ignored", "state", ph.state.String())
			return false, nil
		}
		c.logger.Info("resumed")
		c.transition(ph, listening())
	case CommandStop:
		c.logger.Info("stopping", "from", ph.state.String())
		c.shutdown(ph)
		return true, errStopped
	}
	return false, nil
}

// shutdown releases buffers and publishes the terminal state
func (c *Controller) shutdown(ph *phase) {
	c.buffers.Clear()
	c.utteranceID = ""
	c.transition(ph, phase{state: StateStopped})
}

// handleFrame runs the VAD and timer logic for one frame
func (c *Controller) handleFrame(ctx context.Context, frame []float32, ph *phase, clock *time.Duration) error {
	if len(frame) != c.frameSize {
		return fmt.Errorf("%w: got %d samples, want %d", vad.ErrInvalidFrameSize, len(frame), c.frameSize)
	}
	c.framesSeen++

	score, err := c.engine.Score(frame)
	if err != nil {
		if errors.Is(err, vad.ErrInvalidFrameSize) {
			return err
		}
		// Per-frame scoring faults degrade to silence instead of
		// terminating the loop
		c.logger.Warn("vad scoring failed, treating frame as silence", "error", err)
		score = 0
	}
	voiced := score > c.cfg.VADThreshold
	c.obs.FrameProcessed(voiced)

	switch ph.state {
	case StateListening:
		c.buffers.Push(frame)
		if voiced {
			c.transition(ph, detecting(*clock-c.cfg.FrameDuration, c.cfg.FrameDuration))
			if ph.voiced >= c.cfg.MinSpeechDuration {
				c.beginRecording(ph, *clock)
			}
		}

	case StateDetecting:
		c.buffers.Push(frame)
		if !voiced {
			// False start: the pre-roll keeps rolling for the next attempt
			c.logger.Debug("false start", "voiced", ph.voiced)
			c.transition(ph, listening())
			break
		}
		ph.voiced += c.cfg.FrameDuration
		if ph.voiced >= c.cfg.MinSpeechDuration {
			c.beginRecording(ph, *clock)
		}

	case StateRecording:
		c.buffers.Push(frame)
		if voiced {
			ph.silence = 0
		} else {
			ph.silence += c.cfg.FrameDuration
		}
		// The hard cap outranks the silence timeout when both trip
		if *clock-ph.entered >= c.cfg.MaxUtteranceDuration {
			return c.finalize(ctx, ph, clock, "max_utterance")
		}
		if ph.silence >= c.cfg.PostSilenceDuration {
			return c.finalize(ctx, ph, clock, "silence")
		}
	}

	return nil
}

// beginRecording seeds the recording buffer with the pre-roll snapshot
func (c *Controller) beginRecording(ph *phase, now time.Duration) {
	c.utteranceID = uuid.NewString()
	snapshot := c.buffers.StartRecording()
	c.logger.Debug("recording started",
		"utterance", c.utteranceID,
		"pre_roll_samples", len(snapshot),
		"pre_roll_evicted", c.buffers.Evicted())
	c.transition(ph, recording(now))
}

// finalize consumes the recording buffer and dispatches the utterance
func (c *Controller) finalize(ctx context.Context, ph *phase, clock *time.Duration, reason string) error {
	samples, err := c.buffers.Finalize()
	if err != nil {
		c.logger.Error("finalize failed", "error", err)
		c.buffers.Reset()
		c.transition(ph, listening())
		return nil
	}

	audioDur := time.Duration(len(samples)) * time.Second / time.Duration(c.cfg.SampleRate)
	if audioDur < c.cfg.MinUtteranceDuration {
		c.logger.Debug("utterance too short, dropped",
			"utterance", c.utteranceID, "duration", audioDur, "reason", reason)
		c.obs.UtteranceDropped("too_short")
		c.utteranceID = ""
		c.buffers.Reset()
		c.transition(ph, listening())
		return nil
	}

	c.logger.Info("utterance finalized",
		"utterance", c.utteranceID, "samples", len(samples), "duration", audioDur, "reason", reason)
	c.obs.UtteranceFinalized(len(samples))
	c.transition(ph, processing(*clock))

	return c.dispatch(ctx, samples, audioDur, ph, clock)
}

type outcome struct {
	text string
	err  error
	took time.Duration
}

// dispatch runs the transcription call while the controller keeps draining
// and discarding inbound frames, so the frame queue cannot grow unbounded
// and commands stay responsive. Exactly one utterance is in flight at a time.
func (c *Controller) dispatch(ctx context.Context, samples []float32, audioDur time.Duration, ph *phase, clock *time.Duration) error {
	id := c.utteranceID
	outc := make(chan outcome, 1)
	go func() {
		start := time.Now()
		text, err := c.transcriber.Transcribe(ctx, samples)
		outc <- outcome{text: text, err: err, took: time.Since(start)}
	}()

	frames := c.frames
	for {
		select {
		case out := <-outc:
			c.obs.TranscriptionDone(out.took, out.err)
			if out.err != nil {
				// Reported upstream, not retried; the machine re-arms
				c.logger.Error("transcription failed", "utterance", id, "error", out.err)
				c.report(fmt.Errorf("%w: utterance %s: %v", ErrTranscriptionFailed, id, out.err))
			} else {
				c.utterances++
				c.logger.Info("utterance transcribed", "utterance", id, "took", out.took)
				c.emit(Result{ID: id, Text: out.text, AudioDuration: audioDur, Samples: len(samples)})
			}
			if frames == nil {
				c.shutdown(ph)
				return ErrChannelClosed
			}
			return c.cooldown(ctx, ph, clock)

		case frame, ok := <-frames:
			if !ok {
				// Keep waiting for the in-flight result, then shut down
				frames = nil
				continue
			}
			_ = frame // discarded while processing
			c.framesSeen++
			*clock += c.cfg.FrameDuration

		case cmd := <-c.commands:
			if done, err := c.apply(cmd, ph); done {
				return err
			}
			if ph.state == StatePaused {
				// In-flight utterance abandoned; the late result is dropped
				return nil
			}

		case <-ctx.Done():
			c.shutdown(ph)
			return ctx.Err()
		}
	}
}

// cooldown drains frames for the configured re-arm delay, then resets the
// recording buffer and returns to listening
func (c *Controller) cooldown(ctx context.Context, ph *phase, clock *time.Duration) error {
	remaining := c.cfg.CooldownDuration
	for remaining > 0 {
		select {
		case frame, ok := <-c.frames:
			if !ok {
				c.shutdown(ph)
				return ErrChannelClosed
			}
			_ = frame // discarded during cooldown
			c.framesSeen++
			*clock += c.cfg.FrameDuration
			remaining -= c.cfg.FrameDuration

		case cmd := <-c.commands:
			if done, err := c.apply(cmd, ph); done {
				return err
			}
			if ph.state == StatePaused {
				return nil
			}

		case <-ctx.Done():
			c.shutdown(ph)
			return ctx.Err()
		}
	}

	c.buffers.Reset()
	c.utteranceID = ""
	c.transition(ph, listening())
	return nil
}

// transition replaces the phase, publishes a status snapshot, and notifies
// listeners
func (c *Controller) transition(ph *phase, next phase) {
	old := ph.state
	*ph = next
	c.publish(next.state)
	if old == next.state {
		return
	}
	for _, l := range c.listeners {
		l(old, next.state)
	}
}

// publish stores an immutable status snapshot for readers on other goroutines
func (c *Controller) publish(state State) {
	c.status.Store(&Status{
		State:       state,
		EnteredAt:   time.Now(),
		UtteranceID: c.utteranceID,
		Frames:      c.framesSeen,
		Utterances:  c.utterances,
	})
}

// emit sends a result without blocking the controller
func (c *Controller) emit(r Result) {
	select {
	case c.results <- r:
	default:
		c.logger.Error("result channel full, dropping result", "utterance", r.ID)
		c.obs.UtteranceDropped("result_channel_full")
	}
}

// report sends a recoverable error without blocking the controller
func (c *Controller) report(err error) {
	select {
	case c.errs <- err:
	default:
		c.logger.Error("error channel full, dropping error", "error", err)
	}
}
