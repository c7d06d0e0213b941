// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     listen
// Description: Tests for the always-listen controller
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package listen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/echotype/echotype/internal/vad"
	"github.com/echotype/echotype/pkg/core/logging"
)

const waitTimeout = 5 * time.Second

// scriptEngine scores each frame with the value of its first sample, so a
// test script can steer the state machine frame by frame.
type scriptEngine struct {
	frameSize int
	fail      error // non-nil makes every Score call fail
}

func (e *scriptEngine) Score(frame []float32) (float64, error) {
	if len(frame) != e.frameSize {
		return 0, fmt.Errorf("%w: got %d samples, want %d", vad.ErrInvalidFrameSize, len(frame), e.frameSize)
	}
	if e.fail != nil {
		return 0, e.fail
	}
	return float64(frame[0]), nil
}

func (e *scriptEngine) Reset()       {}
func (e *scriptEngine) Close() error { return nil }

type fakeTranscriber struct {
	mu    sync.Mutex
	calls [][]float32
	text  string
	err   error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, samples []float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, samples)
	return f.text, f.err
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTranscriber) call(i int) []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// quickConfig keeps tests small: 30ms frames at 16kHz, 5-frame pre-roll,
// 3-frame minimum speech, 5-frame silence timeout
func quickConfig() Config {
	return Config{
		PreRollDuration:      150 * time.Millisecond,
		MinSpeechDuration:    90 * time.Millisecond,
		PostSilenceDuration:  150 * time.Millisecond,
		VADThreshold:         0.5,
		MaxUtteranceDuration: 1 * time.Second,
		CooldownDuration:     0,
		FrameDuration:        30 * time.Millisecond,
		SampleRate:           16000,
		MinUtteranceDuration: 0,
	}
}

type harness struct {
	t           *testing.T
	cfg         Config
	ctrl        *Controller
	engine      *scriptEngine
	transcriber *fakeTranscriber
	frames      chan []float32
	transitions chan State
	done        chan error
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	engine := &scriptEngine{frameSize: cfg.FrameSize()}
	transcriber := &fakeTranscriber{text: "hello world"}
	frames := make(chan []float32)

	ctrl, err := NewController(cfg, engine, transcriber, frames, logging.Discard())
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}

	h := &harness{
		t:           t,
		cfg:         cfg,
		ctrl:        ctrl,
		engine:      engine,
		transcriber: transcriber,
		frames:      frames,
		transitions: make(chan State, 256),
		done:        make(chan error, 1),
	}
	ctrl.AddStateListener(func(_, next State) {
		h.transitions <- next
	})

	go func() {
		h.done <- ctrl.Run(context.Background())
	}()
	return h
}

// frame builds one frame whose VAD score is the given value
func (h *harness) frame(score float64) []float32 {
	f := make([]float32, h.cfg.FrameSize())
	f[0] = float32(score)
	return f
}

func (h *harness) sendFrames(score float64, n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		select {
		case h.frames <- h.frame(score):
		case <-time.After(waitTimeout):
			h.t.Fatalf("timed out sending frame %d at score %f", i, score)
		}
	}
}

// finish closes the frame channel and waits for the run loop to exit
func (h *harness) finish() error {
	h.t.Helper()
	close(h.frames)
	select {
	case err := <-h.done:
		return err
	case <-time.After(waitTimeout):
		h.t.Fatal("controller did not shut down")
		return nil
	}
}

// stop sends a Stop command and waits for the run loop to exit
func (h *harness) stop() error {
	h.t.Helper()
	h.ctrl.Stop()
	select {
	case err := <-h.done:
		return err
	case <-time.After(waitTimeout):
		h.t.Fatal("controller did not stop")
		return nil
	}
}

// waitState blocks until the controller transitions into the given state
func (h *harness) waitState(want State) {
	h.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s := <-h.transitions:
			if s == want {
				return
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

// collectResults drains the (closed) results channel after shutdown
func (h *harness) collectResults() []Result {
	var out []Result
	for r := range h.ctrl.Results() {
		out = append(out, r)
	}
	return out
}

func TestSilenceNeverLeavesListening(t *testing.T) {
	h := newHarness(t, quickConfig())

	h.sendFrames(0.1, 50)
	err := h.finish()

	if !errors.Is(err, ErrChannelClosed) {
		t.Errorf("expected ErrChannelClosed, got %v", err)
	}
	if n := h.transcriber.callCount(); n != 0 {
		t.Errorf("expected no transcriptions for pure silence, got %d", n)
	}
	if results := h.collectResults(); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}

	// The only transition is the shutdown one
	for {
		select {
		case s := <-h.transitions:
			if s != StateStopped {
				t.Errorf("unexpected transition to %v under silence", s)
			}
			continue
		default:
		}
		break
	}
}

// Mirrors the reference timeline: frame_duration=30ms, threshold=0.7,
// min_speech=300ms, post_silence=800ms, pre_roll=500ms. Ten silent frames,
// fifteen voiced frames (detection starts at frame 11, recording at frame
// 20), then silence until 27 silent frames confirm the cutoff.
func TestUtteranceTimeline(t *testing.T) {
	cfg := Config{
		PreRollDuration:      500 * time.Millisecond,
		MinSpeechDuration:    300 * time.Millisecond,
		PostSilenceDuration:  800 * time.Millisecond,
		VADThreshold:         0.7,
		MaxUtteranceDuration: 30 * time.Second,
		CooldownDuration:     0,
		FrameDuration:        30 * time.Millisecond,
		SampleRate:           16000,
		MinUtteranceDuration: 0,
	}
	h := newHarness(t, cfg)

	h.sendFrames(0.1, 10)
	h.sendFrames(0.9, 15)
	h.sendFrames(0.1, 30)

	err := h.finish()
	if !errors.Is(err, ErrChannelClosed) {
		t.Errorf("expected ErrChannelClosed, got %v", err)
	}

	if n := h.transcriber.callCount(); n != 1 {
		t.Fatalf("expected exactly one transcription, got %d", n)
	}

	// Pre-roll ring is full (500ms = 8000 samples) when recording starts at
	// frame 20; the 5 remaining voiced frames (21-25) and the 27 silent
	// frames leading up to the cutoff are recorded after the snapshot.
	frameSize := cfg.FrameSize()
	wantSamples := cfg.PreRollSamples() + 32*frameSize
	if got := len(h.transcriber.call(0)); got != wantSamples {
		t.Errorf("utterance length = %d samples, want %d", got, wantSamples)
	}

	results := h.collectResults()
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	if results[0].Text != "hello world" {
		t.Errorf("result text = %q, want %q", results[0].Text, "hello world")
	}
	if results[0].Samples != wantSamples {
		t.Errorf("result samples = %d, want %d", results[0].Samples, wantSamples)
	}
	if results[0].ID == "" {
		t.Error("expected result to carry an utterance id")
	}
}

func TestFalseStartEmitsNothing(t *testing.T) {
	h := newHarness(t, quickConfig())

	// Two voiced frames (60ms) fall short of the 90ms minimum
	h.sendFrames(0.1, 10)
	h.sendFrames(0.9, 2)
	h.sendFrames(0.1, 20)

	h.finish()

	if n := h.transcriber.callCount(); n != 0 {
		t.Errorf("expected no transcriptions after false start, got %d", n)
	}
	if results := h.collectResults(); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestHardCutoffWithoutSilence(t *testing.T) {
	cfg := quickConfig()
	cfg.MaxUtteranceDuration = 600 * time.Millisecond // 20 frames
	h := newHarness(t, cfg)

	// Frames 1-3 confirm speech; recording runs from frame 3 until the hard
	// cap trips 20 frames later at frame 23. No silence is ever observed.
	h.sendFrames(0.9, 23)

	err := h.finish()
	if !errors.Is(err, ErrChannelClosed) {
		t.Errorf("expected ErrChannelClosed, got %v", err)
	}

	if n := h.transcriber.callCount(); n != 1 {
		t.Fatalf("expected exactly one transcription, got %d", n)
	}

	// 3 pre-roll frames in the snapshot plus frames 4-23 recorded
	wantSamples := 3*cfg.FrameSize() + 20*cfg.FrameSize()
	if got := len(h.transcriber.call(0)); got != wantSamples {
		t.Errorf("utterance length = %d samples, want %d", got, wantSamples)
	}
}

func TestPauseWinsOverVoice(t *testing.T) {
	h := newHarness(t, quickConfig())

	// Get into Recording, then pause mid-utterance
	h.sendFrames(0.9, 5)
	h.waitState(StateRecording)

	h.ctrl.Pause()
	// The command is applied before the next frame's VAD logic runs
	h.sendFrames(0.9, 1)
	h.waitState(StatePaused)

	status := h.ctrl.Status()
	if status.State != StatePaused {
		t.Errorf("status state = %v, want %v", status.State, StatePaused)
	}
	if status.UtteranceID != "" {
		t.Error("expected in-flight utterance to be discarded on pause")
	}

	if err := h.stop(); err != nil {
		t.Errorf("expected clean stop, got %v", err)
	}
	if n := h.transcriber.callCount(); n != 0 {
		t.Errorf("expected no transcriptions, got %d", n)
	}
}

func TestResumeStartsWithEmptyPreRoll(t *testing.T) {
	h := newHarness(t, quickConfig())

	// Fill the pre-roll, then pause and resume
	h.sendFrames(0.1, 10)
	h.ctrl.Pause()
	h.sendFrames(0.1, 1) // delivery forces the command to be observed
	h.waitState(StatePaused)

	h.ctrl.Resume()
	h.waitState(StateListening)

	// A complete utterance after resume: 3 voiced frames confirm, 5 silent
	// frames end it
	h.sendFrames(0.9, 3)
	h.sendFrames(0.1, 5)

	h.finish()

	if n := h.transcriber.callCount(); n != 1 {
		t.Fatalf("expected one transcription after resume, got %d", n)
	}

	// Pre-roll snapshot holds only the 3 post-resume voiced frames; the
	// audio captured before the pause is gone
	wantSamples := 3*h.cfg.FrameSize() + 5*h.cfg.FrameSize()
	if got := len(h.transcriber.call(0)); got != wantSamples {
		t.Errorf("utterance length = %d samples, want %d", got, wantSamples)
	}
}

func TestTranscriptionFailureDoesNotWedge(t *testing.T) {
	h := newHarness(t, quickConfig())
	h.transcriber.err = errors.New("backend unavailable")

	// First utterance fails, machine re-arms, second one also runs
	h.sendFrames(0.9, 3)
	h.sendFrames(0.1, 5)
	h.waitState(StateListening)

	h.sendFrames(0.9, 3)
	h.sendFrames(0.1, 5)

	h.finish()

	if n := h.transcriber.callCount(); n != 2 {
		t.Errorf("expected two transcription attempts, got %d", n)
	}
	if results := h.collectResults(); len(results) != 0 {
		t.Errorf("expected no results from failed transcriptions, got %d", len(results))
	}

	var reported int
	for err := range h.ctrl.Errors() {
		if !errors.Is(err, ErrTranscriptionFailed) {
			t.Errorf("expected ErrTranscriptionFailed, got %v", err)
		}
		reported++
	}
	if reported != 2 {
		t.Errorf("expected two reported errors, got %d", reported)
	}
}

func TestShortUtteranceDropped(t *testing.T) {
	cfg := quickConfig()
	cfg.MinUtteranceDuration = 2 * time.Second
	h := newHarness(t, cfg)

	h.sendFrames(0.9, 3)
	h.sendFrames(0.1, 5)
	h.waitState(StateListening)

	h.finish()

	if n := h.transcriber.callCount(); n != 0 {
		t.Errorf("expected short utterance to be dropped before dispatch, got %d calls", n)
	}
}

func TestCooldownSwallowsTrailingAudio(t *testing.T) {
	cfg := quickConfig()
	cfg.CooldownDuration = 90 * time.Millisecond // 3 frames
	h := newHarness(t, cfg)

	h.sendFrames(0.9, 3)
	h.sendFrames(0.1, 5)

	// These voiced frames land inside processing/cooldown and are discarded;
	// without the cooldown they would confirm a second utterance
	h.sendFrames(0.9, 3)
	h.sendFrames(0.1, 1)

	h.finish()

	if n := h.transcriber.callCount(); n != 1 {
		t.Errorf("expected one transcription, got %d", n)
	}
}

func TestInvalidFrameSizeIsFatal(t *testing.T) {
	h := newHarness(t, quickConfig())

	select {
	case h.frames <- make([]float32, 3):
	case <-time.After(waitTimeout):
		t.Fatal("timed out sending frame")
	}

	select {
	case err := <-h.done:
		if !errors.Is(err, vad.ErrInvalidFrameSize) {
			t.Errorf("expected ErrInvalidFrameSize, got %v", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("controller did not terminate on invalid frame size")
	}
}

func TestScoringErrorTreatedAsSilence(t *testing.T) {
	h := newHarness(t, quickConfig())
	h.engine.fail = errors.New("filter blew up")

	h.sendFrames(0.9, 20)
	err := h.finish()

	if !errors.Is(err, ErrChannelClosed) {
		t.Errorf("expected ErrChannelClosed, got %v", err)
	}
	if n := h.transcriber.callCount(); n != 0 {
		t.Errorf("expected failing engine to yield silence, got %d transcriptions", n)
	}
}

func TestStopIsTerminal(t *testing.T) {
	h := newHarness(t, quickConfig())

	h.sendFrames(0.1, 3)
	if err := h.stop(); err != nil {
		t.Errorf("expected nil from stopped run loop, got %v", err)
	}
	if s := h.ctrl.Status().State; s != StateStopped {
		t.Errorf("status state = %v, want %v", s, StateStopped)
	}
}

func TestStatusSnapshots(t *testing.T) {
	h := newHarness(t, quickConfig())

	if s := h.ctrl.Status(); s.State != StateListening {
		t.Errorf("initial state = %v, want %v", s.State, StateListening)
	}

	h.sendFrames(0.9, 3)
	h.waitState(StateRecording)

	status := h.ctrl.Status()
	if status.State != StateRecording {
		t.Errorf("status state = %v, want %v", status.State, StateRecording)
	}
	if status.UtteranceID == "" {
		t.Error("expected an utterance id while recording")
	}

	h.stop()
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"zero frame duration", func(c *Config) { c.FrameDuration = 0 }},
		{"zero pre-roll", func(c *Config) { c.PreRollDuration = 0 }},
		{"zero min speech", func(c *Config) { c.MinSpeechDuration = 0 }},
		{"zero post silence", func(c *Config) { c.PostSilenceDuration = 0 }},
		{"threshold above one", func(c *Config) { c.VADThreshold = 1.5 }},
		{"negative cooldown", func(c *Config) { c.CooldownDuration = -time.Second }},
		{"max utterance below floor", func(c *Config) { c.MaxUtteranceDuration = 400 * time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}
