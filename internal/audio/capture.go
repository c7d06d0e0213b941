// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     audio
// Description: Microphone capture using PortAudio
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture reads fixed-size frames from an input device and delivers them on
// a bounded channel. A slow consumer costs dropped frames here, never
// unbounded growth.
type Capture struct {
	mu          sync.RWMutex
	stream      *portaudio.Stream
	sampleRate  float64
	frameSize   int
	channels    int
	deviceName  string
	running     bool
	frames      chan []float32
	dropped     uint64
	logger      *slog.Logger
	initialized bool
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	SampleRate int
	FrameSize  int    // samples per delivered frame
	Channels   int    // mono expected
	DeviceName string // input device name (empty = default)
	QueueSize  int    // frame channel capacity (default 64)
}

// NewCapture initializes PortAudio and prepares a capture instance
func NewCapture(cfg CaptureConfig, logger *slog.Logger) (*Capture, error) {
	if cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", cfg.FrameSize)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &Capture{
		sampleRate:  float64(cfg.SampleRate),
		frameSize:   cfg.FrameSize,
		channels:    cfg.Channels,
		deviceName:  cfg.DeviceName,
		frames:      make(chan []float32, cfg.QueueSize),
		logger:      logger,
		initialized: true,
	}, nil
}

// Start opens the input stream and begins delivering frames
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	buffer := make([]float32, c.frameSize)

	stream, err := c.openStream(buffer)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	c.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	c.running = true
	go c.captureLoop(ctx, buffer)

	return nil
}

// openStream opens the configured device, falling back to the default input
func (c *Capture) openStream(buffer []float32) (*portaudio.Stream, error) {
	if c.deviceName != "" && c.deviceName != "default" {
		device, err := findInputDevice(c.deviceName)
		if err == nil {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: c.channels,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      c.sampleRate,
				FramesPerBuffer: c.frameSize,
			}
			return portaudio.OpenStream(params, buffer)
		}
		c.logger.Warn("input device not found, using default", "device", c.deviceName, "error", err)
	}

	return portaudio.OpenDefaultStream(c.channels, 0, c.sampleRate, c.frameSize, buffer)
}

// captureLoop reads frames from the stream until stopped
func (c *Capture) captureLoop(ctx context.Context, buffer []float32) {
	defer close(c.frames)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		running, stream := c.running, c.stream
		c.mu.RUnlock()
		if !running || stream == nil {
			return
		}

		if err := stream.Read(); err != nil {
			c.mu.RLock()
			stillRunning := c.running
			c.mu.RUnlock()
			if !stillRunning {
				return
			}
			c.logger.Debug("stream read failed", "error", err)
			continue
		}

		frame := make([]float32, len(buffer))
		copy(frame, buffer)

		select {
		case c.frames <- frame:
		default:
			// Consumer is behind; dropping here is the capture side's call
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
		}
	}
}

// Stop stops the input stream
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false

	if c.stream != nil {
		if err := c.stream.Stop(); err != nil {
			c.logger.Warn("failed to stop stream", "error", err)
		}
		if err := c.stream.Close(); err != nil {
			return fmt.Errorf("failed to close audio stream: %w", err)
		}
		c.stream = nil
	}

	return nil
}

// Close stops capture and terminates PortAudio
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("failed to terminate PortAudio: %w", err)
		}
		c.initialized = false
	}

	return nil
}

// Frames returns the channel delivering captured frames. The channel closes
// when capture ends.
func (c *Capture) Frames() <-chan []float32 {
	return c.frames
}

// Dropped returns how many frames were discarded because the consumer fell
// behind
func (c *Capture) Dropped() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropped
}

// IsRunning reports whether capture is active
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}
