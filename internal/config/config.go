// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     config
// Description: TOML application configuration
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/echotype/echotype/internal/listen"
)

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general"`
	Listen  ListenConfig  `toml:"listen"`
	VAD     VADConfig     `toml:"vad"`
	Audio   AudioConfig   `toml:"audio"`
	STT     STTConfig     `toml:"stt"`
	Output  OutputConfig  `toml:"output"`
	Hotkeys HotkeysConfig `toml:"hotkeys"`
	Tray    TrayConfig    `toml:"tray"`
	Metrics MetricsConfig `toml:"metrics"`
	Models  ModelsConfig  `toml:"models"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// ListenConfig holds the always-listen controller parameters
type ListenConfig struct {
	PreRollDuration      Duration `toml:"pre_roll_duration"`
	MinSpeechDuration    Duration `toml:"min_speech_duration"`
	PostSilenceDuration  Duration `toml:"post_silence_duration"`
	VADThreshold         float64  `toml:"vad_threshold"`
	MaxUtteranceDuration Duration `toml:"max_utterance_duration"`
	CooldownDuration     Duration `toml:"cooldown_duration"`
	FrameDuration        Duration `toml:"frame_duration"`
	SampleRate           int      `toml:"sample_rate"`
	MinUtteranceDuration Duration `toml:"min_utterance_duration"`
}

// Controller converts the TOML section into a controller configuration
func (l ListenConfig) Controller() listen.Config {
	return listen.Config{
		PreRollDuration:      l.PreRollDuration.Duration,
		MinSpeechDuration:    l.MinSpeechDuration.Duration,
		PostSilenceDuration:  l.PostSilenceDuration.Duration,
		VADThreshold:         l.VADThreshold,
		MaxUtteranceDuration: l.MaxUtteranceDuration.Duration,
		CooldownDuration:     l.CooldownDuration.Duration,
		FrameDuration:        l.FrameDuration.Duration,
		SampleRate:           l.SampleRate,
		MinUtteranceDuration: l.MinUtteranceDuration.Duration,
	}
}

// VADConfig holds voice-activity engine settings
type VADConfig struct {
	Engine    string  `toml:"engine"`    // energy, flux, or webrtc
	Smoothing float64 `toml:"smoothing"` // energy engine EMA factor
	Mode      int     `toml:"mode"`      // webrtc aggressiveness 0-3
}

// AudioConfig holds capture settings
type AudioConfig struct {
	Device   string `toml:"device"` // input device name (empty = default)
	Channels int    `toml:"channels"`
}

// STTConfig holds transcription backend settings
type STTConfig struct {
	Backend  string   `toml:"backend"` // http or websocket
	URL      string   `toml:"url"`
	Language string   `toml:"language"`
	Timeout  Duration `toml:"timeout"`
}

// OutputConfig holds text sink settings
type OutputConfig struct {
	Sink string `toml:"sink"` // stdout or clipboard
}

// HotkeysConfig holds global hotkey bindings
type HotkeysConfig struct {
	Enabled     bool   `toml:"enabled"`
	PauseResume string `toml:"pause_resume"`
	Stop        string `toml:"stop"`
}

// TrayConfig holds system-tray settings
type TrayConfig struct {
	Enabled bool `toml:"enabled"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}

// ModelsConfig holds the model store settings
type ModelsConfig struct {
	Dir string `toml:"dir"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from the ECHOTYPE_CONFIG environment
// variable or the default locations, falling back to built-in defaults when
// no file exists
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("ECHOTYPE_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./echotype.toml",
			"./configs/echotype.toml",
			filepath.Join(os.Getenv("HOME"), ".config/echotype/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

// Save writes the configuration back to a TOML file, creating parent
// directories as needed
func (c *Config) Save(path string) error {
	path = os.ExpandEnv(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	ctrl := listen.DefaultConfig()
	if c.Listen.PreRollDuration.Duration == 0 {
		c.Listen.PreRollDuration.Duration = ctrl.PreRollDuration
	}
	if c.Listen.MinSpeechDuration.Duration == 0 {
		c.Listen.MinSpeechDuration.Duration = ctrl.MinSpeechDuration
	}
	if c.Listen.PostSilenceDuration.Duration == 0 {
		c.Listen.PostSilenceDuration.Duration = ctrl.PostSilenceDuration
	}
	if c.Listen.VADThreshold == 0 {
		c.Listen.VADThreshold = ctrl.VADThreshold
	}
	if c.Listen.MaxUtteranceDuration.Duration == 0 {
		c.Listen.MaxUtteranceDuration.Duration = ctrl.MaxUtteranceDuration
	}
	if c.Listen.CooldownDuration.Duration == 0 {
		c.Listen.CooldownDuration.Duration = ctrl.CooldownDuration
	}
	if c.Listen.FrameDuration.Duration == 0 {
		c.Listen.FrameDuration.Duration = ctrl.FrameDuration
	}
	if c.Listen.SampleRate == 0 {
		c.Listen.SampleRate = ctrl.SampleRate
	}
	if c.Listen.MinUtteranceDuration.Duration == 0 {
		c.Listen.MinUtteranceDuration.Duration = ctrl.MinUtteranceDuration
	}

	if c.VAD.Engine == "" {
		c.VAD.Engine = "energy"
	}

	if c.Audio.Channels == 0 {
		c.Audio.Channels = 1
	}

	if c.STT.Backend == "" {
		c.STT.Backend = "http"
	}
	if c.STT.URL == "" {
		c.STT.URL = "http://localhost:8089"
	}
	if c.STT.Language == "" {
		c.STT.Language = "en"
	}
	if c.STT.Timeout.Duration == 0 {
		c.STT.Timeout.Duration = 60 * time.Second
	}

	if c.Output.Sink == "" {
		c.Output.Sink = "stdout"
	}

	if c.Hotkeys.PauseResume == "" {
		c.Hotkeys.PauseResume = "ctrl+shift+space"
	}
	if c.Hotkeys.Stop == "" {
		c.Hotkeys.Stop = "ctrl+shift+q"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "localhost:9477"
	}

	if c.Models.Dir == "" {
		c.Models.Dir = filepath.Join(os.Getenv("HOME"), ".local/share/echotype/models")
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := c.Listen.Controller().Validate(); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	switch c.VAD.Engine {
	case "energy", "flux", "webrtc":
	default:
		return fmt.Errorf("vad: unknown engine %q", c.VAD.Engine)
	}
	if c.VAD.Smoothing < 0 || c.VAD.Smoothing > 1 {
		return fmt.Errorf("vad: smoothing must be in [0,1], got %f", c.VAD.Smoothing)
	}
	if c.VAD.Mode < 0 || c.VAD.Mode > 3 {
		return fmt.Errorf("vad: mode must be in 0-3, got %d", c.VAD.Mode)
	}

	if c.Audio.Channels != 1 {
		return fmt.Errorf("audio: only mono capture is supported, got %d channels", c.Audio.Channels)
	}

	switch c.STT.Backend {
	case "http", "websocket":
	default:
		return fmt.Errorf("stt: unknown backend %q", c.STT.Backend)
	}
	if c.STT.URL == "" {
		return fmt.Errorf("stt: url is required")
	}

	switch c.Output.Sink {
	case "stdout", "clipboard":
	default:
		return fmt.Errorf("output: unknown sink %q", c.Output.Sink)
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics: listen_addr is required when enabled")
	}

	return nil
}
