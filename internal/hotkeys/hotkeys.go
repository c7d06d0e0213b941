// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     hotkeys
// Description: Global hotkey bindings
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package hotkeys

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.design/x/hotkey"
)

// Binding is one parsed hotkey combination
type Binding struct {
	Modifiers []hotkey.Modifier
	Key       hotkey.Key
}

// Parse converts a string like "ctrl+shift+space" into a binding. Supported
// modifiers are ctrl and shift; supported keys are letters, digits, and
// space.
func Parse(s string) (Binding, error) {
	var b Binding
	keySet := false

	for _, part := range strings.Split(s, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch part {
		case "ctrl", "control":
			b.Modifiers = append(b.Modifiers, hotkey.ModCtrl)
		case "shift":
			b.Modifiers = append(b.Modifiers, hotkey.ModShift)
		case "":
			return Binding{}, fmt.Errorf("empty segment in hotkey %q", s)
		default:
			if keySet {
				return Binding{}, fmt.Errorf("multiple keys in hotkey %q", s)
			}
			key, err := parseKey(part)
			if err != nil {
				return Binding{}, err
			}
			b.Key = key
			keySet = true
		}
	}

	if !keySet {
		return Binding{}, fmt.Errorf("no key in hotkey %q", s)
	}
	return b, nil
}

// parseKey maps a key name to a hotkey.Key
func parseKey(s string) (hotkey.Key, error) {
	if s == "space" {
		return hotkey.KeySpace, nil
	}
	if len(s) == 1 {
		c := s[0]
		if c >= 'a' && c <= 'z' {
			return letterKeys[c-'a'], nil
		}
		if c >= '0' && c <= '9' {
			return digitKeys[c-'0'], nil
		}
	}
	return 0, fmt.Errorf("unsupported key: %s", s)
}

var letterKeys = [26]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE,
	hotkey.KeyF, hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ,
	hotkey.KeyK, hotkey.KeyL, hotkey.KeyM, hotkey.KeyN, hotkey.KeyO,
	hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR, hotkey.KeyS, hotkey.KeyT,
	hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX, hotkey.KeyY,
	hotkey.KeyZ,
}

var digitKeys = [10]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

// Manager registers global hotkeys and dispatches their callbacks
type Manager struct {
	logger *slog.Logger
	keys   []*hotkey.Hotkey
	stop   chan struct{}
}

// NewManager creates a hotkey manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Register binds a hotkey string to a callback. On macOS registration is
// skipped: the hotkey library is known to crash there under CGO, the same
// actions stay reachable through the tray menu.
func (m *Manager) Register(combo string, fn func()) error {
	if runtime.GOOS == "darwin" {
		m.logger.Info("hotkey disabled on macOS, use the tray menu", "hotkey", combo)
		return nil
	}

	binding, err := Parse(combo)
	if err != nil {
		return fmt.Errorf("failed to parse hotkey: %w", err)
	}

	hk := hotkey.New(binding.Modifiers, binding.Key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey %q: %w", combo, err)
	}
	m.keys = append(m.keys, hk)

	go func() {
		for {
			select {
			case <-hk.Keydown():
				m.logger.Debug("hotkey pressed", "hotkey", combo)
				fn()
			case <-m.stop:
				return
			}
		}
	}()

	m.logger.Info("hotkey registered", "hotkey", combo)
	return nil
}

// Close unregisters all hotkeys
func (m *Manager) Close() {
	close(m.stop)
	for _, hk := range m.keys {
		if err := hk.Unregister(); err != nil {
			m.logger.Warn("failed to unregister hotkey", "error", err)
		}
	}
	m.keys = nil
}
