// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     version
// Description: Central version management
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package version

// Version is the application version, overridable via -ldflags at build time
var Version = "0.3.0"

// Commit is the git commit the binary was built from
var Commit = "unknown"

// String returns the full version string
func String() string {
	if Commit == "unknown" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
