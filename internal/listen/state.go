// ============================================================================
// EchoType - Hands-Free Dictation
// ============================================================================
//
// Package:     listen
// Description: Controller states, commands, and status snapshots
// Created:     2026-08-30
// License:     MIT
// ============================================================================

package listen

import (
	"time"
)

// State represents the controller's current mode
type State int

const (
	// StateListening - pre-roll rolling, waiting for a voiced frame
	StateListening State = iota

	// StateDetecting - voiced frames seen, waiting for minimum speech
	StateDetecting

	// StateRecording - utterance capture in progress
	StateRecording

	// StateProcessing - utterance dispatched to transcription
	StateProcessing

	// StatePaused - muted, frames are not captured
	StatePaused

	// StateStopped - controller has shut down
	StateStopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateDetecting:
		return "detecting"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Command is a control input that preempts audio-driven transitions
type Command int

const (
	// CommandPause mutes the controller and discards any in-flight utterance
	CommandPause Command = iota

	// CommandResume returns a paused controller to listening with empty buffers
	CommandResume

	// CommandStop shuts the controller down
	CommandStop
)

// String returns the string representation of the command
func (c Command) String() string {
	switch c {
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	case CommandStop:
		return "stop"
	default:
		return "unknown"
	}
}

// phase is the controller's state together with the frame-clock data that
// belongs to it. Detecting and Recording carry their entry point on the
// clock; voiced and silence accumulate only in the state they belong to, so
// a transition replaces the whole value rather than mutating shared timers.
type phase struct {
	state   State
	entered time.Duration // frame-clock time the state was entered
	voiced  time.Duration // Detecting: cumulative voiced time
	silence time.Duration // Recording: current silence run
}

func listening() phase {
	return phase{state: StateListening}
}

func detecting(now, firstVoiced time.Duration) phase {
	return phase{state: StateDetecting, entered: now, voiced: firstVoiced}
}

func recording(now time.Duration) phase {
	return phase{state: StateRecording, entered: now}
}

func processing(now time.Duration) phase {
	return phase{state: StateProcessing, entered: now}
}

func paused() phase {
	return phase{state: StatePaused}
}

// Status is an immutable snapshot of the controller, published atomically at
// transition points for display layers. Readers never see live state.
type Status struct {
	// State is the controller state at snapshot time
	State State

	// EnteredAt is the wall-clock time the state was entered
	EnteredAt time.Time

	// UtteranceID identifies the utterance being recorded or processed
	UtteranceID string

	// Frames is the total number of audio frames consumed
	Frames uint64

	// Utterances is the number of utterances dispatched so far
	Utterances uint64
}

// StateListener is notified after each state transition. Listeners run on
// the controller goroutine and must not block.
type StateListener func(old, new State)
