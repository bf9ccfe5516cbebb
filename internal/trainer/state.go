package trainer

import (
	"github.com/snarg/accent-trainer/internal/playback"
)

// State is the trial workflow state.
type State int

const (
	// StateIdle indicates no trial has been started.
	StateIdle State = iota
	// StateGenerating indicates the prompt text is being fetched.
	StateGenerating
	// StateSynthesizing indicates audio is being synthesized for the prompt.
	StateSynthesizing
	// StateReady indicates audio is loaded and the trial is in progress.
	StateReady
	// StateScoring indicates the transcript has been submitted for scoring.
	StateScoring
	// StateScored indicates a score has been received for this trial.
	StateScored
	// StateError indicates a gateway step failed; FailedStep names it.
	StateError
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateSynthesizing:
		return "synthesizing"
	case StateReady:
		return "ready"
	case StateScoring:
		return "scoring"
	case StateScored:
		return "scored"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Score is the result of one scored submission. Immutable once set; cleared
// when the next trial starts.
type Score struct {
	Value  float64 `json:"value"`
	Prompt string  `json:"prompt"`
}

// Snapshot is the user-facing controller state.
type Snapshot struct {
	State      string            `json:"state"`
	FailedStep string            `json:"failed_step,omitempty"`
	Accent     string            `json:"accent"`
	Transcript string            `json:"transcript"`
	Score      *Score            `json:"score,omitempty"`
	Playback   playback.Snapshot `json:"playback"`
}

// stepError is the payload of an error event.
type stepError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}
