// Package gateway wraps the three outbound services a trial depends on:
// prompt generation, speech synthesis, and transcript scoring. Each call is
// an independent round trip with its own typed error; no retries, no local
// state — the caller owns all state transitions.
package gateway

import (
	"context"
	"fmt"
)

// Gateway is the interface for the remote trial services.
type Gateway interface {
	// FetchPrompt returns the generated prompt text for a new trial.
	FetchPrompt(ctx context.Context) (string, error)

	// Synthesize returns raw audio for the text spoken with the given voice.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)

	// SubmitTranscript scores the user's transcript against the ground truth.
	SubmitTranscript(ctx context.Context, transcript, groundTruth string) (float64, error)
}

// Workflow step names, recorded on controller errors for targeted retry.
const (
	StepGeneration = "generation"
	StepSynthesis  = "synthesis"
	StepScoring    = "scoring"
)

// GenerationError reports a failed or malformed prompt-generation call.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }
func (e *GenerationError) Step() string  { return StepGeneration }

// SynthesisError reports a failed or malformed speech-synthesis call.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("synthesis: %v", e.Err) }
func (e *SynthesisError) Unwrap() error { return e.Err }
func (e *SynthesisError) Step() string  { return StepSynthesis }

// ScoringError reports a failed or malformed transcript-scoring call.
type ScoringError struct {
	Err error
}

func (e *ScoringError) Error() string { return fmt.Sprintf("scoring: %v", e.Err) }
func (e *ScoringError) Unwrap() error { return e.Err }
func (e *ScoringError) Step() string  { return StepScoring }

// StepOf returns the workflow step an error originated from, or "" for
// errors the gateway did not produce.
func StepOf(err error) string {
	type stepper interface{ Step() string }
	if s, ok := err.(stepper); ok {
		return s.Step()
	}
	return ""
}
