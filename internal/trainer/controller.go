// Package trainer sequences the end-to-end trial workflow: fetch a prompt,
// synthesize accent audio, run playback, collect the typed transcript, and
// submit it for scoring. The controller owns all user-facing trial state and
// is the only writer of the playback session.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/accent-trainer/internal/accent"
	"github.com/snarg/accent-trainer/internal/events"
	"github.com/snarg/accent-trainer/internal/gateway"
	"github.com/snarg/accent-trainer/internal/metrics"
	"github.com/snarg/accent-trainer/internal/playback"
)

var (
	// ErrTrialNotReady is returned when submission is attempted without a
	// prompt and a non-empty transcript. The guard performs no gateway call
	// and no state transition.
	ErrTrialNotReady = errors.New("a prompt and a non-empty transcript are required before submission")

	// ErrUnknownAccent is returned for accent codes outside the configured set.
	ErrUnknownAccent = errors.New("unknown accent")
)

// Controller sequences trials and mediates between the gateway and the
// playback session. Each trial carries a monotonically increasing token;
// gateway responses for a superseded token are discarded, never applied.
type Controller struct {
	gw      gateway.Gateway
	session *playback.Session
	accents *accent.Set
	bus     *events.Bus
	log     zerolog.Logger

	trial atomic.Uint64

	mu         sync.Mutex
	state      State
	failedStep string
	prompt     string
	transcript string
	accentCode string
	score      *Score
}

// NewController creates an idle controller with the given default accent.
func NewController(gw gateway.Gateway, session *playback.Session, accents *accent.Set, bus *events.Bus, defaultAccent string, log zerolog.Logger) *Controller {
	return &Controller{
		gw:         gw,
		session:    session,
		accents:    accents,
		bus:        bus,
		log:        log.With().Str("component", "trainer").Logger(),
		state:      StateIdle,
		accentCode: defaultAccent,
	}
}

// StartNewTrial runs generation then synthesis for a fresh prompt, loads the
// playback session, and auto-plays. The prior score is cleared only on
// success; a failing step leaves prompt and score untouched.
func (c *Controller) StartNewTrial(ctx context.Context) error {
	token := c.trial.Add(1)

	c.mu.Lock()
	acc, ok := c.accents.Lookup(c.accentCode)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownAccent, c.accentCode)
	}
	c.state = StateGenerating
	c.failedStep = ""
	c.mu.Unlock()
	c.publishState()

	prompt, err := c.gw.FetchPrompt(ctx)
	if err != nil {
		return c.applyFailure(token, err, "start_trial")
	}

	c.mu.Lock()
	if !c.currentLocked(token) {
		c.mu.Unlock()
		c.discard(token, gateway.StepGeneration)
		return nil
	}
	c.prompt = prompt
	c.state = StateSynthesizing
	c.mu.Unlock()
	c.publishState()

	audio, err := c.gw.Synthesize(ctx, prompt, acc.VoiceID)
	if err != nil {
		return c.applyFailure(token, err, "start_trial")
	}

	if err := c.loadAndPlay(token, audio, gateway.StepSynthesis); err != nil {
		metrics.TrialsTotal.WithLabelValues("playback_error").Inc()
		return err
	}

	c.mu.Lock()
	if c.currentLocked(token) && c.state == StateReady {
		c.score = nil
	}
	c.mu.Unlock()
	c.publishState()
	metrics.TrialsTotal.WithLabelValues("success").Inc()

	c.log.Info().Uint64("trial", token).Str("accent", acc.Code).Msg("trial started")
	return nil
}

// ChangeAccent selects a new accent. With a live prompt it pauses playback,
// re-synthesizes the same prompt with the new voice, reloads, and resumes;
// without one it only updates the selection for the next trial.
func (c *Controller) ChangeAccent(ctx context.Context, code string) error {
	c.mu.Lock()
	acc, ok := c.accents.Lookup(code)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownAccent, code)
	}
	c.accentCode = code
	prompt := c.prompt
	c.mu.Unlock()

	if prompt == "" {
		c.publishState()
		return nil
	}

	// Pause strictly before reloading: the old resource keeps its position
	// until the replacement audio has actually arrived.
	c.session.Pause()
	token := c.trial.Add(1)

	c.mu.Lock()
	c.state = StateSynthesizing
	c.failedStep = ""
	c.mu.Unlock()
	c.publishState()

	audio, err := c.gw.Synthesize(ctx, prompt, acc.VoiceID)
	if err != nil {
		return c.applyFailure(token, err, "change_accent")
	}

	if err := c.loadAndPlay(token, audio, gateway.StepSynthesis); err != nil {
		return err
	}
	c.publishState()

	c.log.Info().Uint64("trial", token).Str("accent", code).Msg("accent changed, prompt re-synthesized")
	return nil
}

// UpdateTranscript stores the user's transcript. Allowed in any state; does
// not affect playback and survives across trials until explicitly replaced.
func (c *Controller) UpdateTranscript(text string) {
	c.mu.Lock()
	c.transcript = text
	c.mu.Unlock()
}

// SubmitTranscript scores the current transcript against the prompt.
// A guard failure is a pure no-op; a scoring failure preserves the
// transcript for resubmission.
func (c *Controller) SubmitTranscript(ctx context.Context) error {
	token := c.trial.Load()

	c.mu.Lock()
	if strings.TrimSpace(c.transcript) == "" || c.prompt == "" {
		c.mu.Unlock()
		return ErrTrialNotReady
	}
	transcript := c.transcript
	prompt := c.prompt
	c.state = StateScoring
	c.failedStep = ""
	c.mu.Unlock()
	c.publishState()

	value, err := c.gw.SubmitTranscript(ctx, transcript, prompt)
	if err != nil {
		return c.applyFailure(token, err, "submit_transcript")
	}

	c.mu.Lock()
	if !c.currentLocked(token) {
		c.mu.Unlock()
		c.discard(token, gateway.StepScoring)
		return nil
	}
	c.score = &Score{Value: value, Prompt: prompt}
	c.state = StateScored
	score := *c.score
	c.mu.Unlock()

	c.publishState()
	c.bus.Publish(events.TypeScore, score)
	c.log.Info().Float64("score", value).Msg("transcript scored")
	return nil
}

// Transport operations delegate to the playback session; the UI invokes
// them independently of the trial workflow.

func (c *Controller) Play()                    { c.session.Play() }
func (c *Controller) Pause()                   { c.session.Pause() }
func (c *Controller) Replay()                  { c.session.Replay() }
func (c *Controller) Seek(seconds float64)     { c.session.Seek(secondsToDuration(seconds)) }
func (c *Controller) SetSpeed(rate float64)    { c.session.SetSpeed(rate) }
func (c *Controller) AudioWAV() ([]byte, bool) { return c.session.ResourceWAV() }

// CurrentState returns the workflow state name, for scrape-time gauges.
func (c *Controller) CurrentState() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.String()
}

// Snapshot returns the full user-facing state including playback.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		State:      c.state.String(),
		FailedStep: c.failedStep,
		Accent:     c.accentCode,
		Transcript: c.transcript,
	}
	if c.score != nil {
		sc := *c.score
		snap.Score = &sc
	}
	c.mu.Unlock()

	snap.Playback = c.session.Snapshot()
	return snap
}

// loadAndPlay atomically replaces the playback resource and starts playback,
// unless the trial token has been superseded. failStep is recorded when the
// audio cannot be decoded.
func (c *Controller) loadAndPlay(token uint64, audio []byte, failStep string) error {
	c.mu.Lock()
	if !c.currentLocked(token) {
		c.mu.Unlock()
		c.discard(token, failStep)
		return nil
	}
	if err := c.session.Load(audio); err != nil {
		c.state = StateError
		c.failedStep = failStep
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("synthesized audio failed to load")
		c.bus.Publish(events.TypeError, stepError{Step: failStep, Message: err.Error()})
		c.publishState()
		return err
	}
	c.session.Play()
	c.state = StateReady
	c.mu.Unlock()
	return nil
}

// applyFailure transitions to Error for the step the error came from, unless
// the token is stale, in which case the result is discarded entirely.
func (c *Controller) applyFailure(token uint64, err error, op string) error {
	step := gateway.StepOf(err)

	c.mu.Lock()
	if !c.currentLocked(token) {
		c.mu.Unlock()
		c.discard(token, step)
		return nil
	}
	c.state = StateError
	c.failedStep = step
	c.mu.Unlock()

	c.log.Warn().Err(err).Str("op", op).Str("step", step).Msg("trial step failed")
	c.bus.Publish(events.TypeError, stepError{Step: step, Message: err.Error()})
	c.publishState()

	if op == "start_trial" {
		metrics.TrialsTotal.WithLabelValues(step + "_error").Inc()
	}
	return err
}

func (c *Controller) currentLocked(token uint64) bool {
	return c.trial.Load() == token
}

func (c *Controller) discard(token uint64, step string) {
	c.log.Debug().Uint64("trial", token).Str("step", step).Msg("stale gateway response discarded")
	metrics.TrialsTotal.WithLabelValues("superseded").Inc()
}

func (c *Controller) publishState() {
	c.bus.Publish(events.TypeState, c.Snapshot())
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
