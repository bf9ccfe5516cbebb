// Package playback manages the lifecycle of a single synthesized audio
// resource: transport operations (play, pause, replay, seek, speed), derived
// position state, and a fixed-cadence progress sampler. Playback is a virtual
// transport clock over the decoded PCM duration, so the state machine is
// deterministic and needs no audio hardware.
package playback

import (
	"sync"
	"time"
)

// Snapshot is the derived playback state published to consumers.
type Snapshot struct {
	State       string  `json:"state"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	IsPlaying   bool    `json:"is_playing"`
	Speed       float64 `json:"speed"`
}

// Session owns at most one audio Resource and its playback lifecycle.
// State machine: Empty → Loaded → Playing ⇄ Paused → Ended; Load from any
// state releases the old resource and restarts at Loaded.
type Session struct {
	mu       sync.Mutex
	now      func() time.Time
	format   Format
	interval time.Duration
	publish  func(Snapshot)

	res     *Resource
	state   State
	speed   float64
	base    time.Duration // position accumulated up to the last anchor
	anchor  time.Time     // wall time of the last transition into Playing
	sampler *sampler
}

type sampler struct {
	stop chan struct{}
}

// NewSession creates an empty session. publish, if non-nil, receives a
// snapshot on every transition and on each sampler tick while playing.
// Sampler ticks are published under the session lock, so publish must not
// call back into the session.
func NewSession(format Format, interval time.Duration, publish func(Snapshot)) *Session {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Session{
		now:      time.Now,
		format:   format,
		interval: interval,
		publish:  publish,
		state:    StateEmpty,
		speed:    1.0,
	}
}

// Load decodes synthesized bytes into a new resource. The previous resource
// is released first; a decode failure leaves the session state untouched.
// Duration is known once Load returns and is announced via publish.
func (s *Session) Load(data []byte) error {
	res, err := decodeResource(data, s.format)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stopSamplerLocked()
	if s.res != nil {
		s.res.release()
	}
	s.res = res
	s.state = StateLoaded
	s.base = 0
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
	return nil
}

// Play starts or resumes playback at the current speed. No-op when no
// resource is loaded or already playing; from Ended it restarts at zero.
func (s *Session) Play() {
	s.mu.Lock()
	if s.res == nil || s.state == StatePlaying {
		s.mu.Unlock()
		return
	}
	if s.state == StateEnded {
		s.base = 0
	}
	s.anchor = s.now()
	s.state = StatePlaying
	s.startSamplerLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
}

// Pause stops playback without resetting position. Sampling stops before
// Pause returns; no tick is published afterwards.
func (s *Session) Pause() {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return
	}
	s.base = s.advanceLocked()
	if s.state == StatePlaying { // advance may have ended playback exactly now
		s.state = StatePaused
		s.stopSamplerLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
}

// Replay resets position to zero and starts playback at the current speed.
// Works from any state with a loaded resource.
func (s *Session) Replay() {
	s.mu.Lock()
	if s.res == nil {
		s.mu.Unlock()
		return
	}
	s.base = 0
	s.anchor = s.now()
	s.state = StatePlaying
	s.startSamplerLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
}

// Seek sets the playback position, clamped to [0, duration]. Position
// updates immediately even while paused; seeking backwards out of Ended
// leaves the session paused at the new position.
func (s *Session) Seek(pos time.Duration) {
	s.mu.Lock()
	if s.res == nil {
		s.mu.Unlock()
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > s.res.duration {
		pos = s.res.duration
	}
	s.base = pos
	s.anchor = s.now()
	if s.state == StateEnded && pos < s.res.duration {
		s.state = StatePaused
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
}

// SetSpeed applies a playback-rate multiplier without moving the position.
// Non-positive rates are ignored. Idempotent at the same rate.
func (s *Session) SetSpeed(rate float64) {
	s.mu.Lock()
	if rate <= 0 {
		s.mu.Unlock()
		return
	}
	s.base = s.advanceLocked()
	s.anchor = s.now()
	s.speed = rate
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
}

// Snapshot returns the current playback state. Observing the position past
// the end of the resource performs the transition to Ended.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap
}

// ResourceWAV returns the loaded resource as a RIFF/WAVE payload, or false
// when the session is empty.
func (s *Session) ResourceWAV() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.res == nil {
		return nil, false
	}
	return s.res.WAV(), true
}

// advanceLocked computes the current position and performs the natural
// end-of-audio transition when the clock has run past the duration.
func (s *Session) advanceLocked() time.Duration {
	if s.state != StatePlaying {
		return s.base
	}
	pos := s.base + time.Duration(float64(s.now().Sub(s.anchor))*s.speed)
	if pos >= s.res.duration {
		s.base = s.res.duration
		s.state = StateEnded
		s.stopSamplerLocked()
		return s.base
	}
	return pos
}

func (s *Session) snapshotLocked() Snapshot {
	pos := s.advanceLocked()
	var dur float64
	if s.res != nil {
		dur = s.res.duration.Seconds()
	}
	return Snapshot{
		State:       s.state.String(),
		CurrentTime: pos.Seconds(),
		Duration:    dur,
		IsPlaying:   s.state == StatePlaying,
		Speed:       s.speed,
	}
}

// startSamplerLocked begins position sampling, cancelling any previous loop
// first so only one ticker is ever active for the session.
func (s *Session) startSamplerLocked() {
	s.stopSamplerLocked()
	sp := &sampler{stop: make(chan struct{})}
	s.sampler = sp
	go s.sampleLoop(sp)
}

func (s *Session) stopSamplerLocked() {
	if s.sampler != nil {
		close(s.sampler.stop)
		s.sampler = nil
	}
}

func (s *Session) sampleLoop(sp *sampler) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-sp.stop:
			return
		case <-ticker.C:
			if !s.tick(sp) {
				return
			}
		}
	}
}

// tick samples and publishes one progress snapshot for the loop sp. The
// publish happens under the session lock: a superseded loop fails the sp
// check, and an in-flight tick finishes its publish before the transition
// that stopped it can reacquire the lock — so no tick escapes after Pause
// returns. The publish callback must not call back into the session.
func (s *Session) tick(sp *sampler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sampler != sp {
		return false
	}
	s.emit(s.snapshotLocked())
	return true
}

func (s *Session) emit(snap Snapshot) {
	if s.publish != nil {
		s.publish(snap)
	}
}
