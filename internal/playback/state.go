package playback

// State is the playback session lifecycle state.
type State int

const (
	// StateEmpty indicates no audio resource is loaded.
	StateEmpty State = iota
	// StateLoaded indicates a resource is loaded but playback has not started.
	StateLoaded
	// StatePlaying indicates audio is advancing under the transport clock.
	StatePlaying
	// StatePaused indicates playback is stopped with position retained.
	StatePaused
	// StateEnded indicates playback reached the end of the resource.
	StateEnded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}
