package loop

// State is the position of the main loop in its cycle.
type State int32

// States.
const (
	WaitingForButton State = iota
	Capturing
	ExtractingFeatures
	Predicting
	Rendering
	// Degraded is entered from any stage on a recoverable failure and left
	// when the step's record has been emitted.
	Degraded
	// Stopped is terminal and only reached on shutdown.
	Stopped
)

var stateNames = [...]string{
	WaitingForButton:   "waiting_for_button",
	Capturing:          "capturing",
	ExtractingFeatures: "extracting_features",
	Predicting:         "predicting",
	Rendering:          "rendering",
	Degraded:           "degraded",
	Stopped:            "stopped",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
