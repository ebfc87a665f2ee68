package timer

import "fmt"

// State is the countdown's position in its lifecycle.
type State int

const (
	Setting State = iota
	Running
	Paused
	Finished
)

var stateNames = [...]string{
	Setting:  "setting",
	Running:  "running",
	Paused:   "paused",
	Finished: "finished",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("unknown timer state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown timer state %q", text)
}

// Event names the operation that produced a snapshot.
type Event string

const (
	EventSet      Event = "set"
	EventStarted  Event = "started"
	EventTick     Event = "tick"
	EventPaused   Event = "paused"
	EventResumed  Event = "resumed"
	EventFinished Event = "finished"
	EventReset    Event = "reset"
)
