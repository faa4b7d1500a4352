package guidance

// State is one step of the assembly procedure
type State string

const (
	StateStart     State = "start"     // kickoff, no detection needed
	StateNothing   State = "nothing"   // waiting for the tray
	StateLever     State = "lever"     // waiting for the lever
	StateDangling  State = "dangling"  // lever being mounted on the tray
	StateGuide     State = "guide"     // guide being inserted
	StateCap       State = "cap"       // waiting for the cap
	StateAssembled State = "assembled" // cap being mounted
	StatePin       State = "pin"       // pin being seated
	StateClamped   State = "clamped"   // lever being closed
	StateFinished  State = "finished"  // terminal, resets after a cooldown
)

// AllStates returns every state in procedure order
func AllStates() []State {
	return []State{
		StateStart,
		StateNothing,
		StateLever,
		StateDangling,
		StateGuide,
		StateCap,
		StateAssembled,
		StatePin,
		StateClamped,
		StateFinished,
	}
}

// IsTerminal reports whether this is the last step
func (s State) IsTerminal() bool {
	return s == StateFinished
}

// IsValid reports whether s is a known state
func (s State) IsValid() bool {
	for _, known := range AllStates() {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the state name
func (s State) String() string {
	return string(s)
}
