// Package alarm contains the gas alarm: concentration math, the
// edge-triggered trip state machine and the buzzer tone score.
package alarm

// DefaultThreshold is the gas concentration, in ppm, above which the alarm trips.
const DefaultThreshold float32 = 100.0

// State is the hysteresis state of the alarm.
type State string

const (
	StateClear   State = "CLEAR"
	StateTripped State = "TRIPPED"
)

// Action tells the caller what to do after an evaluation.
type Action int

const (
	ActionNone Action = iota
	ActionTrigger
)

func (a Action) String() string {
	if a == ActionTrigger {
		return "TRIGGER"
	}
	return "NONE"
}

// Machine fires ActionTrigger once per excursion above the threshold.
// Not safe for concurrent use; the control loop owns it.
type Machine struct {
	threshold float32
	state     State
	trips     int
}

// NewMachine returns a Clear machine. A non-positive threshold selects
// DefaultThreshold.
func NewMachine(threshold float32) *Machine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Machine{threshold: threshold, state: StateClear}
}

// Evaluate feeds one reading and returns the action to take.
func (m *Machine) Evaluate(gasPPM float32) Action {
	above := gasPPM > m.threshold
	switch m.state {
	case StateClear:
		if above {
			m.state = StateTripped
			m.trips++
			return ActionTrigger
		}
	case StateTripped:
		if !above {
			m.state = StateClear
		}
	}
	return ActionNone
}

// State returns the current hysteresis state.
func (m *Machine) State() State {
	return m.state
}

// Threshold returns the trip threshold in ppm.
func (m *Machine) Threshold() float32 {
	return m.threshold
}

// Trips returns how many times the machine has fired since creation.
func (m *Machine) Trips() int {
	return m.trips
}
