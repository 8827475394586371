package device

// Store owns the live State. It is not safe for concurrent use: the control
// loop is its only writer and hands copies to everyone else.
type Store struct {
	state State
}

// NewStore returns a store with every field false/empty.
func NewStore() *Store {
	return &Store{}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	return s.state
}

// SetLight records the light state. Returns true if the value changed.
func (s *Store) SetLight(on bool) bool {
	changed := s.state.LightOn != on
	s.state.LightOn = on
	return changed
}

// SetMotor records the motor/fan state. Returns true if the value changed.
func (s *Store) SetMotor(on bool) bool {
	changed := s.state.MotorOn != on
	s.state.MotorOn = on
	return changed
}

// SetAuto records automatic mode. Returns true if the value changed.
func (s *Store) SetAuto(on bool) bool {
	changed := s.state.AutoMode != on
	s.state.AutoMode = on
	return changed
}

// SetNetworkConnected records the last observed connectivity.
func (s *Store) SetNetworkConnected(connected bool) bool {
	changed := s.state.NetworkConnected != connected
	s.state.NetworkConnected = connected
	return changed
}

// SetStatusText stores a bounded copy of text.
func (s *Store) SetStatusText(text string) {
	s.state.StatusText = NewStatusText(text)
}
