package alarm

// FakeBuzzer records buzzer calls for tests.
type FakeBuzzer struct {
	Starts   []uint
	Stops    int
	On       bool
	StartErr error
}

// Start records the frequency.
func (f *FakeBuzzer) Start(freqHz uint) error {
	f.Starts = append(f.Starts, freqHz)
	if f.StartErr != nil {
		return f.StartErr
	}
	f.On = true
	return nil
}

// Stop records the stop.
func (f *FakeBuzzer) Stop() error {
	f.Stops++
	f.On = false
	return nil
}
