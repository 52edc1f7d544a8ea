package gpio

import "sync"

// FakeLamp is a test double that records lamp writes.
type FakeLamp struct {
	mu sync.Mutex

	// History contains every value passed to Set, in order.
	History []bool

	// On is the current lamp state.
	On bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeLamp creates a FakeLamp that starts off.
func NewFakeLamp() *FakeLamp {
	return &FakeLamp{}
}

// Set records the value.
func (f *FakeLamp) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.History = append(f.History, on)
	f.On = on
	return nil
}

// IsOn returns the current lamp state.
func (f *FakeLamp) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.On
}

// Close turns the lamp off and marks it closed.
func (f *FakeLamp) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.On = false
	f.Closed = true
	return nil
}

// Reset clears recorded state.
func (f *FakeLamp) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.History = nil
	f.On = false
	f.Closed = false
	f.SetError = nil
}
