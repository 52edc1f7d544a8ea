// Package gpio drives the alert lamp output line with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Lamp is a single on/off output.
type Lamp interface {
	// Set drives the lamp on or off.
	Set(on bool) error

	// Close turns the lamp off and releases GPIO resources.
	Close() error
}

// DefaultPin is the alert lamp line (BCM numbering).
const DefaultPin = 17
