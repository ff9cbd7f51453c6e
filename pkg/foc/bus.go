package foc

// Bus is an addressed, blocking two-wire bus.
// Timeouts belong to the implementation.
type Bus interface {
	// Write writes w to the device at addr.
	Write(addr uint8, w []byte) error
	// Read fills r from the device at addr.
	Read(addr uint8, r []byte) error
	// WriteRead writes w then fills r in one transaction.
	WriteRead(addr uint8, w, r []byte) error
}
