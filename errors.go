package mcp23017

import "fmt"

// WrongModeError is returned when an operation requires the pin to be in
// the opposite direction than the cached direction word says it is in.
type WrongModeError struct {
	Pin Pin
}

func (e *WrongModeError) Error() string {
	return fmt.Sprintf("mcp23017: %s is in the wrong mode for this operation", e.Pin)
}

// InterruptsForcedClearError is returned by ClearInterrupts when the
// interrupt flags did not clear within the allotted retries and the driver
// forced the latch clear by reading both GPIO registers. The interrupt
// condition was not resolved by normal means.
type InterruptsForcedClearError struct{}

func (e *InterruptsForcedClearError) Error() string {
	return "mcp23017: interrupt flags stuck, forced clear by reading GPIO"
}
