package escape

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProtocol is returned for a level outside the catalog.
	ErrUnknownProtocol = errors.New("unknown escape protocol")
	// ErrInsufficientFlexibility is returned when the current score is
	// below the protocol's requirement.
	ErrInsufficientFlexibility = errors.New("insufficient flexibility")
)

// UnknownProtocolError names the requested level.
type UnknownProtocolError struct {
	Level Level
}

func (e *UnknownProtocolError) Error() string {
	return fmt.Sprintf("unknown escape protocol: level %d (valid levels are 1-%d)", int(e.Level), len(catalog))
}

func (e *UnknownProtocolError) Unwrap() error {
	return ErrUnknownProtocol
}

// InsufficientFlexibilityError carries the threshold and the gap so the
// caller can pick a lower tier.
type InsufficientFlexibilityError struct {
	Protocol  string
	Level     Level
	Required  float64
	Available float64
	Gap       float64
}

func (e *InsufficientFlexibilityError) Error() string {
	return fmt.Sprintf("insufficient flexibility for %s (level %d): requires %.2f, available %.2f, gap %.2f",
		e.Protocol, int(e.Level), e.Required, e.Available, e.Gap)
}

func (e *InsufficientFlexibilityError) Unwrap() error {
	return ErrInsufficientFlexibility
}
