package utils

import "fmt"

// FabricError represents a structured FabricDB error.
type FabricError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *FabricError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// WrapError creates a contextual error.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &FabricError{
		Context: context,
		Cause:   cause,
	}
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *FabricError) Unwrap() error {
	return e.Cause
}
