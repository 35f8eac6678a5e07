package bootstrap

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoRegistrar   = errors.New("registrar must be set")
	ErrNoInstallRoot = errors.New("install root must be an absolute path")
	ErrPatchPanicked = errors.New("patch step panicked")
)

// RegistrationError reports a failed mandatory registration call.
type RegistrationError struct {
	Kind string // "items" or "recipes"
	Path string
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s %q: %v", e.Kind, e.Path, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}
