package bootstrap

import (
	"context"

	"arsenal-loader/internal/modmeta"
)

// Category is a named group of bundled content assets. Its folder lives
// directly under the install root.
type Category struct {
	Name string
}

// Path returns the category's path relative to the install root.
func (c Category) Path() string {
	return c.Name
}

// Categories builds categories from names, keeping their order.
func Categories(names ...string) []Category {
	out := make([]Category, 0, len(names))
	for _, n := range names {
		out = append(out, Category{Name: n})
	}
	return out
}

// Bundle identifies the module's packaged assets to the registration service.
type Bundle struct {
	Name string
	Root string
}

// Registrar is the content-registration service.
type Registrar interface {
	RegisterItems(ctx context.Context, bundle Bundle, relPath string) error
	RegisterRecipes(ctx context.Context, bundle Bundle, relPath string) error
}

// Reporter receives the completion signal once per successful run.
type Reporter interface {
	Completed(meta modmeta.Metadata)
}

// Logger is the structured logging surface used by the orchestrator.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// Observer is notified as registrations and patch steps complete.
type Observer interface {
	CategoryRegistered(category string)
	PatchStepFinished(step string, state StepState)
}

type nopObserver struct{}

func (nopObserver) CategoryRegistered(string)           {}
func (nopObserver) PatchStepFinished(string, StepState) {}

type runIDKey struct{}

// WithRunID returns a context carrying the current run's ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID set by the orchestrator, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
