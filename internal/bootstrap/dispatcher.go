package bootstrap

import (
	"context"
)

// RecipesPath is the fixed bundle path registered after all categories.
const RecipesPath = "Recipes"

// Dispatcher forwards present categories to the registration service.
// Failures are not contained here.
type Dispatcher struct {
	registrar Registrar
	bundle    Bundle
	observer  Observer
	logger    Logger
}

func NewDispatcher(registrar Registrar, bundle Bundle, observer Observer, logger Logger) *Dispatcher {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Dispatcher{registrar: registrar, bundle: bundle, observer: observer, logger: logger}
}

// Dispatch registers each category exactly once, stopping at the first
// error. It returns the categories registered before that point.
func (d *Dispatcher) Dispatch(ctx context.Context, present []Category) ([]Category, error) {
	registered := make([]Category, 0, len(present))
	for _, c := range present {
		if err := d.registrar.RegisterItems(ctx, d.bundle, c.Path()); err != nil {
			return registered, &RegistrationError{Kind: "items", Path: c.Path(), Err: err}
		}
		registered = append(registered, c)
		d.observer.CategoryRegistered(c.Name)
		d.logger.Debug("category registered", "category", c.Name)
	}
	return registered, nil
}

// RegisterRecipes performs the unconditional recipe registration.
func (d *Dispatcher) RegisterRecipes(ctx context.Context) error {
	if err := d.registrar.RegisterRecipes(ctx, d.bundle, RecipesPath); err != nil {
		return &RegistrationError{Kind: "recipes", Path: RecipesPath, Err: err}
	}
	d.logger.Debug("recipes registered", "path", RecipesPath)
	return nil
}
