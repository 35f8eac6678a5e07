package patches

import (
	"context"

	"github.com/pkg/errors"

	"arsenal-loader/internal/content"
)

// ArmorCategory is the category builtin plates are looked up in.
const ArmorCategory = "Armor"

var ErrNoArmor = errors.New("no armor registered")

// applyBuiltinPlates raises armor_class to builtin_plate_class on every
// armor item that declares one. A lower builtin class never downgrades.
func applyBuiltinPlates(_ context.Context, db *content.DB) error {
	armor, err := db.ItemsByCategory(ArmorCategory)
	if err != nil {
		return errors.Wrap(err, "list armor")
	}
	if len(armor) == 0 {
		return ErrNoArmor
	}

	type raise struct {
		item  content.Item
		class int
	}
	var pending []raise
	for _, it := range armor {
		if _, declared := it.Props[propBuiltinPlateClass]; !declared {
			continue
		}
		class, ok := it.Int(propBuiltinPlateClass)
		if !ok || class < 0 {
			return errors.Errorf("%s: %s is not a class number: %v", it.ID, propBuiltinPlateClass, it.Props[propBuiltinPlateClass])
		}
		if current, _ := it.Int(propArmorClass); current >= class {
			continue
		}
		pending = append(pending, raise{item: it, class: class})
	}

	for _, r := range pending {
		props := copyProps(r.item.Props)
		props[propArmorClass] = r.class
		if err := db.UpdateProps(r.item.ID, props); err != nil {
			return errors.Wrapf(err, "raise %s", r.item.ID)
		}
	}
	return nil
}

func copyProps(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	return out
}
