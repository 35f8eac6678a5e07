// Package patches holds the optional content patch steps applied after all
// assets are registered. Each step reads and mutates the content registry
// and may fail on its own without affecting the others.
package patches

import (
	"arsenal-loader/internal/bootstrap"
	"arsenal-loader/internal/content"
)

const (
	BuiltinPlates        = "builtin-plates"
	ArsenalCompat        = "arsenal-compat"
	BallisticPlateCompat = "ballistic-plate-compat"
)

// Item property keys read by the patch steps.
const (
	propArmorClass        = "armor_class"
	propBuiltinPlateClass = "builtin_plate_class"
	propCompatibleWith    = "compatible_with"
	propPlate             = "plate"
	propPlateSlot         = "plate_slot"
)

// PlateSlot is the slot ballistic plates are filtered into.
const PlateSlot = "plate"

// All returns the patch steps in the order they are applied.
func All() []bootstrap.PatchStep[*content.DB] {
	return []bootstrap.PatchStep[*content.DB]{
		bootstrap.PatchFunc[*content.DB]{StepName: BuiltinPlates, Fn: applyBuiltinPlates},
		bootstrap.PatchFunc[*content.DB]{StepName: ArsenalCompat, Fn: applyArsenalCompat},
		bootstrap.PatchFunc[*content.DB]{StepName: BallisticPlateCompat, Fn: applyBallisticPlateCompat},
	}
}
