package patches

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"arsenal-loader/internal/content"
)

var (
	ErrBadCompatEntry = errors.New("compatibility entry must be parent_id:slot")
	ErrUnknownParent  = errors.New("compatibility parent not registered")
	ErrNoPlateCarrier = errors.New("no item accepts plates")
)

type slotEntry struct {
	parent, slot, allowed string
}

// applyArsenalCompat adds every item declaring compatible_with entries to
// the named parent slot filters. All entries are checked before any filter
// is written.
func applyArsenalCompat(_ context.Context, db *content.DB) error {
	items, err := db.AllItems()
	if err != nil {
		return errors.Wrap(err, "list items")
	}

	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}

	var entries []slotEntry
	for _, it := range items {
		for _, raw := range it.Strings(propCompatibleWith) {
			parent, slot, ok := strings.Cut(raw, ":")
			if !ok || parent == "" || slot == "" {
				return errors.Wrapf(ErrBadCompatEntry, "%s: %q", it.ID, raw)
			}
			if !known[parent] {
				return errors.Wrapf(ErrUnknownParent, "%s wants %s", it.ID, parent)
			}
			entries = append(entries, slotEntry{parent: parent, slot: slot, allowed: it.ID})
		}
	}

	return addFilters(db, entries)
}

// applyBallisticPlateCompat lets every plate into the plate slot of every
// carrier.
func applyBallisticPlateCompat(_ context.Context, db *content.DB) error {
	items, err := db.AllItems()
	if err != nil {
		return errors.Wrap(err, "list items")
	}

	var plates, carriers []string
	for _, it := range items {
		if it.Bool(propPlate) {
			plates = append(plates, it.ID)
		}
		if it.Bool(propPlateSlot) {
			carriers = append(carriers, it.ID)
		}
	}
	if len(carriers) == 0 {
		return ErrNoPlateCarrier
	}

	entries := make([]slotEntry, 0, len(plates)*len(carriers))
	for _, c := range carriers {
		for _, p := range plates {
			entries = append(entries, slotEntry{parent: c, slot: PlateSlot, allowed: p})
		}
	}
	return addFilters(db, entries)
}

func addFilters(db *content.DB, entries []slotEntry) error {
	for _, e := range entries {
		if err := db.AddSlotFilter(e.parent, e.slot, e.allowed); err != nil {
			return errors.Wrapf(err, "filter %s/%s", e.parent, e.slot)
		}
	}
	return nil
}
