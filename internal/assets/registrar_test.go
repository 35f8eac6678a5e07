package assets

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arsenal-loader/internal/bootstrap"
	"arsenal-loader/internal/content"
	"arsenal-loader/internal/logging"
	"arsenal-loader/internal/metrics"
	"arsenal-loader/internal/safety"
)

func init() {
	metrics.Init()
}

func setup(t *testing.T) (string, *content.DB, *Registrar) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "arsenal")
	require.NoError(t, os.MkdirAll(root, 0o755))

	db, err := content.NewContentDB(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return root, db, NewRegistrar(db, logging.NewLeveled(log.New(io.Discard, "", 0)))
}

func writeAsset(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestRegisterItemsFromJSONAndYAML(t *testing.T) {
	root, db, reg := setup(t)
	writeAsset(t, root, "Weapons/rifles.json", `[
	{"id": "salco_ak", "parent": "5447a9cd4bdc2dbd208b4567", "name": "AK Custom", "props": {"ergonomics": 40}}
]`)
	writeAsset(t, root, "Weapons/pistols/sidearms.yaml", `
- id: salco_p226
  name: P226 Custom
  props:
    ergonomics: 55
`)
	writeAsset(t, root, "Weapons/README.md", "not an asset")

	ctx := bootstrap.WithRunID(context.Background(), "run-42")
	require.NoError(t, reg.RegisterItems(ctx, bootstrap.Bundle{Name: "test", Root: root}, "Weapons"))

	items, err := db.ItemsByCategory("Weapons")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "salco_ak", items[0].ID)
	assert.Equal(t, "Weapons/rifles.json", items[0].Source)
	assert.Equal(t, "salco_p226", items[1].ID)
	assert.Equal(t, "Weapons/pistols/sidearms.yaml", items[1].Source)
	erg, ok := items[1].Int("ergonomics")
	assert.True(t, ok)
	assert.Equal(t, 55, erg)

	records, err := db.GetRegistrationsByRun("run-42")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, KindItems, records[0].Kind)
	assert.Equal(t, "Weapons", records[0].RelPath)
	assert.Equal(t, 2, records[0].Count)
}

func TestRegisterItemsTwiceDoesNotDuplicate(t *testing.T) {
	root, db, reg := setup(t)
	writeAsset(t, root, "Ammo/ammo.yaml", "- id: salco_545\n- id: salco_762\n")
	bundle := bootstrap.Bundle{Root: root}

	require.NoError(t, reg.RegisterItems(context.Background(), bundle, "Ammo"))
	require.NoError(t, reg.RegisterItems(context.Background(), bundle, "Ammo"))

	items, err := db.AllItems()
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRegisterItemsMissingFolderFails(t *testing.T) {
	root, _, reg := setup(t)

	err := reg.RegisterItems(context.Background(), bootstrap.Bundle{Root: root}, "Armor")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegisterItemsRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"missing id", "- name: nameless\n", ErrMissingID},
		{"duplicate id", "- id: dup\n- id: dup\n", ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, db, reg := setup(t)
			writeAsset(t, root, "Items/items.yaml", tt.body)

			err := reg.RegisterItems(context.Background(), bootstrap.Bundle{Root: root}, "Items")
			assert.ErrorIs(t, err, tt.want)

			items, _ := db.AllItems()
			assert.Empty(t, items, "nothing is stored when a file is invalid")
		})
	}
}

func TestRegisterItemsMalformedFile(t *testing.T) {
	root, _, reg := setup(t)
	writeAsset(t, root, "Items/broken.json", `[{"id": "x",`)

	err := reg.RegisterItems(context.Background(), bootstrap.Bundle{Root: root}, "Items")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestRegisterItemsRejectsTraversal(t *testing.T) {
	root, _, reg := setup(t)

	err := reg.RegisterItems(context.Background(), bootstrap.Bundle{Root: root}, "../elsewhere")
	assert.ErrorIs(t, err, safety.ErrTraversal)
}

func TestRegisterItemsRejectsSymlinkEscape(t *testing.T) {
	root, _, reg := setup(t)
	outside := filepath.Join(t.TempDir(), "stolen.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("- id: stolen\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Items"), 0o755))
	if err := os.Symlink(outside, filepath.Join(root, "Items", "stolen.yaml")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	err := reg.RegisterItems(context.Background(), bootstrap.Bundle{Root: root}, "Items")
	assert.ErrorIs(t, err, safety.ErrSymlinkEscape)
}

func TestRegisterRecipes(t *testing.T) {
	root, db, reg := setup(t)
	writeAsset(t, root, "Recipes/workbench.yaml", `
- id: craft_salco_ak
  area: Workbench
  end_product: salco_ak
  production_time: 7200
  requirements: [gunpowder_eagle, weapon_parts]
`)

	require.NoError(t, reg.RegisterRecipes(context.Background(), bootstrap.Bundle{Root: root}, "Recipes"))

	recipes, err := db.Recipes()
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, 1, recipes[0].Count, "count defaults to 1")
	assert.Equal(t, []string{"gunpowder_eagle", "weapon_parts"}, recipes[0].Requirements)
}

func TestRegisterRecipesMissingFolderIsEmpty(t *testing.T) {
	root, db, reg := setup(t)
	ctx := bootstrap.WithRunID(context.Background(), "run-7")

	require.NoError(t, reg.RegisterRecipes(ctx, bootstrap.Bundle{Root: root}, "Recipes"))

	records, err := db.GetRegistrationsByRun("run-7")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].Count)
}

func TestRegisterRecipesRequiresEndProduct(t *testing.T) {
	root, _, reg := setup(t)
	writeAsset(t, root, "Recipes/bad.yaml", "- id: craft_nothing\n")

	err := reg.RegisterRecipes(context.Background(), bootstrap.Bundle{Root: root}, "Recipes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end_product")
}

func TestRegisterItemsFollowsSymlinkedCategoryFolder(t *testing.T) {
	root, db, reg := setup(t)
	writeAsset(t, root, "_shared/weapons/rifles.yaml", "- id: salco_ak\n")
	if err := os.Symlink(filepath.Join(root, "_shared", "weapons"), filepath.Join(root, "Weapons")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	require.NoError(t, reg.RegisterItems(context.Background(), bootstrap.Bundle{Root: root}, "Weapons"))

	items, err := db.ItemsByCategory("Weapons")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "salco_ak", items[0].ID)
	assert.Equal(t, "Weapons/rifles.yaml", items[0].Source)
}

func TestRegisterItemsRejectsCategoryFolderLinkedOutside(t *testing.T) {
	root, _, reg := setup(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "stolen.yaml"), []byte("- id: stolen\n"), 0o644))
	if err := os.Symlink(outside, filepath.Join(root, "Weapons")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	err := reg.RegisterItems(context.Background(), bootstrap.Bundle{Root: root}, "Weapons")
	assert.ErrorIs(t, err, safety.ErrSymlinkEscape)
}

func TestRegisterItemsWarnsOnIDReusedAcrossCategories(t *testing.T) {
	root, db, _ := setup(t)
	var buf bytes.Buffer
	reg := NewRegistrar(db, logging.NewLeveled(log.New(&buf, "", 0)))
	writeAsset(t, root, "Weapons/rifles.yaml", "- id: salco_ak\n")
	writeAsset(t, root, "Items/misc.yaml", "- id: salco_ak\n")
	bundle := bootstrap.Bundle{Root: root}

	require.NoError(t, reg.RegisterItems(context.Background(), bundle, "Weapons"))
	require.NoError(t, reg.RegisterItems(context.Background(), bundle, "Weapons"))
	assert.NotContains(t, buf.String(), "[WARN]", "re-registering the same category is silent")

	require.NoError(t, reg.RegisterItems(context.Background(), bundle, "Items"))
	assert.True(t, strings.Contains(buf.String(), "[WARN] item id reused across categories, later category wins id salco_ak was Weapons now Items"), buf.String())

	it, err := db.GetItem("salco_ak")
	require.NoError(t, err)
	assert.Equal(t, "Items", it.Category)
}
