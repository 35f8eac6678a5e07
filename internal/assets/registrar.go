package assets

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"arsenal-loader/internal/bootstrap"
	"arsenal-loader/internal/content"
	"arsenal-loader/internal/logging"
	"arsenal-loader/internal/metrics"
	"arsenal-loader/internal/safety"
)

const (
	KindItems   = "items"
	KindRecipes = "recipes"
)

var (
	ErrMissingID   = errors.New("asset definition has no id")
	ErrDuplicateID = errors.New("duplicate asset id")
)

// ItemDef is one item entry in an asset file
type ItemDef struct {
	ID     string                 `yaml:"id" json:"id"`
	Parent string                 `yaml:"parent" json:"parent"`
	Name   string                 `yaml:"name" json:"name"`
	Props  map[string]interface{} `yaml:"props" json:"props"`
}

// RecipeDef is one recipe entry in a recipe file
type RecipeDef struct {
	ID             string   `yaml:"id" json:"id"`
	Area           string   `yaml:"area" json:"area"`
	EndProduct     string   `yaml:"end_product" json:"end_product"`
	Count          int      `yaml:"count" json:"count"`
	ProductionTime int      `yaml:"production_time" json:"production_time"`
	Requirements   []string `yaml:"requirements" json:"requirements"`
}

// Registrar loads asset files from a bundle and writes them to the content
// registry. Asset files are YAML or JSON lists of definitions.
type Registrar struct {
	db     *content.DB
	logger *logging.Leveled
}

func NewRegistrar(db *content.DB, logger *logging.Leveled) *Registrar {
	if logger == nil {
		logger = logging.NewLeveled(nil)
	}
	return &Registrar{db: db, logger: logger}
}

// RegisterItems upserts every item found under bundle.Root/relPath. The
// folder must exist.
func (r *Registrar) RegisterItems(ctx context.Context, bundle bootstrap.Bundle, relPath string) error {
	files, err := r.assetFiles(bundle, relPath, false)
	if err != nil {
		return err
	}

	seen := make(map[string]string)
	var items []content.Item
	for _, file := range files {
		var defs []ItemDef
		if err := decodeFile(file.abs, &defs); err != nil {
			return err
		}
		for i, def := range defs {
			if def.ID == "" {
				return errors.Wrapf(ErrMissingID, "%s entry %d", file.rel, i)
			}
			if prev, ok := seen[def.ID]; ok {
				return errors.Wrapf(ErrDuplicateID, "%s in %s and %s", def.ID, prev, file.rel)
			}
			seen[def.ID] = file.rel
			items = append(items, content.Item{
				ID:       def.ID,
				Category: relPath,
				ParentID: def.Parent,
				Name:     def.Name,
				Props:    def.Props,
				Source:   file.rel,
			})
		}
	}

	for _, it := range items {
		prev, err := r.db.GetItem(it.ID)
		switch {
		case err == nil && prev.Category != it.Category:
			r.logger.Warn("item id reused across categories, later category wins",
				"id", it.ID, "was", prev.Category, "now", it.Category, "source", it.Source)
		case err != nil && !errors.Is(err, content.ErrNotFound):
			return errors.Wrapf(err, "look up item %s", it.ID)
		}
		if err := r.db.UpsertItem(it); err != nil {
			return errors.Wrapf(err, "store item %s", it.ID)
		}
	}

	return r.record(ctx, KindItems, relPath, len(items), len(files))
}

// RegisterRecipes upserts every recipe under bundle.Root/relPath. A missing
// folder registers nothing.
func (r *Registrar) RegisterRecipes(ctx context.Context, bundle bootstrap.Bundle, relPath string) error {
	files, err := r.assetFiles(bundle, relPath, true)
	if err != nil {
		return err
	}

	var recipes []content.Recipe
	for _, file := range files {
		var defs []RecipeDef
		if err := decodeFile(file.abs, &defs); err != nil {
			return err
		}
		for i, def := range defs {
			if def.ID == "" {
				return errors.Wrapf(ErrMissingID, "%s entry %d", file.rel, i)
			}
			if def.EndProduct == "" {
				return errors.Errorf("%s: recipe %s has no end_product", file.rel, def.ID)
			}
			count := def.Count
			if count <= 0 {
				count = 1
			}
			recipes = append(recipes, content.Recipe{
				ID:             def.ID,
				Area:           def.Area,
				EndProduct:     def.EndProduct,
				Count:          count,
				ProductionTime: def.ProductionTime,
				Requirements:   def.Requirements,
				Source:         file.rel,
			})
		}
	}

	for _, rc := range recipes {
		if err := r.db.UpsertRecipe(rc); err != nil {
			return errors.Wrapf(err, "store recipe %s", rc.ID)
		}
	}

	return r.record(ctx, KindRecipes, relPath, len(recipes), len(files))
}

func (r *Registrar) record(ctx context.Context, kind, relPath string, count, files int) error {
	runID := bootstrap.RunIDFromContext(ctx)
	if err := r.db.RecordRegistration(runID, kind, relPath, count); err != nil {
		return errors.Wrap(err, "record registration")
	}
	metrics.RecordAssets(kind, count)
	r.logger.Info("assets registered", "kind", kind, "path", relPath, "count", count, "files", files)
	return nil
}

type assetFile struct {
	abs string
	rel string // relative to the bundle root, slash separated
}

// assetFiles lists asset files under relPath in lexical order
func (r *Registrar) assetFiles(bundle bootstrap.Bundle, relPath string, allowMissing bool) ([]assetFile, error) {
	v, err := safety.NewValidator(bundle.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "bundle root %q", bundle.Root)
	}
	if err := v.ValidateRelative(relPath); err != nil {
		return nil, errors.Wrapf(err, "asset path %q", relPath)
	}

	dir := filepath.Join(bundle.Root, relPath)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			r.logger.Warn("asset folder missing, nothing to register", "path", relPath)
			return nil, nil
		}
		return nil, errors.Wrapf(err, "asset folder %s", relPath)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("asset folder %s is not a directory", relPath)
	}

	// WalkDir does not descend into a symlinked root, so walk the target.
	if err := v.ValidateAssetPath(dir); err != nil {
		return nil, errors.Wrapf(err, "asset folder %s", relPath)
	}
	walkRoot, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "asset folder %s", relPath)
	}

	var files []assetFile
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isAssetFile(d.Name()) {
			return nil
		}
		if err := v.ValidateAssetPath(path); err != nil {
			return errors.Wrapf(err, "asset file %s", path)
		}
		inner, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		rel := filepath.ToSlash(filepath.Join(relPath, inner))
		files = append(files, assetFile{abs: path, rel: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isAssetFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func decodeFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, out)
	} else {
		err = yaml.Unmarshal(data, out)
	}
	if err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
