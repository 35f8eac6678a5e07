package integration

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"arsenal-loader/internal/bootstrap"
	"arsenal-loader/internal/config"
	"arsenal-loader/internal/content"
	"arsenal-loader/internal/metrics"
	"arsenal-loader/internal/safety"
	"arsenal-loader/internal/startup"
)

func init() {
	// Initialize metrics once for all integration tests
	metrics.Init()
}

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func openDB(t *testing.T) *content.DB {
	t.Helper()
	db, err := content.NewContentDB(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBundleSafetyIntegration runs a full startup against a real bundle on
// disk whose asset folder links outside the install root.
func TestBundleSafetyIntegration(t *testing.T) {
	// 1. Build a bundle next to a directory it must never read from
	tmpRoot := t.TempDir()
	bundleRoot := filepath.Join(tmpRoot, "bundle")
	outsideDir := filepath.Join(tmpRoot, "outside")

	write(t, filepath.Join(bundleRoot, "Weapons", "rifles.yaml"), "- id: salco_ak\n")
	outsideFile := filepath.Join(outsideDir, "smuggled.yaml")
	write(t, outsideFile, "- id: smuggled\n")

	if err := os.MkdirAll(filepath.Join(bundleRoot, "Ammo"), 0755); err != nil {
		t.Fatalf("Failed to create Ammo dir: %v", err)
	}
	if err := os.Symlink(outsideFile, filepath.Join(bundleRoot, "Ammo", "smuggled.yaml")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	cfg := config.Default()
	cfg.InstallRoot = bundleRoot
	db := openDB(t)
	logger := log.New(io.Discard, "", 0)

	// 2. The escaping file fails the mandatory Ammo registration
	report, err := startup.RunOnce(context.Background(), cfg, logger, db)
	if err == nil {
		t.Fatal("Expected startup to fail on symlink escape")
	}
	var regErr *bootstrap.RegistrationError
	if !errors.As(err, &regErr) || regErr.Path != "Ammo" {
		t.Fatalf("Expected Ammo registration error, got %v", err)
	}
	if !errors.Is(err, safety.ErrSymlinkEscape) {
		t.Errorf("Expected ErrSymlinkEscape in chain, got %v", err)
	}
	if report.Outcome != bootstrap.OutcomeFailed {
		t.Errorf("Expected failed outcome, got %s", report.Outcome)
	}

	// 3. Nothing from outside the root was stored, earlier categories were
	if _, err := db.GetItem("smuggled"); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("Expected smuggled item to be absent, got %v", err)
	}
	if _, err := db.GetItem("salco_ak"); err != nil {
		t.Errorf("Expected Weapons to be registered before the failure: %v", err)
	}

	// 4. The outside file is untouched
	data, err := os.ReadFile(outsideFile)
	if err != nil || string(data) != "- id: smuggled\n" {
		t.Errorf("Outside file modified: %q, %v", data, err)
	}
}

// TestRepeatedStartupIsStable verifies a second run over the same bundle
// leaves the registry unchanged.
func TestRepeatedStartupIsStable(t *testing.T) {
	bundleRoot := t.TempDir()
	write(t, filepath.Join(bundleRoot, "Armor", "vests.yaml"), `
- id: salco_carrier
  props:
    armor_class: 3
    builtin_plate_class: 5
    plate_slot: true
`)
	write(t, filepath.Join(bundleRoot, "Items", "plates.yaml"), "- id: salco_plate\n  props:\n    plate: true\n")

	cfg := config.Default()
	cfg.InstallRoot = bundleRoot
	db := openDB(t)
	logger := log.New(io.Discard, "", 0)

	var snapshots []*content.ContentStats
	for i := 0; i < 2; i++ {
		if _, err := startup.RunOnce(context.Background(), cfg, logger, db); err != nil {
			t.Fatalf("Run %d failed: %v", i+1, err)
		}
		stats, err := db.GetContentStats()
		if err != nil {
			t.Fatalf("Failed to read stats: %v", err)
		}
		snapshots = append(snapshots, stats)
	}

	first, second := snapshots[0], snapshots[1]
	if first.TotalItems != second.TotalItems || first.TotalFilters != second.TotalFilters {
		t.Errorf("Registry changed between runs: %+v vs %+v", first, second)
	}
	if second.Runs != 2 {
		t.Errorf("Expected 2 recorded runs, got %d", second.Runs)
	}

	carrier, err := db.GetItem("salco_carrier")
	if err != nil {
		t.Fatalf("Failed to get carrier: %v", err)
	}
	if class, _ := carrier.Int("armor_class"); class != 5 {
		t.Errorf("Expected armor_class 5 after two runs, got %d", class)
	}
}
