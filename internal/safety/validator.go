package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrOutsideBundle = errors.New("outside bundle root")
	ErrTraversal     = errors.New("path traversal detected")
	ErrSymlinkEscape = errors.New("symlink escape detected")
)

// Validator keeps asset reads inside a module's bundle root
type Validator struct {
	Root string
}

// NewValidator creates a validator for the given bundle root
func NewValidator(root string) (*Validator, error) {
	r, err := NormalizePath(root)
	if err != nil {
		return nil, err
	}
	// The root itself may be a symlink (e.g. a linked mods folder); compare
	// resolved paths against the resolved root.
	if resolved, err := filepath.EvalSymlinks(r); err == nil {
		r = resolved
	}
	return &Validator{Root: r}, nil
}

// ValidateRelative checks a bundle-relative path such as "Weapons" or
// "Recipes" before it is joined onto the root
func (v *Validator) ValidateRelative(rel string) error {
	if strings.TrimSpace(rel) == "" || filepath.IsAbs(rel) {
		return ErrInvalidPath
	}
	if DetectTraversal(rel) {
		return ErrTraversal
	}
	return nil
}

// ValidateAssetPath is the single check applied before reading an asset file
func (v *Validator) ValidateAssetPath(path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if DetectTraversal(path) {
		return ErrTraversal
	}

	escaped, err := DetectSymlinkEscape(p, v.Root)
	if err != nil {
		if os.IsNotExist(err) {
			// Nonexistent paths are checked lexically; the read fails later anyway
			if !hasPathPrefix(p, v.Root) {
				return ErrOutsideBundle
			}
			return nil
		}
		return err
	}
	if escaped {
		return ErrSymlinkEscape
	}

	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// DetectTraversal blocks any ".." segment in raw input
func DetectTraversal(raw string) bool {
	for _, p := range strings.Split(filepath.ToSlash(raw), "/") {
		if p == ".." {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves symlinks and reports whether the result
// leaves root
func DetectSymlinkEscape(cleanAbs string, root string) (bool, error) {
	resolved, err := filepath.EvalSymlinks(cleanAbs)
	if err != nil {
		return false, err
	}
	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return false, err
	}
	return !hasPathPrefix(filepath.Clean(resolvedAbs), root), nil
}

func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}
