package bootstrap

import (
	"path/filepath"

	"arsenal-loader/internal/fsops"
)

// Scanner reports which declared categories have a folder under the root.
type Scanner struct {
	checker fsops.FolderChecker
}

func NewScanner(checker fsops.FolderChecker) *Scanner {
	if checker == nil {
		checker = fsops.OSFolderChecker{}
	}
	return &Scanner{checker: checker}
}

// Present returns the categories whose folder exists, in declared order.
// Missing folders are skipped without error.
func (s *Scanner) Present(root string, categories []Category) []Category {
	present := make([]Category, 0, len(categories))
	for _, c := range categories {
		if s.checker.Exists(filepath.Join(root, c.Path())) {
			present = append(present, c)
		}
	}
	return present
}
