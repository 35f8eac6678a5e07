package fsops

import "os"

// OSFolderChecker implements FolderChecker using os.Stat
type OSFolderChecker struct{}

// Exists reports whether path is an existing directory. Regular files and
// stat errors both count as absent.
func (OSFolderChecker) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
