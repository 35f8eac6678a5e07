package fsops

// FolderChecker abstracts directory existence checks
// Enables tests to control which content folders are present
type FolderChecker interface {
	Exists(path string) bool
}
