package fsops

// FakeFolderChecker implements FolderChecker for testing
// Answers from a fixed set and records every path it was asked about
type FakeFolderChecker struct {
	Present map[string]bool
	Calls   []string
}

func (f *FakeFolderChecker) Exists(path string) bool {
	f.Calls = append(f.Calls, path)
	return f.Present[path]
}
