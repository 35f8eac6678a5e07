package bootstrap

import "arsenal-loader/internal/modmeta"

// LogReporter writes the module banner as a single INFO line.
type LogReporter struct {
	Logger Logger
}

func (r LogReporter) Completed(meta modmeta.Metadata) {
	r.Logger.Info(meta.Banner())
}
