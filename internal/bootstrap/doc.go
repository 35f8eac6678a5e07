// Package bootstrap runs the module's one-shot startup sequence: scan the
// install root for content category folders, register every present
// category, register recipes, apply optional patch steps, and report.
//
// Registration is mandatory. A failed registration call aborts the run and
// is returned to the caller; no patch step runs and no completion line is
// emitted. Patch steps are optional. Each step runs inside its own boundary
// where a returned error or a panic is logged and discarded, so a broken
// step never stops later steps or the run itself.
//
// Everything runs on the caller's goroutine in declared order. Later steps
// may rely on state written by earlier ones.
package bootstrap
