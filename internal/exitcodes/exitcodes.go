package exitcodes

// Exit codes for the arsenal loader
// These codes form the operational contract with the host launcher
const (
	Success            = 0 // Content registered, patches attempted
	InvalidConfig      = 2 // Configuration file invalid, or host version out of range
	RegistrationFailed = 3 // Mandatory content registration failed
	RuntimeError       = 4 // Runtime error outside orchestration (database, install root)
)
