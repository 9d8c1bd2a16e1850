package cmd

// Exit codes for hitcheck CLI
const (
	// ExitSuccess indicates all tests passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more named tests failed
	ExitTestFailure = 1

	// ExitParseError indicates a case file could not be loaded
	ExitParseError = 2

	// ExitConfigError indicates a configuration, env file or flag error
	ExitConfigError = 3
)
