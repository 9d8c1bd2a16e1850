// Package cmd implements the hitcheck CLI commands using Cobra.
//
// Available commands:
//   - run: Send each case's request and check status and body
//   - validate: Check case files without sending requests
//   - init: Create an example case file and config
//   - version: Show hitcheck version information
//
// Every run flag can also be set through a HITCHECK_* environment
// variable. Values from a config file apply unless a flag overrides them.
package cmd
