// Package output provides formatters for displaying check results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol format
//
// Every case contributes two named tests, the status check and the body
// check. Formatters that accumulate results write them on Flush.
package output
