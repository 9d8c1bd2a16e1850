// Package runner executes hitcheck case files.
//
// For every case it builds the request, sends it, and runs a
// ResponseAssertion against the response into a fresh Recorder. A failing
// case never stops the others unless Bail is set. In update mode a failing
// expectation is replaced by what the server actually returned and the case
// file is rewritten.
package runner
