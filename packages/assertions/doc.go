// Package assertions checks an HTTP response against an operator-configured
// expectation.
//
// A ResponseAssertion runs two independent named checks:
//   - Status: the numeric status code equals the expected one
//   - Body: the JSON body is deep-equal to the expected value
//
// Deep equality ignores key order in objects, respects element order in
// arrays and compares numbers by value. Results are registered with a
// Registrar supplied by the caller, and diagnostics go to a Logger.
package assertions
