// Package env handles environment variables and ${VAR} expansion for hitcheck.
//
// It provides functionality for:
//   - Loading .env files (optionally exporting them to the process environment)
//   - Expanding ${VAR} and $VAR references in case file fields
//   - Reporting references that could not be resolved
package env
