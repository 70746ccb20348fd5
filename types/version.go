// Package types defines the records shared by the session runner, the
// capture store and the CLI.
//
//nolint:revive // types is a common Go package naming convention
package types

// Version is the release version of the CLI and of the session completion
// events it publishes. Stored records carry RecordVersion instead.
const Version = "0.3.0"
