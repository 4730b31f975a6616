// Package types defines core domain types shared by the utf8conv runtime,
// its frame format and its storage records.
//
//nolint:revive // types is a common Go package naming convention
package types

// Version is the canonical project version.
// The CLI, the frame format and the report schema share this version.
const Version = "0.4.0"

// ContractVersion is the frame and report contract version.
// Kept in lockstep with Version.
const ContractVersion = Version
