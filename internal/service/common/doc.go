// Package common holds helpers shared by the detector client binaries.
//
// It provides a DetectorService client wrapper with call timeouts that speaks
// domain types, and DetectSource to identify the calling host and user.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
