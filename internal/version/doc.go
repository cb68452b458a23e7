// Package version exposes build metadata for the detector binaries.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags
// (-X github.com/oshokin/people-detector/internal/version.Version=...).
package version
