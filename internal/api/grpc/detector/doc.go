// Package detector exposes the detection cycle over gRPC.
//
// Server validates DetectorService requests, converts them to domain values
// and delegates to a Service implementation.
package detector
