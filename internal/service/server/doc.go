// Package server runs the detection cycle behind the DetectorService gRPC API.
//
// The service applies actions through detector.Transition, feeds End Time
// from per-state timers, persists every change and announces it to the MQTT
// publisher and the local state hooks.
package server
