// Package notify publishes detector snapshots to subscribers.
//
// MQTTPublisher sends every state change to a broker topic as protobuf JSON;
// Noop is used when no broker is configured.
package notify
