// Package rpc defines the DetectorService gRPC contract.
//
// Messages are google.protobuf.Struct values, so the service is described by
// a hand-written grpc.ServiceDesc instead of generated stubs. The codec
// helpers convert between detector snapshots and their Struct form and are
// shared by the server, the client, the state file and the MQTT publisher.
package rpc
