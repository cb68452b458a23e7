// Package config defines the settings shared by the detector binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Besides the server address it carries the detection cycle timings, the
// per-state actuator hooks and the optional MQTT publisher settings.
package config
