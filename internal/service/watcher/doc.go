// Package watcher implements detector-watch: it polls the detector server and
// runs the local state hook whenever the observed state changes.
package watcher
