// Package client implements detector-action: it pushes one action to the
// detector server, retrying until the server answers, and renders the
// detector vocabulary for operators.
package client
