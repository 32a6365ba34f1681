// Package wire is the binary protocol between a weft runtime and a remote
// surface. Frames carry surface operations downstream and user events
// upstream; payloads use varint-packed fields so a typical text update
// costs a handful of bytes.
package wire
