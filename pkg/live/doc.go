// Package live serves weft runtimes to remote clients over WebSocket.
// Each connection gets its own session: a runtime rendering onto a
// RemoteSurface, driven by a single event-loop goroutine. Client events
// and dispatched work are the only ways onto that loop, which keeps the
// runtime's single-threaded model intact per session.
package live
