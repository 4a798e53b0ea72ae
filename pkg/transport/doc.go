// Package transport defines the pluggable wire layer the dispatch sequencer
// calls into, plus a ready-made HTTP implementation. The contract is
// deliberately thin: an operation either returns a Response exposing a Data
// field, or an error. Retries, auth, and timeouts are the transport's (or
// the caller's) concern, never the sequencer's.
package transport
