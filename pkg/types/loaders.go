package types

import "context"

// TraceLoader produces batches of raw trace samples from a capture
// source. Run's channel closes when the source is exhausted or the
// context is cancelled.
type TraceLoader interface {
	Close() error
	Run(context.Context) <-chan []RawTraceRecord
}
