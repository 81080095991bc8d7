package recorder

import "context"

// NoopRecorder is a no-op implementation used when valuation history is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordValuation(_ context.Context, _ *ValuationSnapshot) error { return nil }
func (n *NoopRecorder) Close() error { return nil }
