// Package metrics holds Metrics implementations that do not need a Prometheus registry.
package metrics

// Nop discards every measurement. Used by the CLI and by tests.
type Nop struct{}

func (Nop) RecordAnalysis(string, string)         {}
func (Nop) RecordFallback(string)                 {}
func (Nop) RecordSourceFetch(string, string, int) {}
func (Nop) RecordCacheLookup(bool)                {}
func (Nop) RecordError(string)                    {}
func (Nop) RecordLatency(string, float64)         {}
