package query

import "time"

// Lookup outcomes reported to the Recorder
const (
	LookupHit      = "hit"
	LookupMiss     = "miss"
	LookupStale    = "stale"
	LookupDisabled = "disabled"
)

// Fetch outcomes reported to the Recorder
const (
	FetchSuccess   = "success"
	FetchError     = "error"
	FetchDiscarded = "discarded"
)

// Recorder receives cache telemetry. Implemented by the prometheus recorder.
type Recorder interface {
	ObserveLookup(tag, outcome string)
	ObserveFetch(tag, outcome string, duration time.Duration)
	ObserveInvalidation(tag string, matched int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLookup(string, string)               {}
func (nopRecorder) ObserveFetch(string, string, time.Duration) {}
func (nopRecorder) ObserveInvalidation(string, int)            {}
