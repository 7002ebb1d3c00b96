package ingest

import "fmt"

// Report records which sub-steps of a refresh degraded to empty results
// because of a remote failure. It distinguishes "no data" from "data
// unavailable right now" without ever failing the overall request.
type Report struct {
	degraded []string
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

// Degrade records that a section fell back to cached/empty data.
func (r *Report) Degrade(section string, err error) {
	r.degraded = append(r.degraded, fmt.Sprintf("%s: %v", section, err))
}

// Degraded returns the recorded sections, in occurrence order.
func (r *Report) Degraded() []string {
	return r.degraded
}

// IsDegraded reports whether any section degraded.
func (r *Report) IsDegraded() bool {
	return len(r.degraded) > 0
}
