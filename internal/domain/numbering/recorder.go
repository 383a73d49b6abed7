// Package numbering issues sequential business identifiers.
//
// A request is served in two independent phases: the Provisioner makes sure a
// counter row exists (outside any transaction), then the Engine advances the
// resolved row under a row lock. A failed provisioning attempt never aborts an
// increment of a row that already exists.
package numbering

import "time"

// Recorder observes numbering events. The metrics package provides the Prometheus implementation.
type Recorder interface {
	NumberIssued(entity string, reset bool, elapsed time.Duration)
	CounterProvisioned(entity string, subScoped bool)
	ProvisioningSkipped(entity, reason string)
}

// Reasons passed to Recorder.ProvisioningSkipped.
const (
	SkipReasonDirectory = "directory"
	SkipReasonInsert    = "insert"
)

type nopRecorder struct{}

func (nopRecorder) NumberIssued(string, bool, time.Duration) {}
func (nopRecorder) CounterProvisioned(string, bool)          {}
func (nopRecorder) ProvisioningSkipped(string, string)       {}
