// Package provisioning runs the staged pipeline that builds and tears down
// the platform: an ordered list of idempotent stages sharing a Context, with
// observer events for every transition. Forward runs stop at the first fatal
// failure; teardown walks the stages in reverse and always keeps going.
package provisioning

// Criticality determines how a stage failure affects the forward pipeline.
type Criticality int

const (
	// Fatal stages abort the pipeline on failure. The physical cluster and
	// everything later stages depend on are fatal.
	Fatal Criticality = iota

	// BestEffort stages log their failure and let the pipeline continue.
	BestEffort
)

// Stage is one step of the provisioning pipeline.
//
// Provision must be idempotent: Check probes the live platform for whether
// the stage's work is already done, and Provision itself must tolerate
// partially created resources. State is never read from a local cache; every
// run re-derives it by querying the platform.
type Stage interface {
	// Name identifies the stage in logs and reports.
	Name() string

	// Check reports whether the stage's resources already exist as desired.
	Check(ctx *Context) (bool, error)

	// Provision creates or completes the stage's resources.
	Provision(ctx *Context) error

	// Deprovision removes the stage's resources. Absent resources are not an
	// error; teardown must keep going.
	Deprovision(ctx *Context) error

	// Criticality classifies forward failures.
	Criticality() Criticality
}
