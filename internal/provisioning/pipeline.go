package provisioning

import (
	"fmt"
	"strings"
	"time"
)

// FailureReport describes a forward-pipeline failure. Nothing is rolled back
// automatically; the report tells the operator what exists so they can decide
// between re-running provision (stages are idempotent) and tearing down.
type FailureReport struct {
	Stage     string
	Err       error
	Completed []string
	Skipped   []string
}

// Error implements error.
func (r *FailureReport) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage %s failed: %v", r.Stage, r.Err)
	if len(r.Completed) > 0 {
		fmt.Fprintf(&b, "\ncompleted stages (resources exist): %s", strings.Join(r.Completed, ", "))
	}
	b.WriteString("\nre-run provision to resume, or run delete to tear down")
	return b.String()
}

// Unwrap exposes the underlying stage error.
func (r *FailureReport) Unwrap() error { return r.Err }

// TeardownReport aggregates the outcome of a best-effort teardown.
type TeardownReport struct {
	Deprovisioned []string
	Failures      map[string]error
}

// Failed reports whether any stage failed to deprovision.
func (r *TeardownReport) Failed() bool { return len(r.Failures) > 0 }

// Summary renders the report for the operator.
func (r *TeardownReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "teardown finished: %d stages deprovisioned", len(r.Deprovisioned))
	if r.Failed() {
		fmt.Fprintf(&b, ", %d failed", len(r.Failures))
		for stage, err := range r.Failures {
			fmt.Fprintf(&b, "\n  %s: %v", stage, err)
		}
		b.WriteString("\nre-run delete to retry the failed stages")
	}
	return b.String()
}

// Run executes the stages in order.
//
// Each stage is probed first; stages whose resources already exist are
// skipped, which makes re-running a partially failed provision safe. A fatal
// stage failure stops the pipeline immediately and returns a FailureReport;
// best-effort stage failures are logged and the pipeline continues.
func Run(ctx *Context, stages []Stage) error {
	start := time.Now()
	ctx.Observer.Printf("starting provisioning with %d stages", len(stages))

	var completed, skipped []string
	for i, stage := range stages {
		stageStart := time.Now()
		label := fmt.Sprintf("%s (%d/%d)", stage.Name(), i+1, len(stages))

		done, err := stage.Check(ctx)
		if err != nil {
			ctx.Observer.Event(Event{Type: EventStageFailed, Stage: label, Message: fmt.Sprintf("probe failed: %v", err)})
			if stage.Criticality() == BestEffort {
				ctx.Observer.Printf("[%s] continuing despite probe failure", stage.Name())
				continue
			}
			return &FailureReport{Stage: stage.Name(), Err: fmt.Errorf("probe failed: %w", err), Completed: completed, Skipped: skipped}
		}
		if done {
			ctx.Observer.Event(Event{Type: EventStageSkipped, Stage: stage.Name(), Message: "already provisioned"})
			skipped = append(skipped, stage.Name())
			continue
		}

		ctx.Observer.Event(Event{Type: EventStageStarted, Stage: label, Message: "starting"})

		if err := stage.Provision(ctx); err != nil {
			ctx.Observer.Event(Event{Type: EventStageFailed, Stage: label, Message: err.Error()})
			if stage.Criticality() == BestEffort {
				ctx.Observer.Printf("[%s] continuing despite failure", stage.Name())
				continue
			}
			return &FailureReport{Stage: stage.Name(), Err: err, Completed: completed, Skipped: skipped}
		}

		ctx.Observer.Event(Event{
			Type:    EventStageCompleted,
			Stage:   label,
			Message: fmt.Sprintf("completed in %v", time.Since(stageStart).Round(time.Millisecond)),
		})
		completed = append(completed, stage.Name())
	}

	ctx.Observer.Printf("provisioning completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

// Teardown deprovisions the stages in reverse order.
//
// Every stage is attempted regardless of earlier failures so that teardown
// is monotonic: each run can only remove more. Failures are collected into
// the report, never propagated mid-run.
func Teardown(ctx *Context, stages []Stage) *TeardownReport {
	start := time.Now()
	ctx.Observer.Printf("starting teardown with %d stages", len(stages))

	report := &TeardownReport{Failures: make(map[string]error)}
	for i := len(stages) - 1; i >= 0; i-- {
		stage := stages[i]
		stageStart := time.Now()

		ctx.Observer.Event(Event{Type: EventStageStarted, Stage: stage.Name(), Message: "deprovisioning"})

		if err := stage.Deprovision(ctx); err != nil {
			ctx.Observer.Event(Event{Type: EventStageFailed, Stage: stage.Name(), Message: err.Error()})
			report.Failures[stage.Name()] = err
			continue
		}

		ctx.Observer.Event(Event{
			Type:    EventStageCompleted,
			Stage:   stage.Name(),
			Message: fmt.Sprintf("deprovisioned in %v", time.Since(stageStart).Round(time.Millisecond)),
		})
		report.Deprovisioned = append(report.Deprovisioned, stage.Name())
	}

	ctx.Observer.Printf("teardown completed in %v", time.Since(start).Round(time.Millisecond))
	return report
}
