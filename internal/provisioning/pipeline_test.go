package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shlapolosa/idp/internal/config"
)

// fakeStage records calls and plays back scripted results.
type fakeStage struct {
	name        string
	criticality Criticality

	checkDone bool
	checkErr  error

	provisionErr   error
	deprovisionErr error

	calls *[]string
}

func (s *fakeStage) Name() string             { return s.name }
func (s *fakeStage) Criticality() Criticality { return s.criticality }

func (s *fakeStage) Check(*Context) (bool, error) {
	*s.calls = append(*s.calls, "check:"+s.name)
	return s.checkDone, s.checkErr
}

func (s *fakeStage) Provision(*Context) error {
	*s.calls = append(*s.calls, "provision:"+s.name)
	return s.provisionErr
}

func (s *fakeStage) Deprovision(*Context) error {
	*s.calls = append(*s.calls, "deprovision:"+s.name)
	return s.deprovisionErr
}

func testContext() *Context {
	return &Context{
		Context:  context.Background(),
		Config:   &config.Config{ClusterName: "platform"},
		State:    NewState(),
		Observer: NewConsoleObserver(),
		Timeouts: config.LoadTimeouts(),
	}
}

func TestRun_ExecutesInOrder(t *testing.T) {
	t.Parallel()
	var calls []string
	stages := []Stage{
		&fakeStage{name: "cluster", calls: &calls},
		&fakeStage{name: "istio", calls: &calls},
	}

	require.NoError(t, Run(testContext(), stages))
	assert.Equal(t, []string{"check:cluster", "provision:cluster", "check:istio", "provision:istio"}, calls)
}

func TestRun_SkipsProvisionedStages(t *testing.T) {
	t.Parallel()
	var calls []string
	stages := []Stage{
		&fakeStage{name: "cluster", checkDone: true, calls: &calls},
		&fakeStage{name: "istio", calls: &calls},
	}

	require.NoError(t, Run(testContext(), stages))
	assert.NotContains(t, calls, "provision:cluster")
	assert.Contains(t, calls, "provision:istio")
}

func TestRun_FatalFailureStopsLaterStages(t *testing.T) {
	t.Parallel()
	var calls []string
	boom := errors.New("quota exceeded")
	stages := []Stage{
		&fakeStage{name: "cluster", calls: &calls},
		&fakeStage{name: "istio", provisionErr: boom, calls: &calls},
		&fakeStage{name: "argocd", calls: &calls},
	}

	err := Run(testContext(), stages)
	require.Error(t, err)

	var report *FailureReport
	require.ErrorAs(t, err, &report)
	assert.Equal(t, "istio", report.Stage)
	assert.ErrorIs(t, report, boom)
	assert.Equal(t, []string{"cluster"}, report.Completed)

	// No rollback, no later stages.
	assert.NotContains(t, calls, "check:argocd")
	assert.NotContains(t, calls, "deprovision:cluster")

	// Report carries operator guidance.
	assert.Contains(t, report.Error(), "re-run provision")
}

func TestRun_BestEffortFailureContinues(t *testing.T) {
	t.Parallel()
	var calls []string
	stages := []Stage{
		&fakeStage{name: "knative", criticality: BestEffort, provisionErr: errors.New("webhook timeout"), calls: &calls},
		&fakeStage{name: "argocd", calls: &calls},
	}

	require.NoError(t, Run(testContext(), stages))
	assert.Contains(t, calls, "provision:argocd")
}

func TestRun_FatalCheckErrorAborts(t *testing.T) {
	t.Parallel()
	var calls []string
	stages := []Stage{
		&fakeStage{name: "cluster", checkErr: errors.New("api unreachable"), calls: &calls},
		&fakeStage{name: "istio", calls: &calls},
	}

	err := Run(testContext(), stages)
	require.Error(t, err)
	assert.NotContains(t, calls, "provision:cluster")
	assert.NotContains(t, calls, "check:istio")
}

func TestRun_BestEffortCheckErrorContinues(t *testing.T) {
	t.Parallel()
	var calls []string
	stages := []Stage{
		&fakeStage{name: "knative", criticality: BestEffort, checkErr: errors.New("webhook timeout"), calls: &calls},
		&fakeStage{name: "argocd", calls: &calls},
	}

	// A transient probe failure on an optional stage must not kill the run.
	require.NoError(t, Run(testContext(), stages))
	assert.NotContains(t, calls, "provision:knative")
	assert.Contains(t, calls, "provision:argocd")
}

func TestTeardown_ReverseOrderAndBestEffort(t *testing.T) {
	t.Parallel()
	var calls []string
	stages := []Stage{
		&fakeStage{name: "cluster", calls: &calls},
		&fakeStage{name: "istio", deprovisionErr: errors.New("stuck finalizer"), calls: &calls},
		&fakeStage{name: "vcluster-dev", calls: &calls},
	}

	report := Teardown(testContext(), stages)

	// Reverse order, every stage attempted despite the istio failure.
	assert.Equal(t, []string{"deprovision:vcluster-dev", "deprovision:istio", "deprovision:cluster"}, calls)
	assert.True(t, report.Failed())
	assert.Equal(t, []string{"vcluster-dev", "cluster"}, report.Deprovisioned)
	assert.Contains(t, report.Failures, "istio")
	assert.Contains(t, report.Summary(), "re-run delete")
}

func TestTeardown_CleanRun(t *testing.T) {
	t.Parallel()
	var calls []string
	stages := []Stage{
		&fakeStage{name: "cluster", calls: &calls},
	}

	report := Teardown(testContext(), stages)
	assert.False(t, report.Failed())
	assert.Equal(t, []string{"cluster"}, report.Deprovisioned)
}
