package handlers

import (
	"context"
	"log"

	"github.com/shlapolosa/idp/internal/platform"
	"github.com/shlapolosa/idp/internal/provisioning"
	"github.com/shlapolosa/idp/internal/provisioning/cluster"
)

// Delete tears the platform down in reverse provisioning order.
//
// Teardown is best-effort and always exits successfully: partial teardowns
// are normal (a stage can fail on a stuck finalizer or an expired token) and
// the remedy is simply running delete again. The report tells the operator
// what is left.
func Delete(ctx context.Context, configPath string) error {
	pctx, err := newPipelineContext(ctx, configPath)
	if err != nil {
		return err
	}

	// The app and vcluster stages need cluster access; if the cluster is
	// already gone, only the cluster stage itself has anything to do. The
	// connection is read-only (Attach, not the provisioning probe) so that
	// teardown never creates resources, and a failed connection degrades to
	// cluster-only teardown instead of aborting.
	stages := buildStages(pctx.Config)
	state, err := pctx.Observe(provisioning.Resource{
		Name: pctx.Config.ClusterName,
		Kind: provisioning.KindPhysicalCluster,
	})
	if err != nil {
		return err
	}
	if state == platform.StateAbsent {
		stages = stages[:1]
	} else if err := cluster.New().Attach(pctx); err != nil {
		log.Printf("[delete] cannot connect to cluster, deleting the cluster only: %v", err)
		stages = stages[:1]
	}

	report := provisioning.Teardown(pctx, stages)
	log.Print(report.Summary())
	return nil
}
