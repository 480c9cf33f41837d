package services_test

import (
	"context"
	"database/sql"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/internal/services"
	"github.com/sanops/asbuilt/internal/store"
	"github.com/sanops/asbuilt/internal/store/migrations"
	srvErrors "github.com/sanops/asbuilt/pkg/errors"
	"github.com/sanops/asbuilt/pkg/scheduler"
)

// fakePipeline lets specs control phase outcomes and observe progress.
type fakePipeline struct {
	connectErr error
	collectErr error
	collecting chan struct{} // closed when Collect starts
	release    chan struct{} // Collect blocks until closed, when non-nil
}

func (f *fakePipeline) Connect(ctx context.Context) (models.ClusterCapability, error) {
	if f.connectErr != nil {
		return models.ClusterCapability{}, f.connectErr
	}
	return models.NewClusterCapability(7, "5.3.0"), nil
}

func (f *fakePipeline) Collect(ctx context.Context, cap models.ClusterCapability) (*models.Inventory, error) {
	if f.collecting != nil {
		close(f.collecting)
		f.collecting = nil
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.collectErr != nil {
		return nil, f.collectErr
	}
	return &models.Inventory{
		Capability: cap,
		Cluster:    models.ClusterIdentity{Name: "grid-01"},
		Scores: []models.SectionScore{
			{Section: "cluster", Populated: 6, Expected: 6, Ratio: 1},
		},
		CollectedAt: time.Now().UTC(),
	}, nil
}

var _ = Describe("Collector service", func() {
	var (
		ctx   context.Context
		db    *sql.DB
		st    *store.Store
		sched *scheduler.Scheduler
		pipe  *fakePipeline
	)

	newService := func() *services.Collector {
		return services.NewCollectorService(pipe, st, nil, sched, 10)
	}

	BeforeEach(func() {
		ctx = context.Background()
		pipe = &fakePipeline{}

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, db)).To(Succeed())
		st = store.NewStore(db)

		sched = scheduler.NewScheduler(2)
	})

	AfterEach(func() {
		sched.Close()
		if db != nil {
			db.Close()
		}
	})

	It("should start ready", func() {
		Expect(newService().Status().State).To(Equal(models.CollectorStateReady))
	})

	It("should run once, persist the run and end collected", func() {
		svc := newService()

		run, err := svc.RunOnce(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(run.Cluster).To(Equal("grid-01"))
		Expect(run.Completeness).To(BeNumerically("==", 1))

		status := svc.Status()
		Expect(status.State).To(Equal(models.CollectorStateCollected))
		Expect(status.LastRunID).To(Equal(run.ID))

		stored, err := st.Runs().Get(ctx, run.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Revision).To(Equal(models.Revision(7)))
	})

	It("should end in error state when the pipeline fails", func() {
		pipe.connectErr = srvErrors.NewAuthFailedError("10.1.2.3")
		svc := newService()

		_, err := svc.RunOnce(ctx)

		Expect(srvErrors.IsAuthFailedError(err)).To(BeTrue())
		status := svc.Status()
		Expect(status.State).To(Equal(models.CollectorStateError))
		Expect(status.Error).NotTo(BeEmpty())
	})

	It("should allow a new run after a failed one", func() {
		pipe.collectErr = srvErrors.NewUnreachableError("10.1.2.3", context.DeadlineExceeded)
		svc := newService()

		_, err := svc.RunOnce(ctx)
		Expect(err).To(HaveOccurred())

		pipe.collectErr = nil
		_, err = svc.RunOnce(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(svc.Status().State).To(Equal(models.CollectorStateCollected))
	})

	Context("Trigger", func() {
		It("should reject a second collection while one is running", func() {
			pipe.collecting = make(chan struct{})
			pipe.release = make(chan struct{})
			svc := newService()

			runID, err := svc.Trigger()
			Expect(err).NotTo(HaveOccurred())
			Expect(runID).NotTo(BeEmpty())

			Eventually(func() models.CollectorState {
				return svc.Status().State
			}).Should(Equal(models.CollectorStateCollecting))

			_, err = svc.Trigger()
			Expect(srvErrors.IsCollectionInProgressError(err)).To(BeTrue())

			_, err = svc.RunOnce(ctx)
			Expect(srvErrors.IsCollectionInProgressError(err)).To(BeTrue())

			close(pipe.release)
			Eventually(func() models.CollectorState {
				return svc.Status().State
			}).Should(Equal(models.CollectorStateCollected))
		})
	})
})
