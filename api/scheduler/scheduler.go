// Package scheduler runs the periodic background jobs: warming the
// registry snapshot cache and retrying failed camera contributions.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/idltd/CCTV-Log/databases"
	"github.com/idltd/CCTV-Log/models"
	"github.com/idltd/CCTV-Log/registry"
)

// Refresher warms the registry cache
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Submitter retries pending camera contributions
type Submitter interface {
	SubmitCamera(ctx context.Context, cam models.Camera) (string, error)
}

// Scheduler handles periodic background jobs
type Scheduler struct {
	cron     *cron.Cron
	Registry Refresher
	Client   Submitter
	CamDB    databases.LocalCameraDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(reg Refresher, client Submitter, camDB databases.LocalCameraDatabase) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		Registry: reg,
		Client:   client,
		CamDB:    camDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Refresh the offline registry snapshot nightly at 3 AM UTC, well
	// within the 12 hour cache TTL
	_, err := s.cron.AddFunc("0 3 * * *", s.refreshRegistryCache)
	if err != nil {
		zap.S().Errorw("failed to register cache refresh job", "error", err)
	}

	// Retry camera contributions that failed to reach the registry
	_, err = s.cron.AddFunc("30 3 * * *", s.retryFailedSubmissions)
	if err != nil {
		zap.S().Errorw("failed to register submission retry job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("background scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("background scheduler stopped")
}

// refreshRegistryCache pulls the full camera set so proximity search
// keeps working offline. Failure is non-fatal; the Refresh observer
// reports the outcome either way.
func (s *Scheduler) refreshRegistryCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.Registry.Refresh(ctx); err != nil {
		zap.S().Warnw("nightly registry cache refresh failed, will retry tomorrow", "error", err)
	}
}

// retryFailedSubmissions resubmits local cameras whose registry upload
// failed at creation time.
func (s *Scheduler) retryFailedSubmissions() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cameras, err := s.CamDB.Find(ctx, bson.M{"submitFailed": true})
	if err != nil {
		zap.S().Errorw("failed to find cameras needing resubmission", "error", err)
		return
	}
	if len(cameras) == 0 {
		return
	}

	retried := 0
	for _, cam := range cameras {
		pendingID, err := s.Client.SubmitCamera(ctx, cam)
		if err != nil {
			zap.S().Warnw("camera resubmission failed", "cameraID", cam.ID, "error", err)
			continue
		}
		_, err = s.CamDB.UpdateOne(ctx,
			bson.M{"_id": cam.ID},
			bson.M{"$set": bson.M{"submitFailed": false}},
		)
		if err != nil {
			zap.S().Errorw("failed to clear submission flag", "cameraID", cam.ID, "error", err)
			continue
		}
		zap.S().Infow("camera resubmitted for review", "cameraID", cam.ID, "pendingID", pendingID)
		retried++
	}

	zap.S().Infow("submission retry complete", "eligible", len(cameras), "resubmitted", retried)
}

var _ Refresher = (*registry.Service)(nil)
