package registry

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/idltd/CCTV-Log/databases"
	"github.com/idltd/CCTV-Log/models"
)

// Where a search result came from.
const (
	SourceRegistry = "registry"
	SourceCache    = "cache"
	SourceLocal    = "local"
)

// Searcher is the slice of the registry client the service needs.
type Searcher interface {
	Nearby(ctx context.Context, lat, lng, radiusM float64) ([]models.Camera, error)
	ListCameras(ctx context.Context) ([]models.Camera, error)
}

// SnapshotStore is the slice of the cache the service needs.
type SnapshotStore interface {
	Get(ctx context.Context) (*CachedSet, error)
	Put(ctx context.Context, cameras []models.Camera) error
}

// SearchResult is a proximity search answer. RegistryErr being set means
// the registry could not be consulted and the results may be incomplete;
// an empty Cameras slice with a nil RegistryErr means there genuinely are
// no known cameras in range.
type SearchResult struct {
	Cameras     []models.Camera `json:"cameras"`
	Source      string          `json:"source"`
	RegistryErr error           `json:"-"`
}

// RefreshResult reports the outcome of a cache warm
type RefreshResult struct {
	At    time.Time
	Count int
	Err   error
}

// Service answers proximity searches, preferring the live registry and
// degrading to the cached snapshot, then to local-only entries.
type Service struct {
	Client   Searcher
	Cache    SnapshotStore
	LocalDB  databases.LocalCameraDatabase
	Observer func(RefreshResult)
}

// FilterByRadius keeps cameras within radiusM metres of the point, sets
// their Distance, and sorts them nearest first.
func FilterByRadius(cameras []models.Camera, lat, lng, radiusM float64) []models.Camera {
	out := make([]models.Camera, 0, len(cameras))
	for _, cam := range cameras {
		d := Distance(lat, lng, cam.Lat, cam.Lng)
		if d > radiusM {
			continue
		}
		cam.Distance = d
		out = append(out, cam)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// Nearby returns cameras within radiusM metres of the point, nearest
// first, merging registry (or cached) entries with the user's local ones.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusM float64) (*SearchResult, error) {
	res := &SearchResult{Source: SourceRegistry}

	remote, err := s.Client.Nearby(ctx, lat, lng, radiusM)
	if err != nil {
		res.RegistryErr = err
		zap.S().Warnw("registry unreachable, trying cached snapshot", "error", err)
		set, cerr := s.Cache.Get(ctx)
		if cerr != nil {
			zap.S().Errorw("failed to read registry cache", "error", cerr)
		}
		if set != nil {
			remote = set.Cameras
			res.Source = SourceCache
		} else {
			remote = nil
			res.Source = SourceLocal
		}
	}
	// Distances are recomputed locally even for server rows so registry
	// and cached results rank identically.
	cameras := FilterByRadius(remote, lat, lng, radiusM)

	// The user's own entries are always appended, even outside the radius,
	// so an unapproved contribution stays visible to its submitter.
	locals, err := s.LocalDB.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	for i := range locals {
		locals[i].Distance = Distance(lat, lng, locals[i].Lat, locals[i].Lng)
	}
	sort.Slice(locals, func(i, j int) bool {
		return locals[i].Distance < locals[j].Distance
	})
	res.Cameras = append(cameras, locals...)
	return res, nil
}

// Refresh pulls the full camera set and replaces the cached snapshot.
// Outcomes are reported to the Observer when one is registered.
func (s *Service) Refresh(ctx context.Context) error {
	result := RefreshResult{At: time.Now().UTC()}

	cameras, err := s.Client.ListCameras(ctx)
	if err == nil {
		result.Count = len(cameras)
		err = s.Cache.Put(ctx, cameras)
	}
	result.Err = err

	if err != nil {
		zap.S().Errorw("registry cache refresh failed", "error", err)
	} else {
		zap.S().Infow("registry cache refreshed", "cameras", result.Count)
	}
	if s.Observer != nil {
		s.Observer(result)
	}
	return err
}
