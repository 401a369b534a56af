package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/idltd/CCTV-Log/databases/mocks"
	"github.com/idltd/CCTV-Log/models"
)

type fakeSearcher struct {
	cameras []models.Camera
	err     error
}

func (f *fakeSearcher) Nearby(ctx context.Context, lat, lng, radiusM float64) ([]models.Camera, error) {
	return f.cameras, f.err
}

func (f *fakeSearcher) ListCameras(ctx context.Context) ([]models.Camera, error) {
	return f.cameras, f.err
}

type fakeSnapshots struct {
	set *CachedSet
	err error
	put []models.Camera
}

func (f *fakeSnapshots) Get(ctx context.Context) (*CachedSet, error) {
	return f.set, f.err
}

func (f *fakeSnapshots) Put(ctx context.Context, cameras []models.Camera) error {
	f.put = cameras
	return f.err
}

func emptyLocalDB() *mocks.LocalCameraDatabase {
	db := &mocks.LocalCameraDatabase{}
	db.On("Find", mock.Anything, mock.Anything).Return([]models.Camera{}, nil)
	return db
}

func TestDistanceSamePointIsZero(t *testing.T) {
	assert.InDelta(t, 0, Distance(51.5, -0.1, 51.5, -0.1), 0.001)
}

func TestDistanceOneDegreeOfLatitude(t *testing.T) {
	// one degree of latitude is ~111.2km on a 6371km sphere
	assert.InDelta(t, 111195, Distance(0, 0, 1, 0), 10)
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := Distance(51.5007, -0.1246, 53.4808, -2.2426)
	b := Distance(53.4808, -2.2426, 51.5007, -0.1246)
	assert.InDelta(t, a, b, 0.001)
}

func TestFilterByRadiusCutsAndSorts(t *testing.T) {
	cameras := []models.Camera{
		{ID: "far", Lat: 51.51, Lng: -0.1},   // ~1.1km north
		{ID: "near", Lat: 51.5001, Lng: -0.1}, // ~11m north
		{ID: "mid", Lat: 51.501, Lng: -0.1},  // ~111m north
	}

	got := FilterByRadius(cameras, 51.5, -0.1, 500)

	assert.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Less(t, got[0].Distance, got[1].Distance)
}

func TestNearbyAppendsLocalEntriesRegardlessOfDistance(t *testing.T) {
	client := &fakeSearcher{cameras: []models.Camera{
		{ID: "remote-mid", Lat: 51.501, Lng: -0.1},
	}}
	localDB := &mocks.LocalCameraDatabase{}
	localDB.On("Find", mock.Anything, mock.Anything).Return([]models.Camera{
		{ID: "local-far", Lat: 52.5, Lng: -0.1, Local: true},
		{ID: "local-near", Lat: 51.5001, Lng: -0.1, Local: true},
	}, nil)

	svc := &Service{Client: client, Cache: &fakeSnapshots{}, LocalDB: localDB}
	res, err := svc.Nearby(context.Background(), 51.5, -0.1, 500)

	assert.NoError(t, err)
	assert.NoError(t, res.RegistryErr)
	assert.Equal(t, SourceRegistry, res.Source)
	// locals come after registry rows, sorted among themselves, and the
	// out-of-radius local is still present
	assert.Len(t, res.Cameras, 3)
	assert.Equal(t, "remote-mid", res.Cameras[0].ID)
	assert.Equal(t, "local-near", res.Cameras[1].ID)
	assert.Equal(t, "local-far", res.Cameras[2].ID)
}

func TestNearbyZeroRowsIsNotAnError(t *testing.T) {
	svc := &Service{
		Client:  &fakeSearcher{cameras: []models.Camera{}},
		Cache:   &fakeSnapshots{},
		LocalDB: emptyLocalDB(),
	}

	res, err := svc.Nearby(context.Background(), 51.5, -0.1, 500)

	assert.NoError(t, err)
	assert.NoError(t, res.RegistryErr)
	assert.Equal(t, SourceRegistry, res.Source)
	assert.NotNil(t, res.Cameras)
	assert.Empty(t, res.Cameras)
}

func TestNearbyFallsBackToCachedSnapshot(t *testing.T) {
	rows := []models.Camera{
		{ID: "b", Lat: 51.501, Lng: -0.1},
		{ID: "a", Lat: 51.5001, Lng: -0.1},
	}

	// the live path and the fallback path must rank the same data the same way
	live := &Service{
		Client:  &fakeSearcher{cameras: rows},
		Cache:   &fakeSnapshots{},
		LocalDB: emptyLocalDB(),
	}
	fallback := &Service{
		Client:  &fakeSearcher{err: ErrUnavailable},
		Cache:   &fakeSnapshots{set: &CachedSet{FetchedAt: time.Now(), Cameras: rows}},
		LocalDB: emptyLocalDB(),
	}

	liveRes, err := live.Nearby(context.Background(), 51.5, -0.1, 500)
	assert.NoError(t, err)
	fallbackRes, err := fallback.Nearby(context.Background(), 51.5, -0.1, 500)
	assert.NoError(t, err)

	assert.Equal(t, SourceCache, fallbackRes.Source)
	assert.ErrorIs(t, fallbackRes.RegistryErr, ErrUnavailable)

	assert.Len(t, fallbackRes.Cameras, len(liveRes.Cameras))
	for i := range liveRes.Cameras {
		assert.Equal(t, liveRes.Cameras[i].ID, fallbackRes.Cameras[i].ID)
		assert.InDelta(t, liveRes.Cameras[i].Distance, fallbackRes.Cameras[i].Distance, 0.001)
	}
}

func TestNearbyWithoutCacheFallsBackToLocal(t *testing.T) {
	localDB := &mocks.LocalCameraDatabase{}
	localDB.On("Find", mock.Anything, mock.Anything).Return([]models.Camera{
		{ID: "local", Lat: 51.5001, Lng: -0.1, Local: true},
	}, nil)

	svc := &Service{
		Client:  &fakeSearcher{err: ErrUnavailable},
		Cache:   &fakeSnapshots{},
		LocalDB: localDB,
	}

	res, err := svc.Nearby(context.Background(), 51.5, -0.1, 500)

	assert.NoError(t, err)
	assert.Equal(t, SourceLocal, res.Source)
	assert.ErrorIs(t, res.RegistryErr, ErrUnavailable)
	assert.Len(t, res.Cameras, 1)
	assert.Equal(t, "local", res.Cameras[0].ID)
}

func TestCachedSetFreshWithinTTL(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	set := &CachedSet{FetchedAt: now.Add(-11 * time.Hour)}

	assert.True(t, set.Fresh(now))
}

func TestCachedSetStaleAfterTTL(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&CachedSet{FetchedAt: now.Add(-12*time.Hour - time.Minute)}).Fresh(now))
	assert.True(t, (&CachedSet{FetchedAt: now.Add(-CacheTTL)}).Fresh(now))
}

func TestNearbyExpiredSnapshotIsIgnored(t *testing.T) {
	// Cache.Get returns nil for expired snapshots, so the service sees no set
	svc := &Service{
		Client:  &fakeSearcher{err: ErrUnavailable},
		Cache:   &fakeSnapshots{set: nil},
		LocalDB: emptyLocalDB(),
	}

	res, err := svc.Nearby(context.Background(), 51.5, -0.1, 500)

	assert.NoError(t, err)
	assert.Equal(t, SourceLocal, res.Source)
	assert.Empty(t, res.Cameras)
}

func TestRefreshStoresSnapshotAndNotifies(t *testing.T) {
	snaps := &fakeSnapshots{}
	var observed RefreshResult
	svc := &Service{
		Client: &fakeSearcher{cameras: []models.Camera{{ID: "a"}, {ID: "b"}}},
		Cache:  snaps,
		Observer: func(r RefreshResult) {
			observed = r
		},
	}

	err := svc.Refresh(context.Background())

	assert.NoError(t, err)
	assert.Len(t, snaps.put, 2)
	assert.Equal(t, 2, observed.Count)
	assert.NoError(t, observed.Err)
}

func TestRefreshReportsFailure(t *testing.T) {
	var observed RefreshResult
	svc := &Service{
		Client: &fakeSearcher{err: ErrUnavailable},
		Cache:  &fakeSnapshots{},
		Observer: func(r RefreshResult) {
			observed = r
		},
	}

	err := svc.Refresh(context.Background())

	assert.Error(t, err)
	assert.ErrorIs(t, observed.Err, ErrUnavailable)
}
