package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"smartfleet-backend/internal/config"
	"smartfleet-backend/internal/models"
	"smartfleet-backend/pkg/redis"
)

func newTestCache(t *testing.T) (*RedisCacheManager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	log := logrus.New()
	client := redis.NewClient(config.RedisConfig{
		Host:         mr.Host(),
		Port:         mr.Port(),
		PoolSize:     2,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}, log)
	t.Cleanup(func() { client.Close() })

	return NewRedisCacheManager(client, DefaultCacheConfig()), mr
}

func testVehicle(plate string) *models.Vehicle {
	return &models.Vehicle{
		ID:      primitive.NewObjectID(),
		Plate:   plate,
		Type:    "VAN",
		Status:  models.VehicleStatusIdle,
		Lat:     46.7712,
		Lng:     23.5889,
		TotalKm: 120.5,
	}
}

func TestVehicleRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)

	vehicle := testVehicle("CJ-01-ABC")
	id := vehicle.ID.Hex()

	require.NoError(t, cache.SetVehicle(id, vehicle, time.Minute))

	got, err := cache.GetVehicle(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, vehicle.Plate, got.Plate)
	assert.Equal(t, vehicle.TotalKm, got.TotalKm)
}

func TestVehicleMissReturnsNil(t *testing.T) {
	cache, _ := newTestCache(t)

	got, err := cache.GetVehicle("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	stats := cache.GetCacheStats()
	assert.Equal(t, int64(1), stats.TotalMisses)
}

func TestVehicleTTLExpires(t *testing.T) {
	cache, mr := newTestCache(t)

	vehicle := testVehicle("CJ-02-DEF")
	id := vehicle.ID.Hex()
	require.NoError(t, cache.SetVehicle(id, vehicle, 10*time.Second))

	mr.FastForward(11 * time.Second)

	got, err := cache.GetVehicle(id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInvalidateVehicle(t *testing.T) {
	cache, _ := newTestCache(t)

	vehicle := testVehicle("CJ-03-GHI")
	id := vehicle.ID.Hex()
	require.NoError(t, cache.SetVehicle(id, vehicle, time.Minute))
	require.NoError(t, cache.InvalidateVehicle(id))

	got, err := cache.GetVehicle(id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVehicleListRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)

	vehicles := []*models.Vehicle{testVehicle("CJ-04-JKL"), testVehicle("CJ-05-MNO")}
	require.NoError(t, cache.SetVehicleList("all_vehicles", vehicles, time.Minute))

	got, err := cache.GetVehicleList("all_vehicles")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "CJ-04-JKL", got[0].Plate)

	require.NoError(t, cache.DeleteVehicleList("all_vehicles"))
	got, err = cache.GetVehicleList("all_vehicles")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheStatsTrackHitsAndMisses(t *testing.T) {
	cache, _ := newTestCache(t)

	vehicle := testVehicle("CJ-06-PQR")
	id := vehicle.ID.Hex()
	require.NoError(t, cache.SetVehicle(id, vehicle, time.Minute))

	_, err := cache.GetVehicle(id)
	require.NoError(t, err)
	_, err = cache.GetVehicle("missing")
	require.NoError(t, err)

	stats := cache.GetCacheStats()
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMisses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
}
