package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleExport = `{
  "tours": [
    {"id": "t-old", "status": false, "createdAt": "2024-02-01T09:00:00Z"},
    {"id": "t-new", "status": true, "createdAt": "2024-03-01T09:00:00Z"}
  ],
  "surveys": [
    {"id": "s1", "tourId": "t-new", "latLong": {"latitude": 21.25, "longitude": 81.63}, "shopName": "Gupta Stores", "name": "R. Gupta"},
    {"id": "s2", "tourId": "t-old", "latLong": {"latitude": 21.30, "longitude": 81.70}, "location": "Civil Lines"},
    {"id": "s3", "tourId": "t-new", "location": "No GPS"}
  ],
  "expenses": [
    {"id": "e1", "tourId": "t-new", "amount": 250.5, "createdAt": "2024-03-01T12:00:00Z"},
    {"id": "e2", "tourId": "t-old", "amount": 90, "createdAt": "2024-02-01T12:00:00Z"}
  ]
}`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestJSONTourSource_Load(t *testing.T) {
	source, err := NewJSONTourSource(writeExport(t, sampleExport), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	trips, err := source.ListTrips(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "t-new", trips[0].ID, "trips should be newest first")
	assert.True(t, trips[0].Active())

	surveys, err := source.ListSurveys(ctx, "t-new")
	require.NoError(t, err)
	require.Len(t, surveys, 2)
	assert.Equal(t, "s1", surveys[0].ID)
	require.NotNil(t, surveys[0].LatLong)
	assert.Equal(t, 21.25, *surveys[0].LatLong.Latitude)
	assert.Nil(t, surveys[1].LatLong)

	all, err := source.ListSurveys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	expenses, err := source.ListExpenses(ctx, "t-old")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, 90.0, expenses[0].Amount)
}

func TestJSONTourSource_GetTrip(t *testing.T) {
	source, err := NewJSONTourSource(writeExport(t, sampleExport), zap.NewNop())
	require.NoError(t, err)

	trip, err := source.GetTrip(context.Background(), "t-old")
	require.NoError(t, err)
	assert.False(t, trip.Active())

	_, err = source.GetTrip(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONTourSource_MissingFile(t *testing.T) {
	source, err := NewJSONTourSource(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
	require.NoError(t, err)

	trips, err := source.ListTrips(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trips)

	surveys, err := source.ListSurveys(context.Background(), "t1")
	require.NoError(t, err)
	assert.NotNil(t, surveys)
}

func TestJSONTourSource_ReloadsOnChange(t *testing.T) {
	path := writeExport(t, `{"tours":[{"id":"a","status":true}]}`)
	source, err := NewJSONTourSource(path, zap.NewNop())
	require.NoError(t, err)

	trips, _ := source.ListTrips(context.Background())
	require.Len(t, trips, 1)

	require.NoError(t, os.WriteFile(path, []byte(`{"tours":[{"id":"a"},{"id":"b"}]}`), 0600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	trips, err = source.ListTrips(context.Background())
	require.NoError(t, err)
	assert.Len(t, trips, 2)
}

func TestJSONTourSource_InvalidFile(t *testing.T) {
	_, err := NewJSONTourSource(writeExport(t, "{"), zap.NewNop())
	assert.Error(t, err)
}

func TestStaticTourSource(t *testing.T) {
	source := NewStaticTourSource(nil)

	trips, err := source.ListTrips(context.Background())
	require.NoError(t, err)
	assert.Empty(t, trips)
}
