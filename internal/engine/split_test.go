// ABOUTME: Tests for day-boundary splitting, record validation, and dedup signatures.
// ABOUTME: Includes prorating across midnight and non-UTC inputs.
package engine

import (
	"math"
	"testing"
	"time"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRecord(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		steps     float64
		wantDates []string
		wantSteps []float64
	}{
		{
			name:      "same day",
			start:     "2025-03-01T08:00:00Z",
			end:       "2025-03-01T09:00:00Z",
			steps:     1000,
			wantDates: []string{"2025-03-01"},
			wantSteps: []float64{1000},
		},
		{
			name:      "ends exactly at midnight",
			start:     "2025-03-01T23:00:00Z",
			end:       "2025-03-02T00:00:00Z",
			steps:     300,
			wantDates: []string{"2025-03-01"},
			wantSteps: []float64{300},
		},
		{
			name:      "three quarters before midnight",
			start:     "2025-03-01T22:30:00Z",
			end:       "2025-03-02T00:30:00Z",
			steps:     600,
			wantDates: []string{"2025-03-01", "2025-03-02"},
			wantSteps: []float64{450, 150},
		},
		{
			name:      "even split",
			start:     "2025-03-01T23:00:00Z",
			end:       "2025-03-02T01:00:00Z",
			steps:     600,
			wantDates: []string{"2025-03-01", "2025-03-02"},
			wantSteps: []float64{300, 300},
		},
		{
			name:      "longer than two days keeps the rest in the second fragment",
			start:     "2025-03-01T12:00:00Z",
			end:       "2025-03-03T12:00:00Z",
			steps:     480,
			wantDates: []string{"2025-03-01", "2025-03-02"},
			wantSteps: []float64{120, 360},
		},
		{
			name:      "non utc offsets use the utc day",
			start:     "2025-03-01T18:00:00-05:00",
			end:       "2025-03-01T20:00:00-05:00",
			steps:     200,
			wantDates: []string{"2025-03-01", "2025-03-02"},
			wantSteps: []float64{100, 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := models.NewInterval(utc(tt.start), utc(tt.end)).
				WithValue("count", tt.steps).
				WithMetadata("source", "watch")

			frags := splitRecord(rec, []string{"count"})
			require.Len(t, frags, len(tt.wantDates))

			var total float64
			for i, f := range frags {
				assert.Equal(t, tt.wantDates[i], f.Date)
				assert.InDelta(t, tt.wantSteps[i], f.Record.Values["count"], 1e-9)
				assert.Equal(t, "watch", f.Record.Metadata["source"])
				total += f.Record.Values["count"]
			}
			assert.InDelta(t, tt.steps, total, 1e-9)
			assert.Equal(t, tt.steps, rec.Values["count"], "input must not be mutated")
		})
	}
}

func TestSplitRecordFragmentBounds(t *testing.T) {
	start := utc("2025-03-01T22:30:00Z")
	end := utc("2025-03-02T00:30:00Z")
	rec := models.NewInterval(start, end).
		WithValue("distance", 3000).
		WithValue("avg_hr", 140).
		WithField("exercise_type", "running")

	frags := splitRecord(rec, []string{"distance", "energy"})
	require.Len(t, frags, 2)

	midnight := utc("2025-03-02T00:00:00Z")
	assert.Equal(t, start, frags[0].Record.StartTime)
	assert.Equal(t, midnight, frags[0].Record.EndTime)
	assert.Equal(t, midnight, frags[1].Record.StartTime)
	assert.Equal(t, end, frags[1].Record.EndTime)

	assert.InDelta(t, 2250, frags[0].Record.Values["distance"], 1e-9)
	assert.InDelta(t, 750, frags[1].Record.Values["distance"], 1e-9)

	// Non-prorated values and fields are copied to both fragments.
	for _, f := range frags {
		assert.Equal(t, 140.0, f.Record.Values["avg_hr"])
		assert.Equal(t, "running", f.Record.Fields["exercise_type"])
		_, hasEnergy := f.Record.Values["energy"]
		assert.False(t, hasEnergy)
	}

	frags[0].Record.Fields["exercise_type"] = "walking"
	assert.Equal(t, "running", frags[1].Record.Fields["exercise_type"])
}

func TestSplitRecordInstant(t *testing.T) {
	at := utc("2025-03-01T23:59:59Z")
	frags := splitRecord(models.NewInstant(at).WithValue("kg", 80), nil)
	require.Len(t, frags, 1)
	assert.Equal(t, "2025-03-01", frags[0].Date)
	assert.Equal(t, at, frags[0].Record.Time)
}

func TestValidateRecord(t *testing.T) {
	steps, err := registry.Describe(models.KindSteps)
	require.NoError(t, err)
	weight, err := registry.Describe(models.KindWeight)
	require.NoError(t, err)

	start := utc("2025-03-01T10:00:00Z")
	end := utc("2025-03-01T11:00:00Z")

	tests := []struct {
		name    string
		desc    registry.Descriptor
		rec     *models.Record
		wantErr bool
	}{
		{"instant ok", weight, models.NewInstant(start).WithValue("kg", 80), false},
		{"interval ok", steps, models.NewInterval(start, end).WithValue("count", 5), false},
		{"nil", weight, nil, true},
		{"no timing", weight, (&models.Record{}).WithValue("kg", 80), true},
		{"both timings", weight, &models.Record{Time: start, StartTime: start, EndTime: end}, true},
		{"start only", weight, &models.Record{StartTime: start}, true},
		{"end before start", steps, models.NewInterval(end, start).WithValue("count", 5), true},
		{"end equals start", steps, models.NewInterval(start, start).WithValue("count", 5), true},
		{"aggregate missing value", steps, models.NewInterval(start, end).WithValue("meters", 5), true},
		{"not finite", weight, models.NewInstant(start).WithValue("kg", math.NaN()), true},
		{"sample kind without values", weight, models.NewInstant(start), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRecord(tt.desc, tt.rec)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecord)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	desc, err := registry.Describe(models.KindExerciseSession)
	require.NoError(t, err)

	start := utc("2025-03-01T10:00:00Z")
	end := utc("2025-03-01T11:00:00Z")
	base := models.NewInterval(start, end).WithField("exercise_type", "running").WithValue("distance", 5000)

	same := models.NewInterval(start.In(time.FixedZone("EST", -5*3600)), end).
		WithField("exercise_type", "running").
		WithValue("distance", 4999).
		WithMetadata("source", "phone")
	other := models.NewInterval(start, end).WithField("exercise_type", "cycling")

	assert.Equal(t, signature(desc, base), signature(desc, same), "only dedup fields count")
	assert.NotEqual(t, signature(desc, base), signature(desc, other))
}
