// ABOUTME: MetricKind enum, storage strategies, and combine rules for health data.
// ABOUTME: Defines 22 metric kinds across activity, vitals, body measurements, and sessions.
package models

// MetricKind identifies one category of health or activity measurement.
type MetricKind string

const (
	// Activity totals
	KindSteps            MetricKind = "steps"
	KindDistance         MetricKind = "distance"
	KindActiveCalories   MetricKind = "active_calories"
	KindTotalCalories    MetricKind = "total_calories"
	KindFloorsClimbed    MetricKind = "floors_climbed"
	KindElevationGained  MetricKind = "elevation_gained"
	KindWheelchairPushes MetricKind = "wheelchair_pushes"
	KindHydration        MetricKind = "hydration"

	// Vitals
	KindHeartRate        MetricKind = "heart_rate"
	KindRestingHeartRate MetricKind = "resting_heart_rate"
	KindHRV              MetricKind = "hrv"
	KindRespiratoryRate  MetricKind = "respiratory_rate"
	KindOxygenSaturation MetricKind = "oxygen_saturation"
	KindBodyTemperature  MetricKind = "body_temperature"

	// Sessions
	KindSleepSession    MetricKind = "sleep_session"
	KindExerciseSession MetricKind = "exercise_session"
	KindNutrition       MetricKind = "nutrition"

	// Body measurements
	KindWeight        MetricKind = "weight"
	KindHeight        MetricKind = "height"
	KindBodyFat       MetricKind = "body_fat"
	KindBloodPressure MetricKind = "blood_pressure"
	KindBloodGlucose  MetricKind = "blood_glucose"
)

// StorageStrategy decides what a day bucket holds for a kind.
type StorageStrategy string

const (
	// RunningAggregate buckets hold one scalar updated on every ingestion.
	RunningAggregate StorageStrategy = "running_aggregate"
	// SampleList buckets hold individually addressable samples.
	SampleList StorageStrategy = "sample_list"
)

// CombineRule is how a running aggregate folds in a new value.
type CombineRule string

const (
	CombineSum  CombineRule = "sum"
	CombineMean CombineRule = "mean"
)

func (k MetricKind) String() string {
	return string(k)
}
