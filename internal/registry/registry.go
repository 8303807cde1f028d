// ABOUTME: Static metric type registry describing how each kind is stored.
// ABOUTME: Maps kinds to strategy, combine rule, unit, dedup and prorate fields.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/harperreed/healthstore/internal/models"
)

// ErrUnknownMetricKind is returned for kinds missing from the registry.
var ErrUnknownMetricKind = errors.New("unknown metric kind")

// Dedup signature tokens that refer to the record's timing rather than a value.
const (
	FieldTime      = "time"
	FieldStartTime = "start_time"
	FieldEndTime   = "end_time"
)

// Descriptor is everything the engine needs to know about a kind.
type Descriptor struct {
	Kind     models.MetricKind
	Strategy models.StorageStrategy
	// Combine and ValueField only apply to RunningAggregate kinds.
	Combine    models.CombineRule
	ValueField string
	Unit       string
	// DedupFields name the timing tokens and value/field names that make up
	// a sample's signature.
	DedupFields []string
	// ProrateFields are scaled by duration share when a record is split.
	ProrateFields []string
}

// IsAggregate reports whether the kind is stored as a running aggregate.
func (d Descriptor) IsAggregate() bool {
	return d.Strategy == models.RunningAggregate
}

func sum(kind models.MetricKind, field, unit string) Descriptor {
	return Descriptor{
		Kind:          kind,
		Strategy:      models.RunningAggregate,
		Combine:       models.CombineSum,
		ValueField:    field,
		Unit:          unit,
		ProrateFields: []string{field},
	}
}

func mean(kind models.MetricKind, field, unit string) Descriptor {
	return Descriptor{
		Kind:       kind,
		Strategy:   models.RunningAggregate,
		Combine:    models.CombineMean,
		ValueField: field,
		Unit:       unit,
	}
}

func samples(kind models.MetricKind, unit string, dedup []string, prorate ...string) Descriptor {
	return Descriptor{
		Kind:          kind,
		Strategy:      models.SampleList,
		Unit:          unit,
		DedupFields:   dedup,
		ProrateFields: prorate,
	}
}

var descriptors = []Descriptor{
	sum(models.KindSteps, "count", "steps"),
	sum(models.KindDistance, "meters", "m"),
	sum(models.KindActiveCalories, "energy", "kcal"),
	sum(models.KindTotalCalories, "energy", "kcal"),
	sum(models.KindFloorsClimbed, "floors", "floors"),
	sum(models.KindElevationGained, "elevation", "m"),
	sum(models.KindWheelchairPushes, "pushes", "pushes"),
	sum(models.KindHydration, "volume", "ml"),

	mean(models.KindHeartRate, "bpm", "bpm"),
	mean(models.KindRestingHeartRate, "bpm", "bpm"),
	mean(models.KindHRV, "ms", "ms"),
	mean(models.KindRespiratoryRate, "rate", "breaths/min"),
	mean(models.KindOxygenSaturation, "percentage", "%"),
	mean(models.KindBodyTemperature, "temperature", "°C"),

	samples(models.KindSleepSession, "",
		[]string{FieldStartTime, FieldEndTime}),
	samples(models.KindExerciseSession, "",
		[]string{FieldStartTime, FieldEndTime, "exercise_type"},
		"distance", "energy", "steps"),
	samples(models.KindNutrition, "kcal",
		[]string{FieldStartTime, FieldEndTime, "energy"},
		"energy", "protein", "carbs", "fat"),
	samples(models.KindWeight, "kg", []string{FieldTime, "kg"}),
	samples(models.KindHeight, "m", []string{FieldTime, "meters"}),
	samples(models.KindBodyFat, "%", []string{FieldTime, "percentage"}),
	samples(models.KindBloodPressure, "mmHg", []string{FieldTime, "systolic", "diastolic"}),
	samples(models.KindBloodGlucose, "mmol/L", []string{FieldTime, "level"}),
}

var byKind = func() map[models.MetricKind]Descriptor {
	m := make(map[models.MetricKind]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Kind] = d
	}
	return m
}()

// Describe returns the descriptor for kind.
func Describe(kind models.MetricKind) (Descriptor, error) {
	d, ok := byKind[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownMetricKind, kind)
	}
	d.DedupFields = slices.Clone(d.DedupFields)
	d.ProrateFields = slices.Clone(d.ProrateFields)
	return d, nil
}

// Kinds returns every registered kind in registration order.
func Kinds() []models.MetricKind {
	kinds := make([]models.MetricKind, 0, len(descriptors))
	for _, d := range descriptors {
		kinds = append(kinds, d.Kind)
	}
	return kinds
}

// Parse converts a user supplied string into a registered kind.
func Parse(s string) (models.MetricKind, error) {
	kind := models.MetricKind(s)
	if _, ok := byKind[kind]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMetricKind, s)
	}
	return kind, nil
}

// IsValid checks if a string names a registered kind.
func IsValid(s string) bool {
	_, ok := byKind[models.MetricKind(s)]
	return ok
}
