// ABOUTME: Day-boundary splitting of interval records with duration-based prorating.
// ABOUTME: Also validates record shape before anything touches the store.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/shopspring/decimal"
)

// fragment is the part of a record that lands in one day bucket.
type fragment struct {
	Date   string
	Record *models.Record
}

func validateRecord(desc registry.Descriptor, rec *models.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	hasInstant := !rec.Time.IsZero()
	switch {
	case hasInstant && rec.IsInterval():
		return fmt.Errorf("%w: both time and start/end set", ErrInvalidRecord)
	case !hasInstant && !rec.IsInterval():
		return fmt.Errorf("%w: no time or start/end set", ErrInvalidRecord)
	case rec.IsInterval() && (rec.StartTime.IsZero() || rec.EndTime.IsZero()):
		return fmt.Errorf("%w: interval needs both start and end", ErrInvalidRecord)
	case rec.IsInterval() && !rec.EndTime.After(rec.StartTime):
		return fmt.Errorf("%w: end %s is not after start %s", ErrInvalidRecord,
			rec.EndTime.Format(time.RFC3339), rec.StartTime.Format(time.RFC3339))
	}

	if desc.IsAggregate() {
		if _, ok := rec.Values[desc.ValueField]; !ok {
			return fmt.Errorf("%w: %s requires value %q", ErrInvalidRecord, desc.Kind, desc.ValueField)
		}
	}
	for name, v := range rec.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %q is not finite", ErrInvalidRecord, name)
		}
	}
	return nil
}

// splitRecord cuts an interval whose start and end fall on different UTC
// days into two fragments at the first midnight after start. An end exactly
// at that midnight stays on the start day. Only one boundary is ever cut, so
// a span covering more than two days leaves everything after the first
// midnight in the second fragment.
func splitRecord(rec *models.Record, prorate []string) []fragment {
	if !rec.IsInterval() {
		return []fragment{{Date: models.DateKey(rec.Time), Record: rec.Clone()}}
	}

	start := rec.StartTime.UTC()
	end := rec.EndTime.UTC()
	boundary := models.DayOf(start).AddDate(0, 0, 1)
	if !end.After(boundary) {
		return []fragment{{Date: models.DateKey(start), Record: rec.Clone()}}
	}

	first := rec.Clone()
	first.EndTime = boundary
	second := rec.Clone()
	second.StartTime = boundary

	total := decimal.NewFromInt(int64(end.Sub(start)))
	share := decimal.NewFromInt(int64(boundary.Sub(start)))
	for _, name := range prorate {
		v, ok := rec.Values[name]
		if !ok {
			continue
		}
		whole := decimal.NewFromFloat(v)
		head := whole.Mul(share).Div(total)
		// The tail takes the remainder so the fragments always add up.
		first.Values[name] = head.InexactFloat64()
		second.Values[name] = whole.Sub(head).InexactFloat64()
	}

	return []fragment{
		{Date: models.DateKey(start), Record: first},
		{Date: models.DateKey(boundary), Record: second},
	}
}
