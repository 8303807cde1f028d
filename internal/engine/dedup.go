// ABOUTME: Content signatures used to drop re-ingested sample records.
// ABOUTME: Hashes the kind's dedup fields with xxhash.
package engine

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
)

// signature hashes the dedup fields of rec. Two records with equal values
// for every dedup field hash identically; absent fields hash as empty.
func signature(desc registry.Descriptor, rec *models.Record) uint64 {
	d := xxhash.New()
	for _, name := range desc.DedupFields {
		_, _ = d.WriteString(name)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(dedupValue(rec, name))
		_, _ = d.WriteString("\x1f")
	}
	return d.Sum64()
}

func dedupValue(rec *models.Record, name string) string {
	switch name {
	case registry.FieldTime:
		return formatInstant(rec.Time)
	case registry.FieldStartTime:
		return formatInstant(rec.StartTime)
	case registry.FieldEndTime:
		return formatInstant(rec.EndTime)
	}
	if v, ok := rec.Values[name]; ok {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return rec.Fields[name]
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
