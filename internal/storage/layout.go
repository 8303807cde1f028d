// ABOUTME: Logical document layout for day buckets and the record index.
// ABOUTME: users/{user}/healthMetrics/{kind}/days/{date} and .../recordIndex/{id}.
package storage

import (
	"fmt"
	"strings"

	"github.com/harperreed/healthstore/internal/models"
)

const (
	usersRoot    = "users"
	metricsDir   = "healthMetrics"
	daysDir      = "days"
	recordIdxDir = "recordIndex"
)

// ValidSegment reports whether s can be used as a single path segment.
func ValidSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, "/\x00")
}

// UserPrefix is the prefix of every document owned by a user.
func UserPrefix(userID string) string {
	return fmt.Sprintf("%s/%s/", usersRoot, userID)
}

// KindPrefix is the prefix of every document for one user and kind.
func KindPrefix(userID string, kind models.MetricKind) string {
	return fmt.Sprintf("%s%s/%s/", UserPrefix(userID), metricsDir, kind)
}

// BucketPath addresses the day bucket for (user, kind, date).
func BucketPath(userID string, kind models.MetricKind, date string) string {
	return KindPrefix(userID, kind) + daysDir + "/" + date
}

// IndexPath addresses the index entry for a record id.
func IndexPath(userID string, kind models.MetricKind, recordID string) string {
	return KindPrefix(userID, kind) + recordIdxDir + "/" + recordID
}

// IsBucketPath reports whether path addresses a day bucket.
func IsBucketPath(path string) bool {
	return strings.Contains(path, "/"+metricsDir+"/") && strings.Contains(path, "/"+daysDir+"/")
}

// IsIndexPath reports whether path addresses a record index entry.
func IsIndexPath(path string) bool {
	return strings.Contains(path, "/"+metricsDir+"/") && strings.Contains(path, "/"+recordIdxDir+"/")
}
