package constants

import (
	"fmt"
	"time"
)

// Centralized Redis key names and TTLs.
// Pattern: eventhub:{module}:{operation}:{identifier}:{params?}

// Cache TTLs
const (
	TTL_EVENT_LIST     = 1 * time.Hour
	TTL_EVENT_DETAIL   = 2 * time.Hour
	TTL_EVENT_UPCOMING = 15 * time.Minute
	TTL_EVENT_FEATURED = 15 * time.Minute
	TTL_CATEGORY_LIST  = 6 * time.Hour
	TTL_ADMIN_STATS    = 10 * time.Minute
)

const CACHE_PREFIX = "eventhub"

// Event cache keys
const (
	CACHE_KEY_EVENTS_LIST     = CACHE_PREFIX + ":events:list"     // + :page:X:limit:Y:...
	CACHE_KEY_EVENTS_UPCOMING = CACHE_PREFIX + ":events:upcoming" // + :limit:X
	CACHE_KEY_EVENTS_FEATURED = CACHE_PREFIX + ":events:featured"
	CACHE_KEY_EVENT_DETAIL    = CACHE_PREFIX + ":events:detail:uuid:" // + event-id
)

// Category cache keys
const (
	CACHE_KEY_CATEGORIES = CACHE_PREFIX + ":categories:list"
)

// Admin dashboard aggregates
const (
	CACHE_KEY_ADMIN_STATS = CACHE_PREFIX + ":admin:stats"
)

// Invalidation patterns
const (
	PATTERN_INVALIDATE_EVENT_ALL    = CACHE_PREFIX + ":events:*"
	PATTERN_INVALIDATE_EVENT_DETAIL = CACHE_PREFIX + ":events:detail:uuid:"
	PATTERN_INVALIDATE_CATEGORIES   = CACHE_PREFIX + ":categories:*"
)

// Store snapshot keys: the memory backend serializes its full collections
// here on every commit, last write wins.
const (
	SNAPSHOT_KEY_EVENTS   = CACHE_PREFIX + ":snapshot:events"
	SNAPSHOT_KEY_BOOKINGS = CACHE_PREFIX + ":snapshot:bookings"
)

// OTP verification codes
const (
	OTP_KEY_PREFIX = CACHE_PREFIX + ":auth:otp:" // + email
)

func BuildEventDetailKey(eventID string) string {
	return CACHE_KEY_EVENT_DETAIL + eventID
}

func BuildEventListKey(page, limit int, filterFingerprint string) string {
	return fmt.Sprintf("%s:page:%d:limit:%d:f:%s", CACHE_KEY_EVENTS_LIST, page, limit, filterFingerprint)
}

func BuildOTPKey(email string) string {
	return OTP_KEY_PREFIX + email
}
