package models

import "time"

// ResourceType discriminates what a share token grants access to. The
// numeric mapping is persisted and must stay stable.
type ResourceType int

const (
	ResourceCategory ResourceType = 0
	ResourceItem     ResourceType = 1
	ResourceService  ResourceType = 2
)

func (r ResourceType) String() string {
	switch r {
	case ResourceCategory:
		return "category"
	case ResourceItem:
		return "item"
	case ResourceService:
		return "service"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the known discriminant values.
func (r ResourceType) Valid() bool {
	return r == ResourceCategory || r == ResourceItem || r == ResourceService
}

// ShareToken is a single-use capability grant: an opaque token string that
// lets a named external party redeem access to one resource, once. Tokens
// never expire unless ExpiresAt is set.
type ShareToken struct {
	ID         string
	UserID     string
	Token      string
	Resource   ResourceType
	ResourceID string
	Email      string
	Used       bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (t *ShareToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}
