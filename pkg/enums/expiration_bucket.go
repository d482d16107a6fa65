package enums

// ExpirationBucket classifies an item's expiration date relative to a reference day.
type ExpirationBucket string

const (
	ExpirationNone     ExpirationBucket = "none"
	ExpirationExpired  ExpirationBucket = "expired"
	ExpirationCritical ExpirationBucket = "critical"
	ExpirationSoon     ExpirationBucket = "soon"
	ExpirationNormal   ExpirationBucket = "normal"
)

func (b ExpirationBucket) String() string {
	return string(b)
}

// IsExpiring reports whether the bucket counts toward "expiring soon" (soon or critical).
func (b ExpirationBucket) IsExpiring() bool {
	return b == ExpirationSoon || b == ExpirationCritical
}
