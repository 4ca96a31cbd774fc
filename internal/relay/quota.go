package relay

// QuotaPolicy decides the maximum allowed transfer size for a requester.
// It is a pure function of the configured tier limits and the requester's
// tier membership.
type QuotaPolicy struct {
	generalBytes    int64
	privilegedBytes int64
}

// NewQuotaPolicy creates a quota policy from the configured limit pair.
// The pair is normalized: privileged users always get the larger value,
// regardless of the order the limits were configured in.
func NewQuotaPolicy(a, b int64) *QuotaPolicy {
	return &QuotaPolicy{
		generalBytes:    min(a, b),
		privilegedBytes: max(a, b),
	}
}

// MaxAllowedSize returns the size limit in bytes for the given tier flags.
func (q *QuotaPolicy) MaxAllowedSize(isAdmin, isVIP bool) int64 {
	if isAdmin || isVIP {
		return q.privilegedBytes
	}
	return q.generalBytes
}

// Allows reports whether a transfer of the given size fits the tier limit.
func (q *QuotaPolicy) Allows(sizeBytes int64, isAdmin, isVIP bool) bool {
	return sizeBytes <= q.MaxAllowedSize(isAdmin, isVIP)
}
