package models

// RejectReason explains why a proposed connection request was refused.
type RejectReason string

const (
	// ReasonAlreadyConnectedOrPending - an edge already exists for the pair,
	// in either direction and any status.
	ReasonAlreadyConnectedOrPending RejectReason = "already_connected_or_pending"
	// ReasonSelfTarget - a member may not request a connection to themselves.
	ReasonSelfTarget RejectReason = "self_target"
	// ReasonUnknownCandidate - the candidate is not a member.
	ReasonUnknownCandidate RejectReason = "unknown_candidate"
	// ReasonQuotaExceeded - no free requests remain and the candidate is not
	// within three degrees of the requester.
	ReasonQuotaExceeded RejectReason = "quota_exceeded"
)

// Decision is the verdict for a proposed connection request. Rejections are
// definitive policy outcomes, not transient failures; callers must not retry
// them with the same arguments.
type Decision struct {
	Allowed bool `json:"allowed"`
	// Reason is set only when the request was rejected.
	Reason RejectReason `json:"reason,omitempty"`
	// QuotaCharged reports whether one free request was spent. Requests to
	// 2nd/3rd-degree relations are free.
	QuotaCharged bool `json:"quota_charged"`
}

func Allow(quotaCharged bool) Decision {
	return Decision{Allowed: true, QuotaCharged: quotaCharged}
}

func Reject(reason RejectReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
