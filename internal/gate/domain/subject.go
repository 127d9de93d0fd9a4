package domain

import "time"

// Subject is a principal (a Telegram chat identity) that has interacted
// with the gate at least once. Tracked for operational stats only;
// access decisions are derived from AccessToken records.
type Subject struct {
	SubjectID   string
	FirstSeenAt time.Time
}

// Stats is the operational snapshot served by the admin API.
type Stats struct {
	Subjects       int64 `json:"subjects"`
	TokensIssued   int64 `json:"tokens_issued"`
	TokensRedeemed int64 `json:"tokens_redeemed"`
	ActiveGrants   int64 `json:"active_grants"`
}
