package domain

// SyncAction is the decision recorded against a variant.
type SyncAction string

const (
	ActionUpdate SyncAction = "UPDATE"
	ActionSkip   SyncAction = "SKIP"
	ActionError  SyncAction = "ERROR"
)

// SyncStatus is the lifecycle state of an audit log entry.
//
// Entries are created PENDING (or terminal SKIPPED) the moment a decision is
// computed, and move to SUCCESS or FAILED only after the downstream catalog
// mutation has been attempted.
type SyncStatus string

const (
	StatusPending SyncStatus = "PENDING"
	StatusSuccess SyncStatus = "SUCCESS"
	StatusFailed  SyncStatus = "FAILED"
	StatusSkipped SyncStatus = "SKIPPED"
)
