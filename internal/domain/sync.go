package domain

// RemoteOrder is the matching engine's authoritative view of one order, as
// returned by the batch status query. The status vocabulary is owned by the
// remote service; SyncDecision policies translate it into ledger terms.
type RemoteOrder struct {
	ID          string
	Status      string
	SizeMatched float64
}

// SyncAction is the outcome of comparing a local ledger row against the
// remote record for the same order.
type SyncAction int

const (
	// SyncSkip means the remote state is unchanged and still open; no write.
	SyncSkip SyncAction = iota
	// SyncUpdate means the local row must be rewritten with remote state.
	SyncUpdate
)

// SyncDecision carries the action and, for SyncUpdate, the new local state.
type SyncDecision struct {
	Action      SyncAction
	Status      OrderStatus
	SizeMatched float64
}

// SyncPolicy decides what to do with one local/remote pair. The exact remote
// status vocabulary is defined by the matching engine's contract, so the
// decision function is pluggable rather than hard-coded in the job.
type SyncPolicy func(local Order, remote RemoteOrder) SyncDecision

// SyncError records a single failed item inside a sync run. Item failures
// are collected, not fatal.
type SyncError struct {
	Context string `json:"context"`
	Error   string `json:"error"`
}

// SyncSummary is the report returned by one reconciliation run.
type SyncSummary struct {
	Scanned          int         `json:"scanned"`
	Updated          int         `json:"updated"`
	SkippedLive      int         `json:"skippedLive"`
	MarkedUnmatched  int         `json:"markedUnmatched"`
	Errors           []SyncError `json:"errors"`
	TimeLimitReached bool        `json:"timeLimitReached"`
}
