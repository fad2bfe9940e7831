package models

// Requests for snapshot HTTP endpoints. Defined in domain for consistency and reuse.

type SnapshotRequest struct {
	Groups string `query:"groups" json:"groups" validate:"omitempty,max=256"`
}

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"30" validate:"gte=1,lte=1000"`
}
