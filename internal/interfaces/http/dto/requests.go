package dto

import "time"

type CreateWaveRequest struct {
	OrderIDs []string `json:"order_ids" binding:"required,min=1,dive,uuid"`
}

// ScanRequest is a pick scan. Quantity is the manually typed quantity.
type ScanRequest struct {
	Label    string `json:"label" binding:"required,max=128"`
	Quantity *int64 `json:"quantity" binding:"omitempty,gt=0"`
}

type ProblemRequest struct {
	Reason string `json:"reason" binding:"required,oneof=inaccessible_location damaged_unit damaged_label not_found"`
}

// LabelBinding associates an unknown label during receiving
type LabelBinding struct {
	ProductID       string     `json:"product_id" binding:"required,uuid"`
	Lot             string     `json:"lot" binding:"max=64"`
	ExpiresAt       *time.Time `json:"expires_at"`
	UnitsPerPackage int64      `json:"units_per_package" binding:"omitempty,gt=0"`
}

type ReceivingScanRequest struct {
	Label       string        `json:"label" binding:"required,max=128"`
	Quantity    *int64        `json:"quantity" binding:"omitempty,gt=0"`
	Association *LabelBinding `json:"association"`
}

type StagingScanRequest struct {
	Label    string `json:"label" binding:"required,max=128"`
	Quantity *int64 `json:"quantity" binding:"omitempty,gt=0"`
}

type CompleteStagingRequest struct {
	Force bool `json:"force"`
}

type FileDivergenceRequest struct {
	ItemID string `json:"item_id" binding:"required,uuid"`
	Kind   string `json:"kind" binding:"required,oneof=shortage surplus"`
	Reason string `json:"reason" binding:"required,max=500"`
}

type ApproveDivergenceRequest struct {
	Justification string `json:"justification" binding:"required,max=500"`
}

type QualityRequest struct {
	DestinationID *string `json:"destination_id" binding:"omitempty,uuid"`
	Reason        string  `json:"reason" binding:"max=500"`
}

type LotStatusRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type ExpiringLotsQuery struct {
	Before    string `form:"before" binding:"omitempty"`
	Zone      string `form:"zone" binding:"omitempty,oneof=storage receiving shipping quarantine returns"`
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=expires_at quantity location_code sku lot"`
	SortDir   string `form:"sort_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

type HistoryQuery struct {
	Direction string `form:"direction" binding:"required,oneof=receiving staging"`
	SubjectID string `form:"subject_id" binding:"required,uuid"`
}
