package dpr

import (
	"time"

	"github.com/google/uuid"

	"github.com/neinfra/dpr-dashboard/internal/risk"
)

// StorageKey is the shared-store key the DPR list lives under.
const StorageKey = "uploaded-dprs"

// Status tracks a DPR through the evaluation pipeline.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusEvaluated  Status = "Evaluated"
)

// UploadedBy identifies the submitting user.
type UploadedBy struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DPR is one Detailed Project Report record.
type DPR struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	ProjectCode    string     `json:"projectCode"`
	Department     string     `json:"department"`
	Location       string     `json:"location"`
	Sector         string     `json:"sector"`
	EstimatedCost  float64    `json:"estimatedCost"`
	Description    string     `json:"description"`
	FileName       string     `json:"fileName"`
	FileSize       int64      `json:"fileSize"`
	FileType       string     `json:"fileType"`
	UploadDate     time.Time  `json:"uploadDate"`
	Status         Status     `json:"status"`
	RiskLevel      risk.Level `json:"riskLevel,omitempty"`
	RiskFactors    []string   `json:"riskFactors"`
	EvaluationDate *time.Time `json:"evaluationDate"`
	UploadedBy     UploadedBy `json:"uploadedBy"`
}

// Upload carries the fields of a new DPR submission.
type Upload struct {
	Title         string  `validate:"required"`
	ProjectCode   string  `validate:"required"`
	Department    string  `validate:"required"`
	Location      string  `validate:"required"`
	Sector        string  `validate:"required"`
	EstimatedCost float64 `validate:"gt=0"`
	Description   string
	FileName      string `validate:"required"`
	FileSize      int64
	FileType      string
	UploadedBy    UploadedBy
}

// Filter narrows List results. Zero values are ignored.
type Filter struct {
	Status    Status
	RiskLevel risk.Level
	Sector    string
	Location  string
	Start     time.Time
	End       time.Time
}

// Stats summarizes the stored DPRs for the dashboard cards.
type Stats struct {
	Total    int                `json:"total"`
	ByStatus map[Status]int     `json:"byStatus"`
	ByRisk   map[risk.Level]int `json:"byRisk"`
}
