package models

import (
	"time"
)

// Severity is the derived low/medium/high bucket of a symptom set
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// LocalUserID owns the history of unauthenticated callers.
const LocalUserID = "local"

// CheckMetadata is derived information stored with a check
type CheckMetadata struct {
	Severity   Severity `gorm:"size:10" json:"severity"`
	Confidence float64  `json:"confidence"`
	IsFallback bool     `gorm:"default:false" json:"isFallback,omitempty"`
}

// SymptomCheck is one completed analysis in a user's history
type SymptomCheck struct {
	BaseModel
	UserID    string         `gorm:"size:36;index:idx_user_seq,priority:1;not null" json:"userId"`
	Sequence  int64          `gorm:"index:idx_user_seq,priority:2;not null" json:"-"`
	Timestamp time.Time      `gorm:"not null" json:"timestamp"`
	Symptoms  []Symptom      `gorm:"serializer:json;type:text" json:"symptoms"`
	Analysis  AnalysisResult `gorm:"serializer:json;type:text" json:"analysis"`
	Metadata  CheckMetadata  `gorm:"embedded" json:"metadata"`
}
