package database

import (
	"time"
)

// AnalysisRecord is one persisted analysis result plus cache metadata.
// The denormalized columns support dashboard-style queries; ResultJSON
// holds the complete serialized AnalysisResult for rehydration.
type AnalysisRecord struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Ticker      string    `gorm:"index:idx_analysis_ticker_hash;type:varchar(12);not null"`
	OptionsHash string    `gorm:"index:idx_analysis_ticker_hash;type:varchar(32);not null"`
	ObservedAt  time.Time `gorm:"index;not null"`

	TotalScore   int
	Streak       int
	TtmDividends float64
	TtmYield     *float64
	FairValue    *float64

	ResultJSON string `gorm:"type:jsonb;not null"`
}

// TableName overrides the GORM default pluralization.
func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
