package database

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"divscope/models"
)

// AnalysisRepository handles persistence of analysis records.
type AnalysisRepository struct {
	db *Database
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *Database) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// InitSchema performs auto-migration of the analysis record schema.
func (r *AnalysisRepository) InitSchema() error {
	if err := r.db.db.AutoMigrate(&AnalysisRecord{}); err != nil {
		return WrapDBError("InitSchema", err)
	}
	return nil
}

// GetRecent returns the newest record for (ticker, optionsHash) whose
// observation time is within maxAge, or nil when none qualifies. A stale
// record is a miss, not an error.
func (r *AnalysisRepository) GetRecent(ticker, optionsHash string, maxAge time.Duration) (*AnalysisRecord, error) {
	cutoff := time.Now().Add(-maxAge)

	var record AnalysisRecord
	err := r.db.db.
		Where("ticker = ? AND options_hash = ? AND observed_at >= ?", ticker, optionsHash, cutoff).
		Order("observed_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapDBError("GetRecent", err)
	}
	return &record, nil
}

// Save persists a fresh analysis result and returns the record id. Two
// concurrent writers for the same key both succeed; last write wins,
// which is acceptable because results for identical inputs are
// equivalent.
func (r *AnalysisRepository) Save(result *models.AnalysisResult, optionsHash string) (string, error) {
	blob, err := json.Marshal(result)
	if err != nil {
		return "", WrapDBError("Save", err)
	}

	record := AnalysisRecord{
		ID:           uuid.NewString(),
		Ticker:       result.Ticker,
		OptionsHash:  optionsHash,
		ObservedAt:   result.ObservedAt,
		TotalScore:   result.TotalScore,
		Streak:       result.Streak,
		TtmDividends: result.TtmDividends,
		TtmYield:     result.TtmYield,
		FairValue:    result.FairValue,
		ResultJSON:   string(blob),
	}
	if err := r.db.db.Create(&record).Error; err != nil {
		return "", WrapDBError("Save", err)
	}
	return record.ID, nil
}

// Rehydrate reconstructs the full analysis result from a stored record.
func (r *AnalysisRecord) Rehydrate() (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(r.ResultJSON), &result); err != nil {
		return nil, WrapDBError("Rehydrate", err)
	}
	return &result, nil
}
