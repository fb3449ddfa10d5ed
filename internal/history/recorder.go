package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"symptom-checker-server/internal/analysis"
	"symptom-checker-server/internal/models"
)

// DefaultLimit is the number of checks kept per user.
const DefaultLimit = 20

// Recorder keeps a capped, newest-first log of symptom checks per user.
type Recorder struct {
	db    *gorm.DB
	limit int
	mu    sync.Mutex
}

func NewRecorder(db *gorm.DB, limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recorder{db: db, limit: limit}
}

// NewCheck builds the history entry for a completed analysis.
func NewCheck(userID string, symptoms []models.Symptom, result models.AnalysisResult, fallback bool) *models.SymptomCheck {
	if userID == "" {
		userID = models.LocalUserID
	}
	confidence := result.MaxLikelihood()
	if fallback {
		confidence = analysis.FallbackConfidence
	}
	return &models.SymptomCheck{
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Symptoms:  symptoms,
		Analysis:  result,
		Metadata: models.CheckMetadata{
			Severity:   analysis.ClassifySeverity(symptoms),
			Confidence: confidence,
			IsFallback: fallback,
		},
	}
}

// Record appends check to its user's log and evicts the oldest entries
// beyond the limit. The read-modify-write runs in one transaction.
func (r *Recorder) Record(ctx context.Context, check *models.SymptomCheck) error {
	if check.UserID == "" {
		check.UserID = models.LocalUserID
	}
	if check.Timestamp.IsZero() {
		check.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		if err := tx.Model(&models.SymptomCheck{}).
			Where("user_id = ?", check.UserID).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&last).Error; err != nil {
			return fmt.Errorf("read sequence: %w", err)
		}
		check.Sequence = last + 1

		if err := tx.Create(check).Error; err != nil {
			return fmt.Errorf("insert check: %w", err)
		}

		cutoff := check.Sequence - int64(r.limit)
		if cutoff > 0 {
			if err := tx.Where("user_id = ? AND sequence <= ?", check.UserID, cutoff).
				Delete(&models.SymptomCheck{}).Error; err != nil {
				return fmt.Errorf("evict old checks: %w", err)
			}
		}
		return nil
	})
}

// List returns a user's checks newest-first. An empty userID lists every
// user's checks; the limit is applied per user, so that listing can hold
// more than limit entries in total.
func (r *Recorder) List(ctx context.Context, userID string) ([]models.SymptomCheck, error) {
	q := r.db.WithContext(ctx)
	if userID != "" {
		q = q.Where("user_id = ?", userID).Order("sequence DESC")
	} else {
		q = q.Order("timestamp DESC").Order("sequence DESC")
	}

	var checks []models.SymptomCheck
	if err := q.Find(&checks).Error; err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	return checks, nil
}

// Recent returns up to limit of the newest checks across all users.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.SymptomCheck, error) {
	var checks []models.SymptomCheck
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&checks).Error
	if err != nil {
		return nil, fmt.Errorf("recent checks: %w", err)
	}
	return checks, nil
}

// Get returns the check with id, or nil when there is none.
func (r *Recorder) Get(ctx context.Context, id string) (*models.SymptomCheck, error) {
	var check models.SymptomCheck
	err := r.db.WithContext(ctx).First(&check, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get check: %w", err)
	}
	return &check, nil
}

// DeleteByUser removes a user's whole log and reports how many entries
// were deleted.
func (r *Recorder) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.SymptomCheck{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete checks: %w", res.Error)
	}
	return res.RowsAffected, nil
}
