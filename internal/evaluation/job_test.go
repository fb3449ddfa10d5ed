package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symptom-checker-server/internal/logger"
	"symptom-checker-server/internal/models"
)

type staticSource struct {
	checks []models.SymptomCheck
	err    error
	limit  int
}

func (s *staticSource) Recent(_ context.Context, limit int) ([]models.SymptomCheck, error) {
	s.limit = limit
	return s.checks, s.err
}

func check(fallback bool) models.SymptomCheck {
	return models.SymptomCheck{
		Symptoms: []models.Symptom{{Name: "headache"}},
		Analysis: models.AnalysisResult{
			PossibleConditions: []models.Condition{{Name: "Tension headache", Description: "muscle tension causing head pain", RecommendedActions: []string{"rest"}}},
			Recommendations:    []string{"Consult a doctor if the headache persists"},
			Disclaimer:         "This is not medical advice.",
		},
		Metadata: models.CheckMetadata{IsFallback: fallback},
	}
}

func TestRunOnceSkipsFallbacks(t *testing.T) {
	src := &staticSource{checks: []models.SymptomCheck{check(false), check(true), check(false)}}
	job := NewJob(src, logger.NewNop(), 0)

	s, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, src.limit)
	assert.Equal(t, 2, s.Checks)
	assert.Equal(t, 1, s.Fallbacks)
	assert.Greater(t, s.Mean.Relevance, 0.0)
	assert.LessOrEqual(t, s.Mean.Relevance, 1.0)
}

func TestRunOnceSummarizes(t *testing.T) {
	result := models.AnalysisResult{
		PossibleConditions: []models.Condition{{ID: "flu", Name: "Influenza", Description: "A viral infection that may cause fever", Likelihood: 0.6}},
		Recommendations:    []string{"Rest and drink fluids", "Research shows antivirals could help early"},
		UrgencyLevel:       models.UrgencySoon,
		Disclaimer:         "Consult a professional.",
	}
	src := &staticSource{checks: []models.SymptomCheck{
		{Symptoms: []models.Symptom{{Name: "fever"}}, Analysis: result},
		{Symptoms: []models.Symptom{{Name: "cough"}}, Analysis: result},
		{Symptoms: []models.Symptom{{Name: "rash"}}, Metadata: models.CheckMetadata{IsFallback: true}},
	}}

	summary, err := NewJob(src, logger.NewNop(), 10).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, src.limit)
	assert.Equal(t, 2, summary.Checks)
	assert.Equal(t, 1, summary.Fallbacks)
	assert.Equal(t, 2, summary.Valid)
	assert.InDelta(t, 1.0, summary.Mean.Faithfulness, 1e-9)
}

func TestRunOnceEmpty(t *testing.T) {
	s, err := NewJob(&staticSource{}, logger.NewNop(), 5).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, s)
}

func TestRunOnceSourceError(t *testing.T) {
	_, err := NewJob(&staticSource{err: errors.New("db down")}, logger.NewNop(), 5).RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestStartRejectsBadSchedule(t *testing.T) {
	job := NewJob(&staticSource{}, logger.NewNop(), 5)
	assert.Error(t, job.Start(""))
	assert.Error(t, job.Start("not a cron"))

	require.NoError(t, job.Start("@every 1h"))
	job.Stop()
}
