package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"symptom-checker-server/internal/analysis"
	"symptom-checker-server/internal/logger"
	"symptom-checker-server/internal/models"
)

const logModule = "EVALUATION"

// CheckSource lists recently recorded checks across all users.
type CheckSource interface {
	Recent(ctx context.Context, limit int) ([]models.SymptomCheck, error)
}

// Summary aggregates the scores of one evaluation run.
type Summary struct {
	Checks    int     `json:"checks"`
	Fallbacks int     `json:"fallbacks"`
	Valid     int     `json:"valid"`
	Mean      Metrics `json:"mean"`
}

// Job periodically scores recorded analyses and logs the aggregate.
type Job struct {
	source CheckSource
	log    logger.Logger
	limit  int
	cron   *cron.Cron
}

func NewJob(source CheckSource, log logger.Logger, limit int) *Job {
	if limit <= 0 {
		limit = 100
	}
	return &Job{source: source, log: log, limit: limit}
}

// Start schedules the job with a standard 5-field cron expression.
func (j *Job) Start(schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return fmt.Errorf("empty evaluation schedule")
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, j.run); err != nil {
		return fmt.Errorf("invalid evaluation schedule %q: %w", schedule, err)
	}
	j.cron = c
	c.Start()
	j.log.Info(logModule, "evaluation job scheduled", map[string]interface{}{"schedule": schedule})
	return nil
}

// Stop halts the scheduler and waits for a running evaluation to finish.
func (j *Job) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

func (j *Job) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	summary, err := j.RunOnce(ctx)
	if err != nil {
		j.log.Error(logModule, "evaluation run failed", map[string]interface{}{"error": err})
		return
	}
	j.log.Info(logModule, "evaluation run complete", map[string]interface{}{
		"checks":       summary.Checks,
		"fallbacks":    summary.Fallbacks,
		"valid":        summary.Valid,
		"relevance":    summary.Mean.Relevance,
		"faithfulness": summary.Mean.Faithfulness,
		"toxicity":     summary.Mean.Toxicity,
		"bias":         summary.Mean.Bias,
	})
}

// RunOnce scores the most recent non-fallback checks.
func (j *Job) RunOnce(ctx context.Context) (Summary, error) {
	checks, err := j.source.Recent(ctx, j.limit)
	if err != nil {
		return Summary{}, fmt.Errorf("load recent checks: %w", err)
	}

	var s Summary
	var total Metrics
	for _, check := range checks {
		if check.Metadata.IsFallback {
			s.Fallbacks++
			continue
		}
		m := Score(analysis.BuildPrompt(check.Symptoms, nil, ""), ResponseText(check.Analysis), "")
		total.Relevance += m.Relevance
		total.Faithfulness += m.Faithfulness
		total.Toxicity += m.Toxicity
		total.Bias += m.Bias
		if m.Valid() {
			s.Valid++
		}
		s.Checks++
	}
	if s.Checks > 0 {
		n := float64(s.Checks)
		s.Mean = Metrics{
			Relevance:    clamp(total.Relevance / n),
			Faithfulness: clamp(total.Faithfulness / n),
			Toxicity:     clamp(total.Toxicity / n),
			Bias:         clamp(total.Bias / n),
		}
	}
	return s, nil
}

// ResponseText flattens a result into the prose a user would read.
func ResponseText(r models.AnalysisResult) string {
	var b strings.Builder
	for _, c := range r.PossibleConditions {
		b.WriteString(c.Name + ": " + c.Description + "\n")
		for _, a := range c.RecommendedActions {
			b.WriteString("- " + a + "\n")
		}
	}
	for _, rec := range r.Recommendations {
		b.WriteString(rec + "\n")
	}
	b.WriteString(r.Disclaimer)
	return b.String()
}
