package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/clients/runner"
)

// ETLJob triggers the runner's lot ingestion on a schedule, so the staging
// tables stay current without anyone pressing the button.
type ETLJob struct {
	runner *runner.Client
	log    zerolog.Logger
}

// NewETLJob creates the scheduled ETL job.
func NewETLJob(r *runner.Client, log zerolog.Logger) *ETLJob {
	return &ETLJob{
		runner: r,
		log:    log.With().Str("job", "etl").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *ETLJob) Name() string { return "etl" }

// Run triggers one ETL pass. A non-2xx runner reply is an error so the
// scheduler logs it loudly.
func (j *ETLJob) Run() error {
	if !j.runner.Configured() {
		j.log.Warn().Msg("Runner not configured, skipping scheduled ETL")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	resp, err := j.runner.ETL(ctx, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("scheduled ETL returned status %d", resp.StatusCode)
	}
	j.log.Info().Int("status", resp.StatusCode).Msg("Scheduled ETL completed")
	return nil
}
