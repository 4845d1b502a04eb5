package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/duchm/foliogate/model"
	"github.com/duchm/foliogate/params"
)

// CleanupReport summarizes one retention pass.
type CleanupReport struct {
	RetentionDays int
	Cutoff        time.Time
	Total         int64
	Eligible      int64
	Deleted       int64
	DryRun        bool
	Sample        []*model.AdminActivity
}

func (r CleanupReport) Remaining() int64 {
	return r.Total - r.Deleted
}

// ValidateRetentionDays bounds the retention window so a typo can neither
// wipe recent history nor keep entries forever.
func ValidateRetentionDays(days int) error {
	if days < params.MinAuditRetentionDays || days > params.MaxAuditRetentionDays {
		return fmt.Errorf("retention days must be between %d and %d", params.MinAuditRetentionDays, params.MaxAuditRetentionDays)
	}
	return nil
}

// RetentionCutoff returns the timestamp before which entries are eligible
// for deletion.
func RetentionCutoff(days int, now time.Time) time.Time {
	return now.AddDate(0, 0, -days)
}

// Cleanup deletes audit entries older than the retention window. In dry-run
// mode it only reports what a live run would delete.
func Cleanup(ctx context.Context, repo ActivityRepository, days int, dryRun bool) (*CleanupReport, error) {
	if err := ValidateRetentionDays(days); err != nil {
		return nil, err
	}

	report := &CleanupReport{
		RetentionDays: days,
		Cutoff:        RetentionCutoff(days, time.Now()),
		DryRun:        dryRun,
	}

	var err error
	if report.Total, err = repo.Count(ctx); err != nil {
		return nil, err
	}
	if report.Eligible, err = repo.CountOlderThan(ctx, report.Cutoff); err != nil {
		return nil, err
	}
	if report.Eligible == 0 {
		return report, nil
	}
	if report.Sample, err = repo.OldestOlderThan(ctx, report.Cutoff, 5); err != nil {
		return nil, err
	}
	if dryRun {
		return report, nil
	}

	if report.Deleted, err = repo.DeleteOlderThan(ctx, report.Cutoff); err != nil {
		return nil, err
	}
	return report, nil
}
