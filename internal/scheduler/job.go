// Package scheduler runs fixed reports on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/querydesk/querydesk/internal/notify"
	"github.com/querydesk/querydesk/internal/observability"
	"github.com/querydesk/querydesk/internal/report"
	"github.com/querydesk/querydesk/internal/service"
)

// TargetAchievementSubject is the subject of the scheduled email.
const TargetAchievementSubject = "Target Vs Achievement"

// TargetAchievementName identifies the job in logs, metrics and the API.
const TargetAchievementName = "target_achievement"

const achievementSQL = "SELECT `i`.`spoc_name` AS `spoc`, SUM(`l`.`loan_amount`) AS `loanamount` " +
	"FROM `loan` `l` JOIN `institute` `i` ON `l`.`institute_id` = `i`.`institute_id` " +
	"GROUP BY `i`.`spoc_name`"

// targetAchievementRules converts achievement to crores and leaves targets as
// stored. The total row names its columns so an empty day still gets a zero
// Grand Total.
var targetAchievementRules = report.Rules{
	Convert: &report.ConvertRule{Candidates: []string{"loanamount"}},
	Targets: &report.TargetRule{Key: "spoc", Achievement: "loanamount"},
	GrandTotal: &report.GrandTotalRule{
		Label:   "spoc",
		Columns: []string{"target", "loanamount"},
	},
}

// TargetAchievementJob builds the per-SPOC target vs achievement report and
// mails it.
type TargetAchievementJob struct {
	db       *service.MySQLService
	targets  service.TargetSource
	reporter *notify.Reporter
}

func NewTargetAchievementJob(db *service.MySQLService, targets service.TargetSource, reporter *notify.Reporter) *TargetAchievementJob {
	return &TargetAchievementJob{db: db, targets: targets, reporter: reporter}
}

func (j *TargetAchievementJob) Name() string { return TargetAchievementName }

// Build runs the achievement query, loads targets and shapes the report.
func (j *TargetAchievementJob) Build(ctx context.Context) (report.Shaped, error) {
	res, err := j.db.Execute(ctx, achievementSQL)
	if err != nil {
		return report.Shaped{}, fmt.Errorf("achievement query: %w", err)
	}

	targets, err := j.targets.Targets(ctx)
	if err != nil {
		return report.Shaped{}, fmt.Errorf("load targets from %s: %w", j.targets.Name(), err)
	}

	rules := targetAchievementRules
	tr := *rules.Targets
	tr.Targets = targets
	rules.Targets = &tr
	return report.Shape(res.Table, rules), nil
}

// Run builds the report and sends it to the configured recipients.
func (j *TargetAchievementJob) Run(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observability.ObserveScheduledRun(j.Name(), err) }()

	shaped, err := j.Build(ctx)
	if err != nil {
		return err
	}
	if _, err = j.reporter.SendReport(ctx, TargetAchievementSubject, shaped.Table); err != nil {
		return err
	}

	log.Info().
		Str("job", j.Name()).
		Str("targets", j.targets.Name()).
		Int("rows", len(shaped.Table.Rows)).
		Dur("duration", time.Since(start)).
		Msg("scheduled report delivered")
	return nil
}
