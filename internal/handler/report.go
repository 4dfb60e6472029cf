package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/report"
	"github.com/querydesk/querydesk/internal/scheduler"
)

// ReportJob builds and delivers a scheduled report on demand.
type ReportJob interface {
	Build(ctx context.Context) (report.Shaped, error)
	Run(ctx context.Context) error
}

// ReportHandler handles the scheduled-report endpoints
type ReportHandler struct {
	job       ReportJob
	scheduler *scheduler.Scheduler
}

// NewReportHandler accepts a nil job when targets or email are not
// configured; sched may be nil when the scheduler is disabled.
func NewReportHandler(job ReportJob, sched *scheduler.Scheduler) *ReportHandler {
	return &ReportHandler{job: job, scheduler: sched}
}

// TargetAchievement handles POST /api/v1/reports/target-achievement.
// With ?preview=true the report is returned without mailing it.
func (h *ReportHandler) TargetAchievement(w http.ResponseWriter, r *http.Request) {
	if h.job == nil {
		models.WriteError(w, http.StatusServiceUnavailable, "target achievement report is not configured")
		return
	}

	preview, _ := strconv.ParseBool(r.URL.Query().Get("preview"))
	if preview {
		shaped, err := h.job.Build(r.Context())
		if err != nil {
			writePipelineError(w, r, err)
			return
		}
		models.WriteJSON(w, http.StatusOK, models.QueryResponse{
			Status:   models.StatusSuccess,
			Columns:  shaped.Table.Columns,
			Rows:     shaped.Table.Rows,
			RowCount: len(shaped.Table.Rows),
			Metadata: models.QueryMetadata{Applied: shaped.Applied},
		})
		return
	}

	if err := h.job.Run(r.Context()); err != nil {
		writePipelineError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"subject": scheduler.TargetAchievementSubject,
	})
}

// Schedule handles GET /api/v1/reports/schedule
func (h *ReportHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	out := map[string]interface{}{"status": "success", "enabled": h.scheduler != nil}
	if h.scheduler != nil {
		if next, ok := h.scheduler.Next(scheduler.TargetAchievementName); ok {
			out["next_run"] = next
		}
	}
	models.WriteJSON(w, http.StatusOK, out)
}
