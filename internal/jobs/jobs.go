package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/worklog-service/internal/models"
)

const jobTimeout = 5 * time.Minute

// Reconciler recomputes cached project totals
type Reconciler interface {
	ReconcileProjectTotals(ctx context.Context) (int64, error)
}

// Summarizer sums logged hours per user and project
type Summarizer interface {
	SummarizeHours(ctx context.Context, from, to time.Time) ([]models.HoursSummary, error)
}

// ReportSender delivers an hours summary
type ReportSender interface {
	SendWeeklyReport(recipients []string, from, to time.Time, rows []models.HoursSummary) error
}

// ReconcileJob keeps projects.total_hours equal to the sum of its work logs
type ReconcileJob struct {
	svc Reconciler
	log *logrus.Logger
}

func NewReconcileJob(svc Reconciler, log *logrus.Logger) *ReconcileJob {
	return &ReconcileJob{svc: svc, log: log}
}

// Run implements cron.Job
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.svc.ReconcileProjectTotals(ctx)
	if err != nil {
		j.log.Errorf("Reconcile job failed: %v", err)
		return
	}
	j.log.Infof("Reconcile job finished, %d projects corrected", n)
}

// WeeklyReportJob mails the hours of the seven days ending yesterday
type WeeklyReportJob struct {
	svc        Summarizer
	sender     ReportSender
	recipients []string
	log        *logrus.Logger
	now        func() time.Time
}

func NewWeeklyReportJob(svc Summarizer, sender ReportSender, recipients []string, log *logrus.Logger) *WeeklyReportJob {
	return &WeeklyReportJob{svc: svc, sender: sender, recipients: recipients, log: log, now: time.Now}
}

// Period returns the inclusive date range the next report covers
func (j *WeeklyReportJob) Period() (from, to time.Time) {
	now := j.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to = today.AddDate(0, 0, -1)
	from = to.AddDate(0, 0, -6)
	return from, to
}

// Run implements cron.Job
func (j *WeeklyReportJob) Run() {
	if err := j.run(); err != nil {
		j.log.Errorf("Weekly report job failed: %v", err)
	}
}

func (j *WeeklyReportJob) run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	from, to := j.Period()
	rows, err := j.svc.SummarizeHours(ctx, from, to)
	if err != nil {
		return err
	}
	return j.sender.SendWeeklyReport(j.recipients, from, to, rows)
}

// Scheduler runs jobs on cron schedules
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

func NewScheduler(log *logrus.Logger) *Scheduler {
	logger := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		log:  log,
	}
}

// Add registers job under name. An empty schedule leaves the job disabled.
func (s *Scheduler) Add(name, schedule string, job cron.Job) error {
	if schedule == "" {
		s.log.Infof("Job %s disabled", name)
		return nil
	}
	if _, err := s.cron.AddJob(schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}
	s.log.Infof("Job %s scheduled: %s", name, schedule)
	return nil
}

// Len returns the number of scheduled jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Timed out waiting for running jobs")
	}
}
