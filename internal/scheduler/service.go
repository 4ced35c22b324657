package scheduler

import (
	"github.com/azure/filedrop/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Jobs is the work the scheduler triggers
type Jobs interface {
	RunJanitor() error
	RunReport() error
}

// Service handles scheduling of maintenance and reporting tasks
type Service struct {
	config *config.Config
	jobs   Jobs
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, jobs Jobs) *Service {
	return &Service{
		config: cfg,
		jobs:   jobs,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// reportExpression maps a report period to a cron expression (seconds field first)
func reportExpression(period string) string {
	switch period {
	case "daily":
		// Run daily at 9 AM UTC
		return "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM UTC
		return "0 0 9 * * MON"
	default:
		return ""
	}
}

// Start registers the configured jobs and starts the cron runner
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.JanitorSchedule, func() {
		logrus.Debug("Starting temp file sweep")
		if err := s.jobs.RunJanitor(); err != nil {
			logrus.Errorf("Temp file sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	if expr := reportExpression(s.config.ReportSchedule); expr != "" {
		_, err = s.cron.AddFunc(expr, func() {
			logrus.Info("Starting scheduled activity report")
			if err := s.jobs.RunReport(); err != nil {
				logrus.Errorf("Scheduled activity report failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	if s.config.ReportSchedule != "" {
		logrus.Infof("Scheduler started (janitor %q, %s reports)", s.config.JanitorSchedule, s.config.ReportSchedule)
	} else {
		logrus.Infof("Scheduler started (janitor %q, reports disabled)", s.config.JanitorSchedule)
	}
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
