package monitoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/azure/filedrop/internal/config"
	"github.com/azure/filedrop/internal/metrics"
	"github.com/azure/filedrop/internal/models"
	"github.com/azure/filedrop/internal/notifications"
	"github.com/azure/filedrop/internal/storage"
	"github.com/sirupsen/logrus"
)

// Service wraps a storage backend, recording every operation it serves, and
// runs the maintenance and reporting jobs driven by the scheduler.
type Service struct {
	config              *config.Config
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	metrics             *Metrics
	mu                  sync.RWMutex
}

// Ensure Service can stand in for the backend it wraps
var _ storage.StorageInterface = (*Service)(nil)

// Metrics holds activity metrics
type Metrics struct {
	StartedAt      time.Time      `json:"started_at"`
	Operations     map[string]int `json:"operations"`
	Outcomes       map[string]int `json:"outcomes"`
	BytesStored    int64          `json:"bytes_stored"`
	BytesServed    int64          `json:"bytes_served"`
	ErrorCount     int            `json:"error_count"`
	LastJanitorRun time.Time      `json:"last_janitor_run"`
	TempFilesSwept int            `json:"temp_files_swept"`
	LastReport     time.Time      `json:"last_report"`
}

// NewService creates a new monitoring service
func NewService(cfg *config.Config, storage storage.StorageInterface, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		config:              cfg,
		storage:             storage,
		notificationService: notificationService,
		metrics: &Metrics{
			StartedAt:  time.Now(),
			Operations: make(map[string]int),
			Outcomes:   make(map[string]int),
		},
	}
}

// Put stores an entry through the wrapped backend
func (s *Service) Put(name string, data []byte) (string, error) {
	stored, err := s.storage.Put(name, data)
	s.record(models.OpUpload, err, int64(len(data)), 0)
	return stored, err
}

// List lists entries through the wrapped backend
func (s *Service) List() ([]string, error) {
	names, err := s.storage.List()
	s.record(models.OpList, err, 0, 0)
	return names, err
}

// Get reads an entry through the wrapped backend
func (s *Service) Get(name string) ([]byte, error) {
	data, err := s.storage.Get(name)
	s.record(models.OpDownload, err, 0, int64(len(data)))
	return data, err
}

// Delete removes an entry through the wrapped backend
func (s *Service) Delete(name string) error {
	err := s.storage.Delete(name)
	s.record(models.OpDelete, err, 0, 0)
	return err
}

// Outcome classifies a storage error for metrics and logs
func Outcome(err error) string {
	switch {
	case err == nil:
		return models.OutcomeSuccess
	case errors.Is(err, storage.ErrInvalidName):
		return models.OutcomeInvalidName
	case errors.Is(err, storage.ErrNotFound):
		return models.OutcomeNotFound
	default:
		return models.OutcomeError
	}
}

func (s *Service) record(op string, err error, stored, served int64) {
	outcome := Outcome(err)
	if outcome != models.OutcomeSuccess {
		stored, served = 0, 0
	}

	s.mu.Lock()
	s.metrics.Operations[op]++
	s.metrics.Outcomes[outcome]++
	s.metrics.BytesStored += stored
	s.metrics.BytesServed += served
	if outcome == models.OutcomeError {
		s.metrics.ErrorCount++
	}
	s.mu.Unlock()

	metrics.RecordStorageOperation(op, outcome, stored, served)

	if outcome == models.OutcomeError {
		logrus.Errorf("Storage %s failed: %v", op, err)
	}
}

// RunJanitor removes stale temp files when the backend can leave any behind
func (s *Service) RunJanitor() error {
	sweeper, ok := s.storage.(storage.Sweeper)
	if !ok {
		logrus.Debug("Storage backend has no temp files to sweep")
		return nil
	}

	removed, err := sweeper.SweepTempFiles(s.config.TempFileMaxAge)
	if err != nil {
		return fmt.Errorf("failed to sweep temp files: %w", err)
	}

	s.mu.Lock()
	s.metrics.LastJanitorRun = time.Now()
	s.metrics.TempFilesSwept += removed
	s.mu.Unlock()

	metrics.RecordTempFilesSwept(removed)
	return nil
}

// RunReport builds an activity report and sends it via the notification service
func (s *Service) RunReport() error {
	start := time.Now()
	logrus.Info("Generating activity report")

	report, err := s.generateReport()
	if err != nil {
		return err
	}

	if err := s.notificationService.SendReport(report); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}

	s.mu.Lock()
	s.metrics.LastReport = time.Now()
	s.mu.Unlock()

	logrus.Infof("Activity report sent in %v", time.Since(start))
	return nil
}

func (s *Service) generateReport() (*models.Report, error) {
	// List the backend directly so the report itself is not counted.
	names, err := s.storage.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for report: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	operations := make(map[string]int, len(s.metrics.Operations))
	for op, count := range s.metrics.Operations {
		operations[op] = count
	}
	outcomes := make(map[string]int, len(s.metrics.Outcomes))
	for outcome, count := range s.metrics.Outcomes {
		outcomes[outcome] = count
	}

	return &models.Report{
		GeneratedAt:  time.Now(),
		Period:       s.config.ReportSchedule,
		Backend:      s.config.StorageBackend,
		TotalEntries: len(names),
		Operations:   operations,
		BytesStored:  s.metrics.BytesStored,
		BytesServed:  s.metrics.BytesServed,
		ErrorCount:   s.metrics.ErrorCount,
		Summary: map[string]interface{}{
			"outcomes":         outcomes,
			"temp_files_swept": s.metrics.TempFilesSwept,
			"uptime":           time.Since(s.metrics.StartedAt).Round(time.Second).String(),
		},
	}, nil
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.Marshal(s.metrics)
	if err != nil {
		logrus.Errorf("Failed to marshal metrics: %v", err)
		return "{}"
	}

	return string(data)
}
