package monitoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/azure/filedrop/internal/config"
	"github.com/azure/filedrop/internal/models"
	"github.com/azure/filedrop/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of the storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(name string, data []byte) (string, error) {
	args := m.Called(name, data)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) List() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Get(name string) ([]byte, error) {
	args := m.Called(name)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorage) Delete(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendReport(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "Success", err: nil, expected: models.OutcomeSuccess},
		{name: "Invalid name", err: fmt.Errorf("%w: bad", storage.ErrInvalidName), expected: models.OutcomeInvalidName},
		{name: "Not found", err: fmt.Errorf("%w: gone", storage.ErrNotFound), expected: models.OutcomeNotFound},
		{name: "Storage failure", err: fmt.Errorf("%w: disk full", storage.ErrStorage), expected: models.OutcomeError},
		{name: "Unclassified", err: errors.New("boom"), expected: models.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Outcome(tt.err))
		})
	}
}

func TestService_RecordsOperations(t *testing.T) {
	mockStorage := &MockStorage{}
	mockStorage.On("Put", "a.txt", []byte("hello")).Return("a.txt", nil)
	mockStorage.On("Get", "a.txt").Return([]byte("hello"), nil)
	mockStorage.On("Get", "missing.txt").Return([]byte(nil), fmt.Errorf("%w: missing.txt", storage.ErrNotFound))
	mockStorage.On("Delete", "a.txt").Return(fmt.Errorf("%w: permission denied", storage.ErrStorage))
	mockStorage.On("List").Return([]string{"a.txt"}, nil)

	service := NewService(&config.Config{}, mockStorage, &MockNotificationService{})

	stored, err := service.Put("a.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", stored)

	data, err := service.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = service.Get("missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, service.Delete("a.txt"), storage.ErrStorage)

	names, err := service.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(service.GetMetrics()), &metrics))
	assert.Equal(t, map[string]int{"upload": 1, "download": 2, "delete": 1, "list": 1}, metrics.Operations)
	assert.Equal(t, 3, metrics.Outcomes[models.OutcomeSuccess])
	assert.Equal(t, 1, metrics.Outcomes[models.OutcomeNotFound])
	assert.Equal(t, 1, metrics.ErrorCount)
	assert.Equal(t, int64(5), metrics.BytesStored)
	assert.Equal(t, int64(5), metrics.BytesServed)

	mockStorage.AssertExpectations(t)
}

func TestService_FailedPutDoesNotCountBytes(t *testing.T) {
	mockStorage := &MockStorage{}
	mockStorage.On("Put", "../x", []byte("data")).Return("", fmt.Errorf("%w: traversal", storage.ErrInvalidName))

	service := NewService(&config.Config{}, mockStorage, &MockNotificationService{})
	_, err := service.Put("../x", []byte("data"))
	assert.ErrorIs(t, err, storage.ErrInvalidName)

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(service.GetMetrics()), &metrics))
	assert.Zero(t, metrics.BytesStored)
	assert.Zero(t, metrics.ErrorCount)
	assert.Equal(t, 1, metrics.Outcomes[models.OutcomeInvalidName])
}

func TestService_RunReport(t *testing.T) {
	mockStorage := &MockStorage{}
	mockStorage.On("Put", "a.txt", []byte("abc")).Return("a.txt", nil)
	mockStorage.On("List").Return([]string{"a.txt", "b.txt"}, nil)

	mockNotifications := &MockNotificationService{}
	mockNotifications.On("SendReport", mock.MatchedBy(func(r *models.Report) bool {
		return r.TotalEntries == 2 &&
			r.Period == "weekly" &&
			r.Backend == "local" &&
			r.BytesStored == 3 &&
			r.Operations[models.OpUpload] == 1 &&
			r.Operations[models.OpList] == 0
	})).Return(nil)

	cfg := &config.Config{ReportSchedule: "weekly", StorageBackend: "local"}
	service := NewService(cfg, mockStorage, mockNotifications)

	_, err := service.Put("a.txt", []byte("abc"))
	require.NoError(t, err)
	require.NoError(t, service.RunReport())

	mockNotifications.AssertExpectations(t)
}

func TestService_RunReportListFailure(t *testing.T) {
	mockStorage := &MockStorage{}
	mockStorage.On("List").Return([]string(nil), fmt.Errorf("%w: root gone", storage.ErrStorage))
	mockNotifications := &MockNotificationService{}

	service := NewService(&config.Config{ReportSchedule: "daily"}, mockStorage, mockNotifications)
	err := service.RunReport()
	assert.ErrorIs(t, err, storage.ErrStorage)
	mockNotifications.AssertNotCalled(t, "SendReport", mock.Anything)
}

func TestService_RunJanitor(t *testing.T) {
	local, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	stale := filepath.Join(local.Root(), ".filedrop-crashed.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("partial"), 0o600))
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	cfg := &config.Config{TempFileMaxAge: time.Hour}
	service := NewService(cfg, local, &MockNotificationService{})
	require.NoError(t, service.RunJanitor())

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(service.GetMetrics()), &metrics))
	assert.Equal(t, 1, metrics.TempFilesSwept)
	assert.False(t, metrics.LastJanitorRun.IsZero())
}

func TestService_RunJanitorWithoutSweeper(t *testing.T) {
	service := NewService(&config.Config{}, &MockStorage{}, &MockNotificationService{})
	assert.NoError(t, service.RunJanitor())
}
