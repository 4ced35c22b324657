package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/azure/filedrop/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJobs struct {
	janitor atomic.Int32
	report  atomic.Int32
}

func (c *countingJobs) RunJanitor() error {
	c.janitor.Add(1)
	return nil
}

func (c *countingJobs) RunReport() error {
	c.report.Add(1)
	return nil
}

func TestReportExpression(t *testing.T) {
	assert.Equal(t, "0 0 9 * * *", reportExpression("daily"))
	assert.Equal(t, "0 0 9 * * MON", reportExpression("weekly"))
	assert.Empty(t, reportExpression(""))
}

func TestService_StartRegistersJobs(t *testing.T) {
	jobs := &countingJobs{}
	cfg := &config.Config{JanitorSchedule: "* * * * * *", ReportSchedule: "weekly"}

	service := NewService(cfg, jobs)
	require.NoError(t, service.Start())
	defer service.Stop()

	assert.Len(t, service.cron.Entries(), 2)
	assert.Eventually(t, func() bool { return jobs.janitor.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.Zero(t, jobs.report.Load())
}

func TestService_ReportsDisabled(t *testing.T) {
	service := NewService(&config.Config{JanitorSchedule: "0 */15 * * * *"}, &countingJobs{})
	require.NoError(t, service.Start())
	defer service.Stop()

	assert.Len(t, service.cron.Entries(), 1)
}

func TestService_InvalidJanitorSchedule(t *testing.T) {
	service := NewService(&config.Config{JanitorSchedule: "not a schedule"}, &countingJobs{})
	assert.Error(t, service.Start())
}
