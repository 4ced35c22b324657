package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/azure/filedrop/internal/config"
	"github.com/azure/filedrop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *models.Report {
	return &models.Report{
		GeneratedAt:  time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Period:       "weekly",
		Backend:      "local",
		TotalEntries: 3,
		Operations:   map[string]int{"upload": 4, "download": 7},
		BytesStored:  1024,
		BytesServed:  2048,
		ErrorCount:   1,
	}
}

func TestService_SendReportToTeams(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := NewService(&config.Config{TeamsWebhookURL: server.URL})
	require.NoError(t, service.SendReport(testReport()))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "File Store Activity Report - Weekly", received.Title)
	require.Len(t, received.Sections, 2)
	assert.Equal(t, "Operations", received.Sections[1].ActivityTitle)
	assert.Equal(t, []TeamsFact{
		{Name: "Download", Value: "7"},
		{Name: "Upload", Value: "4"},
	}, received.Sections[1].Facts)
}

func TestService_SendReportTeamsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	service := NewService(&config.Config{TeamsWebhookURL: server.URL})
	err := service.SendReport(testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestService_SendReportWithoutChannels(t *testing.T) {
	service := NewService(&config.Config{})
	assert.NoError(t, service.SendReport(testReport()))
}

func TestService_buildEmailBodies(t *testing.T) {
	service := NewService(&config.Config{})
	report := testReport()

	html, err := service.buildEmailHTML(report)
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Total Entries:</strong> 3")
	assert.Contains(t, html, "<strong>Download:</strong> 7")

	text := service.buildEmailText(report)
	assert.Contains(t, text, "File Store Activity Report - Weekly")
	assert.Contains(t, text, "Download: 7\nUpload: 4\n")
}
