package notifications

import "github.com/azure/filedrop/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendReport(report *models.Report) error
}
