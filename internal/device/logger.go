package device

import (
	"context"
	"encoding/json"
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	"github.com/sirupsen/logrus"
)

// Actions recorded in the device message log
const (
	ActionUsageReport = "UsageReport"
)

// MessageStore persists raw device messages
type MessageStore interface {
	LogDeviceMessage(ctx context.Context, msg *models.DeviceMessage) error
}

// Logger records inbound device payloads. Logging is best effort: failures
// are reported through logrus and never returned.
type Logger struct {
	store MessageStore
}

// NewLogger creates a new device message logger
func NewLogger(store MessageStore) *Logger {
	return &Logger{
		store: store,
	}
}

// LogReport logs a device report addressed by device or customer
func (l *Logger) LogReport(deviceID, customerID, action string, payload interface{}, at time.Time) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal device payload")
		payloadJSON = []byte("{}")
	}

	msg := &models.DeviceMessage{
		DeviceID:   deviceID,
		CustomerID: customerID,
		Action:     action,
		Payload:    string(payloadJSON),
		Timestamp:  at,
	}

	// Detached from the request so a cancelled report still gets logged
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.LogDeviceMessage(ctx, msg); err != nil {
		logrus.WithFields(logrus.Fields{
			"deviceID":   deviceID,
			"customerID": customerID,
			"action":     action,
		}).WithError(err).Error("Failed to log device message")
	}
}
