package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	msgs []*models.DeviceMessage
	err  error
}

func (r *recordingStore) LogDeviceMessage(_ context.Context, msg *models.DeviceMessage) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestLogReport(t *testing.T) {
	store := &recordingStore{}
	at := time.Date(2024, time.January, 5, 8, 0, 0, 0, time.UTC)

	NewLogger(store).LogReport("dev-1", "cust_1", ActionUsageReport, map[string]float64{"cycleLiters": 12}, at)

	require.Len(t, store.msgs, 1)
	msg := store.msgs[0]
	assert.Equal(t, "dev-1", msg.DeviceID)
	assert.Equal(t, ActionUsageReport, msg.Action)
	assert.JSONEq(t, `{"cycleLiters":12}`, msg.Payload)
	assert.True(t, msg.Timestamp.Equal(at))
}

func TestLogReportSwallowsStoreErrors(t *testing.T) {
	store := &recordingStore{err: errors.New("down")}
	assert.NotPanics(t, func() {
		NewLogger(store).LogReport("dev-1", "", ActionUsageReport, func() {}, time.Now())
	})
	require.Len(t, store.msgs, 1)
	assert.Equal(t, "{}", store.msgs[0].Payload)
}
