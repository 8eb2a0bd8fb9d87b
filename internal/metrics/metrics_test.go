package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("wrapped: %w", models.ErrInvalidAmount), "invalid"},
		{models.ErrUnauthorized, "unauthorized"},
		{models.ErrNotFound, "not_found"},
		{models.ErrExceedsDebt, "rejected"},
		{models.ErrInvalidStateTransition, "rejected"},
		{models.ErrConcurrentUpdate, "conflict"},
		{models.ErrLedgerInconsistent, "inconsistent"},
		{errors.New("disk on fire"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestMetrics_ObserveCommand(t *testing.T) {
	m := New()
	m.ObserveCommand("record_expense", time.Now(), nil)
	m.ObserveCommand("record_expense", time.Now(), models.ErrUnauthorized)
	m.ObserveCommand("record_expense", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("record_expense", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("record_expense", "unauthorized")))
}

func TestMetrics_ObserveEvents(t *testing.T) {
	m := New()
	m.ObserveEvents([]models.Event{
		{Type: models.EventExpenseRecorded},
		{Type: models.EventExpenseRecorded},
		{Type: models.EventSettlementConfirmed},
	})
	m.PublishFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues(string(models.EventExpenseRecorded))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishFailures))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCommand("x", time.Now(), nil)
	m.ObserveEvents([]models.Event{{Type: models.EventExpenseDeleted}})
	m.PublishFailed()
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveCommand("confirm_settlement", time.Now(), nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `splitledger_ledger_commands_total{command="confirm_settlement",outcome="ok"} 1`)
}
