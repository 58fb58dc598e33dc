package trigger_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shutterhouse/leadmail/internal/lead"
	"github.com/shutterhouse/leadmail/internal/notify"
	"github.com/shutterhouse/leadmail/internal/trigger"
)

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, l lead.Lead) (notify.Result, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(notify.Result), args.Error(1)
}

// logBuffer is a goroutine-safe sink for a JSON slog handler.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) lines(msg string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, line := range strings.Split(b.buf.String(), "\n") {
		if strings.Contains(line, `"msg":"`+msg+`"`) {
			out = append(out, line)
		}
	}
	return out
}

func newLogger() (*slog.Logger, *logBuffer) {
	buf := &logBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func created(l lead.Lead) lead.Created {
	return lead.Created{LeadID: l.ID, Lead: l}
}

func TestHandle_ValidLead(t *testing.T) {
	t.Parallel()

	l := lead.Lead{ID: "lead-1", FirstName: "Mary", Email: "mary@example.com"}
	want := notify.Result{
		LeadID: "lead-1",
		Client: notify.SendResult{Success: true, MessageID: "c"},
		Admin:  notify.SendResult{Success: true, MessageID: "a"},
	}

	n := &mockNotifier{}
	n.On("Notify", mock.Anything, l).Return(want, nil).Once()

	res, err := trigger.NewHandler(n).Handle(context.Background(), created(l))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, want, *res)
	n.AssertExpectations(t)
}

func TestHandle_FillsLeadIDFromEvent(t *testing.T) {
	t.Parallel()

	n := &mockNotifier{}
	n.On("Notify", mock.Anything, mock.MatchedBy(func(l lead.Lead) bool { return l.ID == "from-event" })).
		Return(notify.Result{LeadID: "from-event"}, nil).Once()

	_, err := trigger.NewHandler(n).Handle(context.Background(), lead.Created{
		LeadID: "from-event",
		Lead:   lead.Lead{FirstName: "Mary", Email: "mary@example.com"},
	})
	require.NoError(t, err)
	n.AssertExpectations(t)
}

func TestHandle_RejectsIncompleteLead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lead    lead.Lead
		missing string
	}{
		{"missing email", lead.Lead{ID: "l1", FirstName: "Mary"}, "email"},
		{"blank email", lead.Lead{ID: "l2", FirstName: "Mary", Email: "   "}, "email"},
		{"missing first name", lead.Lead{ID: "l3", Email: "mary@example.com"}, "firstName"},
		{"missing both", lead.Lead{ID: "l4", LastName: "Jane"}, "email,firstName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log, buf := newLogger()
			n := &mockNotifier{}

			res, err := trigger.NewHandler(n, trigger.WithHandlerLogger(log)).Handle(context.Background(), created(tt.lead))
			assert.NoError(t, err)
			assert.Nil(t, res)
			n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)

			rejected := buf.lines("lead rejected")
			require.Len(t, rejected, 1)
			assert.Contains(t, rejected[0], `"lead_id":"`+tt.lead.ID+`"`)
			assert.Contains(t, rejected[0], `"missing":"`+tt.missing+`"`)
			assert.Contains(t, rejected[0], `"level":"WARN"`)
		})
	}
}

func TestHandle_ConfigurationError(t *testing.T) {
	t.Parallel()

	l := lead.Lead{ID: "l1", FirstName: "Mary", Email: "mary@example.com"}

	t.Run("notifier reports not configured", func(t *testing.T) {
		t.Parallel()

		n := &mockNotifier{}
		n.On("Notify", mock.Anything, l).Return(notify.Result{}, notify.ErrNotConfigured)

		res, err := trigger.NewHandler(n).Handle(context.Background(), created(l))
		assert.Nil(t, res)
		assert.ErrorIs(t, err, notify.ErrNotConfigured)
	})

	t.Run("no notifier", func(t *testing.T) {
		t.Parallel()

		res, err := trigger.NewHandler(nil).Handle(context.Background(), created(l))
		assert.Nil(t, res)
		assert.ErrorIs(t, err, notify.ErrNotConfigured)
	})
}

func TestHandle_DeliveryFailureIsAResult(t *testing.T) {
	t.Parallel()

	l := lead.Lead{ID: "l1", FirstName: "Mary", Email: "mary@example.com"}
	failed := notify.Result{
		LeadID: "l1",
		Client: notify.SendResult{Error: "auth failed"},
		Admin:  notify.SendResult{Error: "auth failed"},
	}
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, l).Return(failed, nil)

	log, buf := newLogger()
	res, err := trigger.NewHandler(n, trigger.WithHandlerLogger(log)).Handle(context.Background(), created(l))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Client.Success)
	assert.False(t, res.Admin.Success)

	lines := buf.lines("lead processed")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"success":false`)
}

func TestHandle_LogsOverallSuccess(t *testing.T) {
	t.Parallel()

	l := lead.Lead{ID: "l2", FirstName: "Mary", Email: "mary@example.com"}
	n := &mockNotifier{}
	n.On("Notify", mock.Anything, l).Return(notify.Result{
		LeadID: "l2",
		Client: notify.SendResult{Success: true, MessageID: "c"},
		Admin:  notify.SendResult{Skipped: true},
	}, nil)

	log, buf := newLogger()
	_, err := trigger.NewHandler(n, trigger.WithHandlerLogger(log)).Handle(context.Background(), created(l))
	require.NoError(t, err)

	lines := buf.lines("lead processed")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"success":true`)
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, lead.Lead) (notify.Result, error) {
	panic("nil map write")
}

func TestHandle_RecoversPanic(t *testing.T) {
	t.Parallel()

	l := lead.Lead{ID: "l1", FirstName: "Mary", Email: "mary@example.com"}

	var (
		res *notify.Result
		err error
	)
	require.NotPanics(t, func() {
		res, err = trigger.NewHandler(panickingNotifier{}).Handle(context.Background(), created(l))
	})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, trigger.ErrPanic)
	assert.True(t, strings.Contains(err.Error(), "nil map write"))
	assert.False(t, errors.Is(err, notify.ErrNotConfigured))
}
