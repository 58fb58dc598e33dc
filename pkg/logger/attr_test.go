package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterhouse/leadmail/pkg/logger"
)

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want any
	}{
		{"lead id", logger.LeadID("lead-1"), "lead_id", "lead-1"},
		{"recipient role", logger.RecipientRole("admin"), "recipient_role", "admin"},
		{"message id", logger.MessageID("msg-1"), "message_id", "msg-1"},
		{"transport", logger.Transport("smtp"), "transport", "smtp"},
		{"recipients", logger.Recipients(3), "recipients", int64(3)},
		{"duration", logger.Duration(time.Second), "duration", time.Second},
		{"component", logger.Component("notifier"), "component", "notifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}

func TestMessageID_Empty(t *testing.T) {
	assert.True(t, logger.MessageID("").Equal(slog.Attr{}))
}
