package email_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterhouse/leadmail/pkg/email"
)

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  email.Config
		want string
	}{
		{
			name: "smtp",
			cfg:  email.Config{Transport: "smtp", From: "studio@example.com", SMTPHost: "smtp.example.com", SMTPPort: 587},
			want: email.TransportSMTP,
		},
		{
			name: "postmark",
			cfg:  email.Config{Transport: "postmark", From: "studio@example.com", PostmarkServerToken: "server-token"},
			want: email.TransportPostmark,
		},
		{
			name: "resend case insensitive",
			cfg:  email.Config{Transport: " Resend ", From: "studio@example.com", ResendAPIKey: "re_test"},
			want: email.TransportResend,
		},
		{
			name: "dev",
			cfg:  email.Config{Transport: "dev", From: "studio@example.com", DevDir: "/tmp/leadmail"},
			want: email.TransportDev,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, err := email.New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Name())
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    email.Config
		errMsg string
	}{
		{
			name:   "missing from",
			cfg:    email.Config{Transport: "dev"},
			errMsg: "From is required",
		},
		{
			name:   "unknown backend",
			cfg:    email.Config{Transport: "mailgun", From: "studio@example.com"},
			errMsg: `unknown transport "mailgun"`,
		},
		{
			name:   "smtp without host",
			cfg:    email.Config{Transport: "smtp", From: "studio@example.com", SMTPPort: 587},
			errMsg: "SMTPHost is required",
		},
		{
			name:   "smtp without port",
			cfg:    email.Config{Transport: "smtp", From: "studio@example.com", SMTPHost: "smtp.example.com"},
			errMsg: "SMTPPort must be positive",
		},
		{
			name:   "postmark without token",
			cfg:    email.Config{Transport: "postmark", From: "studio@example.com"},
			errMsg: "PostmarkServerToken is required",
		},
		{
			name:   "resend without key",
			cfg:    email.Config{Transport: "resend", From: "studio@example.com"},
			errMsg: "ResendAPIKey is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, err := email.New(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, tr)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
