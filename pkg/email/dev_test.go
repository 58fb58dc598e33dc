package email_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterhouse/leadmail/pkg/email"
)

func TestDevTransport_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes html and metadata", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		tr := email.NewDevTransport(dir, "studio@example.com")

		env := validEnvelope()
		env.Tag = "lead-client"
		env.Attachments = []email.Attachment{{
			Filename: "packages.pdf",
			Content:  base64.StdEncoding.EncodeToString([]byte("pdf")),
		}}

		receipt, err := tr.Send(ctx, env)
		require.NoError(t, err)
		assert.Contains(t, receipt.MessageID, "lead-client")

		html, err := os.ReadFile(filepath.Join(dir, receipt.MessageID+".html"))
		require.NoError(t, err)
		assert.Equal(t, "<p>Hello</p>", string(html))

		raw, err := os.ReadFile(filepath.Join(dir, receipt.MessageID+".json"))
		require.NoError(t, err)
		var meta map[string]any
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, "studio@example.com", meta["from"])
		assert.Equal(t, []any{"client@example.com"}, meta["to"])
		assert.Equal(t, env.Subject, meta["subject"])
		assert.Equal(t, []any{"packages.pdf"}, meta["attachments"])
	})

	t.Run("uses sanitized subject without tag", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		tr := email.NewDevTransport(dir, "studio@example.com")

		env := validEnvelope()
		env.Subject = "New Wedding Inquiry!"
		receipt, err := tr.Send(ctx, env)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(receipt.MessageID, "new_wedding_inquiry"), receipt.MessageID)
	})

	t.Run("rejects invalid envelope without writing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		tr := email.NewDevTransport(dir, "studio@example.com")

		_, err := tr.Send(ctx, email.Envelope{Subject: "x", HTML: "y"})
		assert.ErrorIs(t, err, email.ErrInvalidEnvelope)

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("directory creation failure", func(t *testing.T) {
		t.Parallel()

		tr := email.NewDevTransport("/dev/null/cannot-create-here", "studio@example.com")
		_, err := tr.Send(ctx, validEnvelope())
		assert.ErrorIs(t, err, email.ErrSendFailed)
		assert.Contains(t, err.Error(), "failed to create directory")
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		tr := email.NewDevTransport(t.TempDir(), "studio@example.com")
		_, err := tr.Send(cctx, validEnvelope())
		assert.ErrorIs(t, err, email.ErrSendFailed)
	})
}
