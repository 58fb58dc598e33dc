package templates_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterhouse/leadmail/pkg/email/templates"
)

func TestRender(t *testing.T) {
	t.Parallel()

	c := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>"+templ.EscapeString("Mary & Jane")+"</p>")
		return err
	})

	html, err := templates.Render(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "<p>Mary &amp; Jane</p>", html)
}

func TestRender_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error { return boom })

	html, err := templates.Render(context.Background(), c)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, html)
}
