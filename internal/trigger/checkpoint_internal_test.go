package trigger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_CommitsContiguousPrefix(t *testing.T) {
	t.Parallel()

	p := newProgress("")
	a, b, c := p.dispatch(), p.dispatch(), p.dispatch()

	assert.False(t, p.finish(c, "c"))
	assert.False(t, p.finish(b, "b"))
	assert.Equal(t, "", p.latest())

	assert.True(t, p.finish(a, "a"))
	assert.Equal(t, "c", p.latest())
}

func TestProgress_SkipsEventsWithoutToken(t *testing.T) {
	t.Parallel()

	p := newProgress("saved")
	a, b := p.dispatch(), p.dispatch()

	assert.False(t, p.finish(a, ""))
	assert.Equal(t, "saved", p.latest())
	assert.True(t, p.finish(b, "b"))
	assert.Equal(t, "b", p.latest())
}

type failingCheckpoint struct {
	MemoryCheckpoint
	err   error
	calls int
}

func (f *failingCheckpoint) Save(ctx context.Context, token string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return f.MemoryCheckpoint.Save(ctx, token)
}

func TestProgress_Save(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &failingCheckpoint{err: errors.New("down")}
	p := newProgress("1")

	// Nothing new to write.
	require.NoError(t, p.save(ctx, c))
	assert.Zero(t, c.calls)

	p.finish(p.dispatch(), "2")
	assert.Error(t, p.save(ctx, c))

	// A failed save is retried with the next commit.
	c.err = nil
	require.NoError(t, p.save(ctx, c))
	assert.Equal(t, 2, c.calls)

	token, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", token)

	require.NoError(t, p.save(ctx, c))
	assert.Equal(t, 2, c.calls)
}
