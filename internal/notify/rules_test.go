package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shutterhouse/leadmail/internal/notify"
	"github.com/shutterhouse/leadmail/pkg/email"
)

func TestDefaultRules(t *testing.T) {
	t.Parallel()

	rules := notify.DefaultRules(notify.Config{ContactFormRecipient: " inbox@example.com "})
	require.Len(t, rules, 1)
	assert.Equal(t, notify.ContactFormRule, rules[0].Name)
	assert.Equal(t, notify.ContactFormSubject, rules[0].SubjectContains)
	assert.Equal(t, []string{"inbox@example.com"}, rules[0].Recipients)

	rules = notify.DefaultRules(notify.Config{AdminRecipients: []string{" ", " studio@example.com", "assistant@example.com"}})
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"studio@example.com"}, rules[0].Recipients, "falls back to the first admin")
	assert.Equal(t, notify.ContactFormBanner, rules[0].Banner)
}

func TestCustomRules_FirstMatchWins(t *testing.T) {
	t.Parallel()

	tr := &recordingTransport{}
	n, err := notify.New(testConfig(), tr, studioRenderer(), notify.WithRules(
		notify.Rule{Name: "gallery", SubjectContains: "Gallery", Recipients: []string{"gallery@example.com"}},
		notify.Rule{Name: "catch-all", SubjectContains: "a", Recipients: []string{"other@example.com"}, Banner: "<p>banner</p>"},
		notify.Rule{Name: "never", SubjectContains: ""},
	))
	require.NoError(t, err)

	send := func(subject string) email.Envelope {
		t.Helper()
		res := n.Send(context.Background(), email.Envelope{To: []string{"x@example.com"}, Subject: subject, HTML: "<p>x</p>"})
		require.True(t, res.Success)
		sent := tr.envelopes()
		return sent[len(sent)-1]
	}

	env := send("Gallery ready")
	assert.Equal(t, []string{"gallery@example.com"}, env.To)
	assert.Equal(t, "<p>x</p>", env.HTML)

	env = send("Invoice paid")
	assert.Equal(t, []string{"other@example.com"}, env.To)
	assert.Equal(t, "<p>banner</p><p>x</p>", env.HTML)

	env = send("Hello")
	assert.Equal(t, []string{"x@example.com"}, env.To)
}

func TestMemoryAttemptStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := notify.NewMemoryAttemptStore()

	recipients := []string{"a@example.com"}
	require.NoError(t, s.Record(ctx, notify.Attempt{ID: "1", LeadID: "l1", Role: notify.RoleClient, Recipients: recipients}))
	require.NoError(t, s.Record(ctx, notify.Attempt{ID: "2", LeadID: "l2", Role: notify.RoleAdmin}))
	require.NoError(t, s.Record(ctx, notify.Attempt{ID: "3", LeadID: "l1", Role: notify.RoleAdmin}))
	recipients[0] = "mutated@example.com"

	got, err := s.ListByLead(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
	assert.Equal(t, []string{"a@example.com"}, got[0].Recipients)

	none, err := s.ListByLead(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestResult_Success(t *testing.T) {
	t.Parallel()

	ok := notify.SendResult{Success: true, MessageID: "m"}
	skipped := notify.SendResult{Skipped: true}
	failed := notify.SendResult{Error: "boom"}

	assert.True(t, notify.Result{Client: ok, Admin: ok}.Success())
	assert.True(t, notify.Result{Client: skipped, Admin: ok}.Success())
	assert.False(t, notify.Result{Client: ok, Admin: failed}.Success())
	assert.False(t, notify.Result{Client: failed, Admin: skipped}.Success())
}
