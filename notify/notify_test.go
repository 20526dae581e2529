package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/log"
)

type notifierFunc func(context.Context, teams.Event) error

func (f notifierFunc) Notify(ctx context.Context, event teams.Event) error {
	return f(ctx, event)
}

var event = teams.NewEvent(teams.EventPromotedMember, teams.Membership{
	ID:     3,
	TeamID: 1,
	UserID: 2,
	Role:   teams.RoleManager,
	Status: teams.StatusAccepted,
})

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := log.NewWithWriter(&buf, "info")
	require.NoError(t, err)

	require.NoError(t, NewLogger(logger).Notify(context.Background(), event))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "promoted_member", line["event"])
	assert.Equal(t, "manager", line["role"])
	assert.Equal(t, float64(1), line["team"])
}

func TestMulti(t *testing.T) {
	first, last := &Recorder{}, &Recorder{}
	failing := notifierFunc(func(context.Context, teams.Event) error { return errors.New("smtp down") })

	err := Multi{first, failing, last}.Notify(context.Background(), event)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "smtp down")
	}

	assert.Equal(t, []teams.EventName{teams.EventPromotedMember}, first.Names())
	assert.Equal(t, []teams.EventName{teams.EventPromotedMember}, last.Names(), "a failing notifier should not stop the others")

	assert.NoError(t, Multi{first}.Notify(context.Background(), event))
}

func TestAsync(t *testing.T) {
	rec := &Recorder{}
	async := NewAsync(rec, log.Discard())

	for i := 0; i < 5; i++ {
		assert.NoError(t, async.Notify(context.Background(), event))
	}
	async.Wait()
	assert.Len(t, rec.Events(), 5)

	// Panics and errors stay in the background
	panicking := NewAsync(notifierFunc(func(context.Context, teams.Event) error { panic("boom") }), log.Discard())
	assert.NoError(t, panicking.Notify(context.Background(), event))
	panicking.Wait()

	failing := NewAsync(notifierFunc(func(context.Context, teams.Event) error { return errors.New("nope") }), log.Discard())
	assert.NoError(t, failing.Notify(context.Background(), event))
	failing.Wait()
}

func TestRecorderReset(t *testing.T) {
	rec := &Recorder{}
	require.NoError(t, rec.Notify(context.Background(), event))
	assert.Equal(t, event, rec.Events()[0])

	rec.Reset()
	assert.Empty(t, rec.Events())
}
