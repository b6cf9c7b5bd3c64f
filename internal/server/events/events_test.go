package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ err error }

func (f failing) Publish(context.Context, []Event) error { return f.err }

func TestConstructors(t *testing.T) {
	d := Deposited("alice", "7", 10)
	w := Withdrawn("alice", "7", 20)
	r := RewardClaimed("alice", "500", 20)

	assert.Equal(t, KindDeposited, d.Kind)
	assert.Equal(t, "7", w.ItemID)
	assert.Empty(t, r.ItemID)
	assert.Equal(t, "500", r.Amount)
	assert.NotEqual(t, d.ID, w.ID)
	assert.Len(t, d.ID, 36)
}

func TestFanout_DeliversToAllAndJoinsErrors(t *testing.T) {
	ctx := context.Background()
	a, b := &Recorder{}, &Recorder{}
	e1, e2 := errors.New("kafka down"), errors.New("disk full")

	err := Fanout{a, failing{e1}, b, failing{e2}}.Publish(ctx, []Event{Deposited("alice", "1", 0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)

	require.NoError(t, Fanout{a}.Publish(ctx, nil))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), []Event{Deposited("a", "1", 0), Withdrawn("a", "1", 1)}))

	got := r.Events()
	require.Len(t, got, 2)
	got[0].Holder = "mutated"
	assert.Equal(t, "a", r.Events()[0].Holder)

	r.Reset()
	assert.Empty(t, r.Events())
}
