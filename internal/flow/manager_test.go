package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aidekit/aide/internal/convostore"
	"github.com/aidekit/aide/internal/models"
)

// countingKV records delete calls and can be forced to fail.
type countingKV struct {
	*convostore.MemoryKV
	delCalls int
	failGet  bool
}

func (c *countingKV) Get(key string) (string, bool, error) {
	if c.failGet {
		return "", false, errors.New("backend down")
	}
	return c.MemoryKV.Get(key)
}

func (c *countingKV) Del(key string) error {
	c.delCalls++
	return c.MemoryKV.Del(key)
}

func newTestManager() (*Manager, *countingKV, *convostore.Store) {
	kv := &countingKV{MemoryKV: convostore.NewMemoryKV()}
	store := convostore.New(kv, zap.NewNop())
	return NewManager(store, zap.NewNop()), kv, store
}

func TestStartTwicePersistsOneFlow(t *testing.T) {
	m, _, store := newTestManager()

	first := m.Start("C1", models.ChannelDirect)
	require.False(t, first.Failed)
	require.NotNil(t, first.Flow)
	assert.Equal(t, noticeStarted, first.Notice)

	second := m.Start("C1", models.ChannelDirect)
	require.False(t, second.Failed)
	assert.Equal(t, noticeAlreadyRunning, second.Notice)

	third := m.Start("C1", models.ChannelDirect)
	assert.Equal(t, noticeAlreadyRunning, third.Notice)

	channels, err := store.ActiveChannels()
	require.NoError(t, err)
	assert.Equal(t, []string{"C1"}, channels)
}

func TestEndWhenNotRunning(t *testing.T) {
	m, kv, _ := newTestManager()

	res := m.End("C1")
	assert.False(t, res.Failed)
	assert.Equal(t, noticeNotRunning, res.Notice)
	assert.Zero(t, kv.delCalls)
}

func TestStartThenEnd(t *testing.T) {
	m, kv, store := newTestManager()

	m.Start("C1", models.ChannelShared)
	res := m.End("C1")
	assert.Equal(t, noticeEnded, res.Notice)
	assert.Equal(t, 1, kv.delCalls)

	flow, err := store.GetFlow("C1")
	require.NoError(t, err)
	assert.Nil(t, flow)
}

func TestStartSurfacesStoreFailure(t *testing.T) {
	m, kv, _ := newTestManager()
	kv.failGet = true

	res := m.Start("C1", models.ChannelDirect)
	assert.True(t, res.Failed)
	assert.Nil(t, res.Flow)
	assert.Equal(t, noticeUnavailable, res.Notice)
}

func TestContextNeverCreatesState(t *testing.T) {
	m, _, store := newTestManager()

	flow, err := m.Context("C1")
	require.NoError(t, err)
	assert.Nil(t, flow)

	channels, err := store.ActiveChannels()
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestStartStampsTimestamps(t *testing.T) {
	m, _, _ := newTestManager()

	before := time.Now()
	res := m.Start("C1", models.ChannelDirect)
	require.NotNil(t, res.Flow)
	assert.False(t, res.Flow.CreatedAt.Before(before.Add(-time.Second)))
}
