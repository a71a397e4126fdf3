package lobby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-remake/lobby/internal/protocol"
)

func TestNewQueueImplementedTypes(t *testing.T) {
	for _, gameType := range []protocol.GameType{
		protocol.GameTypePractice,
		protocol.GameTypeCoop,
		protocol.GameTypePvP,
	} {
		t.Run(gameType.String(), func(t *testing.T) {
			q, err := NewQueue(gameType)
			require.NoError(t, err)
			assert.Equal(t, gameType, q.GameType)
			assert.Equal(t, gameType, q.Config.GameType)
			require.Len(t, q.Config.SubTypes, 1)
		})
	}
}

func TestNewQueueUnimplementedTypes(t *testing.T) {
	for _, gameType := range []protocol.GameType{
		protocol.GameTypeRanked,
		protocol.GameTypeCustom,
	} {
		t.Run(gameType.String(), func(t *testing.T) {
			_, err := NewQueue(gameType)
			assert.ErrorIs(t, err, ErrNotImplemented)
		})
	}
}

func TestDefaultQueuesOnePerType(t *testing.T) {
	queues := DefaultQueues()
	require.Len(t, queues, 3)
	for gameType, q := range queues {
		assert.Equal(t, gameType, q.GameType)
	}
	assert.NotContains(t, queues, protocol.GameTypeRanked)
	assert.NotContains(t, queues, protocol.GameTypeCustom)
}

func TestPracticeQueueIsInstant(t *testing.T) {
	queues := DefaultQueues()
	assert.True(t, queues[protocol.GameTypePractice].Config.GameType.Instant())
	assert.False(t, queues[protocol.GameTypeCoop].Config.GameType.Instant())
	assert.False(t, queues[protocol.GameTypePvP].Config.GameType.Instant())
}

func TestNewGameInfoDefaults(t *testing.T) {
	q, err := NewQueue(protocol.GameTypePvP)
	require.NoError(t, err)

	info := q.NewGameInfo()
	assert.Equal(t, protocol.GameStatusAssembling, info.GameStatus)
	assert.Equal(t, protocol.GameResultNoResult, info.GameResult)
	assert.Equal(t, time.Minute, info.LoadoutSelectTimeout)
	assert.Equal(t, 30*time.Second, info.TradeTimeout)
	assert.Equal(t, q.Config, info.GameConfig)

	// Each call stamps an independent descriptor.
	other := q.NewGameInfo()
	other.LoadoutSelectTimeout = time.Hour
	assert.Equal(t, time.Minute, info.LoadoutSelectTimeout)
}
