package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDispatch(t *testing.T) {
	reg := DefaultRegistry()

	in := &AssetsLoadedNotification{AccountID: 55, PlayerID: 3}
	w := NewWriter()
	in.Serialize(w)

	msg, err := reg.Decode(FromClient, CodeAssetsLoaded, w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, in, msg)
}

func TestRegistryUnknownCode(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Decode(FromClient, 9999, nil)
	var unknown *UnknownCodeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, uint16(9999), unknown.Code)
}

func TestRegistryDirectionsAreIndependentNamespaces(t *testing.T) {
	reg := DefaultRegistry()

	// Code 53 means AssetsLoaded only when client-originated.
	_, err := reg.Decode(FromServer, CodeAssetsLoaded, nil)
	var unknown *UnknownCodeError
	assert.ErrorAs(t, err, &unknown)

	// ObjectSpawn is registered in both namespaces under the same code.
	spawn := &ObjectSpawnMessage{NetID: 9}
	w := NewWriter()
	spawn.Serialize(w)
	for _, d := range []Direction{FromClient, FromServer} {
		msg, err := reg.Decode(d, CodeObjectSpawn, w.Bytes())
		require.NoError(t, err, "direction %s", d)
		assert.Equal(t, spawn, msg)
	}
}

func TestRegistryDecodeErrorIsRecoverable(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Decode(FromClient, CodeLeaveGame, []byte{0x01})
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.ErrorIs(t, err, ErrTruncated)

	// The registry stays usable after a bad payload.
	in := &LeaveGameNotification{PlayerID: 1}
	w := NewWriter()
	in.Serialize(w)
	msg, err := reg.Decode(FromClient, CodeLeaveGame, w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, in, msg)
}

func TestRegistryDuplicateRegistrationPanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(FromClient, 1, func() Message { return &LeaveGameNotification{} })
	assert.Panics(t, func() {
		reg.Register(FromClient, 1, func() Message { return &LeaveGameNotification{} })
	})
}

func TestFrameRoundTrip(t *testing.T) {
	reg := DefaultRegistry()

	in := &GameInfoNotification{
		GameInfo:   sampleGameInfo(),
		PlayerInfo: PlayerInfo{AccountID: 3, PlayerID: 1, Handle: "Nix"},
		TeamInfo:   TeamInfo{TeamPlayerInfo: []*PlayerInfo{{AccountID: 3, PlayerID: 1, Handle: "Nix"}}},
	}
	frame, err := EncodeFrame(reg, FromServer, in)
	require.NoError(t, err)

	msg, err := DecodeFrame(reg, FromServer, frame)
	require.NoError(t, err)
	assert.Equal(t, in, msg)
}

func TestFrameRejectsLengthMismatch(t *testing.T) {
	reg := DefaultRegistry()

	frame, err := EncodeFrame(reg, FromClient, &AssetsLoadedNotification{AccountID: 1, PlayerID: 1})
	require.NoError(t, err)

	_, err = DecodeFrame(reg, FromClient, append(frame, 0x00))
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestFrameUnregisteredDirection(t *testing.T) {
	reg := DefaultRegistry()

	// GameInfoNotification only registers server-originated.
	_, err := EncodeFrame(reg, FromClient, &GameInfoNotification{})
	assert.Error(t, err)
}
