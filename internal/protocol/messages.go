package protocol

// Message codes. Client- and server-originated codes are independent
// namespaces; a message may register under both when it is relayed in both
// directions.
const (
	CodeObjectSpawn         uint16 = 3
	CodeObjectSpawnFinished uint16 = 12
	CodeGameAssignment      uint16 = 51
	CodeGameInfo            uint16 = 52
	CodeAssetsLoaded        uint16 = 53
	CodeLeaveGame           uint16 = 67
)

// GameAssignmentNotification tells a client which game it has been placed
// into. PlayerInfo is a per-recipient clone with ControllingPlayerID cleared.
type GameAssignmentNotification struct {
	GameInfo     GameInfo
	GameResult   GameResult
	PlayerInfo   PlayerInfo
	Reconnection bool
	Observer     bool
}

func (m *GameAssignmentNotification) Serialize(w *Writer) {
	m.GameInfo.serialize(w)
	w.WriteInt32(int32(m.GameResult))
	m.PlayerInfo.serialize(w)
	w.WriteBool(m.Reconnection)
	w.WriteBool(m.Observer)
}

func (m *GameAssignmentNotification) Deserialize(r *Reader) error {
	m.GameInfo.deserialize(r)
	m.GameResult = GameResult(r.ReadInt32())
	m.PlayerInfo.deserialize(r)
	m.Reconnection = r.ReadBool()
	m.Observer = r.ReadBool()
	return r.Err()
}

// GameInfoNotification carries the current game state to one recipient on
// every lifecycle transition. PlayerInfo and TeamInfo are clones; the
// recipient's own slot has ControllingPlayerID cleared.
type GameInfoNotification struct {
	GameInfo   GameInfo
	PlayerInfo PlayerInfo
	TeamInfo   TeamInfo
}

func (m *GameInfoNotification) Serialize(w *Writer) {
	m.GameInfo.serialize(w)
	m.PlayerInfo.serialize(w)
	m.TeamInfo.serialize(w)
}

func (m *GameInfoNotification) Deserialize(r *Reader) error {
	m.GameInfo.deserialize(r)
	m.PlayerInfo.deserialize(r)
	m.TeamInfo.deserialize(r)
	return r.Err()
}

// AssetsLoadedNotification is sent by a client once its game assets are
// resident and it is ready to enter the match.
type AssetsLoadedNotification struct {
	AccountID int64
	PlayerID  int32
}

func (m *AssetsLoadedNotification) Serialize(w *Writer) {
	w.WritePackedUint64(uint64(m.AccountID))
	w.WritePackedUint32(uint32(m.PlayerID))
}

func (m *AssetsLoadedNotification) Deserialize(r *Reader) error {
	m.AccountID = int64(r.ReadPackedUint64())
	m.PlayerID = int32(r.ReadPackedUint32())
	return r.Err()
}

// LeaveGameNotification is sent by a client abandoning a game. IsPermanent
// distinguishes a quit from a reconnectable drop.
type LeaveGameNotification struct {
	PlayerID    int32
	IsPermanent bool
	GameResult  GameResult
}

func (m *LeaveGameNotification) Serialize(w *Writer) {
	w.WritePackedUint32(uint32(m.PlayerID))
	w.WriteBool(m.IsPermanent)
	w.WriteInt32(int32(m.GameResult))
}

func (m *LeaveGameNotification) Deserialize(r *Reader) error {
	m.PlayerID = int32(r.ReadPackedUint32())
	m.IsPermanent = r.ReadBool()
	m.GameResult = GameResult(r.ReadInt32())
	return r.Err()
}

// ObjectSpawnMessage replicates a network object between host and client.
// Rotation is an optional trailing field: old senders omit it, and a decoder
// finding fewer than 16 bytes remaining leaves it at the zero value.
type ObjectSpawnMessage struct {
	NetID       NetworkID
	AssetID     AssetHash
	Position    Vector3
	Payload     []byte
	Rotation    Quaternion
	HasRotation bool
}

const quaternionWireSize = 16

func (m *ObjectSpawnMessage) Serialize(w *Writer) {
	w.WriteNetworkID(m.NetID)
	w.WriteAssetHash(m.AssetID)
	w.WriteVector3(m.Position)
	w.WriteBytes(m.Payload)
	if m.HasRotation {
		w.WriteQuaternion(m.Rotation)
	}
}

func (m *ObjectSpawnMessage) Deserialize(r *Reader) error {
	m.NetID = r.ReadNetworkID()
	m.AssetID = r.ReadAssetHash()
	m.Position = r.ReadVector3()
	m.Payload = r.ReadBytes()
	if r.Err() == nil && r.Remaining() >= quaternionWireSize {
		m.Rotation = r.ReadQuaternion()
		m.HasRotation = true
	}
	return r.Err()
}

// ObjectSpawnFinishedMessage signals the spawn handshake state (0 = begin,
// 1 = done).
type ObjectSpawnFinishedMessage struct {
	State uint32
}

func (m *ObjectSpawnFinishedMessage) Serialize(w *Writer) {
	w.WritePackedUint32(m.State)
}

func (m *ObjectSpawnFinishedMessage) Deserialize(r *Reader) error {
	m.State = r.ReadPackedUint32()
	return r.Err()
}
