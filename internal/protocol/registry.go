package protocol

import (
	"fmt"
)

// Message is a typed wire message. Serialize writes exactly the declared
// fields in fixed order; Deserialize reads them back and reports truncation.
//
// Round-trip law: Deserialize(Serialize(m)) must reproduce m field-for-field.
type Message interface {
	Serialize(w *Writer)
	Deserialize(r *Reader) error
}

// Direction names the endpoint role that produced a message. Codes are
// scoped per direction: the same numeric code can map to different message
// types depending on who sent it.
type Direction uint8

const (
	// FromClient marks messages originated by a game client.
	FromClient Direction = iota
	// FromServer marks messages originated by the lobby or a game host.
	FromServer
)

func (d Direction) String() string {
	if d == FromClient {
		return "client"
	}
	return "server"
}

// UnknownCodeError reports a dispatch miss. It is recoverable: the caller
// logs and drops the message, and the connection continues.
type UnknownCodeError struct {
	Direction Direction
	Code      uint16
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("protocol: unknown %s message code %d", e.Direction, e.Code)
}

// DecodeError reports a malformed or truncated message payload. Only the
// offending message is invalidated.
type DecodeError struct {
	Code uint16
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decoding message code %d: %v", e.Code, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type registryKey struct {
	direction Direction
	code      uint16
}

// Registry maps (direction, code) pairs to message constructors and drives
// decoding dispatch. It is not safe for concurrent registration; register
// everything up front and share the registry read-only.
type Registry struct {
	factories map[registryKey]func() Message
	codes     map[Direction]map[string]uint16
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[registryKey]func() Message),
		codes:     make(map[Direction]map[string]uint16),
	}
}

// Register binds code in the given direction's namespace to the message
// constructor. Registering the same (direction, code) twice panics: that is
// a programming error, not a runtime condition.
func (r *Registry) Register(d Direction, code uint16, factory func() Message) {
	key := registryKey{direction: d, code: code}
	if _, dup := r.factories[key]; dup {
		panic(fmt.Sprintf("protocol: duplicate registration for %s code %d", d, code))
	}
	r.factories[key] = factory
	if r.codes[d] == nil {
		r.codes[d] = make(map[string]uint16)
	}
	r.codes[d][fmt.Sprintf("%T", factory())] = code
}

// Decode dispatches payload to the message type registered for
// (direction, code). A miss yields *UnknownCodeError; a malformed payload
// yields *DecodeError.
func (r *Registry) Decode(d Direction, code uint16, payload []byte) (Message, error) {
	factory, ok := r.factories[registryKey{direction: d, code: code}]
	if !ok {
		return nil, &UnknownCodeError{Direction: d, Code: code}
	}
	msg := factory()
	if err := msg.Deserialize(NewReader(payload)); err != nil {
		return nil, &DecodeError{Code: code, Err: err}
	}
	return msg, nil
}

// CodeFor returns the code msg is registered under in the given direction.
func (r *Registry) CodeFor(d Direction, msg Message) (uint16, bool) {
	code, ok := r.codes[d][fmt.Sprintf("%T", msg)]
	return code, ok
}

// DefaultRegistry returns a registry with every lobby message kind bound to
// its wire code. ObjectSpawn is relayed host-to-client and client-to-host,
// so it registers in both namespaces.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FromServer, CodeGameAssignment, func() Message { return &GameAssignmentNotification{} })
	r.Register(FromServer, CodeGameInfo, func() Message { return &GameInfoNotification{} })
	r.Register(FromClient, CodeAssetsLoaded, func() Message { return &AssetsLoadedNotification{} })
	r.Register(FromClient, CodeLeaveGame, func() Message { return &LeaveGameNotification{} })
	r.Register(FromServer, CodeObjectSpawn, func() Message { return &ObjectSpawnMessage{} })
	r.Register(FromClient, CodeObjectSpawn, func() Message { return &ObjectSpawnMessage{} })
	r.Register(FromServer, CodeObjectSpawnFinished, func() Message { return &ObjectSpawnFinishedMessage{} })
	return r
}
