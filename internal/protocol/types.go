package protocol

import (
	"fmt"
	"time"
)

// Vector3 is a fixed-size 3-component position vector.
type Vector3 struct {
	X, Y, Z float32
}

// Quaternion is a fixed-size 4-component rotation.
type Quaternion struct {
	X, Y, Z, W float32
}

// AssetHash is a 128-bit opaque asset identifier.
type AssetHash [16]byte

// NetworkID identifies a replicated network object.
type NetworkID uint32

// GameType classifies a game mode. It is a closed set: Ranked and Custom are
// declared but have no queue wiring in this server and fail fast when used.
type GameType uint8

const (
	GameTypePractice GameType = iota
	GameTypeCoop
	GameTypePvP
	GameTypeRanked
	GameTypeCustom
)

// String returns the mode name used in logs and config files.
func (t GameType) String() string {
	switch t {
	case GameTypePractice:
		return "practice"
	case GameTypeCoop:
		return "coop"
	case GameTypePvP:
		return "pvp"
	case GameTypeRanked:
		return "ranked"
	case GameTypeCustom:
		return "custom"
	default:
		return fmt.Sprintf("gametype(%d)", uint8(t))
	}
}

// ParseGameType parses the config-file spelling of a game type.
func ParseGameType(s string) (GameType, error) {
	switch s {
	case "practice":
		return GameTypePractice, nil
	case "coop":
		return GameTypeCoop, nil
	case "pvp":
		return GameTypePvP, nil
	case "ranked":
		return GameTypeRanked, nil
	case "custom":
		return GameTypeCustom, nil
	default:
		return 0, fmt.Errorf("unknown game type %q", s)
	}
}

// Instant reports whether games of this type skip the loadout-selection
// phase and launch on the first tick after assembly.
func (t GameType) Instant() bool {
	return t == GameTypePractice
}

// GameStatus is the lifecycle state of a pending game.
type GameStatus uint8

const (
	GameStatusAssembling GameStatus = iota
	GameStatusLoadoutSelecting
	GameStatusLaunching
	GameStatusLaunched
)

func (s GameStatus) String() string {
	switch s {
	case GameStatusAssembling:
		return "assembling"
	case GameStatusLoadoutSelecting:
		return "loadout_selecting"
	case GameStatusLaunching:
		return "launching"
	case GameStatusLaunched:
		return "launched"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// GameResult is the outcome recorded on a game.
type GameResult int32

const (
	GameResultNoResult GameResult = iota
	GameResultTeamAWon
	GameResultTeamBWon
	GameResultTieGame
	GameResultClientLaunchFailure
	GameResultServerLaunchFailure
)

// Team identifies one side of a match.
type Team uint8

const (
	TeamA Team = iota
	TeamB
	TeamSpectator
)

// ReadyState is a player's readiness within the lobby.
type ReadyState uint8

const (
	ReadyStateUnknown ReadyState = iota
	ReadyStateReady
	ReadyStateWatching
)

// SubTypeMod is a behavioral flag on a game sub-type.
type SubTypeMod uint8

const (
	ModAllowPlayingLockedCharacters SubTypeMod = iota
	ModHumansHaveFirstSlots
	ModNotAllowedForGroups
	ModShowWithAITeammates
)

// GameOptionFlag is a bit flag in a game configuration.
type GameOptionFlag uint64

const (
	OptionAutoLaunch GameOptionFlag = 1 << iota
	OptionEnableTeamAIOutput
	OptionNoInputIdleDisconnect
	OptionReplaceHumansWithBots
)

// GameMapConfig names one selectable map within a sub-type.
type GameMapConfig struct {
	Map      string
	IsActive bool
}

// SlotRule constrains which roles or characters may occupy a roster slot.
// Slot names follow the A1/B2 convention; "team_a"/"team_b" apply to a whole
// side.
type SlotRule struct {
	Slot       string
	Roles      []string
	Characters []string
}

// GameSubType is a variant of a game mode with its own maps, composition
// rules, and mod flags.
type GameSubType struct {
	LocalizedName   string
	TeamAPlayers    int32
	TeamABots       int32
	TeamBPlayers    int32
	TeamBBots       int32
	DuplicationRule string
	RoleBalancing   string
	Mods            []SubTypeMod
	GameMapConfigs  []GameMapConfig
	TeamComposition []SlotRule
}

// GameConfig is the static configuration template for a game. Queues hold
// one of these; pending games carry a copy inside their GameInfo.
type GameConfig struct {
	GameType            GameType
	IsActive            bool
	GameOptionFlags     GameOptionFlag
	Spectators          int32
	TeamAPlayers        int32
	TeamABots           int32
	TeamBPlayers        int32
	TeamBBots           int32
	ResolveTimeoutLimit int32
	RoomName            string
	Map                 string
	SubTypes            []GameSubType
}

// GameInfo is the mutable session descriptor for a pending game.
type GameInfo struct {
	MatchID                  int64
	GameStatus               GameStatus
	GameResult               GameResult
	GameServerAddress        string
	GameServerHost           string
	GameServerProcessCode    string
	MonitorServerProcessCode string
	AcceptTimeout            time.Duration
	LoadoutSelectTimeout     time.Duration
	SelectSubPhaseBan1       time.Duration
	SelectSubPhaseBan2       time.Duration
	FreelancerSelectTimeout  time.Duration
	TradeTimeout             time.Duration
	GameConfig               GameConfig
}

// PlayerInfo is one roster slot: a human account or a bot.
type PlayerInfo struct {
	AccountID           int64
	PlayerID            int32
	Handle              string
	TeamID              Team
	IsNPCBot            bool
	ReadyState          ReadyState
	ControllingPlayerID int64
	CharacterType       int32
}

// Clone returns an independent copy of the slot record.
func (p *PlayerInfo) Clone() *PlayerInfo {
	cp := *p
	return &cp
}

// TeamInfo is the ordered roster for a game.
type TeamInfo struct {
	TeamPlayerInfo []*PlayerInfo
}

// Clone returns a deep copy; mutating the copy never affects the source.
func (t *TeamInfo) Clone() *TeamInfo {
	cp := &TeamInfo{TeamPlayerInfo: make([]*PlayerInfo, len(t.TeamPlayerInfo))}
	for i, p := range t.TeamPlayerInfo {
		cp.TeamPlayerInfo[i] = p.Clone()
	}
	return cp
}

// Humans returns the non-bot slots in roster order.
func (t *TeamInfo) Humans() []*PlayerInfo {
	out := make([]*PlayerInfo, 0, len(t.TeamPlayerInfo))
	for _, p := range t.TeamPlayerInfo {
		if !p.IsNPCBot {
			out = append(out, p)
		}
	}
	return out
}
