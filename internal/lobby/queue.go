// Package lobby owns game assembly: the per-mode queues, the set of
// in-flight pending games, the periodic tick that advances them, and the
// notification fan-out to participants.
package lobby

import (
	"time"

	"github.com/atlas-remake/lobby/internal/protocol"
)

// Queue pairs a game type with its static configuration template. Queues
// are built once at startup and never mutated afterwards.
type Queue struct {
	GameType protocol.GameType
	Config   protocol.GameConfig
}

// NewQueue builds the queue for gameType from its built-in template.
//
// Postcondition: Returns a queue, or ErrNotImplemented for ranked/custom.
func NewQueue(gameType protocol.GameType) (*Queue, error) {
	var cfg protocol.GameConfig
	switch gameType {
	case protocol.GameTypePractice:
		cfg = practiceConfig()
	case protocol.GameTypeCoop:
		cfg = coopConfig()
	case protocol.GameTypePvP:
		cfg = pvpConfig()
	default:
		return nil, ErrNotImplemented
	}
	return &Queue{GameType: gameType, Config: cfg}, nil
}

// DefaultQueues builds the queue set for every implemented game type,
// keyed by type. Exactly one queue exists per type.
func DefaultQueues() map[protocol.GameType]*Queue {
	queues := make(map[protocol.GameType]*Queue)
	for _, t := range []protocol.GameType{
		protocol.GameTypePractice,
		protocol.GameTypeCoop,
		protocol.GameTypePvP,
	} {
		q, err := NewQueue(t)
		if err != nil {
			// Only unimplemented types error, and none are listed above.
			panic(err)
		}
		queues[t] = q
	}
	return queues
}

// NewGameInfo stamps a fresh session descriptor from the queue's template.
// Phase timeouts default to the original lobby values; callers may adjust
// them before handing the descriptor to the orchestrator.
func (q *Queue) NewGameInfo() *protocol.GameInfo {
	return &protocol.GameInfo{
		GameStatus:              protocol.GameStatusAssembling,
		GameResult:              protocol.GameResultNoResult,
		AcceptTimeout:           0,
		LoadoutSelectTimeout:    time.Minute,
		SelectSubPhaseBan1:      time.Minute,
		SelectSubPhaseBan2:      30 * time.Second,
		FreelancerSelectTimeout: 30 * time.Second,
		TradeTimeout:            30 * time.Second,
		GameConfig:              q.Config,
	}
}

func practiceConfig() protocol.GameConfig {
	return protocol.GameConfig{
		GameType:            protocol.GameTypePractice,
		IsActive:            false,
		GameOptionFlags:     protocol.OptionEnableTeamAIOutput | protocol.OptionNoInputIdleDisconnect,
		Spectators:          0,
		TeamAPlayers:        1,
		TeamABots:           0,
		TeamBPlayers:        0,
		TeamBBots:           2,
		ResolveTimeoutLimit: 160,
		RoomName:            "default",
		Map:                 "Skyway_Deathmatch",
		SubTypes: []protocol.GameSubType{{
			LocalizedName:   "GenericPractice@SubTypes",
			TeamAPlayers:    1,
			TeamABots:       0,
			TeamBPlayers:    0,
			TeamBBots:       2,
			DuplicationRule: "noneInTeam",
			RoleBalancing:   "none",
			Mods: []protocol.SubTypeMod{
				protocol.ModAllowPlayingLockedCharacters,
				protocol.ModHumansHaveFirstSlots,
				protocol.ModNotAllowedForGroups,
			},
			GameMapConfigs: []protocol.GameMapConfig{{Map: "Skyway_Deathmatch", IsActive: true}},
			TeamComposition: []protocol.SlotRule{
				{Slot: "a1", Roles: []string{"assassin", "tank", "support"}},
				{Slot: "b1", Characters: []string{"PunchingDummy"}},
				{Slot: "b2", Characters: []string{"PunchingDummy"}},
			},
		}},
	}
}

func coopConfig() protocol.GameConfig {
	return protocol.GameConfig{
		GameType:            protocol.GameTypeCoop,
		IsActive:            false,
		GameOptionFlags:     protocol.OptionEnableTeamAIOutput | protocol.OptionReplaceHumansWithBots,
		Spectators:          0,
		TeamAPlayers:        4,
		TeamABots:           0,
		TeamBPlayers:        4,
		TeamBBots:           0,
		ResolveTimeoutLimit: 160,
		RoomName:            "default",
		SubTypes: []protocol.GameSubType{{
			LocalizedName:   "GenericPvE@SubTypes",
			TeamAPlayers:    4,
			TeamABots:       3,
			TeamBPlayers:    0,
			TeamBBots:       4,
			DuplicationRule: "noneInTeam",
			RoleBalancing:   "balanceBothTeams",
			Mods: []protocol.SubTypeMod{
				protocol.ModHumansHaveFirstSlots,
				protocol.ModShowWithAITeammates,
			},
			GameMapConfigs: deathmatchMaps(),
			TeamComposition: []protocol.SlotRule{
				{Slot: "team_a", Roles: []string{"assassin", "tank", "support"}},
				{Slot: "team_b", Roles: []string{"assassin", "tank", "support"}},
			},
		}},
	}
}

func pvpConfig() protocol.GameConfig {
	return protocol.GameConfig{
		GameType:            protocol.GameTypePvP,
		IsActive:            true,
		GameOptionFlags:     protocol.OptionEnableTeamAIOutput | protocol.OptionReplaceHumansWithBots,
		Spectators:          0,
		TeamAPlayers:        1,
		TeamABots:           0,
		TeamBPlayers:        1,
		TeamBBots:           0,
		ResolveTimeoutLimit: 160,
		RoomName:            "default",
		SubTypes: []protocol.GameSubType{{
			LocalizedName:   "GenericPvP@SubTypes",
			TeamAPlayers:    1,
			TeamABots:       0,
			TeamBPlayers:    1,
			TeamBBots:       0,
			DuplicationRule: "noneInTeam",
			RoleBalancing:   "balanceBothTeams",
			Mods:            []protocol.SubTypeMod{protocol.ModHumansHaveFirstSlots},
			GameMapConfigs:  deathmatchMaps(),
			TeamComposition: []protocol.SlotRule{
				{Slot: "team_a", Roles: []string{"assassin", "tank", "support"}},
				{Slot: "team_b", Roles: []string{"assassin", "tank", "support"}},
			},
		}},
	}
}

func deathmatchMaps() []protocol.GameMapConfig {
	return []protocol.GameMapConfig{
		{Map: "Skyway_Deathmatch", IsActive: true},
		{Map: "VR_Facility_Deathmatch", IsActive: true},
		{Map: "CloudSpire_Deathmatch", IsActive: true},
		{Map: "Reactor_Deathmatch", IsActive: true},
	}
}
