package lobby

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/atlas-remake/lobby/internal/protocol"
)

// queueTemplate is the YAML shape of a queue configuration file.
type queueTemplate struct {
	GameType            string            `yaml:"game_type"`
	IsActive            bool              `yaml:"is_active"`
	Spectators          int32             `yaml:"spectators"`
	TeamAPlayers        int32             `yaml:"team_a_players"`
	TeamABots           int32             `yaml:"team_a_bots"`
	TeamBPlayers        int32             `yaml:"team_b_players"`
	TeamBBots           int32             `yaml:"team_b_bots"`
	ResolveTimeoutLimit int32             `yaml:"resolve_timeout_limit"`
	RoomName            string            `yaml:"room_name"`
	Map                 string            `yaml:"map"`
	SubTypes            []subTypeTemplate `yaml:"sub_types"`
}

type subTypeTemplate struct {
	LocalizedName   string             `yaml:"localized_name"`
	TeamAPlayers    int32              `yaml:"team_a_players"`
	TeamABots       int32              `yaml:"team_a_bots"`
	TeamBPlayers    int32              `yaml:"team_b_players"`
	TeamBBots       int32              `yaml:"team_b_bots"`
	DuplicationRule string             `yaml:"duplication_rule"`
	RoleBalancing   string             `yaml:"role_balancing"`
	Mods            []string           `yaml:"mods"`
	Maps            []mapTemplate      `yaml:"maps"`
	Composition     []slotRuleTemplate `yaml:"composition"`
}

type mapTemplate struct {
	Map      string `yaml:"map"`
	IsActive bool   `yaml:"is_active"`
}

type slotRuleTemplate struct {
	Slot       string   `yaml:"slot"`
	Roles      []string `yaml:"roles"`
	Characters []string `yaml:"characters"`
}

var modNames = map[string]protocol.SubTypeMod{
	"allow_locked_characters": protocol.ModAllowPlayingLockedCharacters,
	"humans_have_first_slots": protocol.ModHumansHaveFirstSlots,
	"not_allowed_for_groups":  protocol.ModNotAllowedForGroups,
	"show_with_ai_teammates":  protocol.ModShowWithAITeammates,
}

// LoadQueuesFromDir reads queue templates from every *.yaml file in dir and
// overlays them on the built-in queue set. Files for ranked/custom are
// rejected with ErrNotImplemented rather than creating an empty queue.
//
// Postcondition: Returns a queue set containing exactly one queue per
// implemented game type.
func LoadQueuesFromDir(dir string) (map[protocol.GameType]*Queue, error) {
	queues := DefaultQueues()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading queue template dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading queue template %s: %w", path, err)
		}
		var tmpl queueTemplate
		if err := yaml.Unmarshal(raw, &tmpl); err != nil {
			return nil, fmt.Errorf("parsing queue template %s: %w", path, err)
		}
		q, err := tmpl.toQueue()
		if err != nil {
			return nil, fmt.Errorf("queue template %s: %w", path, err)
		}
		queues[q.GameType] = q
	}
	return queues, nil
}

func (t *queueTemplate) toQueue() (*Queue, error) {
	gameType, err := protocol.ParseGameType(t.GameType)
	if err != nil {
		return nil, err
	}
	if gameType == protocol.GameTypeRanked || gameType == protocol.GameTypeCustom {
		return nil, fmt.Errorf("%s: %w", gameType, ErrNotImplemented)
	}

	cfg := protocol.GameConfig{
		GameType:            gameType,
		IsActive:            t.IsActive,
		Spectators:          t.Spectators,
		TeamAPlayers:        t.TeamAPlayers,
		TeamABots:           t.TeamABots,
		TeamBPlayers:        t.TeamBPlayers,
		TeamBBots:           t.TeamBBots,
		ResolveTimeoutLimit: t.ResolveTimeoutLimit,
		RoomName:            t.RoomName,
		Map:                 t.Map,
	}
	for _, st := range t.SubTypes {
		sub := protocol.GameSubType{
			LocalizedName:   st.LocalizedName,
			TeamAPlayers:    st.TeamAPlayers,
			TeamABots:       st.TeamABots,
			TeamBPlayers:    st.TeamBPlayers,
			TeamBBots:       st.TeamBBots,
			DuplicationRule: st.DuplicationRule,
			RoleBalancing:   st.RoleBalancing,
		}
		for _, m := range st.Mods {
			mod, ok := modNames[m]
			if !ok {
				return nil, fmt.Errorf("unknown sub-type mod %q", m)
			}
			sub.Mods = append(sub.Mods, mod)
		}
		for _, mc := range st.Maps {
			sub.GameMapConfigs = append(sub.GameMapConfigs, protocol.GameMapConfig{Map: mc.Map, IsActive: mc.IsActive})
		}
		for _, sr := range st.Composition {
			sub.TeamComposition = append(sub.TeamComposition, protocol.SlotRule{
				Slot:       sr.Slot,
				Roles:      sr.Roles,
				Characters: sr.Characters,
			})
		}
		cfg.SubTypes = append(cfg.SubTypes, sub)
	}
	return &Queue{GameType: gameType, Config: cfg}, nil
}
