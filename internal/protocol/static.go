package protocol

import "time"

// Serialization of the shared lobby structures embedded in notification
// messages. Field order is fixed; durations travel as packed millisecond
// counts.

func writeDuration(w *Writer, d time.Duration) {
	w.WritePackedUint64(uint64(d / time.Millisecond))
}

func readDuration(r *Reader) time.Duration {
	return time.Duration(r.ReadPackedUint64()) * time.Millisecond
}

func writeStrings(w *Writer, ss []string) {
	w.WritePackedUint32(uint32(len(ss)))
	for _, s := range ss {
		w.WriteString(s)
	}
}

func readStrings(r *Reader) []string {
	n := r.ReadCount("string list")
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.ReadString())
		if r.Err() != nil {
			return nil
		}
	}
	return out
}

func (m *GameMapConfig) serialize(w *Writer) {
	w.WriteString(m.Map)
	w.WriteBool(m.IsActive)
}

func (m *GameMapConfig) deserialize(r *Reader) {
	m.Map = r.ReadString()
	m.IsActive = r.ReadBool()
}

func (s *SlotRule) serialize(w *Writer) {
	w.WriteString(s.Slot)
	writeStrings(w, s.Roles)
	writeStrings(w, s.Characters)
}

func (s *SlotRule) deserialize(r *Reader) {
	s.Slot = r.ReadString()
	s.Roles = readStrings(r)
	s.Characters = readStrings(r)
}

func (s *GameSubType) serialize(w *Writer) {
	w.WriteString(s.LocalizedName)
	w.WritePackedUint32(uint32(s.TeamAPlayers))
	w.WritePackedUint32(uint32(s.TeamABots))
	w.WritePackedUint32(uint32(s.TeamBPlayers))
	w.WritePackedUint32(uint32(s.TeamBBots))
	w.WriteString(s.DuplicationRule)
	w.WriteString(s.RoleBalancing)
	w.WritePackedUint32(uint32(len(s.Mods)))
	for _, m := range s.Mods {
		w.WriteUint8(uint8(m))
	}
	w.WritePackedUint32(uint32(len(s.GameMapConfigs)))
	for i := range s.GameMapConfigs {
		s.GameMapConfigs[i].serialize(w)
	}
	w.WritePackedUint32(uint32(len(s.TeamComposition)))
	for i := range s.TeamComposition {
		s.TeamComposition[i].serialize(w)
	}
}

func (s *GameSubType) deserialize(r *Reader) {
	s.LocalizedName = r.ReadString()
	s.TeamAPlayers = int32(r.ReadPackedUint32())
	s.TeamABots = int32(r.ReadPackedUint32())
	s.TeamBPlayers = int32(r.ReadPackedUint32())
	s.TeamBBots = int32(r.ReadPackedUint32())
	s.DuplicationRule = r.ReadString()
	s.RoleBalancing = r.ReadString()
	if n := r.ReadCount("mod list"); n > 0 {
		s.Mods = make([]SubTypeMod, 0, n)
		for i := 0; i < n; i++ {
			s.Mods = append(s.Mods, SubTypeMod(r.ReadUint8()))
		}
	}
	if n := r.ReadCount("map config list"); n > 0 {
		s.GameMapConfigs = make([]GameMapConfig, n)
		for i := range s.GameMapConfigs {
			s.GameMapConfigs[i].deserialize(r)
		}
	}
	if n := r.ReadCount("composition rule list"); n > 0 {
		s.TeamComposition = make([]SlotRule, n)
		for i := range s.TeamComposition {
			s.TeamComposition[i].deserialize(r)
		}
	}
}

func (c *GameConfig) serialize(w *Writer) {
	w.WriteUint8(uint8(c.GameType))
	w.WriteBool(c.IsActive)
	w.WritePackedUint64(uint64(c.GameOptionFlags))
	w.WritePackedUint32(uint32(c.Spectators))
	w.WritePackedUint32(uint32(c.TeamAPlayers))
	w.WritePackedUint32(uint32(c.TeamABots))
	w.WritePackedUint32(uint32(c.TeamBPlayers))
	w.WritePackedUint32(uint32(c.TeamBBots))
	w.WritePackedUint32(uint32(c.ResolveTimeoutLimit))
	w.WriteString(c.RoomName)
	w.WriteString(c.Map)
	w.WritePackedUint32(uint32(len(c.SubTypes)))
	for i := range c.SubTypes {
		c.SubTypes[i].serialize(w)
	}
}

func (c *GameConfig) deserialize(r *Reader) {
	c.GameType = GameType(r.ReadUint8())
	c.IsActive = r.ReadBool()
	c.GameOptionFlags = GameOptionFlag(r.ReadPackedUint64())
	c.Spectators = int32(r.ReadPackedUint32())
	c.TeamAPlayers = int32(r.ReadPackedUint32())
	c.TeamABots = int32(r.ReadPackedUint32())
	c.TeamBPlayers = int32(r.ReadPackedUint32())
	c.TeamBBots = int32(r.ReadPackedUint32())
	c.ResolveTimeoutLimit = int32(r.ReadPackedUint32())
	c.RoomName = r.ReadString()
	c.Map = r.ReadString()
	if n := r.ReadCount("sub-type list"); n > 0 {
		c.SubTypes = make([]GameSubType, n)
		for i := range c.SubTypes {
			c.SubTypes[i].deserialize(r)
		}
	}
}

func (g *GameInfo) serialize(w *Writer) {
	w.WritePackedUint64(uint64(g.MatchID))
	w.WriteUint8(uint8(g.GameStatus))
	w.WriteInt32(int32(g.GameResult))
	w.WriteString(g.GameServerAddress)
	w.WriteString(g.GameServerHost)
	w.WriteString(g.GameServerProcessCode)
	w.WriteString(g.MonitorServerProcessCode)
	writeDuration(w, g.AcceptTimeout)
	writeDuration(w, g.LoadoutSelectTimeout)
	writeDuration(w, g.SelectSubPhaseBan1)
	writeDuration(w, g.SelectSubPhaseBan2)
	writeDuration(w, g.FreelancerSelectTimeout)
	writeDuration(w, g.TradeTimeout)
	g.GameConfig.serialize(w)
}

func (g *GameInfo) deserialize(r *Reader) {
	g.MatchID = int64(r.ReadPackedUint64())
	g.GameStatus = GameStatus(r.ReadUint8())
	g.GameResult = GameResult(r.ReadInt32())
	g.GameServerAddress = r.ReadString()
	g.GameServerHost = r.ReadString()
	g.GameServerProcessCode = r.ReadString()
	g.MonitorServerProcessCode = r.ReadString()
	g.AcceptTimeout = readDuration(r)
	g.LoadoutSelectTimeout = readDuration(r)
	g.SelectSubPhaseBan1 = readDuration(r)
	g.SelectSubPhaseBan2 = readDuration(r)
	g.FreelancerSelectTimeout = readDuration(r)
	g.TradeTimeout = readDuration(r)
	g.GameConfig.deserialize(r)
}

func (p *PlayerInfo) serialize(w *Writer) {
	w.WritePackedUint64(uint64(p.AccountID))
	w.WritePackedUint32(uint32(p.PlayerID))
	w.WriteString(p.Handle)
	w.WriteUint8(uint8(p.TeamID))
	w.WriteBool(p.IsNPCBot)
	w.WriteUint8(uint8(p.ReadyState))
	w.WritePackedUint64(uint64(p.ControllingPlayerID))
	w.WritePackedUint32(uint32(p.CharacterType))
}

func (p *PlayerInfo) deserialize(r *Reader) {
	p.AccountID = int64(r.ReadPackedUint64())
	p.PlayerID = int32(r.ReadPackedUint32())
	p.Handle = r.ReadString()
	p.TeamID = Team(r.ReadUint8())
	p.IsNPCBot = r.ReadBool()
	p.ReadyState = ReadyState(r.ReadUint8())
	p.ControllingPlayerID = int64(r.ReadPackedUint64())
	p.CharacterType = int32(r.ReadPackedUint32())
}

func (t *TeamInfo) serialize(w *Writer) {
	w.WritePackedUint32(uint32(len(t.TeamPlayerInfo)))
	for _, p := range t.TeamPlayerInfo {
		p.serialize(w)
	}
}

func (t *TeamInfo) deserialize(r *Reader) {
	if n := r.ReadCount("roster"); n > 0 {
		t.TeamPlayerInfo = make([]*PlayerInfo, 0, n)
		for i := 0; i < n; i++ {
			p := &PlayerInfo{}
			p.deserialize(r)
			if r.Err() != nil {
				return
			}
			t.TeamPlayerInfo = append(t.TeamPlayerInfo, p)
		}
	}
}
