// ABOUTME: TUI update helpers for server
// ABOUTME: Builds status snapshots from sessions and stats for the TUI
package server

import "sort"

// status returns a snapshot of the server state
func (s *Server) status() ServerStatus {
	s.sessionsMu.RLock()
	sessions := make([]SessionInfo, 0, len(s.sessions))
	for _, session := range s.sessions {
		session.mu.RLock()
		sessions = append(sessions, SessionInfo{
			ID:          session.ID,
			Addr:        session.Addr,
			State:       session.State,
			Conversions: session.Conversions,
		})
		session.mu.RUnlock()
	}
	s.sessionsMu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Addr < sessions[j].Addr
	})

	return ServerStatus{
		Name:     s.config.Name,
		Port:     s.config.Port,
		Sessions: sessions,
		Stats:    s.Stats(),
	}
}

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}
	s.tui.Update(s.status())
}
