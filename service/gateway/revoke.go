package gateway

import (
	"ChatWave/logger"
)

// DisconnectByToken tears down the live connection authenticated with the
// given raw token, if any. The client is told why before the socket closes;
// the normal disconnect path then handles presence and cleanup. Reports
// whether a connection was found.
func (s *Server) DisconnectByToken(token string) bool {
	c, ok := s.reg.ResolveByToken(token)
	if !ok {
		return false
	}

	logger.Infof("revoking live session user=%s conn=%s", c.UserID, c.ConnID)
	s.emit(c, EvtSessionRevoked, map[string]any{
		"reason": "Your session has been terminated",
	})
	c.Close()
	return true
}
