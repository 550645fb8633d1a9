package completion

import (
	"context"
	"sync"

	"github.com/aidekit/aide/internal/models"
)

// ScriptedBackend replays queued replies in order and is used in tests. An
// exhausted or explicitly failing backend returns nil like a real provider
// outage would.
type ScriptedBackend struct {
	mu      sync.Mutex
	replies []string
	// Requests records every conversation handed to Complete.
	Requests [][]models.UserMessage
	Fail     bool
}

func NewScriptedBackend(replies ...string) *ScriptedBackend {
	return &ScriptedBackend{replies: replies}
}

func (s *ScriptedBackend) Complete(_ context.Context, messages []models.UserMessage, _ *Options) *models.UserMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, messages)
	if s.Fail || len(s.replies) == 0 {
		return nil
	}

	reply := s.replies[0]
	s.replies = s.replies[1:]
	return &models.UserMessage{
		Role:     models.RoleAssistant,
		Content:  reply,
		Provider: "scripted",
	}
}
