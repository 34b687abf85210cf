package usecase

import (
	"sync"
	"time"

	"github.com/AzielCF/az-wap/domains/voice"
)

const voiceSessionTTL = 10 * time.Minute

// VoiceSessionRegistry is an in-memory map, not a gorm-backed usecase: spec
// §5 scopes it to process memory with lazy TTL expiry, rebuilt empty on
// restart.
type VoiceSessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]voice.Session
}

func NewVoiceSessionRegistry() *VoiceSessionRegistry {
	return &VoiceSessionRegistry{sessions: make(map[string]voice.Session)}
}

func (r *VoiceSessionRegistry) Create(s voice.Session) string {
	if s.SessionID == "" {
		s.SessionID = newID()
	}
	s.ExpiresAt = time.Now().UTC().Add(voiceSessionTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = s
	return s.SessionID
}

func (r *VoiceSessionRegistry) Get(sessionID string) (voice.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return voice.Session{}, false
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		delete(r.sessions, sessionID)
		return voice.Session{}, false
	}
	return s, true
}
