package api

import (
	"sync"

	"github.com/nlwealth/advisorforms/internal/models"
	"github.com/nlwealth/advisorforms/internal/services"
)

// sessionGuard is the per-session resubmission flag. Check-then-set under a
// mutex; one instance exists per session id.
type sessionGuard struct {
	mu        sync.Mutex
	submitted map[models.Section]bool
}

func (g *sessionGuard) Submitted(section models.Section) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitted[section]
}

func (g *sessionGuard) MarkSubmitted(section models.Section) {
	g.mu.Lock()
	g.submitted[section] = true
	g.mu.Unlock()
}

// GuardRegistry hands out submission guards keyed by session id. Session ids
// are minted fresh at every login, so re-authenticating discards the old
// guard and allows a deliberate resubmission.
type GuardRegistry struct {
	mu     sync.Mutex
	guards map[string]*sessionGuard
}

func NewGuardRegistry() *GuardRegistry {
	return &GuardRegistry{guards: map[string]*sessionGuard{}}
}

func (r *GuardRegistry) Guard(sessionID string) services.SubmissionGuard {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guards[sessionID]
	if !ok {
		g = &sessionGuard{submitted: map[models.Section]bool{}}
		r.guards[sessionID] = g
	}
	return g
}
