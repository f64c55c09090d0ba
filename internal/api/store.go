package api

import (
	"sort"
	"sync"
	"time"

	"github.com/nlwealth/advisorforms/internal/models"
)

// memoryStore is the volatile map-backed Store. Every read and write copies
// records at the boundary so stored history stays immutable regardless of
// what callers do with the returned values. The single mutex also makes the
// version read-modify-write in UpdateTemplate atomic.
type memoryStore struct {
	mu sync.RWMutex

	activeTemplates  map[string]*models.Template            // by template id
	templateVersions map[models.Section][]*models.Template  // append-only, ascending version
	questionnaires   map[int]*models.Questionnaire
	clients          map[int]*models.Client
	admins           map[int]*models.Admin

	questionnaireSeq int
	clientSeq        int
	adminSeq         int

	now func() time.Time
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		activeTemplates:  map[string]*models.Template{},
		templateVersions: map[models.Section][]*models.Template{},
		questionnaires:   map[int]*models.Questionnaire{},
		clients:          map[int]*models.Client{},
		admins:           map[int]*models.Admin{},
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Templates

func (s *memoryStore) GetTemplate(id string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTemplate(s.activeTemplates[id]), nil
}

func (s *memoryStore) GetTemplateBySection(section models.Section) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.activeTemplates {
		if t.Section == section {
			return cloneTemplate(t), nil
		}
	}
	return nil, nil
}

func (s *memoryStore) GetTemplateVersion(section models.Section, version int) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.templateVersions[section] {
		if t.Version == version {
			return cloneTemplate(t), nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListTemplateHistory(section models.Section) ([]*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.templateVersions[section]
	out := make([]*models.Template, 0, len(history))
	for _, t := range history {
		out = append(out, cloneTemplate(t))
	}
	return out, nil
}

func (s *memoryStore) ListTemplates() ([]*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Template, 0, len(s.activeTemplates))
	for _, t := range s.activeTemplates {
		out = append(out, cloneTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) InsertTemplate(t *models.Template) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneTemplate(t)
	s.activeTemplates[stored.ID] = stored
	s.templateVersions[stored.Section] = append(s.templateVersions[stored.Section], stored)
	return cloneTemplate(stored), nil
}

func (s *memoryStore) UpdateTemplate(section models.Section, t *models.Template) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.latestVersionLocked(section)
	if latest == 0 {
		return nil, nil
	}
	stored := cloneTemplate(t)
	stored.Version = latest + 1
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.activeTemplates[stored.ID] = stored
	s.templateVersions[section] = append(s.templateVersions[section], stored)
	return cloneTemplate(stored), nil
}

func (s *memoryStore) DeleteTemplate(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activeTemplates[id]; !ok {
		return false, nil
	}
	delete(s.activeTemplates, id)
	return true, nil
}

func (s *memoryStore) LatestTemplateVersion(section models.Section) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestVersionLocked(section), nil
}

func (s *memoryStore) latestVersionLocked(section models.Section) int {
	latest := 0
	for _, t := range s.templateVersions[section] {
		if t.Version > latest {
			latest = t.Version
		}
	}
	return latest
}

// Questionnaires

func (s *memoryStore) InsertQuestionnaire(q *models.Questionnaire) (*models.Questionnaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questionnaireSeq++
	stored := cloneQuestionnaire(q)
	stored.ID = s.questionnaireSeq
	s.questionnaires[stored.ID] = stored
	return cloneQuestionnaire(stored), nil
}

func (s *memoryStore) GetQuestionnaire(id int) (*models.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneQuestionnaire(s.questionnaires[id]), nil
}

func (s *memoryStore) GetLatestQuestionnaire(clientID int, section models.Section) (*models.Questionnaire, error) {
	history, err := s.ListQuestionnaireHistory(clientID, section)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	return history[0], nil
}

func (s *memoryStore) ListQuestionnaireHistory(clientID int, section models.Section) ([]*models.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Questionnaire{}
	for _, q := range s.questionnaires {
		if q.ClientID == clientID && q.Section == section {
			out = append(out, cloneQuestionnaire(q))
		}
	}
	// Newest first; id breaks ties from same-instant inserts.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) ListQuestionnairesByClient(clientID int) ([]*models.Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Questionnaire{}
	for _, q := range s.questionnaires {
		if q.ClientID == clientID {
			out = append(out, cloneQuestionnaire(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Clients

func (s *memoryStore) InsertClient(c *models.Client) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientSeq++
	stored := cloneClient(c)
	stored.ID = s.clientSeq
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.clients[stored.ID] = stored
	return cloneClient(stored), nil
}

func (s *memoryStore) GetClient(id int) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneClient(s.clients[id]), nil
}

func (s *memoryStore) GetClientByNumber(clientNumber string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.ClientNumber == clientNumber {
			return cloneClient(c), nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListClients() ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, cloneClient(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) UpdateClientSections(id int, sections []models.Section) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	c.AvailableSections = append([]models.Section(nil), sections...)
	return cloneClient(c), nil
}

func (s *memoryStore) DeleteClient(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return false, nil
	}
	for qid, q := range s.questionnaires {
		if q.ClientID == id {
			delete(s.questionnaires, qid)
		}
	}
	delete(s.clients, id)
	return true, nil
}

// Admins

func (s *memoryStore) InsertAdmin(a *models.Admin) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminSeq++
	stored := cloneAdmin(a)
	stored.ID = s.adminSeq
	s.admins[stored.ID] = stored
	return cloneAdmin(stored), nil
}

func (s *memoryStore) GetAdmin(id int) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAdmin(s.admins[id]), nil
}

func (s *memoryStore) GetAdminByUsername(username string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Username == username {
			return cloneAdmin(a), nil
		}
	}
	return nil, nil
}

func (s *memoryStore) UpdateAdmin(a *models.Admin) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.admins[a.ID]; !ok {
		return nil, nil
	}
	stored := cloneAdmin(a)
	s.admins[a.ID] = stored
	return cloneAdmin(stored), nil
}

// clone helpers

func cloneTemplate(t *models.Template) *models.Template {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Questions = make([]models.Question, len(t.Questions))
	for i, q := range t.Questions {
		cq := q
		cq.Options = append([]models.AnswerOption(nil), q.Options...)
		cp.Questions[i] = cq
	}
	return &cp
}

func cloneQuestionnaire(q *models.Questionnaire) *models.Questionnaire {
	if q == nil {
		return nil
	}
	cp := *q
	if q.Data != nil {
		cp.Data = make(map[string]any, len(q.Data))
		for k, v := range q.Data {
			cp.Data[k] = v
		}
	}
	if q.Score != nil {
		v := *q.Score
		cp.Score = &v
	}
	return &cp
}

func cloneClient(c *models.Client) *models.Client {
	if c == nil {
		return nil
	}
	cp := *c
	cp.AvailableSections = append([]models.Section(nil), c.AvailableSections...)
	return &cp
}

func cloneAdmin(a *models.Admin) *models.Admin {
	if a == nil {
		return nil
	}
	cp := *a
	cp.PassHash = append([]byte(nil), a.PassHash...)
	return &cp
}
