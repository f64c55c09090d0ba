package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nlwealth/advisorforms/internal/models"
)

// TemplateStore abstracts persistence for versioned question templates.
// Implementations must assign version numbers atomically per section:
// UpdateTemplate performs the latest+1 computation under whatever lock or
// transaction the backend provides, so two concurrent edits to the same
// section can never be assigned the same version.
type TemplateStore interface {
	GetTemplate(id string) (*models.Template, error)
	GetTemplateBySection(section models.Section) (*models.Template, error)
	GetTemplateVersion(section models.Section, version int) (*models.Template, error)
	ListTemplateHistory(section models.Section) ([]*models.Template, error)
	ListTemplates() ([]*models.Template, error)
	// InsertTemplate appends the template as a new version and sets it active.
	InsertTemplate(t *models.Template) (*models.Template, error)
	// UpdateTemplate stores t as version latest(section)+1 and makes it the
	// active template. Returns nil when the section has no template yet.
	UpdateTemplate(section models.Section, t *models.Template) (*models.Template, error)
	// DeleteTemplate removes the active pointer only; history is retained.
	DeleteTemplate(id string) (bool, error)
	LatestTemplateVersion(section models.Section) (int, error)
}

// TemplateService owns the template lifecycle: creation, versioned updates,
// history lookups. Templates are append-only so a submission scored against
// version 3 stays explainable after version 4 supersedes it.
type TemplateService struct {
	store TemplateStore
	now   func() time.Time
}

func NewTemplateService(store TemplateStore) *TemplateService {
	return &TemplateService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Active returns the current version for a section, or a not-found error.
func (s *TemplateService) Active(section models.Section) (*models.Template, error) {
	if !models.ValidSection(section) {
		return nil, NewInvalidError("unknown section: " + string(section))
	}
	t, err := s.store.GetTemplateBySection(section)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, NewNotFoundError("template not found")
	}
	return t, nil
}

// Version returns one historical version of a section's template.
func (s *TemplateService) Version(section models.Section, version int) (*models.Template, error) {
	t, err := s.store.GetTemplateVersion(section, version)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, NewNotFoundError("template version not found")
	}
	return t, nil
}

// History returns every stored version for a section, oldest first.
func (s *TemplateService) History(section models.Section) ([]*models.Template, error) {
	return s.store.ListTemplateHistory(section)
}

// List returns the active template of every section that has one.
func (s *TemplateService) List() ([]*models.Template, error) {
	return s.store.ListTemplates()
}

// LatestVersion returns the highest version number for a section, 0 if none.
func (s *TemplateService) LatestVersion(section models.Section) (int, error) {
	return s.store.LatestTemplateVersion(section)
}

// Create stores a brand-new template. Creating over an id that is already
// active, or for a section that already has an active template, is a
// conflict; edits go through Update. A section keeps at most one active
// template, and section version numbers stay contiguous: the first version
// for a section is 1, and re-creating after a delete continues the sequence
// so no historical version number is ever reused.
func (s *TemplateService) Create(t *models.Template) (*models.Template, error) {
	if t == nil {
		return nil, NewInvalidError("template required")
	}
	if !models.ValidSection(t.Section) {
		return nil, NewInvalidError("unknown section: " + string(t.Section))
	}
	if strings.TrimSpace(t.ID) == "" {
		t.ID = shortID(8)
	}
	existing, err := s.store.GetTemplate(t.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("template id already exists")
	}
	active, err := s.store.GetTemplateBySection(t.Section)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, NewConflictError("section already has an active template")
	}
	latest, err := s.store.LatestTemplateVersion(t.Section)
	if err != nil {
		return nil, err
	}
	if latest > 0 {
		t.Version = latest + 1
	} else if t.Version == 0 {
		t.Version = 1
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	return s.store.InsertTemplate(t)
}

// Update resaves a section's template as a fresh version. The store assigns
// version latest+1 atomically; the previous version stays retrievable.
// Updating a section that has no template is a not-found error, never an
// implicit create.
func (s *TemplateService) Update(section models.Section, t *models.Template) (*models.Template, error) {
	if t == nil {
		return nil, NewInvalidError("template required")
	}
	if !models.ValidSection(section) {
		return nil, NewInvalidError("unknown section: " + string(section))
	}
	t.Section = section
	t.CreatedAt = s.now()
	updated, err := s.store.UpdateTemplate(section, t)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, NewNotFoundError("template not found")
	}
	return updated, nil
}

// Delete removes the active pointer for a template id. Version history is
// kept; retention is the caller's decision.
func (s *TemplateService) Delete(id string) error {
	ok, err := s.store.DeleteTemplate(id)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("template not found")
	}
	return nil
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
