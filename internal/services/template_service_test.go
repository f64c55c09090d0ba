package services

import (
	"testing"
	"time"

	"github.com/nlwealth/advisorforms/internal/models"
)

type stubTemplateStore struct {
	active   map[string]*models.Template
	versions map[models.Section][]*models.Template
}

func newStubTemplateStore() *stubTemplateStore {
	return &stubTemplateStore{
		active:   map[string]*models.Template{},
		versions: map[models.Section][]*models.Template{},
	}
}

func (s *stubTemplateStore) GetTemplate(id string) (*models.Template, error) {
	if t, ok := s.active[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (s *stubTemplateStore) GetTemplateBySection(section models.Section) (*models.Template, error) {
	for _, t := range s.active {
		if t.Section == section {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubTemplateStore) GetTemplateVersion(section models.Section, version int) (*models.Template, error) {
	for _, t := range s.versions[section] {
		if t.Version == version {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubTemplateStore) ListTemplateHistory(section models.Section) ([]*models.Template, error) {
	out := []*models.Template{}
	for _, t := range s.versions[section] {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubTemplateStore) ListTemplates() ([]*models.Template, error) {
	out := []*models.Template{}
	for _, t := range s.active {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubTemplateStore) InsertTemplate(t *models.Template) (*models.Template, error) {
	cp := *t
	s.active[cp.ID] = &cp
	s.versions[cp.Section] = append(s.versions[cp.Section], &cp)
	return &cp, nil
}

func (s *stubTemplateStore) UpdateTemplate(section models.Section, t *models.Template) (*models.Template, error) {
	latest, _ := s.LatestTemplateVersion(section)
	if latest == 0 {
		return nil, nil
	}
	cp := *t
	cp.Version = latest + 1
	s.active[cp.ID] = &cp
	s.versions[section] = append(s.versions[section], &cp)
	return &cp, nil
}

func (s *stubTemplateStore) DeleteTemplate(id string) (bool, error) {
	if _, ok := s.active[id]; !ok {
		return false, nil
	}
	delete(s.active, id)
	return true, nil
}

func (s *stubTemplateStore) LatestTemplateVersion(section models.Section) (int, error) {
	latest := 0
	for _, t := range s.versions[section] {
		if t.Version > latest {
			latest = t.Version
		}
	}
	return latest, nil
}

func TestCreateTemplateDefaults(t *testing.T) {
	store := newStubTemplateStore()
	svc := NewTemplateService(store)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	created, err := svc.Create(&models.Template{Section: models.SectionRiskTolerance, Title: "Risk"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.Version != 1 {
		t.Fatalf("version = %d, want 1", created.Version)
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt stamp")
	}
}

func TestCreateTemplateRejectsDuplicateID(t *testing.T) {
	store := newStubTemplateStore()
	svc := NewTemplateService(store)

	if _, err := svc.Create(&models.Template{ID: "riskTolerance", Section: models.SectionRiskTolerance}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err := svc.Create(&models.Template{ID: "riskTolerance", Section: models.SectionRiskTolerance})
	if err == nil {
		t.Fatalf("expected conflict for duplicate id")
	}
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCreateTemplateRejectsSecondTemplateForSection(t *testing.T) {
	store := newStubTemplateStore()
	svc := NewTemplateService(store)

	if _, err := svc.Create(&models.Template{ID: "first", Section: models.SectionRiskTolerance}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err := svc.Create(&models.Template{ID: "second", Section: models.SectionRiskTolerance})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict {
		t.Fatalf("expected conflict for occupied section, got %v", err)
	}

	// The section's history still holds exactly one version-1 row.
	history, err := svc.History(models.SectionRiskTolerance)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 1 || history[0].Version != 1 || history[0].ID != "first" {
		t.Fatalf("history = %+v, want single version 1 for id first", history)
	}
}

func TestCreateAfterDeleteContinuesVersionSequence(t *testing.T) {
	store := newStubTemplateStore()
	svc := NewTemplateService(store)

	if _, err := svc.Create(&models.Template{ID: "first", Section: models.SectionRiskTolerance}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Update(models.SectionRiskTolerance, &models.Template{ID: "first"}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := svc.Delete("first"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	recreated, err := svc.Create(&models.Template{ID: "second", Section: models.SectionRiskTolerance})
	if err != nil {
		t.Fatalf("Create after delete returned error: %v", err)
	}
	if recreated.Version != 3 {
		t.Fatalf("version = %d, want 3 (no reuse of retired versions)", recreated.Version)
	}

	history, err := svc.History(models.SectionRiskTolerance)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	seen := map[int]bool{}
	for _, tm := range history {
		if seen[tm.Version] {
			t.Fatalf("version %d reused in history", tm.Version)
		}
		seen[tm.Version] = true
	}
}

func TestCreateTemplateRejectsUnknownSection(t *testing.T) {
	svc := NewTemplateService(newStubTemplateStore())
	_, err := svc.Create(&models.Template{Section: "retirementPlanning"})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestUpdateTemplateAssignsContiguousVersions(t *testing.T) {
	store := newStubTemplateStore()
	svc := NewTemplateService(store)

	base, err := svc.Create(&models.Template{ID: "riskTolerance", Section: models.SectionRiskTolerance, Title: "v1"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	for want := 2; want <= 4; want++ {
		updated, err := svc.Update(models.SectionRiskTolerance, &models.Template{ID: base.ID, Title: "edit"})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if updated.Version != want {
			t.Fatalf("version = %d, want %d", updated.Version, want)
		}
	}

	history, err := svc.History(models.SectionRiskTolerance)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("history len = %d, want 4", len(history))
	}
	for i, tm := range history {
		if tm.Version != i+1 {
			t.Fatalf("history[%d].Version = %d, want %d", i, tm.Version, i+1)
		}
	}

	// Prior versions stay retrievable after supersession.
	v2, err := svc.Version(models.SectionRiskTolerance, 2)
	if err != nil {
		t.Fatalf("Version returned error: %v", err)
	}
	if v2.Version != 2 {
		t.Fatalf("v2.Version = %d", v2.Version)
	}
}

func TestUpdateTemplateWithoutExistingIsNotFound(t *testing.T) {
	svc := NewTemplateService(newStubTemplateStore())
	_, err := svc.Update(models.SectionClientUpdate, &models.Template{ID: "clientUpdate"})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestActiveTemplateNotFound(t *testing.T) {
	svc := NewTemplateService(newStubTemplateStore())
	_, err := svc.Active(models.SectionRiskTolerance)
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteTemplateKeepsHistory(t *testing.T) {
	store := newStubTemplateStore()
	svc := NewTemplateService(store)

	if _, err := svc.Create(&models.Template{ID: "riskTolerance", Section: models.SectionRiskTolerance}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := svc.Delete("riskTolerance"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.Active(models.SectionRiskTolerance); err == nil {
		t.Fatalf("expected not found after delete")
	}
	v1, err := svc.Version(models.SectionRiskTolerance, 1)
	if err != nil || v1 == nil {
		t.Fatalf("expected version 1 to survive deletion, got %v", err)
	}

	if err := svc.Delete("riskTolerance"); err == nil {
		t.Fatalf("expected not found for second delete")
	}
}
