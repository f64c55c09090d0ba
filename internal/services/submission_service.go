package services

import (
	"fmt"
	"log"
	"time"

	"github.com/nlwealth/advisorforms/internal/models"
)

// QuestionnaireStore abstracts persistence for questionnaire records.
// InsertQuestionnaire assigns the record id; implementations should serialize
// inserts per (client, section) so concurrent submits cannot interleave.
type QuestionnaireStore interface {
	InsertQuestionnaire(q *models.Questionnaire) (*models.Questionnaire, error)
	GetQuestionnaire(id int) (*models.Questionnaire, error)
	GetLatestQuestionnaire(clientID int, section models.Section) (*models.Questionnaire, error)
	ListQuestionnaireHistory(clientID int, section models.Section) ([]*models.Questionnaire, error)
}

// ClientSectionStore is the slice of client persistence the submission
// workflow needs: reading a client and rewriting their open-section set.
type ClientSectionStore interface {
	GetClient(id int) (*models.Client, error)
	UpdateClientSections(id int, sections []models.Section) (*models.Client, error)
}

// ActiveTemplateStore resolves the currently active template for a section.
type ActiveTemplateStore interface {
	GetTemplateBySection(section models.Section) (*models.Template, error)
}

// NotificationSink receives completion events. Calls are best-effort and
// non-blocking; a sink failure never fails the submission.
type NotificationSink interface {
	NotifyCompletion(client *models.Client, section models.Section) error
}

// SubmissionGuard is the caller's authenticated-session-scoped resubmission
// flag with check-then-set semantics. It defends against duplicate
// double-click submits racing the availability update; the storage layer
// remains the authoritative constraint.
type SubmissionGuard interface {
	Submitted(section models.Section) bool
	MarkSubmitted(section models.Section)
}

// SubmissionService governs the questionnaire lifecycle per (client, section):
// NoRecord -> Draft -> Completed. Completing always appends a brand-new
// record; prior records are immutable history.
type SubmissionService struct {
	questionnaires QuestionnaireStore
	clients        ClientSectionStore
	templates      ActiveTemplateStore
	notifier       NotificationSink
	thresholds     []int
	now            func() time.Time
	// notify dispatches the completion side effect; swapped in tests to run
	// synchronously.
	notify func(fn func())
}

func NewSubmissionService(qs QuestionnaireStore, cs ClientSectionStore, ts ActiveTemplateStore, sink NotificationSink, thresholds []int) *SubmissionService {
	if len(thresholds) == 0 {
		thresholds = DefaultScoreThresholds
	}
	return &SubmissionService{
		questionnaires: qs,
		clients:        cs,
		templates:      ts,
		notifier:       sink,
		thresholds:     thresholds,
		now:            func() time.Time { return time.Now().UTC() },
		notify:         func(fn func()) { go fn() },
	}
}

// GetOrCreateDraft returns the latest record for the pair, creating an empty
// draft when none exists. Lets a client resume a partially filled form.
func (s *SubmissionService) GetOrCreateDraft(clientID int, section models.Section) (*models.Questionnaire, error) {
	if !models.ValidSection(section) {
		return nil, NewInvalidError("unknown section: " + string(section))
	}
	latest, err := s.questionnaires.GetLatestQuestionnaire(clientID, section)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		return latest, nil
	}
	now := s.now()
	return s.questionnaires.InsertQuestionnaire(&models.Questionnaire{
		ClientID:  clientID,
		Section:   section,
		Completed: false,
		Data:      map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Submit finalizes a client's answers for a section. The raw payload is
// validated against the section's schema before any side effect; scoring-
// enabled sections are scored against the active template and stamped with
// its version. A brand-new completed record is created (the draft is never
// mutated), the section is removed from the client's availability, the
// session guard is marked, and the completion notification fires without
// blocking. A nil guard skips the session check (admin-driven submits).
func (s *SubmissionService) Submit(clientID int, section models.Section, raw map[string]any, guard SubmissionGuard) (*models.Questionnaire, error) {
	if !models.ValidSection(section) {
		return nil, NewInvalidError("unknown section: " + string(section))
	}
	if guard != nil && guard.Submitted(section) {
		return nil, NewConflictError("this questionnaire has already been submitted in this session")
	}
	data, err := validateAnswers(section, raw)
	if err != nil {
		return nil, err
	}

	q := &models.Questionnaire{
		ClientID:        clientID,
		Section:         section,
		Completed:       true,
		Data:            data,
		TemplateVersion: 1,
	}
	if section == models.SectionRiskTolerance {
		tmpl, err := s.templates.GetTemplateBySection(section)
		if err != nil {
			return nil, err
		}
		score, profile := RiskScore(tmpl, stringAnswers(data), s.thresholds)
		q.Score = &score
		q.RiskProfile = profile
		if tmpl != nil && tmpl.Version > 0 {
			q.TemplateVersion = tmpl.Version
		}
	}

	now := s.now()
	q.CreatedAt = now
	q.UpdatedAt = now
	created, err := s.questionnaires.InsertQuestionnaire(q)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.GetClient(clientID)
	if err != nil {
		return nil, err
	}
	if client != nil {
		if client.HasSection(section) {
			if _, err := s.clients.UpdateClientSections(clientID, client.WithoutSection(section)); err != nil {
				return nil, err
			}
		}
		if s.notifier != nil {
			c := *client
			s.notify(func() {
				if err := s.notifier.NotifyCompletion(&c, section); err != nil {
					log.Printf("submission: completion notification for client %d failed: %v", c.ID, err)
				}
			})
		}
	}

	if guard != nil {
		guard.MarkSubmitted(section)
	}
	return created, nil
}

// History returns every record for the pair, newest first.
func (s *SubmissionService) History(clientID int, section models.Section) ([]*models.Questionnaire, error) {
	if !models.ValidSection(section) {
		return nil, NewInvalidError("unknown section: " + string(section))
	}
	return s.questionnaires.ListQuestionnaireHistory(clientID, section)
}

// Current returns the newest record for the pair, completed or not, or a
// not-found error when the pair has no history.
func (s *SubmissionService) Current(clientID int, section models.Section) (*models.Questionnaire, error) {
	if !models.ValidSection(section) {
		return nil, NewInvalidError("unknown section: " + string(section))
	}
	q, err := s.questionnaires.GetLatestQuestionnaire(clientID, section)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	return q, nil
}

// Get returns a single record by id.
func (s *SubmissionService) Get(id int) (*models.Questionnaire, error) {
	q, err := s.questionnaires.GetQuestionnaire(id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, NewNotFoundError("questionnaire not found")
	}
	return q, nil
}

// clientUpdateFields is the fixed answer schema for the client-update
// section. Required fields must be present and non-empty.
var clientUpdateFields = []struct {
	name     string
	required bool
}{
	{"firstName", true},
	{"address", false},
	{"city", false},
	{"state", false},
	{"zip", false},
	{"annualIncome", false},
	{"liquidAssets", false},
	{"retirementAssets", false},
	{"otherAssets", false},
	{"financialGoals", false},
}

// investmentPolicyFields is the fixed answer schema for the investment-policy
// section. riskFactors and additionalGuidelines are optional.
var investmentPolicyFields = []struct {
	name     string
	required bool
}{
	{"primaryObjective", true},
	{"timeHorizon", true},
	{"equities", true},
	{"fixedIncome", true},
	{"alternatives", true},
	{"cash", true},
	{"reviewFrequency", true},
	{"rebalancingStrategy", true},
}

// validateAnswers checks the raw payload against the section's answer schema
// and returns the canonical data map. Invalid shapes are rejected with a
// message naming the offending field, before any side effect.
func validateAnswers(section models.Section, raw map[string]any) (map[string]any, error) {
	if raw == nil {
		return nil, NewInvalidError("answers required")
	}
	switch section {
	case models.SectionRiskTolerance:
		// String-keyed map of answer option ids.
		data := make(map[string]any, len(raw))
		for k, v := range raw {
			sv, ok := v.(string)
			if !ok {
				return nil, NewInvalidError(fmt.Sprintf("field %q: expected a string answer", k))
			}
			data[k] = sv
		}
		return data, nil
	case models.SectionClientUpdate:
		return validateFields(raw, clientUpdateFields, nil)
	case models.SectionInvestmentPolicy:
		return validateFields(raw, investmentPolicyFields, []string{"riskFactors", "additionalGuidelines"})
	}
	return nil, NewInvalidError("unknown section: " + string(section))
}

// validateFields enforces a fixed string-field schema plus named optional
// extras ("riskFactors" is a string list, the rest strings).
func validateFields(raw map[string]any, fields []struct {
	name     string
	required bool
}, extras []string) (map[string]any, error) {
	data := map[string]any{}
	for _, f := range fields {
		v, ok := raw[f.name]
		if !ok {
			if f.required {
				return nil, NewInvalidError(fmt.Sprintf("field %q is required", f.name))
			}
			data[f.name] = ""
			continue
		}
		sv, isStr := v.(string)
		if !isStr {
			return nil, NewInvalidError(fmt.Sprintf("field %q: expected a string", f.name))
		}
		if f.required && sv == "" {
			return nil, NewInvalidError(fmt.Sprintf("field %q is required", f.name))
		}
		data[f.name] = sv
	}
	for _, name := range extras {
		v, ok := raw[name]
		if !ok {
			continue
		}
		switch name {
		case "riskFactors":
			list, isList := v.([]any)
			if !isList {
				return nil, NewInvalidError(`field "riskFactors": expected a list of strings`)
			}
			out := make([]any, 0, len(list))
			for _, item := range list {
				sv, isStr := item.(string)
				if !isStr {
					return nil, NewInvalidError(`field "riskFactors": expected a list of strings`)
				}
				out = append(out, sv)
			}
			data[name] = out
		default:
			sv, isStr := v.(string)
			if !isStr {
				return nil, NewInvalidError(fmt.Sprintf("field %q: expected a string", name))
			}
			data[name] = sv
		}
	}
	return data, nil
}

func stringAnswers(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		if sv, ok := v.(string); ok {
			out[k] = sv
		}
	}
	return out
}
