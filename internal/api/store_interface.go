package api

import (
	"github.com/nlwealth/advisorforms/internal/models"
	"github.com/nlwealth/advisorforms/internal/services"
)

// Store is the full persistence surface consumed by the API layer. Its
// method set is a superset of the narrow per-service interfaces, so any
// Store satisfies them directly. Two backends implement it: the volatile
// memoryStore below and the sqlite store in internal/db.
type Store interface {
	// Templates
	GetTemplate(id string) (*models.Template, error)
	GetTemplateBySection(section models.Section) (*models.Template, error)
	GetTemplateVersion(section models.Section, version int) (*models.Template, error)
	ListTemplateHistory(section models.Section) ([]*models.Template, error)
	ListTemplates() ([]*models.Template, error)
	InsertTemplate(t *models.Template) (*models.Template, error)
	UpdateTemplate(section models.Section, t *models.Template) (*models.Template, error)
	DeleteTemplate(id string) (bool, error)
	LatestTemplateVersion(section models.Section) (int, error)

	// Questionnaires
	InsertQuestionnaire(q *models.Questionnaire) (*models.Questionnaire, error)
	GetQuestionnaire(id int) (*models.Questionnaire, error)
	GetLatestQuestionnaire(clientID int, section models.Section) (*models.Questionnaire, error)
	ListQuestionnaireHistory(clientID int, section models.Section) ([]*models.Questionnaire, error)
	ListQuestionnairesByClient(clientID int) ([]*models.Questionnaire, error)

	// Clients
	InsertClient(c *models.Client) (*models.Client, error)
	GetClient(id int) (*models.Client, error)
	GetClientByNumber(clientNumber string) (*models.Client, error)
	ListClients() ([]*models.Client, error)
	UpdateClientSections(id int, sections []models.Section) (*models.Client, error)
	// DeleteClient cascades over the client's questionnaires.
	DeleteClient(id int) (bool, error)

	// Admins
	InsertAdmin(a *models.Admin) (*models.Admin, error)
	GetAdmin(id int) (*models.Admin, error)
	GetAdminByUsername(username string) (*models.Admin, error)
	UpdateAdmin(a *models.Admin) (*models.Admin, error)
}

// Compile-time checks that Store covers every service-facing contract.
var (
	_ services.TemplateStore       = (Store)(nil)
	_ services.QuestionnaireStore  = (Store)(nil)
	_ services.ClientSectionStore  = (Store)(nil)
	_ services.ActiveTemplateStore = (Store)(nil)
	_ services.AdminStore          = (Store)(nil)
	_ services.ClientLookupStore   = (Store)(nil)
)
