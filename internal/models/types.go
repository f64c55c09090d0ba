package models

import "time"

// Section identifies one of the questionnaire kinds a client may be asked to
// complete. The set is closed; adding a kind means defining its answer schema
// and whether it participates in scoring.
type Section string

const (
	SectionRiskTolerance    Section = "riskTolerance"
	SectionClientUpdate     Section = "clientUpdate"
	SectionInvestmentPolicy Section = "investmentPolicy"
)

// Sections lists every valid section tag.
var Sections = []Section{SectionRiskTolerance, SectionClientUpdate, SectionInvestmentPolicy}

// ValidSection reports whether s is a known section tag.
func ValidSection(s Section) bool {
	for _, v := range Sections {
		if v == s {
			return true
		}
	}
	return false
}

// RiskProfiles are the seven bucket labels in ascending risk order. The
// strings are stored verbatim on completed questionnaires.
var RiskProfiles = []string{
	"Capital Preservation",
	"Conservative",
	"Conservative Balanced",
	"Balanced",
	"Balanced Growth",
	"Growth",
	"Aggressive Growth",
}

// AnswerOption is one selectable answer for a question. ID is the value a
// client's answer stores; Value is the option's contribution to the score.
type AnswerOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// Question is a single prompt with its answer options. Option order is
// display order only; each option carries its own point value.
type Question struct {
	ID      string         `json:"id"`
	Text    string         `json:"text"`
	Options []AnswerOption `json:"options"`
}

// Template is one immutable version of a section's question set. Versions per
// section are contiguous from 1; edits always produce version+1 and leave the
// prior version retrievable.
type Template struct {
	ID          string     `json:"id"`
	Section     Section    `json:"section"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Version     int        `json:"version"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Questionnaire is one record of a client's interaction with a section:
// either an in-progress draft (Completed=false) or a finalized submission.
// Completed records are never edited; resubmission appends a new record.
type Questionnaire struct {
	ID              int            `json:"id"`
	ClientID        int            `json:"client_id"`
	Section         Section        `json:"section"`
	Completed       bool           `json:"completed"`
	Data            map[string]any `json:"data"`
	Score           *int           `json:"score,omitempty"`
	RiskProfile     string         `json:"risk_profile,omitempty"`
	TemplateVersion int            `json:"template_version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Client is a client of the advisory practice. AvailableSections is the set
// of sections currently open to them; it is mutated only by admin action, by
// link redemption, and by auto-deactivation on submission.
type Client struct {
	ID                int       `json:"id"`
	ClientNumber      string    `json:"client_number"`
	FirstName         string    `json:"first_name"`
	Name              string    `json:"name"`
	AvailableSections []Section `json:"available_sections"`
	CreatedAt         time.Time `json:"created_at"`
}

// HasSection reports whether the section is currently open to the client.
func (c *Client) HasSection(s Section) bool {
	for _, v := range c.AvailableSections {
		if v == s {
			return true
		}
	}
	return false
}

// WithoutSection returns the available sections with s removed.
func (c *Client) WithoutSection(s Section) []Section {
	out := make([]Section, 0, len(c.AvailableSections))
	for _, v := range c.AvailableSections {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// Admin is a back-office user who manages clients and templates.
type Admin struct {
	ID                 int       `json:"id"`
	Username           string    `json:"username"`
	Name               string    `json:"name"`
	PassHash           []byte    `json:"-"`
	LastPasswordChange time.Time `json:"last_password_change"`
	PasswordExpired    bool      `json:"password_expired"`
}
