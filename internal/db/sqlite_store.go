package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nlwealth/advisorforms/internal/api"
	"github.com/nlwealth/advisorforms/internal/models"
)

// SQLiteStore is the durable backend for the questionnaire engine. It keeps
// the same append-only template semantics as the in-memory store: version
// rows are never rewritten, only the active pointer moves.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Open opens (or creates) the sqlite database at path, runs migrations and
// returns a ready store.
func Open(path string) (api.Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := RunMigrations(conn, ""); err != nil {
		conn.Close()
		return nil, err
	}
	return NewSQLiteStore(conn)
}

// json column helpers

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeQuestions(raw string) []models.Question {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []models.Question
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("sqlite store: decode questions: %v", err)
		return nil
	}
	return out
}

func decodeSections(raw string) []models.Section {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []models.Section
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("sqlite store: decode sections: %v", err)
		return nil
	}
	return out
}

func decodeAnswerData(ns sql.NullString) map[string]any {
	if !ns.Valid || strings.TrimSpace(ns.String) == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		log.Printf("sqlite store: decode answer data: %v", err)
		return nil
	}
	return out
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// templates

const templateColumns = "tv.template_id, tv.section, tv.title, tv.description, tv.questions, tv.version, tv.created_at"

func scanTemplate(row interface{ Scan(...any) error }) (*models.Template, error) {
	var (
		t           models.Template
		description sql.NullString
		questions   string
		section     string
	)
	if err := row.Scan(&t.ID, &section, &t.Title, &description, &questions, &t.Version, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Section = models.Section(section)
	t.Description = description.String
	t.Questions = decodeQuestions(questions)
	return &t, nil
}

func (s *SQLiteStore) GetTemplate(id string) (*models.Template, error) {
	row := s.db.QueryRow(`SELECT `+templateColumns+`
		FROM active_templates a
		JOIN template_versions tv ON tv.section = a.section AND tv.version = a.version
		WHERE a.id = ?`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s *SQLiteStore) GetTemplateBySection(section models.Section) (*models.Template, error) {
	row := s.db.QueryRow(`SELECT `+templateColumns+`
		FROM active_templates a
		JOIN template_versions tv ON tv.section = a.section AND tv.version = a.version
		WHERE a.section = ?`, string(section))
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s *SQLiteStore) GetTemplateVersion(section models.Section, version int) (*models.Template, error) {
	row := s.db.QueryRow(`SELECT `+templateColumns+`
		FROM template_versions tv
		WHERE tv.section = ? AND tv.version = ?`, string(section), version)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (s *SQLiteStore) ListTemplateHistory(section models.Section) ([]*models.Template, error) {
	rows, err := s.db.Query(`SELECT `+templateColumns+`
		FROM template_versions tv
		WHERE tv.section = ?
		ORDER BY tv.version ASC`, string(section))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListTemplates() ([]*models.Template, error) {
	rows, err := s.db.Query(`SELECT ` + templateColumns + `
		FROM active_templates a
		JOIN template_versions tv ON tv.section = a.section AND tv.version = a.version
		ORDER BY tv.template_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LatestTemplateVersion(section models.Section) (int, error) {
	var latest int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM template_versions WHERE section = ?`,
		string(section)).Scan(&latest)
	return latest, err
}

// InsertTemplate stores a template row and points the section's active
// pointer at it. The caller has already assigned t.Version and verified the
// section has no active template.
func (s *SQLiteStore) InsertTemplate(t *models.Template) (*models.Template, error) {
	questions, err := encodeJSON(t.Questions)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO template_versions
		(section, version, template_id, title, description, questions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(t.Section), t.Version, t.ID, t.Title, toNullString(t.Description), questions, t.CreatedAt); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`INSERT INTO active_templates (id, section, version) VALUES (?, ?, ?)
		ON CONFLICT (section) DO UPDATE SET id = excluded.id, version = excluded.version`,
		t.ID, string(t.Section), t.Version); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	cp := *t
	return &cp, nil
}

// UpdateTemplate appends the next version for the section atomically and
// moves the active pointer. Returns nil when the section has no versions yet.
func (s *SQLiteStore) UpdateTemplate(section models.Section, t *models.Template) (*models.Template, error) {
	questions, err := encodeJSON(t.Questions)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var latest int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM template_versions WHERE section = ?`,
		string(section)).Scan(&latest); err != nil {
		return nil, err
	}
	if latest == 0 {
		return nil, nil
	}
	next := latest + 1
	if _, err := tx.Exec(`INSERT INTO template_versions
		(section, version, template_id, title, description, questions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(section), next, t.ID, t.Title, toNullString(t.Description), questions, t.CreatedAt); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`UPDATE active_templates SET id = ?, version = ? WHERE section = ?`,
		t.ID, next, string(section)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	cp := *t
	cp.Section = section
	cp.Version = next
	return &cp, nil
}

// DeleteTemplate removes only the active pointer; the version history stays
// so completed questionnaires keep a resolvable template_version.
func (s *SQLiteStore) DeleteTemplate(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM active_templates WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// questionnaires

const questionnaireColumns = "id, client_id, section, completed, data, score, risk_profile, template_version, created_at, updated_at"

func scanQuestionnaire(row interface{ Scan(...any) error }) (*models.Questionnaire, error) {
	var (
		q       models.Questionnaire
		section string
		data    sql.NullString
		score   sql.NullInt64
		profile sql.NullString
	)
	if err := row.Scan(&q.ID, &q.ClientID, &section, &q.Completed, &data, &score, &profile,
		&q.TemplateVersion, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Section = models.Section(section)
	q.Data = decodeAnswerData(data)
	if score.Valid {
		v := int(score.Int64)
		q.Score = &v
	}
	q.RiskProfile = profile.String
	return &q, nil
}

func (s *SQLiteStore) InsertQuestionnaire(q *models.Questionnaire) (*models.Questionnaire, error) {
	data, err := encodeJSON(q.Data)
	if err != nil {
		return nil, err
	}
	var score sql.NullInt64
	if q.Score != nil {
		score = sql.NullInt64{Int64: int64(*q.Score), Valid: true}
	}
	res, err := s.db.Exec(`INSERT INTO questionnaires
		(client_id, section, completed, data, score, risk_profile, template_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ClientID, string(q.Section), q.Completed, toNullString(data), score,
		toNullString(q.RiskProfile), q.TemplateVersion, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	cp := *q
	cp.ID = int(id)
	return &cp, nil
}

func (s *SQLiteStore) GetQuestionnaire(id int) (*models.Questionnaire, error) {
	row := s.db.QueryRow(`SELECT `+questionnaireColumns+` FROM questionnaires WHERE id = ?`, id)
	q, err := scanQuestionnaire(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return q, err
}

func (s *SQLiteStore) GetLatestQuestionnaire(clientID int, section models.Section) (*models.Questionnaire, error) {
	row := s.db.QueryRow(`SELECT `+questionnaireColumns+` FROM questionnaires
		WHERE client_id = ? AND section = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, clientID, string(section))
	q, err := scanQuestionnaire(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return q, err
}

func (s *SQLiteStore) ListQuestionnaireHistory(clientID int, section models.Section) ([]*models.Questionnaire, error) {
	rows, err := s.db.Query(`SELECT `+questionnaireColumns+` FROM questionnaires
		WHERE client_id = ? AND section = ?
		ORDER BY created_at DESC, id DESC`, clientID, string(section))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestionnaires(rows)
}

func (s *SQLiteStore) ListQuestionnairesByClient(clientID int) ([]*models.Questionnaire, error) {
	rows, err := s.db.Query(`SELECT `+questionnaireColumns+` FROM questionnaires
		WHERE client_id = ?
		ORDER BY id ASC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestionnaires(rows)
}

func collectQuestionnaires(rows *sql.Rows) ([]*models.Questionnaire, error) {
	var out []*models.Questionnaire
	for rows.Next() {
		q, err := scanQuestionnaire(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// clients

const clientColumns = "id, client_number, first_name, name, available_sections, created_at"

func scanClient(row interface{ Scan(...any) error }) (*models.Client, error) {
	var (
		c        models.Client
		sections string
	)
	if err := row.Scan(&c.ID, &c.ClientNumber, &c.FirstName, &c.Name, &sections, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.AvailableSections = decodeSections(sections)
	return &c, nil
}

func (s *SQLiteStore) InsertClient(c *models.Client) (*models.Client, error) {
	sections, err := encodeJSON(c.AvailableSections)
	if err != nil {
		return nil, err
	}
	if sections == "" {
		sections = "[]"
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	res, err := s.db.Exec(`INSERT INTO clients (client_number, first_name, name, available_sections, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ClientNumber, c.FirstName, c.Name, sections, createdAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	cp := *c
	cp.ID = int(id)
	cp.CreatedAt = createdAt
	return &cp, nil
}

func (s *SQLiteStore) GetClient(id int) (*models.Client, error) {
	row := s.db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) GetClientByNumber(clientNumber string) (*models.Client, error) {
	row := s.db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE client_number = ?`, clientNumber)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) ListClients() ([]*models.Client, error) {
	rows, err := s.db.Query(`SELECT ` + clientColumns + ` FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateClientSections(id int, sections []models.Section) (*models.Client, error) {
	if sections == nil {
		sections = []models.Section{}
	}
	encoded, err := encodeJSON(sections)
	if err != nil {
		return nil, err
	}
	res, err := s.db.Exec(`UPDATE clients SET available_sections = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, nil
	}
	return s.GetClient(id)
}

// DeleteClient removes the client; the questionnaires cascade via the
// foreign key.
func (s *SQLiteStore) DeleteClient(id int) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// admins

const adminColumns = "id, username, name, pass_hash, last_password_change, password_expired"

func scanAdmin(row interface{ Scan(...any) error }) (*models.Admin, error) {
	var a models.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Name, &a.PassHash, &a.LastPasswordChange, &a.PasswordExpired); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *SQLiteStore) InsertAdmin(a *models.Admin) (*models.Admin, error) {
	res, err := s.db.Exec(`INSERT INTO admins (username, name, pass_hash, last_password_change, password_expired)
		VALUES (?, ?, ?, ?, ?)`,
		a.Username, a.Name, a.PassHash, a.LastPasswordChange, a.PasswordExpired)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	cp := *a
	cp.ID = int(id)
	return &cp, nil
}

func (s *SQLiteStore) GetAdmin(id int) (*models.Admin, error) {
	row := s.db.QueryRow(`SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
	a, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *SQLiteStore) GetAdminByUsername(username string) (*models.Admin, error) {
	row := s.db.QueryRow(`SELECT `+adminColumns+` FROM admins WHERE username = ?`, username)
	a, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *SQLiteStore) UpdateAdmin(a *models.Admin) (*models.Admin, error) {
	res, err := s.db.Exec(`UPDATE admins SET name = ?, pass_hash = ?, last_password_change = ?, password_expired = ?
		WHERE id = ?`,
		a.Name, a.PassHash, a.LastPasswordChange, a.PasswordExpired, a.ID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

var _ api.Store = (*SQLiteStore)(nil)
