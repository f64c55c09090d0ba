package api

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/nlwealth/advisorforms/internal/middleware"
	"github.com/nlwealth/advisorforms/internal/models"
	"github.com/nlwealth/advisorforms/internal/services"
)

// Router wires the questionnaire engine's services to their HTTP surface.
type Router struct {
	store     Store
	templates *services.TemplateService
	subs      *services.SubmissionService
	links     *services.LinkService
	auth      *services.AuthService
	authn     *middleware.Authenticator
	guards    *GuardRegistry
	baseURL   string
}

// Options carries the collaborators NewRouter needs beyond the store.
type Options struct {
	Authn           *middleware.Authenticator
	Notifier        services.NotificationSink
	LinkSecret      []byte
	ScoreThresholds []int
	// BaseURL prefixes generated questionnaire links; the request host is
	// used when empty.
	BaseURL string
}

func NewRouter(store Store, opts Options) *Router {
	rt := &Router{
		store:     store,
		templates: services.NewTemplateService(store),
		subs:      services.NewSubmissionService(store, store, store, opts.Notifier, opts.ScoreThresholds),
		links:     services.NewLinkService(store, opts.LinkSecret),
		authn:     opts.Authn,
		guards:    NewGuardRegistry(),
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
	}
	rt.auth = services.NewAuthService(store, store, opts.Authn.SignToken)
	return rt
}

// Handler builds the chi route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS)
	r.Use(rt.authn.WithAuth)

	r.Get("/api/health", rt.handleHealth)
	r.Post("/api/login/admin", rt.handleAdminLogin)
	r.Post("/api/login/client", rt.handleClientLogin)
	r.Post("/api/verify-token", rt.handleVerifyToken)

	// Anyone rendering a form needs its questions, even before logging in.
	r.Get("/api/question-templates/{section}", rt.handleGetActiveTemplate)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/api/me", rt.handleMe)
		r.Get("/api/question-templates", rt.handleListTemplates)
		r.Get("/api/questionnaire/{section}", rt.handleGetQuestionnaire)
		r.Get("/api/questionnaire/{section}/current", rt.handleCurrentQuestionnaire)
		r.Post("/api/questionnaire/{section}", rt.handleSubmitQuestionnaire)
		r.Get("/api/questionnaires", rt.handleListQuestionnaires)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/api/clients", rt.handleListClients)
		r.Post("/api/clients", rt.handleCreateClient)
		r.Get("/api/clients/{id}", rt.handleGetClient)
		r.Delete("/api/clients/{id}", rt.handleDeleteClient)
		r.Put("/api/clients/{id}/sections", rt.handleUpdateClientSections)

		r.Post("/api/question-templates", rt.handleCreateTemplate)
		r.Put("/api/question-templates/{id}", rt.handleUpdateTemplate)
		r.Delete("/api/question-templates/{id}", rt.handleDeleteTemplate)
		r.Get("/api/question-templates/{section}/versions", rt.handleTemplateVersions)
		r.Get("/api/question-templates/{section}/versions/{version}", rt.handleTemplateVersion)
		r.Post("/api/question-templates/{section}/import", rt.handleImportTemplateCSV)
		r.Get("/api/question-templates/{section}/export", rt.handleExportTemplateCSV)

		r.Get("/api/questionnaire/{section}/history", rt.handleQuestionnaireHistory)
		r.Get("/api/questionnaires/{id}", rt.handleGetQuestionnaireByID)
		r.Post("/api/generate-link", rt.handleGenerateLink)
		r.Get("/api/link-qr", rt.handleLinkQR)
		r.Post("/api/admins", rt.handleCreateAdmin)
		r.Post("/api/admins/password", rt.handleChangePassword)
	})

	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": "AdvisorForms API"})
}

// auth handlers

func (rt *Router) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	res, err := rt.auth.AdminLogin(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":            res.Token,
		"admin_id":         res.AdminID,
		"password_expired": res.PasswordExpired,
	})
}

func (rt *Router) handleClientLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientNumber string `json:"client_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	res, err := rt.auth.ClientLogin(req.ClientNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	client, err := rt.store.GetClient(res.ClientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "client": client})
}

// handleVerifyToken redeems a questionnaire capability link and logs the
// client in with a fresh session.
func (rt *Router) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, services.NewInvalidError("token is required"))
		return
	}
	client, section, err := rt.links.Redeem(req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	sessionToken, err := rt.auth.ClientLogin(client.ClientNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"token":                  sessionToken.Token,
		"section":                section,
		"client":                 client,
		"has_available_sections": len(client.AvailableSections) > 0,
	})
}

func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	switch claims.Kind {
	case middleware.KindClient:
		client, err := rt.store.GetClient(claims.UID)
		if err != nil {
			writeError(w, err)
			return
		}
		if client == nil {
			writeError(w, services.NewNotFoundError("client not found"))
			return
		}
		writeJSON(w, http.StatusOK, client)
	case middleware.KindAdmin:
		admin, err := rt.store.GetAdmin(claims.UID)
		if err != nil {
			writeError(w, err)
			return
		}
		if admin == nil {
			writeError(w, services.NewNotFoundError("admin not found"))
			return
		}
		writeJSON(w, http.StatusOK, admin)
	default:
		writeError(w, services.NewForbiddenError("forbidden"))
	}
}

// client handlers

var clientNumberRe = regexp.MustCompile(`^\d{7}$`)

func (rt *Router) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := rt.store.ListClients()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (rt *Router) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientNumber      string           `json:"client_number"`
		FirstName         string           `json:"first_name"`
		AvailableSections []models.Section `json:"available_sections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	if !clientNumberRe.MatchString(req.ClientNumber) {
		writeError(w, services.NewInvalidError("client number must be exactly 7 digits"))
		return
	}
	if strings.TrimSpace(req.FirstName) == "" {
		writeError(w, services.NewInvalidError("first name is required"))
		return
	}
	for _, s := range req.AvailableSections {
		if !models.ValidSection(s) {
			writeError(w, services.NewInvalidError("unknown section: "+string(s)))
			return
		}
	}
	existing, err := rt.store.GetClientByNumber(req.ClientNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != nil {
		writeError(w, services.NewConflictError("client number already exists"))
		return
	}
	client, err := rt.store.InsertClient(&models.Client{
		ClientNumber:      req.ClientNumber,
		FirstName:         req.FirstName,
		Name:              req.FirstName,
		AvailableSections: req.AvailableSections,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (rt *Router) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, services.NewInvalidError("invalid client id"))
		return
	}
	client, err := rt.store.GetClient(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if client == nil {
		writeError(w, services.NewNotFoundError("client not found"))
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (rt *Router) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, services.NewInvalidError("invalid client id"))
		return
	}
	ok, err := rt.store.DeleteClient(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, services.NewNotFoundError("client not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (rt *Router) handleUpdateClientSections(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, services.NewInvalidError("invalid client id"))
		return
	}
	var req struct {
		AvailableSections []models.Section `json:"available_sections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AvailableSections == nil {
		writeError(w, services.NewInvalidError("available_sections must be a list"))
		return
	}
	for _, s := range req.AvailableSections {
		if !models.ValidSection(s) {
			writeError(w, services.NewInvalidError("unknown section: "+string(s)))
			return
		}
	}
	client, err := rt.store.UpdateClientSections(id, req.AvailableSections)
	if err != nil {
		writeError(w, err)
		return
	}
	if client == nil {
		writeError(w, services.NewNotFoundError("client not found"))
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// template handlers

func (rt *Router) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := rt.templates.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (rt *Router) handleGetActiveTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := rt.templates.Active(models.Section(chi.URLParam(r, "section")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (rt *Router) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl models.Template
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	created, err := rt.templates.Create(&tmpl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (rt *Router) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var tmpl models.Template
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	if tmpl.ID != "" && tmpl.ID != id {
		writeError(w, services.NewInvalidError("template id in URL does not match request body"))
		return
	}
	existing, err := rt.store.GetTemplate(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing == nil {
		writeError(w, services.NewNotFoundError("template not found"))
		return
	}
	tmpl.ID = id
	updated, err := rt.templates.Update(existing.Section, &tmpl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (rt *Router) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := rt.templates.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (rt *Router) handleTemplateVersions(w http.ResponseWriter, r *http.Request) {
	section := models.Section(chi.URLParam(r, "section"))
	history, err := rt.templates.History(section)
	if err != nil {
		writeError(w, err)
		return
	}
	latest, err := rt.templates.LatestVersion(section)
	if err != nil {
		writeError(w, err)
		return
	}
	type versionInfo struct {
		Version   int    `json:"version"`
		Title     string `json:"title"`
		CreatedAt any    `json:"created_at"`
	}
	infos := make([]versionInfo, 0, len(history))
	for _, t := range history {
		infos = append(infos, versionInfo{Version: t.Version, Title: t.Title, CreatedAt: t.CreatedAt})
	}
	current, _ := rt.store.GetTemplateBySection(section)
	writeJSON(w, http.StatusOK, map[string]any{
		"current":        current,
		"history":        infos,
		"latest_version": latest,
	})
}

func (rt *Router) handleTemplateVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeError(w, services.NewInvalidError("invalid version"))
		return
	}
	tmpl, err := rt.templates.Version(models.Section(chi.URLParam(r, "section")), version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// handleImportTemplateCSV ingests a tabular template upload. An existing
// section template is resaved as a new version; otherwise the upload becomes
// version 1 with the section name as the canonical template id.
func (rt *Router) handleImportTemplateCSV(w http.ResponseWriter, r *http.Request) {
	section := models.Section(chi.URLParam(r, "section"))
	if !models.ValidSection(section) {
		writeError(w, services.NewInvalidError("unknown section: "+string(section)))
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, services.NewInvalidError("unable to read upload"))
		return
	}
	rows, err := services.ParseTemplateCSV(data)
	if err != nil {
		writeError(w, err)
		return
	}
	tmpl, warnings := services.Normalize(rows, section)
	if len(tmpl.Questions) == 0 {
		writeError(w, services.NewInvalidError("no valid rows in upload"))
		return
	}

	existing, err := rt.store.GetTemplateBySection(section)
	if err != nil {
		writeError(w, err)
		return
	}
	var stored *models.Template
	if existing != nil {
		tmpl.ID = existing.ID
		tmpl.Title = existing.Title
		tmpl.Description = existing.Description
		stored, err = rt.templates.Update(section, tmpl)
	} else {
		tmpl.ID = string(section)
		stored, err = rt.templates.Create(tmpl)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"template": stored, "warnings": warnings})
}

func (rt *Router) handleExportTemplateCSV(w http.ResponseWriter, r *http.Request) {
	tmpl, err := rt.templates.Active(models.Section(chi.URLParam(r, "section")))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := services.RenderTemplateCSV(services.TemplateToRows(tmpl))
	if err != nil {
		writeError(w, services.NewStorageError(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(tmpl.ID+".csv"))
	_, _ = w.Write(data)
}

// questionnaire handlers

// resolveClientID determines which client a questionnaire call targets:
// clients act on themselves, admins pass ?clientId=.
func (rt *Router) resolveClientID(r *http.Request) (int, *middleware.Claims, error) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if claims.Kind == middleware.KindClient {
		return claims.UID, claims, nil
	}
	raw := r.URL.Query().Get("clientId")
	if raw == "" {
		return 0, claims, services.NewInvalidError("clientId is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, claims, services.NewInvalidError("invalid client id")
	}
	return id, claims, nil
}

// requireSectionAccess rejects clients whose availability no longer includes
// the section. Admins bypass the check.
func (rt *Router) requireSectionAccess(claims *middleware.Claims, clientID int, section models.Section) error {
	if claims.Kind != middleware.KindClient {
		return nil
	}
	client, err := rt.store.GetClient(clientID)
	if err != nil {
		return err
	}
	if client == nil {
		return services.NewNotFoundError("client not found")
	}
	if !client.HasSection(section) {
		return services.NewForbiddenError("section not available for this client")
	}
	return nil
}

func (rt *Router) handleGetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	section := models.Section(chi.URLParam(r, "section"))
	clientID, claims, err := rt.resolveClientID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rt.requireSectionAccess(claims, clientID, section); err != nil {
		writeError(w, err)
		return
	}
	q, err := rt.subs.GetOrCreateDraft(clientID, section)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleCurrentQuestionnaire returns the newest record without creating a
// draft; 404 when the pair has no history yet.
func (rt *Router) handleCurrentQuestionnaire(w http.ResponseWriter, r *http.Request) {
	section := models.Section(chi.URLParam(r, "section"))
	clientID, _, err := rt.resolveClientID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := rt.subs.Current(clientID, section)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (rt *Router) handleSubmitQuestionnaire(w http.ResponseWriter, r *http.Request) {
	section := models.Section(chi.URLParam(r, "section"))
	clientID, claims, err := rt.resolveClientID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rt.requireSectionAccess(claims, clientID, section); err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	// Admin-driven submits bypass the session guard.
	var guard services.SubmissionGuard
	if claims.Kind == middleware.KindClient {
		guard = rt.guards.Guard(claims.SID)
	}
	q, err := rt.subs.Submit(clientID, section, req.Data, guard)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (rt *Router) handleQuestionnaireHistory(w http.ResponseWriter, r *http.Request) {
	section := models.Section(chi.URLParam(r, "section"))
	clientID, err := strconv.Atoi(r.URL.Query().Get("clientId"))
	if err != nil {
		writeError(w, services.NewInvalidError("invalid client id"))
		return
	}
	client, err := rt.store.GetClient(clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	if client == nil {
		writeError(w, services.NewNotFoundError("client not found"))
		return
	}
	history, err := rt.subs.History(clientID, section)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client":         client,
		"section":        section,
		"questionnaires": history,
	})
}

func (rt *Router) handleGetQuestionnaireByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, services.NewInvalidError("invalid questionnaire id"))
		return
	}
	q, err := rt.subs.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (rt *Router) handleListQuestionnaires(w http.ResponseWriter, r *http.Request) {
	clientID, _, err := rt.resolveClientID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	qs, err := rt.store.ListQuestionnairesByClient(clientID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

// link handlers

func (rt *Router) questionnaireLink(r *http.Request, section models.Section, token string) string {
	base := rt.baseURL
	if base == "" {
		scheme := "http"
		if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
			scheme = fwd
		}
		base = scheme + "://" + r.Host
	}
	return base + "/questionnaire/" + string(section) + "?token=" + token
}

func (rt *Router) handleGenerateLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID int            `json:"client_id"`
		Section  models.Section `json:"section"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	token, err := rt.links.IssueLink(req.ClientID, req.Section)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"link":  rt.questionnaireLink(r, req.Section, token),
		"token": token,
	})
}

// handleLinkQR renders an issued link as a QR PNG so it can be printed or
// shown on screen for a client to scan.
func (rt *Router) handleLinkQR(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	section := models.Section(r.URL.Query().Get("section"))
	if token == "" || !models.ValidSection(section) {
		writeError(w, services.NewInvalidError("token and section are required"))
		return
	}
	png, err := qrcode.Encode(rt.questionnaireLink(r, section, token), qrcode.Medium, 256)
	if err != nil {
		writeError(w, services.NewStorageError("failed to generate qr"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// admin handlers

func (rt *Router) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	admin, err := rt.auth.CreateAdmin(req.Username, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, admin)
}

func (rt *Router) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.NewInvalidError("invalid request body"))
		return
	}
	if err := rt.auth.ChangePassword(claims.UID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": true})
}

// response helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if se, ok := services.AsServiceError(err); ok {
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorStorage:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, map[string]any{"message": err.Error()})
}
