package handler

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Raymond9734/estate-backoffice/internal/models"
	"github.com/Raymond9734/estate-backoffice/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Flash messages shown after a form was accepted
const (
	FlashPropertySaved = "تم حفظ العقار بنجاح!"
	FlashClientSaved   = "تم تسجيل العميل بنجاح!"
)

const recentPropertiesCount = 3

var pageHeaders = map[string]string{
	models.ViewDashboard:  "لوحة التحكم",
	models.ViewProperties: "إدارة العقارات",
	models.ViewClients:    "قاعدة العملاء",
	models.ViewAITools:    "الذكاء العقاري (AI)",
}

// liveViews maps the views patched in place over the event stream to
// their page template
var liveViews = map[string]string{
	models.ViewDashboard:  "dashboard.html",
	models.ViewProperties: "properties.html",
	models.ViewClients:    "clients.html",
}

// AlertClaimer hands over a held failure alert to the page that shows it
type AlertClaimer interface {
	Claim(owner, submissionID string) bool
}

var pages = []string{
	"dashboard.html",
	"properties.html",
	"property_form.html",
	"clients.html",
	"client_form.html",
	"ai_tools.html",
}

// pageData is passed to every page template
type pageData struct {
	View       string
	Header     string
	User       string
	Today      string
	Flash      string
	Error      string
	Alert      string
	Stream     string
	Stats      models.Stats
	Properties []*models.Property
	Clients    []*models.Client
	Query      string
	Locations  []string
	Form       url.Values
	Details    string
	Generated  string
	// Live is the view re-rendered by the event stream, empty on forms
	Live string
}

// DashboardHandler renders the back-office views from the store
type DashboardHandler struct {
	store     *service.Store
	generator service.GeneratorService
	alerts    AlertClaimer
	templates map[string]*template.Template
	logger    *slog.Logger
	now       func() time.Time
}

// NewDashboardHandler parses the embedded templates
func NewDashboardHandler(store *service.Store, generator service.GeneratorService, alerts AlertClaimer, logger *slog.Logger) (*DashboardHandler, error) {
	funcs := template.FuncMap{
		"number":      formatNumber,
		"millions":    formatMillions,
		"statusLabel": statusLabel,
		"typeLabel":   typeLabel,
		"interest":    interestLabel,
		"lead":        leadLabel,
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}

	return &DashboardHandler{
		store:     store,
		generator: generator,
		alerts:    alerts,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data *pageData) {
	if session := sessionFromContext(r.Context()); session != nil {
		data.User = session.DisplayName()
	}
	if data.Header == "" {
		data.Header = pageHeaders[data.View]
	}
	data.Today = arabicDate(h.now())
	data.Stream = streamURL(data.Live, data.Query)

	var buf bytes.Buffer
	if err := h.templates[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		loggerFromContext(r.Context(), h.logger).Error("failed to render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// viewData builds the page data of a live view from the store
func (h *DashboardHandler) viewData(view, query string) *pageData {
	data := &pageData{View: view, Live: view, Query: query}

	switch view {
	case models.ViewDashboard:
		recent := h.store.Properties()
		if len(recent) > recentPropertiesCount {
			recent = recent[:recentPropertiesCount]
		}
		data.Stats = h.store.Stats()
		data.Properties = recent
	case models.ViewProperties:
		data.Properties = filterProperties(h.store.Properties(), query)
	case models.ViewClients:
		data.Clients = h.store.Clients()
	}
	return data
}

// RenderView renders the content of a live view for an in-place patch
func (h *DashboardHandler) RenderView(_ context.Context, view, query string) (string, error) {
	page, ok := liveViews[view]
	if !ok {
		return "", fmt.Errorf("view %q is not live", view)
	}

	var buf bytes.Buffer
	if err := h.templates[page].ExecuteTemplate(&buf, "content", h.viewData(view, query)); err != nil {
		return "", fmt.Errorf("failed to render view %s: %w", view, err)
	}
	return buf.String(), nil
}

func streamURL(view, query string) string {
	params := url.Values{}
	if view != "" {
		params.Set("view", view)
	}
	if query != "" {
		params.Set("q", query)
	}
	if len(params) == 0 {
		return "/events"
	}
	return "/events?" + params.Encode()
}

// Dashboard handles GET /
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "dashboard.html", h.viewData(models.ViewDashboard, ""))
}

// Properties handles GET /properties
func (h *DashboardHandler) Properties(w http.ResponseWriter, r *http.Request) {
	data := h.viewData(models.ViewProperties, strings.TrimSpace(r.URL.Query().Get("q")))
	h.landFromSubmission(r, data, FlashPropertySaved)

	h.render(w, r, http.StatusOK, "properties.html", data)
}

// landFromSubmission shows the outcome of the submission the user was
// redirected from. A failure whose alert no event stream received yet is
// claimed and shown by this page.
func (h *DashboardHandler) landFromSubmission(r *http.Request, data *pageData, flash string) {
	id := r.URL.Query().Get("submission")
	if id == "" {
		return
	}
	sub, err := h.store.Submission(id)
	if err != nil {
		return
	}
	owner := requestOwner(r)
	if sub.Owner != owner {
		return
	}

	if sub.State != models.SubmissionOrphaned {
		data.Flash = flash
		return
	}
	if h.alerts.Claim(owner, sub.ID) {
		data.Alert = service.AlertMessage(sub.Collection)
	}
}

func submissionRedirect(path string, sub *models.Submission) string {
	return path + "?" + url.Values{"submission": {sub.ID}}.Encode()
}

// filterProperties keeps properties whose title or location contains query
func filterProperties(properties []*models.Property, query string) []*models.Property {
	if query == "" {
		return properties
	}
	term := strings.ToLower(query)

	filtered := make([]*models.Property, 0, len(properties))
	for _, p := range properties {
		if strings.Contains(strings.ToLower(p.Title), term) || strings.Contains(strings.ToLower(p.Location), term) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// NewPropertyForm handles GET /properties/new
func (h *DashboardHandler) NewPropertyForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "property_form.html", &pageData{
		View:      models.ViewProperties,
		Header:    "إضافة عقار جديد",
		Locations: models.Locations,
	})
}

// CreateProperty handles POST /properties
func (h *DashboardHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	req, err := propertyRequestFromForm(r.PostForm)
	if err == nil {
		err = req.Validate()
	}
	var sub *models.Submission
	if err == nil {
		sub, err = h.store.AddProperty(ownerContext(r), req.ToProperty())
	}
	if err != nil {
		h.renderFormError(w, r, "property_form.html", &pageData{
			View:      models.ViewProperties,
			Header:    "إضافة عقار جديد",
			Locations: models.Locations,
			Form:      r.PostForm,
		}, err)
		return
	}

	http.Redirect(w, r, submissionRedirect("/properties", sub), http.StatusSeeOther)
}

func propertyRequestFromForm(form url.Values) (*service.CreatePropertyRequest, error) {
	price, err := parseOptionalFloat(form.Get("price"), "price")
	if err != nil {
		return nil, err
	}
	area, err := parseOptionalFloat(form.Get("area"), "area")
	if err != nil {
		return nil, err
	}
	return &service.CreatePropertyRequest{
		Title:    form.Get("title"),
		Price:    price,
		Area:     area,
		Location: form.Get("location"),
		Type:     form.Get("type"),
		Status:   form.Get("status"),
	}, nil
}

// Clients handles GET /clients
func (h *DashboardHandler) Clients(w http.ResponseWriter, r *http.Request) {
	data := h.viewData(models.ViewClients, "")
	h.landFromSubmission(r, data, FlashClientSaved)

	h.render(w, r, http.StatusOK, "clients.html", data)
}

// NewClientForm handles GET /clients/new
func (h *DashboardHandler) NewClientForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "client_form.html", &pageData{
		View:   models.ViewClients,
		Header: "تسجيل عميل جديد",
	})
}

// CreateClient handles POST /clients
func (h *DashboardHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	budget, err := parseOptionalFloat(r.PostForm.Get("budget"), "budget")
	req := &service.CreateClientRequest{
		Name:     r.PostForm.Get("name"),
		Phone:    r.PostForm.Get("phone"),
		Budget:   budget,
		Interest: r.PostForm.Get("interest"),
		Status:   r.PostForm.Get("status"),
	}
	if err == nil {
		err = req.Validate()
	}
	var sub *models.Submission
	if err == nil {
		sub, err = h.store.AddClient(ownerContext(r), req.ToClient())
	}
	if err != nil {
		h.renderFormError(w, r, "client_form.html", &pageData{
			View:   models.ViewClients,
			Header: "تسجيل عميل جديد",
			Form:   r.PostForm,
		}, err)
		return
	}

	http.Redirect(w, r, submissionRedirect("/clients", sub), http.StatusSeeOther)
}

// AITools handles GET /ai-tools
func (h *DashboardHandler) AITools(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "ai_tools.html", &pageData{View: models.ViewAITools})
}

// Generate handles POST /ai-tools/generate
func (h *DashboardHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	details := r.PostForm.Get("details")
	data := &pageData{View: models.ViewAITools, Details: details}

	text, err := h.generator.Generate(r.Context(), details)
	if err != nil {
		h.renderFormError(w, r, "ai_tools.html", data, err)
		return
	}

	data.Generated = text
	h.render(w, r, http.StatusOK, "ai_tools.html", data)
}

// renderFormError re-renders a form with the error message.
// Only validation messages are shown to the user.
func (h *DashboardHandler) renderFormError(w http.ResponseWriter, r *http.Request, page string, data *pageData, err error) {
	status := http.StatusBadRequest

	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr) && appErr.Code == "INVALID_INPUT":
		data.Error = appErr.Message
	case errors.Is(err, models.ErrStoreClosed):
		status = http.StatusServiceUnavailable
		data.Error = "الخدمة غير متاحة حالياً"
	default:
		loggerFromContext(r.Context(), h.logger).Error("form submission failed",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		status = http.StatusInternalServerError
		data.Error = "حدث خطأ غير متوقع"
	}

	h.render(w, r, status, page, data)
}

func parseOptionalFloat(value, field string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, models.ErrInvalidInput(field + " must be a number")
	}
	return &v, nil
}
