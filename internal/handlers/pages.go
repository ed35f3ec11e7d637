package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/internal/views"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/sabermetrics"
	"github.com/a-h/templ"
	"go.uber.org/zap"
)

// Dashboard renders the HTML page. Every page load re-fetches the roster;
// a failed fetch keeps the previous list and shows an alert.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	m := h.pageMetric(r)

	var alert *views.Alert
	if err := h.dash.Refresh(r.Context()); err != nil {
		alert = &views.Alert{Kind: views.AlertError, Message: "Could not load players. Showing the last known list."}
	}

	h.renderPage(w, r, http.StatusOK, m, models.NewPlayer{}, alert)
}

// SubmitPlayerForm handles the add-player form
func (h *Handler) SubmitPlayerForm(w http.ResponseWriter, r *http.Request) {
	m := h.pageMetric(r)

	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, m, models.NewPlayer{}, &views.Alert{Kind: views.AlertError, Message: "could not read the form"})
		return
	}

	// The re-rendered form only ever shows what this request posted
	form, err := h.dash.Submit(r.Context(), playerFromForm(r.PostForm))
	if err != nil {
		status, msg := statusFor(err)
		h.renderPage(w, r, status, m, form, &views.Alert{Kind: views.AlertError, Message: msg})
		return
	}

	redirectHome(w, r, m)
}

// DeletePlayerForm handles the per-row delete form; the confirm field must be "yes"
func (h *Handler) DeletePlayerForm(w http.ResponseWriter, r *http.Request) {
	m := h.pageMetric(r)

	id, err := parseID(r)
	if err != nil {
		h.renderPage(w, r, http.StatusBadRequest, m, models.NewPlayer{}, &views.Alert{Kind: views.AlertError, Message: "invalid player id"})
		return
	}

	confirmed := r.PostFormValue("confirm") == "yes"
	if err := h.dash.Delete(r.Context(), id, confirmed); err != nil {
		status, msg := statusFor(err)
		h.renderPage(w, r, status, m, models.NewPlayer{}, &views.Alert{Kind: views.AlertError, Message: msg})
		return
	}

	redirectHome(w, r, m)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, m sabermetrics.Metric, form models.NewPlayer, alert *views.Alert) {
	page := views.Page(views.PageData{
		Title: h.title,
		View:  h.dash.View(m),
		Form:  form,
		Alert: alert,
	})
	templ.Handler(page, templ.WithStatus(status)).ServeHTTP(w, r)
}

// pageMetric falls back to the default sort for unknown keys rather than
// failing the page
func (h *Handler) pageMetric(r *http.Request) sabermetrics.Metric {
	m, err := sabermetrics.ParseMetric(r.URL.Query().Get("sort"))
	if err != nil {
		h.logger.Debug("unknown sort key", zap.Error(err))
		return sabermetrics.DefaultMetric
	}
	return m
}

func redirectHome(w http.ResponseWriter, r *http.Request, m sabermetrics.Metric) {
	http.Redirect(w, r, "/?sort="+url.QueryEscape(string(m)), http.StatusSeeOther)
}

// playerFromForm reads the add-player form. Blank or non-numeric counts
// become 0.
func playerFromForm(form url.Values) models.NewPlayer {
	return models.NewPlayer{
		Name:    strings.TrimSpace(form.Get("name")),
		PA:      formInt(form, "pa"),
		Hits:    formInt(form, "hits"),
		Double:  formInt(form, "double"),
		Triple:  formInt(form, "triple"),
		Homerun: formInt(form, "homerun"),
		Walks:   formInt(form, "walks"),
		SB:      formInt(form, "sb"),
		SBFail:  formInt(form, "sb_fail"),
	}
}

func formInt(form url.Values, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(form.Get(key)))
	if err != nil {
		return 0
	}
	return v
}
