package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/outreach/internal/auth"
	"github.com/DukeRupert/outreach/internal/csrf"
	"github.com/DukeRupert/outreach/internal/domain"
	"github.com/DukeRupert/outreach/internal/email"
	"github.com/DukeRupert/outreach/internal/outreach"
	"github.com/DukeRupert/outreach/internal/service"
)

// DashboardHandler serves the outreach form: draft, review, send.
//
// Routes handled (all require a session; POSTs also require a form token):
// - GET  /dashboard       -> Show
// - POST /dashboard/draft -> Draft
// - POST /dashboard/send  -> Send
// - POST /dashboard/clear -> Clear
type DashboardHandler struct {
	outreachService service.OutreachService
	renderer        TemplateRenderer
	logger          *slog.Logger
	event           outreach.Event
	isSecure        bool
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(
	outreachService service.OutreachService,
	renderer TemplateRenderer,
	logger *slog.Logger,
	event outreach.Event,
	isSecure bool,
) *DashboardHandler {
	return &DashboardHandler{
		outreachService: outreachService,
		renderer:        renderer,
		logger:          logger,
		event:           event,
		isSecure:        isSecure,
	}
}

// RegisterRoutes registers the dashboard routes behind requireUser.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /dashboard", requireUser(http.HandlerFunc(h.Show)))
	mux.Handle("POST /dashboard/draft", requireUser(csrf.Protect(http.HandlerFunc(h.Draft))))
	mux.Handle("POST /dashboard/send", requireUser(csrf.Protect(http.HandlerFunc(h.Send))))
	mux.Handle("POST /dashboard/clear", requireUser(csrf.Protect(http.HandlerFunc(h.Clear))))
}

// =============================================================================
// Template Data Types
// =============================================================================

// DashboardForm holds the values echoed back into the form. The SMTP
// password is never rendered.
type DashboardForm struct {
	SponsorName    string
	SponsorEmail   string
	SenderName     string
	SenderPosition string
	SenderEmail    string
	UseAI          bool
	EmailContent   string
}

// HasDraft reports whether the preview pane should be shown.
func (f DashboardForm) HasDraft() bool {
	return f.EmailContent != ""
}

// DashboardPageData is passed to pages/dashboard.html.
type DashboardPageData struct {
	User      *domain.User
	Event     outreach.Event
	Form      DashboardForm
	Errors    map[string]string
	Flash     *Flash
	CSRFToken string
}

// =============================================================================
// Handlers
// =============================================================================

// Show renders an empty form prefilled with the organizer's name and address.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.blankForm(r), nil, nil)
}

// Clear discards the current draft and keeps the sponsor and sender fields.
func (h *DashboardHandler) Clear(w http.ResponseWriter, r *http.Request) {
	form := h.parseForm(r)
	form.EmailContent = ""
	h.render(w, r, form, nil, nil)
}

// Draft produces an email body for review. AI failures fall back to the
// template and are reported as a notice, not an error.
func (h *DashboardHandler) Draft(w http.ResponseWriter, r *http.Request) {
	form := h.parseForm(r)

	draft, err := h.outreachService.Draft(r.Context(), domain.DraftRequest{
		SponsorName:    form.SponsorName,
		SenderName:     form.SenderName,
		SenderPosition: form.SenderPosition,
		UseAI:          form.UseAI,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			h.render(w, r, form, ve.Fields, nil)
			return
		}

		h.logger.Error("failed to draft email", "error", err)
		h.render(w, r, form, nil, &Flash{Type: "error", Message: "Failed to generate email. Please try again."})
		return
	}

	form.EmailContent = draft.Body

	var flash *Flash
	if draft.FellBack {
		flash = &Flash{Type: "info", Message: "AI generation is unavailable right now, so the standard template was used."}
	}
	h.render(w, r, form, nil, flash)
}

// Send relays the reviewed draft with the organizer's SMTP credentials.
func (h *DashboardHandler) Send(w http.ResponseWriter, r *http.Request) {
	form := h.parseForm(r)

	req := domain.SendRequest{
		SponsorName:    form.SponsorName,
		SponsorEmail:   form.SponsorEmail,
		SenderName:     form.SenderName,
		SenderPosition: form.SenderPosition,
		SenderEmail:    form.SenderEmail,
		SenderPassword: r.PostFormValue("senderPassword"),
		EmailContent:   form.EmailContent,
	}.Normalize()

	var ve *domain.ValidationError
	if err := req.ValidateForm(); errors.As(err, &ve) {
		h.render(w, r, form, ve.Fields, nil)
		return
	}

	if err := h.outreachService.Send(r.Context(), req); err != nil {
		var sendErr *email.SendError
		if errors.As(err, &sendErr) {
			h.render(w, r, form, nil, &Flash{Type: "error", Message: sendErr.UserMessage()})
			return
		}

		if errors.As(err, &ve) {
			h.render(w, r, form, ve.Fields, nil)
			return
		}

		h.logger.Error("failed to send email", "error", err)
		h.render(w, r, form, nil, &Flash{Type: "error", Message: "Failed to send email. Please try again."})
		return
	}

	h.render(w, r, h.blankForm(r), nil, &Flash{
		Type:    "success",
		Message: "Sponsorship email has been sent to " + req.SponsorEmail,
	})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *DashboardHandler) blankForm(r *http.Request) DashboardForm {
	form := DashboardForm{UseAI: true}
	if user := auth.FromRequest(r); user != nil {
		form.SenderName = user.DisplayName()
		form.SenderEmail = user.Email
	}
	return form
}

// parseForm reads the posted fields. The AI checkbox is only submitted
// when checked.
func (h *DashboardHandler) parseForm(r *http.Request) DashboardForm {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse dashboard form", "error", err)
	}

	req := domain.SendRequest{
		SponsorName:    r.PostFormValue("sponsorName"),
		SponsorEmail:   r.PostFormValue("sponsorEmail"),
		SenderName:     r.PostFormValue("senderName"),
		SenderPosition: r.PostFormValue("senderPosition"),
		SenderEmail:    r.PostFormValue("senderEmail"),
	}.Normalize()

	return DashboardForm{
		SponsorName:    req.SponsorName,
		SponsorEmail:   req.SponsorEmail,
		SenderName:     req.SenderName,
		SenderPosition: req.SenderPosition,
		SenderEmail:    req.SenderEmail,
		UseAI:          r.PostFormValue("useAI") != "",
		EmailContent:   r.PostFormValue("emailContent"),
	}
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, form DashboardForm, errs map[string]string, flash *Flash) {
	token, err := csrf.EnsureToken(w, r, h.isSecure)
	if err != nil {
		h.logger.Error("failed to issue form token", "error", err)
	}

	h.renderer.RenderHTTP(w, "dashboard", DashboardPageData{
		User:      auth.FromRequest(r),
		Event:     h.event,
		Form:      form,
		Errors:    errs,
		Flash:     flash,
		CSRFToken: token,
	})
}
