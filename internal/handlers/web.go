package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/serroba/clck-web/internal/activity"
	"github.com/serroba/clck-web/internal/middleware"
	"github.com/serroba/clck-web/internal/redirect"
	"github.com/serroba/clck-web/internal/session"
	"github.com/serroba/clck-web/internal/submission"
	"go.uber.org/zap"
)

// SessionCookie carries the browser session id.
const SessionCookie = "clck_session"

// CopiedField is posted by the copy button once the browser has written the short
// URL to its clipboard during the click.
const CopiedField = "copied"

const maxFormBytes = 64 << 10

// Sessions resolves browser sessions.
type Sessions interface {
	Open(id string) (*session.Session, bool)
	Get(id string) (*session.Session, error)
}

// Config configures a WebHandler.
type Config struct {
	// RedirectOrigin is where visitors of a short code are sent.
	RedirectOrigin string
	SecureCookies  bool
	// SettleWait bounds how long a submit request waits for the service before
	// redirecting to a loading page. Zero redirects immediately.
	SettleWait time.Duration
}

// WebHandler serves the submission page and the redirect page.
type WebHandler struct {
	sessions Sessions
	cfg      Config
	publish  activity.Publishers
	logger   *zap.Logger
}

// NewWebHandler creates a web handler. It fails when the redirect origin is not
// an absolute http(s) URL.
func NewWebHandler(sessions Sessions, cfg Config, publish activity.Publishers, logger *zap.Logger) (*WebHandler, error) {
	if _, err := redirect.ParseOrigin(cfg.RedirectOrigin); err != nil {
		return nil, err
	}

	return &WebHandler{
		sessions: sessions,
		cfg:      cfg,
		publish:  publish,
		logger:   logger,
	}, nil
}

func (h *WebHandler) sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}

	return c.Value
}

func (h *WebHandler) openSession(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, created := h.sessions.Open(h.sessionID(r))
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return sess
}

// Index renders the submission page. Visitors without a live session get the idle
// page; sessions are only created by Submit.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(h.sessionID(r))
	if err != nil {
		if err := render(w, http.StatusOK, "index", newIndexPage(submission.State{}, "", false)); err != nil {
			h.logger.Error("failed to render index", zap.Error(err))
		}

		return
	}

	copyText, hasCopy := sess.Clipboard.Take()

	page := newIndexPage(sess.Controller.State(), copyText, hasCopy)
	if err := render(w, http.StatusOK, "index", page); err != nil {
		h.logger.Error("failed to render index", zap.Error(err))
	}
}

// Submit starts shortening the posted url and redirects back to the index.
func (h *WebHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form", http.StatusBadRequest)

		return
	}

	sess := h.openSession(w, r)
	longURL := r.PostForm.Get("url")

	sub, err := sess.Controller.Submit(r.Context(), longURL)
	if err != nil {
		// Empty input and double submits leave the page as it was.
		h.logger.Debug("submission not started", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)

		return
	}

	go h.reportSettlement(sub, sess.ID, longURL, middleware.RequestMetaFromContext(r.Context()))

	if h.cfg.SettleWait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.SettleWait)
		_, _ = sub.Wait(ctx)

		cancel()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WebHandler) reportSettlement(sub *submission.Submission, sessionID, longURL string, meta middleware.RequestMeta) {
	<-sub.Done()

	outcome, _ := sub.Outcome()
	if outcome.Discarded {
		return
	}

	event := &activity.SubmissionSettledEvent{
		SessionID:    sessionID,
		LongURL:      longURL,
		ShortURL:     outcome.ShortURL,
		Status:       submission.StatusSuccess.String(),
		ErrorMessage: outcome.ErrorMessage,
		SettledAt:    time.Now(),
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	}

	if outcome.Err != nil {
		event.Status = submission.StatusError.String()
	}

	if err := h.publish.SubmissionSettled(event); err != nil {
		h.logger.Error("failed to publish submission event",
			zap.String("status", event.Status),
			zap.Error(err),
		)
	}
}

// Copy acknowledges a copy of the session's short URL and redirects back to the
// index. Unless the browser reports it already copied during the click, the next
// render hands the text to the page.
func (h *WebHandler) Copy(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(h.sessionID(r))
	if err == nil && sess.Controller.CopyShortURL() && r.PostFormValue(CopiedField) == "1" {
		sess.Clipboard.Take()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Redirect renders the page that forwards the visitor to the resolution endpoint
// for the short code in the path.
func (h *WebHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code, ok := redirect.CodeFromPath(r.URL.Path)
	if !ok || IsReserved(code) {
		http.NotFound(w, r)

		return
	}

	nav := redirect.NavigatorFunc(func(target string) {
		if err := render(w, http.StatusOK, "redirect", redirectPage{Code: code, Target: target}); err != nil {
			h.logger.Error("failed to render redirect", zap.String("code", code), zap.Error(err))
		}
	})

	resolver, err := redirect.NewResolver(h.cfg.RedirectOrigin, nav)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)

		return
	}

	req, err := resolver.Activate(code)
	if err != nil {
		if errors.Is(err, redirect.ErrEmptyCode) {
			http.NotFound(w, r)

			return
		}

		http.Error(w, "internal server error", http.StatusInternalServerError)

		return
	}

	meta := middleware.RequestMetaFromContext(r.Context())
	event := &activity.RedirectIssuedEvent{
		Code:      req.Code,
		Target:    req.Target,
		IssuedAt:  time.Now(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}

	if err := h.publish.RedirectIssued(event); err != nil {
		h.logger.Error("failed to publish redirect event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}
}
