package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/serroba/clck-web/internal/submission"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type indexPage struct {
	State          submission.State
	Loading        bool
	Success        bool
	Failed         bool
	RefreshSeconds int
	HasCopy        bool
	CopyText       string
}

func newIndexPage(state submission.State, copyText string, hasCopy bool) indexPage {
	page := indexPage{
		State:    state,
		Loading:  state.Status == submission.StatusLoading,
		Success:  state.Status == submission.StatusSuccess,
		Failed:   state.Status == submission.StatusError,
		HasCopy:  hasCopy,
		CopyText: copyText,
	}

	// Poll while loading, and re-render once the acknowledgment has expired.
	switch {
	case page.Loading:
		page.RefreshSeconds = 1
	case state.CopyAcknowledged:
		page.RefreshSeconds = int(submission.AckWindow / time.Second)
	}

	return page
}

type redirectPage struct {
	Code   string
	Target string
}

func render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)

	return err
}
