package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/clck-web/internal/session"
)

// StateRequest is the request for the current session state.
type StateRequest struct {
	Session string `cookie:"clck_session" doc:"Browser session id"`
}

// StateResponse mirrors the submission state of a session.
type StateResponse struct {
	Body struct {
		LongURL          string `doc:"The submitted URL"                   example:"https://example.com/very/long/path" json:"longUrl"`
		ShortURL         string `doc:"The short URL, once successful"      example:"https://api.clck.dev/abc123"        json:"shortUrl"`
		Status           string `doc:"idle, loading, success or error"     example:"success"                            json:"status"`
		ErrorMessage     string `doc:"Why the last submission failed"      example:""                                   json:"errorMessage"`
		CopyAcknowledged bool   `doc:"Whether a copy was acknowledged now" example:"false"                              json:"copyAcknowledged"`
	}
}

// GetState returns the submission state of the caller's session.
func (h *WebHandler) GetState(_ context.Context, req *StateRequest) (*StateResponse, error) {
	sess, err := h.sessions.Get(req.Session)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, huma.Error404NotFound("session not found")
		}

		return nil, huma.Error500InternalServerError("failed to load session")
	}

	state := sess.Controller.State()

	resp := &StateResponse{}
	resp.Body.LongURL = state.LongURL
	resp.Body.ShortURL = state.ShortURL
	resp.Body.Status = state.Status.String()
	resp.Body.ErrorMessage = state.ErrorMessage
	resp.Body.CopyAcknowledged = state.CopyAcknowledged

	return resp, nil
}
