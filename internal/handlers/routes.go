package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the HTML pages on router and the JSON operations on api.
func RegisterRoutes(router chi.Router, api huma.API, web *WebHandler) {
	router.Get("/", web.Index)
	router.Post("/", web.Submit)
	router.Post("/copy", web.Copy)
	router.Get("/{code}", web.Redirect)

	huma.Register(api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/state",
		Summary:     "Current submission state",
		Description: "Returns the submission state of the session identified by the clck_session cookie.",
		Tags:        []string{"Session"},
	}, web.GetState)
}
