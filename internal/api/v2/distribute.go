package api

import (
	"errors"
	"net/http"

	"github.com/hashicorp-forge/hermes-distributor/internal/server"
	"github.com/hashicorp-forge/hermes-distributor/pkg/distribute"
	"github.com/hashicorp-forge/hermes-distributor/pkg/lark"
)

// DistributeHandler copies a template document into a destination folder.
// Routes:
//
//	POST /api/v2/distribute
//	POST /api/distribute
//
// The response body is always a distribute.Result. Validation failures are
// answered with 400, every other failure with 500.
func DistributeHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := srv.Logger.Named("distribute")

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req distribute.Request
		if err := decodeRequest(w, r, &req); err != nil {
			log.Warn("error decoding distribute request",
				"error", err,
				"path", r.URL.Path,
			)
			status := http.StatusBadRequest
			if errors.Is(err, errRequestTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			respondJSON(w, log, status, distribute.Result{
				Error: "Invalid request body: " + err.Error(),
				Kind:  lark.KindValidation,
			})
			return
		}

		res := srv.Distributor.Distribute(r.Context(), req)

		respondJSON(w, log, statusForResult(res), res)
	})
}

// statusForResult maps a result to its HTTP status code.
func statusForResult(res distribute.Result) int {
	if res.OK {
		return http.StatusOK
	}
	switch res.Kind {
	case lark.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
