package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// maxRequestBodyBytes caps inbound request bodies.
const maxRequestBodyBytes = 64 << 10

// errRequestTooLarge is returned by decodeRequest for oversized bodies.
var errRequestTooLarge = errors.New("request body too large")

// decodeRequest decodes the JSON request body into the interface.
func decodeRequest(w http.ResponseWriter, r *http.Request, i interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	dec := json.NewDecoder(body)
	if err := dec.Decode(i); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errRequestTooLarge
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errRequestTooLarge
		}
		return errors.New("malformed JSON: unexpected data after the request object")
	}
	return nil
}

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, log hclog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		log.Error("error encoding response", "error", err)
	}
}
