package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/service"
	"github.com/Trinaxus/TON.BAND/internal/tablestore"
)

const maxJSONBody = 1 << 20

var errBadJSON = errors.New("Ungültige Anfrage")

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"error": msg})
}

// writeUpstreamError passes a table store or file host status through with
// the upstream body as details. Anything else is a 500.
func writeUpstreamError(w http.ResponseWriter, err error, msg string) {
	status, details := http.StatusInternalServerError, any(err.Error())

	var fileErr *fileapi.Error
	var storeErr *tablestore.Error
	switch {
	case errors.As(err, &fileErr):
		status, details = upstreamStatus(fileErr.Status), rawDetails(fileErr.Body)
	case errors.As(err, &storeErr):
		status, details = upstreamStatus(storeErr.Status), rawDetails(storeErr.Body)
		msg = fmt.Sprintf("Baserow API-Fehler: %d", storeErr.Status)
	}

	if status >= 500 {
		slog.Error(msg, "error", err)
	} else {
		slog.Warn(msg, "error", err)
	}
	writeJSON(w, status, envelope{"error": msg, "details": details})
}

func upstreamStatus(status int) int {
	if status == 0 {
		return http.StatusBadGateway
	}
	return status
}

// rawDetails keeps a JSON upstream body as JSON.
func rawDetails(body string) any {
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// validationMessage returns the client message of a ValidationError.
func validationMessage(err error) (string, bool) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Error(), true
	}
	return "", false
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// intParam reads a positive id from the path, the query or a JSON field.
func intParam(raw string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	return id, err == nil && id > 0
}

// flexID accepts ids sent as numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*f = flexID(s)
	return nil
}
