package commerceapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

// classify maps a non-2xx response onto the error taxonomy. Business messages
// are passed through verbatim so the UI can show exactly what the server said.
func classify(op string, status int, raw []byte) error {
	cause := fmt.Errorf("%s: status %d: %s", op, status, strings.TrimSpace(string(raw)))

	switch {
	case status == http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeAuth, cause, "session expired; login required")
	case status == http.StatusForbidden:
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, cause, messageOr(raw, "access denied"))
	case status == http.StatusNotFound:
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, messageOr(raw, "resource not found"))
	case status == http.StatusTooManyRequests || status >= 500:
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, cause, "commerce service unavailable")
	}

	if msg, ok := businessMessage(raw); ok {
		return pkgerrors.Wrap(pkgerrors.CodeBusinessRule, cause, msg)
	}
	if status == http.StatusBadRequest {
		if fields := fieldErrors(raw); len(fields) > 0 {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, summarize(fields)).WithDetails(fields)
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" || len(text) > 200 {
		text = http.StatusText(status)
	}
	return pkgerrors.Wrap(pkgerrors.CodeBusinessRule, cause, text)
}

// businessMessage extracts {"error": ...}, {"detail": ...} or {"non_field_errors": [...]}.
func businessMessage(raw []byte) (string, bool) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", false
	}
	for _, key := range []string{"error", "detail", "message"} {
		if v, ok := body[key]; ok {
			if msg := flatten(v); msg != "" {
				return msg, true
			}
		}
	}
	if v, ok := body["non_field_errors"]; ok {
		if msg := flatten(v); msg != "" {
			return msg, true
		}
	}
	return "", false
}

func fieldErrors(raw []byte) map[string][]string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	out := make(map[string][]string, len(body))
	for field, v := range body {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			out[field] = list
			continue
		}
		if msg := flatten(v); msg != "" {
			out[field] = []string{msg}
		}
	}
	return out
}

func flatten(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return strings.Join(list, " ")
	}
	return ""
}

func messageOr(raw []byte, fallback string) string {
	if msg, ok := businessMessage(raw); ok {
		return msg
	}
	return fallback
}

func summarize(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(fields[k], " ")))
	}
	return strings.Join(parts, "; ")
}
