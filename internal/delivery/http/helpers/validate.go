package helpers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Validator is implemented by request bodies that validate themselves.
// Validate returns one message per violated rule, empty when valid.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes the JSON request body into v and, if v implements
// Validator, runs it. On failure it writes a bad_request response and returns
// false; the caller should return immediately.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return false
	}
	if validator, ok := v.(Validator); ok {
		if errs := validator.Validate(); len(errs) > 0 {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
			return false
		}
	}
	return true
}
