package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/lexorahq/lexora-backend/pkg/errors"
)

// ParseQueryInt reads an optional numeric query parameter. A missing value
// returns the default; a malformed value is a validation error.
func ParseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
