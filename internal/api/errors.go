package api

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/lorekeep/lorekeep/internal/api/respond"
	"github.com/lorekeep/lorekeep/internal/model"
)

// writeServiceError maps domain sentinel errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrProvider):
		respond.WriteBadGateway(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}

// queryInt reads an integer query parameter, clamped to [min, max], with a
// fallback for absent or malformed values.
func queryInt(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// pathInt reads a numeric path variable.
func pathInt(vars map[string]string, name string) (int, error) {
	v, err := strconv.Atoi(vars[name])
	if err != nil {
		return 0, errors.Wrapf(model.ErrValidation, "%s must be numeric", name)
	}
	return v, nil
}
