package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dancras/tv-quiz-party/internal/engine"
	"github.com/dancras/tv-quiz-party/internal/lobby"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeLinked responds with a Location header pointing at the resource.
func writeLinked(w http.ResponseWriter, status int, location string, v any) {
	w.Header().Set("Location", location)
	writeJSON(w, status, v)
}

// errNotMember rejects lobby operations from users who never joined.
var errNotMember = errors.New("join the lobby first")

// writeDomainError maps the core error taxonomy onto HTTP statuses.
// Expected user-driven misuse never reaches the 500 path.
func (api *API) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		writeError(w, http.StatusNotFound, "lobby_id or join_code is incorrect or Lobby is closed")
	case errors.Is(err, errNotMember):
		writeError(w, http.StatusForbidden, errNotMember.Error())
	case errors.Is(err, lobby.ErrConflict):
		writeError(w, http.StatusUnprocessableEntity, "User already in lobby")
	case errors.Is(err, engine.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		api.log.Error("unhandled domain error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
