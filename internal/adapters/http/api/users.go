package api

import (
	"context"
	"net/http"

	"github.com/okian/spdscore/internal/domain/model"
)

// UserDependencies defines the interface for per-person reads.
type UserDependencies interface {
	User(ctx context.Context, userID string) (model.UserRecord, error)
}

// UsersHandler handles person requests.
type UsersHandler struct {
	deps UserDependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

// HandleGetUser handles GET /users/{user_id} against the latest report.
func (h *UsersHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_user"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathParam(r.URL.Path, "/users/")
	if !ok {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	u, err := h.deps.User(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
