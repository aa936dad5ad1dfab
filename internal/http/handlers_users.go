package http

import (
	"errors"
	"net/http"

	"wealth/internal/auth"
	"wealth/internal/core"
	"wealth/internal/log"
	"wealth/internal/services"
)

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func toUserView(u core.User, token string) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}
}

type userHandlers struct {
	users *services.UserService
}

func (h userHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body", err).Write(w)
		return
	}
	u, token, err := h.users.Register(r.Context(), sanitizeInput(req.Name), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(toUserView(u, token)).Write(w)
}

func (h userHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body", err).Write(w)
		return
	}
	u, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, "login", err)
		return
	}
	NewJSONResponse().Body(toUserView(u, token)).Write(w)
}

func (h userHandlers) profile(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	u, err := h.users.Profile(r.Context(), uid)
	if err != nil {
		h.writeError(w, r, "profile", err)
		return
	}
	NewJSONResponse().Body(toUserView(u, "")).Write(w)
}

func (h userHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError("Invalid request body", err).Write(w)
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), uid, services.UserPatch{
		Name:     optionalString(req.Name),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, "update_profile", err)
		return
	}
	NewJSONResponse().Body(toUserView(u, "")).Write(w)
}

func (h userHandlers) deleteProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.users.DeleteProfile(r.Context(), uid); err != nil {
		h.writeError(w, r, "delete_profile", err)
		return
	}
	MessageResponse(http.StatusOK, "User removed").Write(w)
}

func (h userHandlers) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		UnauthorizedError("Invalid email or password").Write(w)
	case errors.Is(err, core.ErrEmailTaken):
		ErrorResponse(http.StatusConflict, "User already exists", err).Write(w)
	case errors.Is(err, core.ErrNotFound):
		MessageResponse(http.StatusNotFound, "User not found").Write(w)
	case services.IsValidation(err):
		UnprocessableEntityError("Invalid user data", err).Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "User operation failed", err, op, nil)
		InternalServerError("Server error", err).Write(w)
	}
}
