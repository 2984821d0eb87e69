package users

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
)

// Handlers provides HTTP handlers for registration and profile management.
type Handlers struct {
	service *Service
}

// NewHandlers creates new Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleCreateUser godoc
// @Summary Create a new user
// @Description Registers a user. The password is write-only and never echoed back.
// @Tags user
// @Accept json
// @Produce json
// @Param user body users.CreateUserRequest true "New user"
// @Success 201 {object} users.UserResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input or email already registered"
// @Router /api/user/create [post]
func (h *Handlers) HandleCreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if !decode(w, r, &req) {
			return
		}

		user, err := h.service.CreateUser(r.Context(), req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusCreated, toResponse(user))
	}
}

// HandleGetMe godoc
// @Summary Retrieve the authenticated user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} users.UserResponse
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Router /api/user/me [get]
func (h *Handlers) HandleGetMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("Authentication credentials were not provided.", nil))
			return
		}

		user, err := h.service.GetProfile(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, toResponse(user))
	}
}

// HandlePatchMe godoc
// @Summary Partially update the authenticated user
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body users.UpdateUserRequest true "Fields to change"
// @Success 200 {object} users.UserResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Router /api/user/me [patch]
func (h *Handlers) HandlePatchMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("Authentication credentials were not provided.", nil))
			return
		}

		// An empty body is an empty partial update.
		var req UpdateUserRequest
		if !decodeOptional(w, r, &req) {
			return
		}

		user, err := h.service.UpdateProfile(r.Context(), userID, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, toResponse(user))
	}
}

// HandlePutMe godoc
// @Summary Update the authenticated user
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body users.ReplaceUserRequest true "Complete profile"
// @Success 200 {object} users.UserResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid input"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Router /api/user/me [put]
func (h *Handlers) HandlePutMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("Authentication credentials were not provided.", nil))
			return
		}

		var req ReplaceUserRequest
		if !decode(w, r, &req) {
			return
		}

		user, err := h.service.ReplaceProfile(r.Context(), userID, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		auth.WriteJSON(w, http.StatusOK, toResponse(user))
	}
}

// decode reads a JSON body into dst, writing a 400 and returning false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return decodeBody(w, r, dst, false)
}

// decodeOptional is decode but leaves dst untouched when the body is empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
		return false
	}
	return true
}
