package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
	"github.com/dmitrijs2005/sealdrop/internal/server/services"
	"github.com/gorilla/mux"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	Role         models.Role `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type createUserRequest struct {
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Role         models.Role `json:"role"`
	ManagerEmail string      `json:"managerEmail"`
}

type statusRequest struct {
	Status models.AccountStatus `json:"status"`
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed json body", common.ErrorIncorrectMetadata)
	}
	return nil
}

func newTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{Token: p.AccessToken, RefreshToken: p.RefreshToken, Role: p.Role}
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, services.NewUserView(user))
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tokens, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(tokens))
}

func (s *HTTPServer) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tokens, err := s.users.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(tokens))
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tokens, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(tokens))
}

func (s *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.ChangePassword(r.Context(), req.Email, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "password changed")
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.CreateUser(r.Context(), caller(r), req.Email, req.Password, req.Role, req.ManagerEmail)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, services.NewUserView(user))
}

func (s *HTTPServer) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.SetStatus(r.Context(), caller(r), mux.Vars(r)["userId"], req.Status); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "status updated")
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewUserViews(users))
}

func (s *HTTPServer) handleManagerUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ManagedUsers(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewUserViews(users))
}
