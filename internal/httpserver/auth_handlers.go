package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"unimarket/internal/service"
)

type registerRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func handleRegister(authSvc *service.AuthService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "username (3-50 chars) and password (8-72 chars) are required")
			return
		}

		user, err := authSvc.Register(r.Context(), service.RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		// auto-login after registration
		resp, err := authSvc.Login(r.Context(), service.LoginInput{
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		resp.User = user
		writeData(w, http.StatusCreated, resp)
	}
}

func handleLogin(authSvc *service.AuthService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		resp, err := authSvc.Login(r.Context(), service.LoginInput{
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		writeData(w, http.StatusOK, resp)
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}
		writeData(w, http.StatusOK, user)
	}
}
