package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/rewear/internal/apperrors"
	"github.com/nkiryanov/rewear/internal/handlers/render"
	"github.com/nkiryanov/rewear/internal/logger"
)

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Name     string `json:"name" validate:"required,notblank,max=100"`
		Password string `json:"password" validate:"required,min=8,max=128"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Register(r.Context(), data.Email, data.Name, data.Password)
		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSONWithStatus(w, messageResponse{Message: "User registered successfully"}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			render.AppError(w, l, err)
		}
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Login(r.Context(), data.Email, data.Password)
		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSON(w, messageResponse{Message: "User logged in successfully"})
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			render.AppError(w, l, err)
		}
	})
}

func handleTokenRefresh(authService authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := authService.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		pair, err := authService.RefreshPair(r.Context(), refresh)
		switch {
		case err == nil:
			authService.SetTokenPairToResponse(w, pair)
			render.JSON(w, messageResponse{Message: "Tokens refreshed successfully"})
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrNotAuthorized):
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
		default:
			render.AppError(w, l, err)
		}
	})
}
