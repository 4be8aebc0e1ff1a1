package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/handlers/render"
	"github.com/nkiryanov/rewear/internal/logger"
)

func handleUserMe() http.Handler {
	type response struct {
		ID     uuid.UUID `json:"id"`
		Email  string    `json:"email"`
		Name   string    `json:"name"`
		Role   string    `json:"role"`
		Points int64     `json:"points"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		render.JSON(w, response{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role, Points: user.Points})
	})
}

// Point history of the caller, newest first
// Repeat 'type' query param to filter: ?type=earned&type=spent
func handleListTransactions(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		txs, err := userService.ListTransactions(r.Context(), user.ID, r.URL.Query()["type"]...)
		if err != nil {
			render.AppError(w, l, err)
			return
		}

		res := make([]transactionResponse, 0, len(txs))
		for _, t := range txs {
			res = append(res, newTransactionResponse(t))
		}
		render.JSON(w, res)
	})
}
