package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/handlers/render"
	"github.com/nkiryanov/rewear/internal/logger"
	"github.com/nkiryanov/rewear/internal/models"
	"github.com/nkiryanov/rewear/internal/repository"
	"github.com/nkiryanov/rewear/internal/service/item"
	"github.com/nkiryanov/rewear/internal/service/redemption"
)

// Browse items
// Query params: category, search, status (repeatable, default 'available'), owner, limit
func handleListItems(itemService itemService, l logger.Logger) http.Handler {
	type response struct {
		Items []itemResponse `json:"items"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := repository.ItemFilter{
			Category: q.Get("category"),
			Search:   q.Get("search"),
			Statuses: q["status"],
		}
		if len(filter.Statuses) == 0 {
			filter.Statuses = []string{models.ItemAvailable}
		}
		// Clients send 'All' for the unfiltered category tab
		if filter.Category == "All" {
			filter.Category = ""
		}
		if owner := q.Get("owner"); owner != "" {
			id, err := uuid.Parse(owner)
			if err != nil {
				render.ServiceError(w, "Invalid owner", http.StatusBadRequest)
				return
			}
			filter.OwnerID = id
		}
		if limit := q.Get("limit"); limit != "" {
			n, err := strconv.Atoi(limit)
			if err != nil || n < 1 {
				render.ServiceError(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			filter.Limit = n
		}

		items, err := itemService.List(r.Context(), filter)
		if err != nil {
			render.AppError(w, l, err)
			return
		}

		res := response{Items: make([]itemResponse, 0, len(items))}
		for _, i := range items {
			res.Items = append(res.Items, newItemResponse(i))
		}
		render.JSON(w, res)
	})
}

func handleGetItem(itemService itemService, l logger.Logger) http.Handler {
	type response struct {
		Item itemResponse `json:"item"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		i, err := itemService.Get(r.Context(), id)
		if err != nil {
			render.AppError(w, l, err)
			return
		}
		render.JSON(w, response{Item: newItemResponse(i)})
	})
}

func handleCreateItem(itemService itemService, l logger.Logger) http.Handler {
	type request struct {
		Title       string `json:"title" validate:"required,notblank,max=200"`
		Description string `json:"description" validate:"max=5000"`
		Category    string `json:"category" validate:"max=100"`
		Size        string `json:"size" validate:"max=50"`
		Condition   string `json:"condition" validate:"max=50"`
		PointsValue int64  `json:"points_value" validate:"gte=0"`
	}
	type response struct {
		Item itemResponse `json:"item"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := itemService.Create(r.Context(), user.ID, item.CreateParams{
			Title:       data.Title,
			Description: data.Description,
			Category:    data.Category,
			Size:        data.Size,
			Condition:   data.Condition,
			PointsValue: data.PointsValue,
		})
		if err != nil {
			render.AppError(w, l, err)
			return
		}
		render.JSONWithStatus(w, response{Item: newItemResponse(created)}, http.StatusCreated)
	})
}

func handleRedeem(redemptionService redemptionService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
		Points  int64  `json:"points"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		res, err := redemptionService.Redeem(r.Context(), id, user.ID)
		if err != nil {
			render.AppError(w, l, err)
			return
		}
		render.JSON(w, response{Message: redemption.SuccessMessage, Points: res.Points})
	})
}
