package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/handlers/render"
	"github.com/nkiryanov/rewear/internal/logger"
	"github.com/nkiryanov/rewear/internal/service/swap"
)

// Requests made or received by the caller
func handleListSwaps(swapService swapService, l logger.Logger) http.Handler {
	type response struct {
		SwapRequests []swapRequestResponse `json:"swap_requests"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		list, err := swapService.List(r.Context(), user.ID)
		if err != nil {
			render.AppError(w, l, err)
			return
		}

		res := response{SwapRequests: make([]swapRequestResponse, 0, len(list))}
		for _, d := range list {
			res.SwapRequests = append(res.SwapRequests, newSwapDetailsResponse(d))
		}
		render.JSON(w, res)
	})
}

func handleGetSwap(swapService swapService, l logger.Logger) http.Handler {
	type response struct {
		SwapRequest swapRequestResponse `json:"swap_request"`
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

		d, err := swapService.Get(r.Context(), id, user.ID)
		if err != nil {
			render.AppError(w, l, err)
			return
		}
		render.JSON(w, response{SwapRequest: newSwapDetailsResponse(d)})
	})
}

func handleProposeSwap(swapService swapService, l logger.Logger) http.Handler {
	type request struct {
		ItemID         uuid.UUID   `json:"item_id" validate:"required"`
		OfferedItemIDs []uuid.UUID `json:"offered_item_ids" validate:"required,min=1,max=20"`
		Message        string      `json:"message" validate:"max=1000"`
	}
	type response struct {
		SwapRequest swapRequestResponse `json:"swap_request"`
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

		req, err := swapService.Propose(r.Context(), swap.ProposeParams{
			RequesterID:    user.ID,
			ItemID:         data.ItemID,
			OfferedItemIDs: data.OfferedItemIDs,
			Message:        data.Message,
		})
		if err != nil {
			render.AppError(w, l, err)
			return
		}
		render.JSONWithStatus(w, response{SwapRequest: newSwapRequestResponse(req)}, http.StatusCreated)
	})
}

func handleAcceptSwap(swapService swapService, l logger.Logger) http.Handler {
	type response struct {
		Message   string         `json:"message"`
		Direction swap.Direction `json:"direction"`
		Points    int64          `json:"points"`
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

		res, err := swapService.Accept(r.Context(), id, user.ID)
		if err != nil {
			render.AppError(w, l, err)
			return
		}
		render.JSON(w, response{Message: res.Message(), Direction: res.Direction, Points: res.Points})
	})
}

func handleDeclineSwap(swapService swapService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if _, err := swapService.Decline(r.Context(), id, user.ID); err != nil {
			render.AppError(w, l, err)
			return
		}
		render.JSON(w, messageResponse{Message: "Swap request declined"})
	})
}
