package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/rewear/internal/handlers/render"
	"github.com/nkiryanov/rewear/internal/handlers/userctx"
	"github.com/nkiryanov/rewear/internal/models"
)

type messageResponse struct {
	Message string `json:"message"`
}

type itemResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Size        string    `json:"size"`
	Condition   string    `json:"condition"`
	PointsValue int64     `json:"points_value"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func newItemResponse(i models.Item) itemResponse {
	return itemResponse{
		ID:          i.ID,
		OwnerID:     i.OwnerID,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Size:        i.Size,
		Condition:   i.Condition,
		PointsValue: i.PointsValue,
		Status:      i.Status,
		CreatedAt:   i.CreatedAt,
	}
}

type transactionResponse struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Amount      int64      `json:"amount"`
	Description string     `json:"description"`
	ItemID      *uuid.UUID `json:"item_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		ItemID:      t.ItemID,
		CreatedAt:   t.CreatedAt,
	}
}

type swapRequestResponse struct {
	ID             uuid.UUID      `json:"id"`
	RequesterID    uuid.UUID      `json:"requester_id"`
	ItemID         uuid.UUID      `json:"item_id"`
	OfferedItemIDs []uuid.UUID    `json:"offered_item_ids"`
	Message        *string        `json:"message"`
	Status         string         `json:"status"`
	LastActionBy   uuid.UUID      `json:"last_action_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Item           *itemResponse  `json:"item,omitempty"`
	OfferedItems   []itemResponse `json:"offered_items,omitempty"`
}

func newSwapRequestResponse(s models.SwapRequest) swapRequestResponse {
	return swapRequestResponse{
		ID:             s.ID,
		RequesterID:    s.RequesterID,
		ItemID:         s.ItemID,
		OfferedItemIDs: s.OfferedItemIDs,
		Message:        s.Message,
		Status:         s.Status,
		LastActionBy:   s.LastActionBy,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func newSwapDetailsResponse(d models.SwapRequestDetails) swapRequestResponse {
	res := newSwapRequestResponse(d.SwapRequest)

	item := newItemResponse(d.Item)
	res.Item = &item
	res.OfferedItems = make([]itemResponse, 0, len(d.OfferedItems))
	for _, i := range d.OfferedItems {
		res.OfferedItems = append(res.OfferedItems, newItemResponse(i))
	}

	return res
}

// Caller resolved by auth middleware
// Missing user means the handler is registered without auth, answer 500
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
	}
	return user, ok
}

// Parse {id} path value
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
