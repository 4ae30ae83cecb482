package api

import (
	"errors"
	"net/http"

	"github.com/example/rachana-boutique/internal/api/middleware"
	"github.com/example/rachana-boutique/internal/cleanup"
	"github.com/example/rachana-boutique/internal/session"
)

type mergeResponse struct {
	session.Summary
	State string `json:"state"`
}

// GetMergeState reports whether the visitor's cart was merged for the user
func (h *Handlers) GetMergeState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	coordinator, release := h.visitors.Merge(middleware.GetVisitorID(ctx))
	defer release()
	state := coordinator.State(ctx, middleware.GetUserID(ctx))
	respondJSON(w, http.StatusOK, map[string]string{"state": state.String()})
}

// Merge copies the visitor's guest cart into the signed-in cart. Called
// once after login; repeated calls are skipped until logout.
func (h *Handlers) Merge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	coordinator, release := h.visitors.Merge(middleware.GetVisitorID(ctx))
	defer release()

	summary, err := coordinator.RunMerge(ctx, userID, h.remote)
	switch {
	case errors.Is(err, session.ErrMergeAborted):
		respondMessage(w, http.StatusInternalServerError, false, "Could not merge cart")
		return
	case err != nil:
		respondMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, mergeResponse{
		Summary: summary,
		State:   coordinator.State(ctx, userID).String(),
	})
}

// Logout forgets the merge for this user. The guest cart is kept so the
// visitor still sees it.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	coordinator, release := h.visitors.Merge(middleware.GetVisitorID(ctx))
	defer release()
	if err := coordinator.ResetMergeFlag(ctx, middleware.GetUserID(ctx)); err != nil {
		respondCartError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondMessage(w, http.StatusOK, true, "Logged out")
}

type cleanupRequest struct {
	Items []cleanup.PurchasedItem `json:"items"`
}

// CleanupOrder removes purchased lines from the guest and signed-in carts
func (h *Handlers) CleanupOrder(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	manager := cleanup.NewManager(h.visitors.Cart(middleware.GetVisitorID(ctx)), h.remote)
	summary := manager.CleanupPurchased(ctx, middleware.GetUserID(ctx), req.Items)
	respondJSON(w, http.StatusOK, summary)
}
