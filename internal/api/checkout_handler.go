package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/Lemon-stack/budwrite-sub000/internal/auth"
	"github.com/Lemon-stack/budwrite-sub000/internal/billing"
	"github.com/Lemon-stack/budwrite-sub000/internal/user"
	"github.com/stripe/stripe-go/v84"
)

type BillingService interface {
	CreateCheckoutSession(ctx context.Context, customerID string, pack *billing.CreditPack, successURL, cancelURL string) (*stripe.CheckoutSession, error)
	VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error)
}

type CheckoutHandler struct {
	billing  BillingService
	users    user.Service
	userRepo user.Repository
}

func NewCheckoutHandler(billing BillingService, users user.Service, userRepo user.Repository) *CheckoutHandler {
	return &CheckoutHandler{billing: billing, users: users, userRepo: userRepo}
}

type CreateCheckoutRequest struct {
	PackID     string `json:"pack_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type CreateCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

type PackResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	PriceCents  int64  `json:"price_cents"`
	Credits     int64  `json:"credits"`
}

func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	authUser, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	dbUser, err := h.users.GetOrCreate(r.Context(), authUser.ID, authUser.Email)
	if err != nil || dbUser.StripeCustomerID == nil {
		http.Error(w, "User not found or missing Stripe customer", http.StatusBadRequest)
		return
	}

	var req CreateCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PackID == "" {
		http.Error(w, "pack_id is required", http.StatusBadRequest)
		return
	}

	pack := billing.GetPack(req.PackID)
	if pack == nil {
		http.Error(w, "Invalid pack_id", http.StatusBadRequest)
		return
	}

	if req.SuccessURL == "" || req.CancelURL == "" {
		http.Error(w, "success_url and cancel_url are required", http.StatusBadRequest)
		return
	}

	session, err := h.billing.CreateCheckoutSession(r.Context(), *dbUser.StripeCustomerID, pack, req.SuccessURL, req.CancelURL)
	if err != nil {
		log.Printf("Failed to create checkout session: %v", err)
		http.Error(w, "Failed to create checkout session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, CreateCheckoutResponse{
		CheckoutURL: session.URL,
		SessionID:   session.ID,
	})
}

func (h *CheckoutHandler) ListPacks(w http.ResponseWriter, r *http.Request) {
	packs := make([]PackResponse, 0, len(billing.PackOrder))
	for _, id := range billing.PackOrder {
		p := billing.Packs[id]
		packs = append(packs, PackResponse{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			PriceCents:  p.PriceCents,
			Credits:     p.Credits,
		})
	}

	writeJSON(w, packs)
}

func (h *CheckoutHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Failed to read webhook body: %v", err)
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	event, err := h.billing.VerifyWebhookSignature(payload, signature)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var handleErr error
	switch event.Type {
	case "checkout.session.completed":
		handleErr = h.handleCheckoutCompleted(r.Context(), event)
	}

	if handleErr != nil {
		log.Printf("Webhook %s handling failed: %v", event.Type, handleErr)
		http.Error(w, "Webhook handling failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *CheckoutHandler) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	session, err := parseEventData[checkoutSession](event)
	if err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	if session.Metadata["type"] != "credit_purchase" {
		return nil
	}

	packID := session.Metadata["pack_id"]
	pack := billing.GetPack(packID)
	if pack == nil {
		return fmt.Errorf("unknown pack %q in checkout session %s", packID, session.ID)
	}

	if err := h.userRepo.AddCredits(ctx, session.Customer, pack.Credits); err != nil {
		return fmt.Errorf("failed to add credits for customer %s: %w", session.Customer, err)
	}

	log.Printf("Credited customer %s: pack=%s, credits=%d", session.Customer, packID, pack.Credits)
	return nil
}

func parseEventData[T any](event *stripe.Event) (*T, error) {
	var data T
	if err := json.Unmarshal(event.Data.Raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

type checkoutSession struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}
