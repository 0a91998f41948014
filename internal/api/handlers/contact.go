package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cubazon/storefront/internal/api/middleware"
	"github.com/cubazon/storefront/internal/config"
	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	"github.com/cubazon/storefront/internal/utils/response"
	"github.com/cubazon/storefront/pkg/sendgrid"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// ContactHandler is the mail-relay endpoint: it accepts contact-form
// submissions and forwards them to the store inbox.
type ContactHandler struct {
	email     sendgrid.EmailService
	cfg       *config.SendGrid
	validator *validator.Validate
	sanitizer *bluemonday.Policy
}

func NewContactHandler(email sendgrid.EmailService, cfg *config.SendGrid) *ContactHandler {
	return &ContactHandler{
		email:     email,
		cfg:       cfg,
		validator: validator.New(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (h *ContactHandler) Relay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			response.WriteJson(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})

			return
		}

		var req models.ContactRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			return
		}

		if !validateStruct(w, h.validator, req) {
			return
		}

		if h.cfg.ContactInbox == "" {
			response.Error(w, apperrors.ConfigurationError("Contact inbox is not configured"))
			return
		}

		phone := req.Phone
		if phone == "" {
			phone = "Not provided"
		}

		body := fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\n\n%s",
			h.sanitizer.Sanitize(req.Name), req.Email, phone,
			h.sanitizer.Sanitize(req.Message))

		msg := &models.EmailMessage{
			To:      h.cfg.ContactInbox,
			Subject: h.sanitizer.Sanitize(req.Subject),
			Content: body,
			ReplyTo: req.Email,
		}

		if err := h.email.Send(r.Context(), msg); err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to relay contact message", slog.Any("error", err))
			response.WriteJson(w, http.StatusInternalServerError, map[string]string{"error": "Failed to send the message"})

			return
		}

		response.WriteJson(w, http.StatusOK, map[string]any{"success": true})

	}
}
