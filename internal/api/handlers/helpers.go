package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cubazon/storefront/internal/api/middleware"
	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/session"
	"github.com/cubazon/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {

	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {

		if errors.Is(err, io.EOF) {
			response.Error(w, apperrors.BadRequestError("Request body is empty"))
			return err
		}

		response.Error(w, apperrors.BadRequestError("Request body is not valid JSON"))

		return err
	}

	return nil
}

func validateStruct(w http.ResponseWriter, v *validator.Validate, s any) bool {

	if err := v.Struct(s); err != nil {

		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			response.ValidationError(w, validationErrors)
			return false
		}

		response.Error(w, apperrors.BadRequestError("Invalid request payload"))

		return false
	}

	return true
}

func sessionFromRequest(w http.ResponseWriter, r *http.Request) *session.Session {

	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		response.Error(w, apperrors.InternalError("Session is not initialized"))
		return nil
	}

	return sess
}
