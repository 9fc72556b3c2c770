package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/keycloak-gateway/models"
	"github.com/upb/keycloak-gateway/repositories"
	"github.com/upb/keycloak-gateway/services"
	"github.com/upb/keycloak-gateway/utils"
	"go.uber.org/zap"
)

// CreateAccountRequest is the request body for creating a local account
type CreateAccountRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"max=255"`
}

// AccountHandler manages the local accounts identities are bound to
type AccountHandler struct {
	accounts repositories.AccountRepository
	logger   *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts repositories.AccountRepository, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleGetByEmail handles GET /api/v1/admin/accounts/{email}
func (h *AccountHandler) HandleGetByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if err := utils.ValidateEmail("email", email); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	account, err := h.accounts.FindOneByEmail(r.Context(), email)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("account lookup failed", err), h.logger)
		return
	}
	if account == nil {
		HandleServiceError(w, services.NewDomainError(services.ErrorTypeNotFound, services.ErrAccountNotFound.Message, nil).
			WithDetail("email", email), h.logger)
		return
	}

	_ = utils.WriteOK(w, account)
}

// HandleGetByID handles GET /api/v1/admin/accounts/id/{id}
func (h *AccountHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, accountError(err), h.logger)
		return
	}

	_ = utils.WriteOK(w, account)
}

// HandleCreate handles POST /api/v1/admin/accounts
func (h *AccountHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		HandleValidationError(w, errors.New("invalid request body"), h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	account := models.NewAccount(req.Email, req.DisplayName)
	if err := h.accounts.Create(r.Context(), account); err != nil {
		HandleServiceError(w, accountError(err), h.logger)
		return
	}

	h.logger.Info("account created",
		zap.String("id", account.ID.String()),
		zap.String("email", account.Email))

	_ = utils.WriteCreated(w, account)
}

// HandleDelete handles DELETE /api/v1/admin/accounts/{id}
func (h *AccountHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, accountError(err), h.logger)
		return
	}

	h.logger.Info("account deleted", zap.String("id", id.String()))
	utils.WriteNoContent(w)
}

// accountError translates repository errors into domain errors
func accountError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrAccountNotFound):
		return services.WrapError(services.ErrorTypeNotFound, services.ErrAccountNotFound.Message, err)
	case errors.Is(err, repositories.ErrAccountExists):
		return services.WrapError(services.ErrorTypeConflict, services.ErrAccountExists.Message, err)
	default:
		return services.WrapInternal("account store failure", err)
	}
}
