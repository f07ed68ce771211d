/**
 * @description
 * This file contains the HTTP handlers for the transfer-service's customer API.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: Service logic, models, errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pulsebank/transfer-service/internal/app"
	"github.com/pulsebank/transfer-service/internal/domain"
	"github.com/pulsebank/transfer-service/internal/store"
	"github.com/shopspring/decimal"
)

// TransferHandlers holds the application service that handlers will use.
type TransferHandlers struct {
	service *app.Service
}

// NewTransferHandlers creates a new instance of TransferHandlers.
func NewTransferHandlers(service *app.Service) *TransferHandlers {
	return &TransferHandlers{service: service}
}

// transferResponse mirrors the result the mobile and web clients expect: a
// boolean outcome plus a human-readable message, with the ledger id when a
// record was created.
type transferResponse struct {
	Status        bool    `json:"status"`
	Message       string  `json:"message"`
	TransactionID *string `json:"transaction_id,omitempty"`
}

func buildTransferResponse(result domain.TransferResult) transferResponse {
	resp := transferResponse{Status: result.Status, Message: result.Message}
	if result.TransactionID != nil {
		id := result.TransactionID.String()
		resp.TransactionID = &id
	}
	return resp
}

type addBeneficiaryRequest struct {
	Name          string          `json:"name"`
	AccountNumber string          `json:"account_number"`
	IFSCCode      string          `json:"ifsc_code"`
	TransferLimit decimal.Decimal `json:"transfer_limit"`
}

type updateLimitRequest struct {
	TransferLimit decimal.Decimal `json:"transfer_limit"`
}

// TransferHandler handles requests to move money to a beneficiary.
func (h *TransferHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	bank, _ := GetUserBank(r.Context())

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=transfer outcome=reject reason=invalid_json err=%v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	req.SenderUserID = userID
	req.SenderBank = bank

	result, err := h.service.Execute(r.Context(), req)
	if err != nil {
		log.Printf("level=error component=api endpoint=transfer outcome=failed sender_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !result.Status {
		log.Printf("level=info component=api endpoint=transfer outcome=reject sender_id=%s reason=%q", userID, result.Message)
		h.writeJSON(w, http.StatusUnprocessableEntity, buildTransferResponse(result))
		return
	}
	h.writeJSON(w, http.StatusOK, buildTransferResponse(result))
}

// TransactionsHandler lists the caller's completed transactions, newest first.
func (h *TransferHandlers) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	summaries, err := h.service.TransactionsForUser(r.Context(), userID)
	if err != nil {
		log.Printf("level=error component=api endpoint=transactions outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch transactions")
		return
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

// ListBeneficiariesHandler lists the caller's beneficiaries. With
// ?eligible=true only beneficiaries past the cooling window are returned,
// which is the set a transfer may target. ?same_bank=false lists the
// beneficiaries held at other banks.
func (h *TransferHandlers) ListBeneficiariesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	bank, _ := GetUserBank(r.Context())

	sameBank := r.URL.Query().Get("same_bank") != "false"
	eligibleOnly := r.URL.Query().Get("eligible") == "true"

	var (
		beneficiaries []domain.Beneficiary
		err           error
	)
	if eligibleOnly {
		beneficiaries, err = h.service.EligibleBeneficiaries(r.Context(), userID, bank, sameBank)
	} else {
		beneficiaries, err = h.service.ListBeneficiaries(r.Context(), userID, bank, sameBank)
	}
	if err != nil {
		log.Printf("level=error component=api endpoint=list_beneficiaries outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch beneficiaries")
		return
	}
	h.writeJSON(w, http.StatusOK, beneficiaries)
}

// AddBeneficiaryHandler registers a new transfer target for the caller.
func (h *TransferHandlers) AddBeneficiaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}
	bank, _ := GetUserBank(r.Context())

	var req addBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=add_beneficiary outcome=reject reason=invalid_json err=%v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.AccountNumber == "" || req.IFSCCode == "" {
		h.writeError(w, http.StatusBadRequest, "name, account_number and ifsc_code are required")
		return
	}
	if req.TransferLimit.Sign() <= 0 {
		h.writeError(w, http.StatusBadRequest, "transfer_limit must be positive")
		return
	}

	beneficiary, err := h.service.AddBeneficiary(r.Context(), userID, bank, req.AccountNumber, req.IFSCCode, req.Name, req.TransferLimit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrBeneficiaryExists):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, app.ErrBeneficiaryAccountMissing), errors.Is(err, app.ErrIFSCMismatch), errors.Is(err, app.ErrSelfBeneficiary):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("level=error component=api endpoint=add_beneficiary outcome=failed user_id=%s err=%v", userID, err)
			h.writeError(w, http.StatusInternalServerError, "Unable to add beneficiary")
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, beneficiary)
}

// UpdateBeneficiaryLimitHandler changes the per-transfer limit of one of the
// caller's beneficiaries. The change restarts the cooling window.
func (h *TransferHandlers) UpdateBeneficiaryLimitHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	beneficiaryID, err := uuid.Parse(chi.URLParam(r, "beneficiaryID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid beneficiary ID")
		return
	}

	var req updateLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.TransferLimit.Sign() <= 0 {
		h.writeError(w, http.StatusBadRequest, "transfer_limit must be positive")
		return
	}

	beneficiary, err := h.service.UpdateBeneficiaryLimit(r.Context(), userID, beneficiaryID, req.TransferLimit)
	if err != nil {
		if errors.Is(err, store.ErrBeneficiaryNotFound) {
			h.writeError(w, http.StatusNotFound, "Beneficiary not found")
			return
		}
		log.Printf("level=error component=api endpoint=update_beneficiary_limit outcome=failed user_id=%s beneficiary_id=%s err=%v", userID, beneficiaryID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to update beneficiary")
		return
	}
	h.writeJSON(w, http.StatusOK, beneficiary)
}

// DeleteBeneficiaryHandler removes one of the caller's beneficiaries.
func (h *TransferHandlers) DeleteBeneficiaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		http.Error(w, "Could not get user ID from context", http.StatusInternalServerError)
		return
	}

	beneficiaryID, err := uuid.Parse(chi.URLParam(r, "beneficiaryID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid beneficiary ID")
		return
	}

	if err := h.service.DeleteBeneficiary(r.Context(), userID, beneficiaryID); err != nil {
		if errors.Is(err, store.ErrBeneficiaryNotFound) {
			h.writeError(w, http.StatusNotFound, "Beneficiary not found")
			return
		}
		log.Printf("level=error component=api endpoint=delete_beneficiary outcome=failed user_id=%s beneficiary_id=%s err=%v", userID, beneficiaryID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to delete beneficiary")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON is a helper for writing JSON responses.
func (h *TransferHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *TransferHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
