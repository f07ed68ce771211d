/**
 * @description
 * This file contains the HTTP handlers for the administrative review API.
 * Admins list transactions flagged as suspicious and resolve each one: mark
 * it normal (re-executing the held transfer) or mark it fraud (terminal, no
 * money moves).
 */

package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SuspiciousTransactionsHandler lists transactions pending manual review.
func (h *TransferHandlers) SuspiciousTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.SuspiciousTransactions(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=suspicious_transactions outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch suspicious transactions")
		return
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// FraudTransactionsHandler lists transactions terminally labeled as fraud.
func (h *TransferHandlers) FraudTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.service.FraudTransactions(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=fraud_transactions outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to fetch fraud transactions")
		return
	}
	h.writeJSON(w, http.StatusOK, transactions)
}

// MarkNormalHandler clears a suspicious transaction: the held transfer is
// re-executed with the stored legs and the suspicious record is removed.
func (h *TransferHandlers) MarkNormalHandler(w http.ResponseWriter, r *http.Request) {
	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	cleared, err := h.service.MarkNormal(r.Context(), transactionID)
	if err != nil {
		log.Printf("level=error component=api endpoint=mark_normal outcome=failed transaction_id=%s err=%v", transactionID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to mark transaction as normal")
		return
	}
	if !cleared {
		h.writeError(w, http.StatusConflict, "Transaction is not suspicious or could not be settled")
		return
	}

	log.Printf("level=info component=api endpoint=mark_normal outcome=cleared transaction_id=%s", transactionID)
	h.writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// MarkFraudHandler terminally labels a suspicious transaction as fraud.
func (h *TransferHandlers) MarkFraudHandler(w http.ResponseWriter, r *http.Request) {
	transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	marked, err := h.service.MarkFraud(r.Context(), transactionID)
	if err != nil {
		log.Printf("level=error component=api endpoint=mark_fraud outcome=failed transaction_id=%s err=%v", transactionID, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to mark transaction as fraud")
		return
	}
	if !marked {
		h.writeError(w, http.StatusConflict, "Transaction is not suspicious")
		return
	}

	log.Printf("level=info component=api endpoint=mark_fraud outcome=marked transaction_id=%s", transactionID)
	h.writeJSON(w, http.StatusOK, map[string]bool{"marked": true})
}
