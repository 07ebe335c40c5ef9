package handler

import (
	"time"

	"termyx/internal/account/models"
	"termyx/internal/credits/service"
)

type TransactionResponse struct {
	ID           string    `json:"id"`
	Amount       int       `json:"amount"`
	Type         string    `json:"type"`
	Description  string    `json:"description,omitempty"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreditsResponse struct {
	service.Balance
	Transactions []TransactionResponse `json:"transactions"`
}

type GrantResponse struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
}

func toCreditsResponse(o *service.Overview) *CreditsResponse {
	txs := make([]TransactionResponse, 0, len(o.Transactions))
	for _, tx := range o.Transactions {
		txs = append(txs, toTransactionResponse(tx))
	}
	return &CreditsResponse{Balance: o.Balance, Transactions: txs}
}

func toTransactionResponse(tx *models.CreditTransaction) TransactionResponse {
	return TransactionResponse{
		ID:           tx.ID.String(),
		Amount:       tx.Amount,
		Type:         tx.Type.String(),
		Description:  tx.Description,
		BalanceAfter: tx.BalanceAfter,
		CreatedAt:    tx.CreatedAt,
	}
}
