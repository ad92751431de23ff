package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"delivery/internal/pricing"
	"delivery/internal/service"
)

// ExpenseHandler handles HTTP requests for driver expenses.
type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// SubmitExpenseRequest is the HTTP request body for an expense claim.
type SubmitExpenseRequest struct {
	DriverID     string          `json:"driver_id"`
	Type         string          `json:"type"`
	Amount       pricing.Numeric `json:"amount"`
	Description  string          `json:"description"`
	ReceiptImage string          `json:"receipt_image"`
}

// SubmittedExpense is the summary returned after an expense submission.
type SubmittedExpense struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Submit handles POST /v1/expenses
func (h *ExpenseHandler) Submit(c *gin.Context) {
	var req SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	expense, err := h.expenseService.Submit(c.Request.Context(), service.SubmitExpenseRequest{
		DriverID:     req.DriverID,
		Type:         req.Type,
		Amount:       req.Amount,
		Description:  req.Description,
		ReceiptImage: req.ReceiptImage,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"success": true,
		"message": "Expense submitted successfully",
		"expense": SubmittedExpense{
			ID:        expense.ID,
			RequestID: expense.RequestID,
			Status:    string(expense.Status),
			CreatedAt: expense.CreatedAt,
		},
	})
}

// ListByDriver handles GET /v1/drivers/:id/expenses
func (h *ExpenseHandler) ListByDriver(c *gin.Context) {
	expenses, err := h.expenseService.List(c.Request.Context(), c.Param("id"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		data = append(data, toExpenseResponse(e))
	}

	respondJSON(c, http.StatusOK, gin.H{"success": true, "data": data, "count": len(data)})
}
