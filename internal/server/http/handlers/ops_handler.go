package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/server/http/dto"
)

// OpsHandler serves the operator endpoints.
type OpsHandler struct {
	facade OpsFacade
}

// NewOpsHandler constructs OpsHandler.
func NewOpsHandler(facade OpsFacade) *OpsHandler {
	return &OpsHandler{facade: facade}
}

// Health handles GET /healthz.
func (h *OpsHandler) Health(c *gin.Context) {
	if err := h.facade.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// Interventions handles GET /api/ops/interventions.
func (h *OpsHandler) Interventions(c *gin.Context) {
	items, err := h.facade.Interventions(c.Request.Context())
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(items) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.InterventionResponse, 0, len(items))
	for _, i := range items {
		resp = append(resp, dto.InterventionResponse{
			ID:        i.ID,
			Source:    i.Source,
			Subject:   i.Subject,
			Step:      i.Step,
			Reason:    i.Reason,
			CreatedAt: i.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Saga handles GET /api/ops/sagas/:type/:id.
func (h *OpsHandler) Saga(c *gin.Context) {
	record, err := h.facade.Saga(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, dto.SagaResponse{
		Type:      record.Type,
		ID:        record.ID,
		Phase:     record.Phase,
		Ended:     record.Ended,
		State:     record.State,
		UpdatedAt: record.UpdatedAt,
	})
}

// Halts handles GET /api/ops/halts.
func (h *OpsHandler) Halts(c *gin.Context) {
	halts := h.facade.Halts()
	if len(halts) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	resp := make([]dto.HaltResponse, 0, len(halts))
	for _, halt := range halts {
		resp = append(resp, dto.HaltResponse{Subscriber: halt.Subscriber, AggregateID: halt.AggregateID})
	}
	c.JSON(http.StatusOK, resp)
}

// ResumeHalt handles POST /api/ops/halts/:subscriber/:aggregate/resume.
func (h *OpsHandler) ResumeHalt(c *gin.Context) {
	if !h.facade.ResumeHalt(c.Param("subscriber"), c.Param("aggregate")) {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusAccepted)
}

// LoyaltyBank handles GET /api/ops/loyalty-banks/:id.
func (h *OpsHandler) LoyaltyBank(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	bank, err := h.facade.LoyaltyBank(ctx, id)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	if bank.Deleted {
		c.Status(http.StatusNotFound)
		return
	}
	queue, err := h.facade.ExpirationQueue(ctx, id)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	batches := make([]dto.BatchResponse, 0, len(queue))
	for _, b := range queue {
		batches = append(batches, dto.BatchResponse{TransactionID: b.TransactionID, Points: b.Points, CreatedAt: b.CreatedAt})
	}
	c.JSON(http.StatusOK, dto.LoyaltyBankResponse{
		ID:         bank.ID,
		AccountID:  bank.AccountID,
		BusinessID: bank.BusinessID,
		Balances:   bank.Balances,
		Available:  bank.Balances.Available(),
		Deleting:   bank.Deleting,
		Batches:    batches,
	})
}
