package handler

import (
	"net/http"

	"propshop/internal/apierror"
	"propshop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DeliveriesHandler struct{ svc service.DeliveryService }

func NewDeliveriesHandler(svc service.DeliveryService) *DeliveriesHandler {
	return &DeliveriesHandler{svc: svc}
}

func (h *DeliveriesHandler) List(c *gin.Context) {
	deliveries, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": deliveries})
}

// Get looks up one delivery by its order id.
func (h *DeliveriesHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reconcile triggers a manual backfill of missing delivery records.
func (h *DeliveriesHandler) Reconcile(c *gin.Context) {
	resp, err := h.svc.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
