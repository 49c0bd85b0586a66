package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"order-backend/internal/domain"
	"order-backend/internal/feed"
	"order-backend/internal/repository"
	"order-backend/internal/services"
)

type Handler struct {
	service *services.OrderService
	bus     *feed.Broadcaster
}

func NewHandler(u *services.OrderService, bus *feed.Broadcaster) *Handler {
	return &Handler{service: u, bus: bus}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/stream", h.StreamOrders)
	r.GET("/orders/:orderID", h.GetOrder)
	r.PUT("/orders/:orderID", h.UpdateOrder)
	r.PUT("/orders/:orderID/status", h.UpdateStatus)
	r.PATCH("/orders/:orderID/items/:itemID/quantity", h.AdjustQuantity)
	r.PATCH("/products/:productID/stock", h.AdjustStock)
	r.DELETE("/orders", h.DeleteOrders)
}

func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(services.DefaultPageSize)))

	q := repository.OrderQuery{
		Page:       page,
		PageSize:   pageSize,
		Search:     c.Query("searchQuery"),
		FilterKey:  c.Query("filterKey"),
		SortAscend: strings.EqualFold(c.Query("sort"), "asc"),
	}

	result, err := h.service.ListOrders(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := parseID(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderID is required"})
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder currently carries one mutation: the verification toggle,
// selected by ?updateVerification=true with the body listing the per-product
// quantities to reconcile against stock.
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, err := parseID(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderID is required"})
		return
	}
	if c.Query("updateVerification") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported update"})
		return
	}

	var items []domain.ItemQuantity
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.ToggleVerification(c.Request.Context(), id, items)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound), errors.Is(err, repository.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrVerificationConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := parseID(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderID is required"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order status updated"})
}

func (h *Handler) AdjustQuantity(c *gin.Context) {
	orderID, err := parseID(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderID is required"})
		return
	}
	itemID, err := parseID(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemID is required"})
		return
	}

	var req AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.AdjustItemQuantity(c.Request.Context(), orderID, itemID, req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrLineItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdjustStock is the restock/correction endpoint for a single product.
func (h *Handler) AdjustStock(c *gin.Context) {
	productID, err := parseID(c.Param("productID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productID is required"})
		return
	}

	var req AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.AdjustProductStock(c.Request.Context(), productID, req.Delta); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientStock):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stock updated"})
}

func (h *Handler) DeleteOrders(c *gin.Context) {
	ids, err := parseDeleteIDs(c.Query("orderId"), c.Query("orderIds"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, names, err := h.service.DeleteOrders(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete orders"})
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, DeleteOrdersResponse{Deleted: deleted, Customers: names})
}

func parseID(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}

func parseDeleteIDs(single, multi string) ([]uint64, error) {
	var raw []string
	switch {
	case single != "":
		raw = []string{single}
	case multi != "":
		raw = strings.Split(multi, ",")
	default:
		return nil, errors.New("orderId or orderIds is required")
	}

	ids := make([]uint64, 0, len(raw))
	for _, s := range raw {
		id, err := parseID(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.New("malformed order id: " + s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
