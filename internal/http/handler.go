package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/listing-carts/internal/http/middleware"
	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/notification"
	"github.com/nurpe/listing-carts/internal/service"
)

type Handler struct {
	carts    *service.CartService
	vendors  *service.VendorService
	settings *service.SettingsService
	reports  *service.ReportService
	composer *notification.Composer
	log      zerolog.Logger
}

func NewHandler(
	carts *service.CartService,
	vendors *service.VendorService,
	settings *service.SettingsService,
	reports *service.ReportService,
	composer *notification.Composer,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		carts:    carts,
		vendors:  vendors,
		settings: settings,
		reports:  reports,
		composer: composer,
		log:      log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	owner := router.Group("/owner/carts")
	owner.GET("/:token", h.getOwnerCart)
	owner.POST("/:token/approve", h.approveCart)

	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/carts", h.createCart)
	protected.GET("/carts", h.listCarts)
	protected.GET("/carts/:id", h.getCart)
	protected.PATCH("/carts/:id", h.updateCart)
	protected.GET("/carts/:id/messages", h.listMessages)
	protected.GET("/carts/:id/invoice.pdf", h.invoicePDF)
	protected.POST("/carts/:id/send", h.sendCart)
	protected.POST("/carts/:id/invoice", h.markInvoiceSent)
	protected.POST("/carts/:id/paid", h.markPaid)

	items := protected.Group("/carts/:id/items/:key")
	items.PUT("/selection", h.setSelection)
	items.PUT("/note", h.setNote)
	items.PUT("/vendor", h.assignVendor)
	items.POST("/advance", h.advanceItem)
	items.POST("/reset", h.resetItem)
	items.POST("/cycle", h.cycleItem)

	protected.GET("/services", h.listServices)
	protected.PUT("/services/:key", h.upsertService)
	protected.GET("/services/:key/vendors", h.listServiceVendors)
	protected.POST("/services/:key/vendors", h.linkVendor)
	protected.PUT("/services/:key/vendors/order", h.reorderVendors)
	protected.POST("/vendors", h.createVendor)

	protected.GET("/agents/:id/settings", h.getSettings)
	protected.PUT("/agents/:id/settings", h.updateSettings)
	protected.POST("/reports/margin", h.marginReport)
}

type agentRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createCartRequest struct {
	PropertyAddress string        `json:"property_address" binding:"required"`
	OwnerName       string        `json:"owner_name" binding:"required"`
	OwnerEmail      *string       `json:"owner_email"`
	OwnerPhone      *string       `json:"owner_phone"`
	PaymentTiming   string        `json:"payment_timing"`
	PaymentMethod   string        `json:"payment_method"`
	Agent           *agentRequest `json:"agent"`
}

func (h *Handler) createCart(c *gin.Context) {
	var req createCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agent, ok := resolveAgent(c, req.Agent)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent is required"})
		return
	}

	cart, err := h.carts.CreateCart(c.Request.Context(), service.CreateCartInput{
		Agent:           agent,
		PropertyAddress: req.PropertyAddress,
		OwnerName:       req.OwnerName,
		OwnerEmail:      req.OwnerEmail,
		OwnerPhone:      req.OwnerPhone,
		PaymentTiming:   model.PaymentTiming(strings.ToUpper(strings.TrimSpace(req.PaymentTiming))),
		PaymentMethod:   model.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod))),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusCreated, cart)
}

func (h *Handler) listCarts(c *gin.Context) {
	agentID, ok := agentFromQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent_id is required"})
		return
	}

	var status *model.CartStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		s := model.CartStatus(strings.ToUpper(raw))
		status = &s
	}

	carts, err := h.carts.ListCarts(c.Request.Context(), agentID, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"carts": toCartSummaries(carts)})
}

func (h *Handler) getCart(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cart, err := h.carts.GetCart(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

type updateCartRequest struct {
	PropertyAddress *string `json:"property_address"`
	OwnerName       *string `json:"owner_name"`
	OwnerEmail      *string `json:"owner_email"`
	OwnerPhone      *string `json:"owner_phone"`
	PaymentTiming   *string `json:"payment_timing"`
	PaymentMethod   *string `json:"payment_method"`
}

func (h *Handler) updateCart(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateCartDetailsInput{
		PropertyAddress: req.PropertyAddress,
		OwnerName:       req.OwnerName,
		OwnerEmail:      req.OwnerEmail,
		OwnerPhone:      req.OwnerPhone,
	}
	if req.PaymentTiming != nil {
		timing := model.PaymentTiming(strings.ToUpper(strings.TrimSpace(*req.PaymentTiming)))
		input.PaymentTiming = &timing
	}
	if req.PaymentMethod != nil {
		method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(*req.PaymentMethod)))
		input.PaymentMethod = &method
	}

	cart, err := h.carts.UpdateCartDetails(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *Handler) listMessages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	messages, err := h.carts.ListMessages(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": toMessageResponses(messages)})
}

func (h *Handler) invoicePDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.reports.InvoicePDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

type sendCartRequest struct {
	CommunicationMode string `json:"communication_mode"`
}

func (h *Handler) sendCart(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req sendCartRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := model.CommunicationMode(strings.ToUpper(strings.TrimSpace(req.CommunicationMode)))
	if mode == "" {
		mode = model.CommunicationReviewAndApprove
	}
	cart, err := h.carts.SendToProviders(c.Request.Context(), id, mode)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *Handler) markInvoiceSent(c *gin.Context) {
	h.cartAction(c, h.carts.MarkInvoiceSent)
}

func (h *Handler) markPaid(c *gin.Context) {
	h.cartAction(c, h.carts.MarkPaid)
}

type selectionRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

func (h *Handler) setSelection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.carts.SetItemSelection(c.Request.Context(), id, c.Param("key"), *req.Selected)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) setNote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.carts.SetItemNote(c.Request.Context(), id, c.Param("key"), req.Note)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

type assignVendorRequest struct {
	VendorID *string `json:"vendor_id"`
}

func (h *Handler) assignVendor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req assignVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var vendorID *uuid.UUID
	if req.VendorID != nil && strings.TrimSpace(*req.VendorID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*req.VendorID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor_id"})
			return
		}
		vendorID = &parsed
	}

	cart, err := h.carts.AssignVendor(c.Request.Context(), id, c.Param("key"), vendorID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *Handler) advanceItem(c *gin.Context) {
	h.itemAction(c, h.carts.AdvanceItem)
}

func (h *Handler) resetItem(c *gin.Context) {
	h.itemAction(c, h.carts.ResetItem)
}

func (h *Handler) cycleItem(c *gin.Context) {
	h.itemAction(c, h.carts.CycleItem)
}

func (h *Handler) getOwnerCart(c *gin.Context) {
	cart, err := h.carts.GetCartByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondOwnerCart(c, cart)
}

type approveRequest struct {
	ServiceKeys []string `json:"service_keys" binding:"required"`
}

func (h *Handler) approveCart(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cart, err := h.carts.ApproveCart(c.Request.Context(), c.Param("token"), req.ServiceKeys)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondOwnerCart(c, cart)
}

type cartOperation func(ctx context.Context, id uuid.UUID) (*model.Cart, error)

func (h *Handler) cartAction(c *gin.Context, op cartOperation) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cart, err := op(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

type itemOperation func(ctx context.Context, id uuid.UUID, serviceKey string) (*model.Cart, error)

func (h *Handler) itemAction(c *gin.Context, op itemOperation) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cart, err := op(c.Request.Context(), id, c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *Handler) respondCart(c *gin.Context, status int, cart *model.Cart) {
	vendors, err := h.carts.Vendors(c.Request.Context(), cart)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(status, toCartResponse(cart, vendors, h.composer.ReviewURL(cart.AccessToken)))
}

func (h *Handler) respondOwnerCart(c *gin.Context, cart *model.Cart) {
	vendors, err := h.carts.Vendors(c.Request.Context(), cart)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(cart, vendors, ""))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	switch kind {
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": kind})
	case service.KindInvalidState:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": kind})
	case service.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": kind})
	case service.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": kind, "retryable": true})
	default:
		h.log.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": service.KindInternal})
	}
}

// resolveAgent prefers the authenticated principal and falls back to the agent
// named in the request body.
func resolveAgent(c *gin.Context, body *agentRequest) (model.Principal, bool) {
	principal, authenticated := middleware.PrincipalFrom(c)
	if body != nil {
		if !authenticated {
			id, err := uuid.Parse(strings.TrimSpace(body.ID))
			if err != nil {
				return model.Principal{}, false
			}
			principal.AgentID = id
		}
		if principal.Name == "" {
			principal.Name = strings.TrimSpace(body.Name)
		}
		if principal.Email == "" {
			principal.Email = strings.TrimSpace(body.Email)
		}
	}
	return principal, !principal.IsAnonymous()
}

func agentFromQuery(c *gin.Context) (uuid.UUID, bool) {
	if raw := strings.TrimSpace(c.Query("agent_id")); raw != "" {
		id, err := uuid.Parse(raw)
		return id, err == nil
	}
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return uuid.Nil, false
	}
	return principal.AgentID, true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(param)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		dateLayout,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
