package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/listing-carts/internal/model"
	"github.com/nurpe/listing-carts/internal/service"
)

func (h *Handler) listServices(c *gin.Context) {
	services, err := h.vendors.ListCatalog(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	out := make([]catalogServiceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, toCatalogServiceResponse(svc))
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

type upsertServiceRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	BasePriceCents  int64  `json:"base_price_cents"`
	SupplierType    string `json:"supplier_type" binding:"required"`
	DefaultSelected bool   `json:"default_selected"`
	Position        int    `json:"position"`
	Active          *bool  `json:"active"`
}

func (h *Handler) upsertService(c *gin.Context) {
	var req upsertServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	svc, err := h.vendors.UpsertCatalogService(c.Request.Context(), model.CatalogService{
		Key:             c.Param("key"),
		Name:            req.Name,
		Description:     req.Description,
		BasePriceCents:  req.BasePriceCents,
		SupplierType:    req.SupplierType,
		DefaultSelected: req.DefaultSelected,
		Position:        req.Position,
		Active:          active,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCatalogServiceResponse(*svc))
}

func (h *Handler) listServiceVendors(c *gin.Context) {
	rows, err := h.vendors.ListServiceVendors(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": toServiceVendorResponses(rows)})
}

type linkVendorRequest struct {
	VendorID   string `json:"vendor_id" binding:"required"`
	QuoteCents int64  `json:"quote_cents"`
	Priority   *int   `json:"priority"`
}

func (h *Handler) linkVendor(c *gin.Context) {
	var req linkVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vendorID, err := uuid.Parse(strings.TrimSpace(req.VendorID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor_id"})
		return
	}

	_, err = h.vendors.LinkVendor(c.Request.Context(), service.LinkVendorInput{
		ServiceKey: c.Param("key"),
		VendorID:   vendorID,
		QuoteCents: req.QuoteCents,
		Priority:   req.Priority,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.listServiceVendors(c)
}

type reorderVendorsRequest struct {
	VendorIDs []string `json:"vendor_ids" binding:"required"`
}

func (h *Handler) reorderVendors(c *gin.Context) {
	var req reorderVendorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids := make([]uuid.UUID, 0, len(req.VendorIDs))
	for _, raw := range req.VendorIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor id " + raw})
			return
		}
		ids = append(ids, id)
	}

	if _, err := h.vendors.ReorderVendors(c.Request.Context(), c.Param("key"), ids); err != nil {
		h.handleError(c, err)
		return
	}
	h.listServiceVendors(c)
}

type createVendorRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Phone        string `json:"phone"`
	SupplierType string `json:"supplier_type" binding:"required"`
}

func (h *Handler) createVendor(c *gin.Context) {
	var req createVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	vendor, err := h.vendors.CreateVendor(c.Request.Context(), service.CreateVendorInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		SupplierType: req.SupplierType,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toVendorResponse(vendor))
}

func (h *Handler) getSettings(c *gin.Context) {
	agentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	settings, err := h.settings.Get(c.Request.Context(), agentID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(settings))
}

type updateSettingsRequest struct {
	CommissionPercent *decimal.Decimal `json:"commission_percent" binding:"required"`
	AutoApply         *bool            `json:"auto_apply"`
}

func (h *Handler) updateSettings(c *gin.Context) {
	agentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	autoApply := true
	if req.AutoApply != nil {
		autoApply = *req.AutoApply
	}

	settings, err := h.settings.Update(c.Request.Context(), agentID, *req.CommissionPercent, autoApply)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(settings))
}

type marginReportRequest struct {
	AgentID     string `json:"agent_id"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func (h *Handler) marginReport(c *gin.Context) {
	var req marginReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var agentID uuid.UUID
	if raw := strings.TrimSpace(req.AgentID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent_id"})
			return
		}
		agentID = parsed
	} else {
		principal, _ := resolveAgent(c, nil)
		agentID = principal.AgentID
	}

	start, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	result, err := h.reports.MarginReport(c.Request.Context(), service.MarginReportInput{
		AgentID:     agentID,
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}
