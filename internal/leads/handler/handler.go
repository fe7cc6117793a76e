// Package handler exposes the leads module over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/internal/leads/service"
	"chatlead_backend/internal/leads/transport"
	"chatlead_backend/platform/httpkit"
	"chatlead_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler holds the HTTP handlers for the leads module.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates the leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the leads routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/qualify", h.Qualify)
	rg.POST("/analyze", h.Analyze)
	rg.POST("/bulk-analyze", h.BulkAnalyze)
	rg.GET("", h.List)
	rg.GET("/stats", h.Stats)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/audit", h.AuditTrail)
	rg.GET("/:id/crm", h.CRMExport)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

// Qualify runs one qualification pass over a conversation.
func (h *Handler) Qualify(c *gin.Context) {
	var req transport.QualifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	outcome, err := h.svc.Qualify(c.Request.Context(), req.ToInput(tenantID))
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if outcome.Created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, outcome)
}

// Analyze scores a conversation without persisting anything.
func (h *Handler) Analyze(c *gin.Context) {
	var req transport.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Analyze(c.Request.Context(), req.ToInput())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// BulkAnalyze analyzes up to 50 conversations in one call.
func (h *Handler) BulkAnalyze(c *gin.Context) {
	var req transport.BulkAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	inputs := make([]service.AnalyzeInput, 0, len(req.Conversations))
	for _, conversation := range req.Conversations {
		inputs = append(inputs, conversation.ToInput())
	}

	items, err := h.svc.BulkAnalyze(c.Request.Context(), inputs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"results": items})
}

// List returns leads for the caller's tenant with optional filters.
func (h *Handler) List(c *gin.Context) {
	var query transport.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	leads, err := h.svc.List(c.Request.Context(), tenantID, query.ToFilter())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"leads": leads, "count": len(leads)})
}

// Stats aggregates qualification outcomes for the caller's tenant.
func (h *Handler) Stats(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

// GetByID returns a single lead.
func (h *Handler) GetByID(c *gin.Context) {
	tenantID, leadID, ok := tenantAndLead(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// AuditTrail returns the audit history of a lead.
func (h *Handler) AuditTrail(c *gin.Context) {
	tenantID, leadID, ok := tenantAndLead(c)
	if !ok {
		return
	}

	entries, err := h.svc.AuditTrail(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"entries": entries})
}

// CRMExport returns the flattened CRM projection of a lead.
func (h *Handler) CRMExport(c *gin.Context) {
	tenantID, leadID, ok := tenantAndLead(c)
	if !ok {
		return
	}

	crm, err := h.svc.CRMExport(c.Request.Context(), tenantID, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, crm)
}

// UpdateStatus moves a lead to a new lifecycle status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	tenantID, leadID, ok := tenantAndLead(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), tenantID, leadID, domain.LeadStatus(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func tenantFrom(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(httpkit.ContextTenantIDKey)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant scope", nil)
		return uuid.Nil, false
	}
	tenantID, ok := value.(uuid.UUID)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant scope", nil)
		return uuid.Nil, false
	}
	return tenantID, true
}

func tenantAndLead(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, leadID, true
}
