package handler

import (
	"net/http"
	"strconv"

	"realestate_crm_backend/internal/leads/service"
	"realestate_crm_backend/internal/leads/transport"
	"realestate_crm_backend/platform/httpkit"
	"realestate_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Search)
	rg.POST("", h.Create)
	rg.GET("/stats/dashboard", h.Stats)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/contact", h.RecordContact)
	rg.POST("/:id/rescore", h.Rescore)
	rg.GET("/:id/activity", h.ListActivity)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req, agentID, teamID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.Created(c, lead)
}

func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	result, err := h.svc.Search(c.Request.Context(), req, agentID, teamID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), id, agentID, teamID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	lead, err := h.svc.Update(c.Request.Context(), id, req, agentID, teamID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := validator.Validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	patch := transport.UpdateLeadRequest{
		Status:          &req.Status,
		ConversionValue: req.ConversionValue,
	}
	lead, err := h.svc.Update(c.Request.Context(), id, patch, agentID, teamID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) RecordContact(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// Body is optional; an empty POST records a bare contact touch.
	var req transport.RecordContactRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}

	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	lead, err := h.svc.RecordContact(c.Request.Context(), id, req, agentID, teamID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) Rescore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	lead, err := h.svc.Rescore(c.Request.Context(), id, agentID, teamID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, lead)
}

func (h *Handler) ListActivity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	items, err := h.svc.ListActivity(c.Request.Context(), id, agentID, teamID, limit)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, items)
}

func (h *Handler) Stats(c *gin.Context) {
	agentID, teamID, ok := identity(c)
	if !ok {
		return
	}

	stats, err := h.svc.Stats(c.Request.Context(), agentID, teamID)
	if err != nil {
		httpkit.DomainError(c, err)
		return
	}

	httpkit.OK(c, stats)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func identity(c *gin.Context) (uuid.UUID, *uuid.UUID, bool) {
	agentID, ok := httpkit.AgentID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing authenticated agent", nil)
		return uuid.Nil, nil, false
	}
	return agentID, httpkit.TeamID(c), true
}
