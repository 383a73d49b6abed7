package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"brewops/internal/core/apperror"
	"brewops/internal/core/id"
	"brewops/internal/core/numerator"
	"brewops/internal/infrastructure/http/v1/dto"
)

// NumberingService is the subset of numbering.Service the handlers use.
type NumberingService interface {
	numerator.Generator
	GetCounter(ctx context.Context, tenantID string, counterID id.ID) (*numerator.Counter, error)
	ListCounters(ctx context.Context, tenantID string) ([]*numerator.Counter, error)
	UpdateSettings(ctx context.Context, tenantID string, counterID id.ID, patch numerator.SettingsPatch) (*numerator.Counter, error)
	SeedTenant(ctx context.Context, tenantID string) (int, error)
}

// NumberingHandler serves identifier issuing and counter administration.
type NumberingHandler struct {
	*BaseHandler
	service NumberingService
}

// NewNumberingHandler creates a new numbering handler.
func NewNumberingHandler(base *BaseHandler, service NumberingService) *NumberingHandler {
	return &NumberingHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers numbering routes on a tenant-scoped group.
func (h *NumberingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/numbers/:entity", h.NextNumber)

	counters := rg.Group("/counters")
	counters.GET("", h.List)
	counters.POST("/seed", h.Seed)
	counters.GET("/:id", h.Get)
	counters.PATCH("/:id", h.Update)
}

// NextNumber issues the next identifier.
// POST /api/v1/numbers/:entity?subScopeId=...
func (h *NumberingHandler) NextNumber(c *gin.Context) {
	var req dto.NextNumberRequest
	if !h.BindQuery(c, &req) {
		return
	}
	entity := c.Param("entity")

	number, err := h.service.NextNumber(c.Request.Context(), h.GetTenantID(c), entity, req.SubScopeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.NextNumberResponse{
		Number:     number,
		Entity:     entity,
		SubScopeID: req.SubScopeID,
	})
}

// List returns all counters of the tenant.
// GET /api/v1/counters
func (h *NumberingHandler) List(c *gin.Context) {
	counters, err := h.service.ListCounters(c.Request.Context(), h.GetTenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCounters(counters))
}

// Get returns one counter.
// GET /api/v1/counters/:id
func (h *NumberingHandler) Get(c *gin.Context) {
	counterID, ok := h.parseID(c)
	if !ok {
		return
	}

	counter, err := h.service.GetCounter(c.Request.Context(), h.GetTenantID(c), counterID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCounter(counter))
}

// Update changes the formatting settings of a counter.
// PATCH /api/v1/counters/:id
func (h *NumberingHandler) Update(c *gin.Context) {
	counterID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateCounterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if field := req.ReadOnlyField(); field != "" {
		h.Error(c, apperror.NewValidation("field is read-only").WithDetail("field", field))
		return
	}

	counter, err := h.service.UpdateSettings(c.Request.Context(), h.GetTenantID(c), counterID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCounter(counter))
}

// Seed provisions the default counters for the tenant. Safe to repeat.
// POST /api/v1/counters/seed
func (h *NumberingHandler) Seed(c *gin.Context) {
	created, err := h.service.SeedTenant(c.Request.Context(), h.GetTenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SeedResponse{Created: created})
}

func (h *NumberingHandler) parseID(c *gin.Context) (id.ID, bool) {
	raw := c.Param("id")
	counterID, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid counter id").WithDetail("id", raw))
		return id.ID{}, false
	}
	return counterID, true
}
