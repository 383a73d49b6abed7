// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"brewops/internal/core/numerator"
)

// --- Request DTOs ---

// NextNumberRequest carries the optional query parameters of POST /numbers/:entity.
type NextNumberRequest struct {
	SubScopeID string `form:"subScopeId"`
}

// UpdateCounterRequest is the request body for PATCH /counters/:id.
// Omitted fields keep their current value.
type UpdateCounterRequest struct {
	Prefix      *string `json:"prefix"`
	Separator   *string `json:"separator"`
	IncludeYear *bool   `json:"includeYear"`
	Padding     *int    `json:"padding"`
	ResetYearly *bool   `json:"resetYearly"`

	// Read-only fields. Present only so that attempts to change them are rejected.
	CurrentNumber *int64  `json:"currentNumber"`
	Entity        *string `json:"entity"`
	SubScopeID    *string `json:"subScopeId"`
	TenantID      *string `json:"tenantId"`
}

// ReadOnlyField returns the name of the first read-only field set in the request, or "".
func (r *UpdateCounterRequest) ReadOnlyField() string {
	switch {
	case r.CurrentNumber != nil:
		return "currentNumber"
	case r.Entity != nil:
		return "entity"
	case r.SubScopeID != nil:
		return "subScopeId"
	case r.TenantID != nil:
		return "tenantId"
	}
	return ""
}

// ToPatch converts the request to a settings patch.
func (r *UpdateCounterRequest) ToPatch() numerator.SettingsPatch {
	return numerator.SettingsPatch{
		Prefix:      r.Prefix,
		Separator:   r.Separator,
		IncludeYear: r.IncludeYear,
		Padding:     r.Padding,
		ResetYearly: r.ResetYearly,
	}
}

// --- Response DTOs ---

// NextNumberResponse is the response body for an issued identifier.
type NextNumberResponse struct {
	Number     string `json:"number"`
	Entity     string `json:"entity"`
	SubScopeID string `json:"subScopeId,omitempty"`
}

// CounterResponse is the response body for a counter definition.
type CounterResponse struct {
	ID            string     `json:"id"`
	Entity        string     `json:"entity"`
	SubScopeID    *string    `json:"subScopeId,omitempty"`
	Prefix        string     `json:"prefix"`
	Separator     string     `json:"separator"`
	IncludeYear   bool       `json:"includeYear"`
	Padding       int        `json:"padding"`
	ResetYearly   bool       `json:"resetYearly"`
	CurrentNumber int64      `json:"currentNumber"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// FromCounter converts a counter to its response DTO.
func FromCounter(c *numerator.Counter) CounterResponse {
	return CounterResponse{
		ID:            c.ID.String(),
		Entity:        c.Entity,
		SubScopeID:    c.SubScopeID,
		Prefix:        c.Prefix,
		Separator:     c.Separator,
		IncludeYear:   c.IncludeYear,
		Padding:       c.Padding,
		ResetYearly:   c.ResetYearly,
		CurrentNumber: c.CurrentNumber,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// CounterListResponse wraps the counters of a tenant.
type CounterListResponse struct {
	Items      []CounterResponse `json:"items"`
	TotalCount int               `json:"totalCount"`
}

// FromCounters converts a list of counters.
func FromCounters(counters []*numerator.Counter) CounterListResponse {
	items := make([]CounterResponse, 0, len(counters))
	for _, c := range counters {
		items = append(items, FromCounter(c))
	}
	return CounterListResponse{Items: items, TotalCount: len(items)}
}

// SeedResponse reports the result of seeding default counters.
type SeedResponse struct {
	Created int `json:"created"`
}
