package transport

import (
	"time"

	"realestate_crm_backend/internal/leads/scoring"

	"github.com/google/uuid"
)

// Enum values
type Urgency string

const (
	UrgencyUrgent Urgency = "urgent"
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

type LeadSource string

const (
	LeadSourceWebsite       LeadSource = "website"
	LeadSourceReferral      LeadSource = "referral"
	LeadSourceSocial        LeadSource = "social"
	LeadSourceWalkIn        LeadSource = "walk_in"
	LeadSourceAdvertisement LeadSource = "advertisement"
	LeadSourceManual        LeadSource = "manual"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// Request DTOs

type CreateLeadRequest struct {
	Name                   string     `json:"name" validate:"required,min=1,max=200"`
	Email                  string     `json:"email" validate:"required,email"`
	Phone                  string     `json:"phone" validate:"required,min=5,max=20"`
	Budget                 *float64   `json:"budget,omitempty" validate:"omitempty,gt=0"`
	PropertyTypePreference *string    `json:"propertyTypePreference,omitempty" validate:"omitempty,max=100"`
	LocationPreference     *string    `json:"locationPreference,omitempty" validate:"omitempty,max=200"`
	Timeline               *string    `json:"timeline,omitempty" validate:"omitempty,max=100"`
	Urgency                Urgency    `json:"urgency" validate:"required,oneof=urgent high medium low"`
	Source                 LeadSource `json:"source" validate:"required,oneof=website referral social walk_in advertisement manual"`
	AssignedAgentID        *uuid.UUID `json:"assignedAgentId,omitempty" validate:"-"`
}

type UpdateLeadRequest struct {
	Name                   *string     `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email                  *string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone                  *string     `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Budget                 *float64    `json:"budget,omitempty" validate:"omitempty,gt=0"`
	PropertyTypePreference *string     `json:"propertyTypePreference,omitempty" validate:"omitempty,max=100"`
	LocationPreference     *string     `json:"locationPreference,omitempty" validate:"omitempty,max=200"`
	Timeline               *string     `json:"timeline,omitempty" validate:"omitempty,max=100"`
	Urgency                *Urgency    `json:"urgency,omitempty" validate:"omitempty,oneof=urgent high medium low"`
	Status                 *LeadStatus `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified converted lost"`
	AssignedAgentID        *uuid.UUID  `json:"assignedAgentId,omitempty" validate:"-"`
	ConversionValue        *float64    `json:"conversionValue,omitempty" validate:"omitempty,gte=0"`
	LastContactDate        *time.Time  `json:"lastContactDate,omitempty" validate:"-"`
}

type UpdateLeadStatusRequest struct {
	Status LeadStatus `json:"status" validate:"required,oneof=new contacted qualified converted lost"`
	// ConversionValue accompanies a move to converted.
	ConversionValue *float64 `json:"conversionValue,omitempty" validate:"omitempty,gt=0"`
}

type RecordContactRequest struct {
	Note string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// SearchLeadsRequest is bound from query parameters.
type SearchLeadsRequest struct {
	Status          *LeadStatus `form:"status" validate:"omitempty,oneof=new contacted qualified converted lost"`
	Urgency         *Urgency    `form:"urgency" validate:"omitempty,oneof=urgent high medium low"`
	Source          *LeadSource `form:"source" validate:"omitempty,oneof=website referral social walk_in advertisement manual"`
	AssignedAgentID *uuid.UUID  `form:"assignedAgentId" validate:"-"`
	MinBudget       *float64    `form:"minBudget" validate:"omitempty,gte=0"`
	MaxBudget       *float64    `form:"maxBudget" validate:"omitempty,gte=0"`
	MinScore        *int        `form:"minScore" validate:"omitempty,gte=0,lte=100"`
	MaxScore        *int        `form:"maxScore" validate:"omitempty,gte=0,lte=100"`
	CreatedFrom     *time.Time  `form:"createdFrom" time_format:"2006-01-02" validate:"-"`
	CreatedTo       *time.Time  `form:"createdTo" time_format:"2006-01-02" validate:"-"`
	Search          string      `form:"search" validate:"omitempty,max=200"`
	Page            int         `form:"page" validate:"omitempty,gte=1"`
	PerPage         int         `form:"perPage" validate:"omitempty,gte=1,lte=100"`
}

// Response DTOs

type LeadResponse struct {
	ID                     uuid.UUID           `json:"id"`
	AgentID                uuid.UUID           `json:"agentId"`
	TeamID                 *uuid.UUID          `json:"teamId,omitempty"`
	AssignedAgentID        *uuid.UUID          `json:"assignedAgentId,omitempty"`
	Name                   string              `json:"name"`
	Email                  string              `json:"email"`
	Phone                  string              `json:"phone"`
	Budget                 *float64            `json:"budget,omitempty"`
	PropertyTypePreference *string             `json:"propertyTypePreference,omitempty"`
	LocationPreference     *string             `json:"locationPreference,omitempty"`
	Timeline               *string             `json:"timeline,omitempty"`
	Urgency                Urgency             `json:"urgency"`
	Source                 LeadSource          `json:"source"`
	Status                 LeadStatus          `json:"status"`
	Score                  int                 `json:"score"`
	Scoring                scoring.LeadScoring `json:"scoring"`
	ConversionValue        *float64            `json:"conversionValue,omitempty"`
	LastContactDate        *time.Time          `json:"lastContactDate,omitempty"`
	CreatedAt              time.Time           `json:"createdAt"`
	UpdatedAt              time.Time           `json:"updatedAt"`
}

type SearchResult struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	TotalPages int            `json:"totalPages"`
}

type ActivityResponse struct {
	ID           uuid.UUID              `json:"id"`
	LeadID       uuid.UUID              `json:"leadId"`
	ActivityType string                 `json:"activityType"`
	Description  string                 `json:"description"`
	PerformedBy  uuid.UUID              `json:"performedBy"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

type StatsResponse struct {
	TotalLeads          int            `json:"totalLeads"`
	ByStatus            map[string]int `json:"byStatus"`
	ConversionRate      float64        `json:"conversionRate"`
	ConvertedValueTotal float64        `json:"convertedValueTotal"`
	ConvertedValueAvg   float64        `json:"convertedValueAvg"`
	CreatedToday        int            `json:"createdToday"`
	CreatedThisWeek     int            `json:"createdThisWeek"`
	CreatedThisMonth    int            `json:"createdThisMonth"`
}
