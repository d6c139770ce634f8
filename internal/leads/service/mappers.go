package service

import (
	"realestate_crm_backend/internal/leads/repository"
	"realestate_crm_backend/internal/leads/transport"
)

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                     lead.ID,
		AgentID:                lead.AgentID,
		TeamID:                 lead.TeamID,
		AssignedAgentID:        lead.AssignedAgentID,
		Name:                   lead.Name,
		Email:                  lead.Email,
		Phone:                  lead.Phone,
		Budget:                 lead.Budget,
		PropertyTypePreference: lead.PropertyTypePreference,
		LocationPreference:     lead.LocationPreference,
		Timeline:               lead.Timeline,
		Urgency:                transport.Urgency(lead.Urgency),
		Source:                 transport.LeadSource(lead.Source),
		Status:                 transport.LeadStatus(lead.Status),
		Score:                  lead.Score,
		Scoring:                lead.Scoring,
		ConversionValue:        lead.ConversionValue,
		LastContactDate:        lead.LastContactDate,
		CreatedAt:              lead.CreatedAt,
		UpdatedAt:              lead.UpdatedAt,
	}
}

func toActivityResponse(activity repository.Activity) transport.ActivityResponse {
	return transport.ActivityResponse{
		ID:           activity.ID,
		LeadID:       activity.LeadID,
		ActivityType: activity.ActivityType,
		Description:  activity.Description,
		PerformedBy:  activity.PerformedBy,
		Metadata:     activity.Metadata,
		CreatedAt:    activity.CreatedAt,
	}
}
