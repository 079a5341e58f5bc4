package models

import "time"

type CreateStoryResponse struct {
	StoryID string `json:"story_id"`
	Message string `json:"message"`
}

type StorySummary struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Image     string      `json:"image"`
	Status    StoryStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

type StoryListResponse struct {
	Stories    []*StorySummary `json:"stories"`
	TotalCount int             `json:"total_count"`
}

type MeResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Credits     int64  `json:"credits"`
	IsOnboarded bool   `json:"is_onboarded"`
}
