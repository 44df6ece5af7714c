package api

import (
	"time"

	"github.com/brandpulse/brandpulse/app/database"
	"github.com/brandpulse/brandpulse/app/scheduler"
)

// TriggerInterface is the slice of the scheduler the API needs for the
// admin fetch endpoint.
type TriggerInterface interface {
	TriggerNow() bool
	State() scheduler.State
}

var _ TriggerInterface = (*scheduler.Scheduler)(nil)

type Handler struct {
	brandRepo  database.BrandRepository
	updateRepo database.UpdateRepository
	trigger    TriggerInterface
}

// UpdateResponse is the wire shape of one update.
type UpdateResponse struct {
	ID            string    `json:"id"`
	BrandID       string    `json:"brandId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      *string   `json:"imageUrl"`
	SourceURL     string    `json:"sourceUrl"`
	UpdateType    string    `json:"updateType"`
	PublishedDate time.Time `json:"publishedDate"`
	Origin        string    `json:"origin"`
	ViewCount     int       `json:"viewCount"`
	LikeCount     int       `json:"likeCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type FeedResponse struct {
	Success    bool             `json:"success"`
	Updates    []UpdateResponse `json:"updates"`
	Pagination Pagination       `json:"pagination"`
	Message    string           `json:"message,omitempty"`
}

type CreateUpdateRequest struct {
	BrandID       string     `json:"brandId" binding:"required"`
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description" binding:"required"`
	ImageURL      *string    `json:"imageUrl"`
	SourceURL     string     `json:"sourceUrl" binding:"required"`
	UpdateType    string     `json:"updateType"`
	PublishedDate *time.Time `json:"publishedDate"`
}

func toUpdateResponse(u database.Update) UpdateResponse {
	return UpdateResponse{
		ID:            u.ID,
		BrandID:       u.BrandID,
		Title:         u.Title,
		Description:   u.Description,
		ImageURL:      u.ImageURL,
		SourceURL:     u.SourceURL,
		UpdateType:    u.UpdateType,
		PublishedDate: u.PublishedDate,
		Origin:        u.Origin,
		ViewCount:     u.ViewCount,
		LikeCount:     u.LikeCount,
		CreatedAt:     u.CreatedAt,
	}
}

func toUpdateResponses(updates []database.Update) []UpdateResponse {
	out := make([]UpdateResponse, 0, len(updates))
	for _, u := range updates {
		out = append(out, toUpdateResponse(u))
	}
	return out
}

func buildPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
