package database

import (
	"time"
)

// Update categories assigned by the keyword classifier.
const (
	UpdateTypeProductLaunch = "product_launch"
	UpdateTypeCollection    = "collection"
	UpdateTypePressRelease  = "press_release"
	UpdateTypeEvent         = "event"
	UpdateTypeCollaboration = "collaboration"
	UpdateTypeGeneral       = "general"
)

// Update origins. Feed-origin rows always carry an external id.
const (
	OriginFeed   = "feed"
	OriginManual = "manual"
	OriginAPI    = "api"
)

// Brand categories carried over from the brand definition files.
const (
	CategoryStreetwear  = "Streetwear"
	CategoryLuxury      = "Luxury"
	CategoryAthletic    = "Athletic"
	CategoryAccessories = "Accessories"
	CategoryFootwear    = "Footwear"
	CategoryOther       = "Other"
)

type Brand struct {
	ID            string // Database UUID
	Name          string // Unique brand name from the definition file
	Description   string
	LogoURL       string
	WebsiteURL    string
	Category      string
	FeedURL       string // RSS/Atom feed URL, empty when the brand has no feed
	FetchEnabled  bool
	LastFetchedAt *time.Time
	IsVerified    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Update struct {
	ID            string
	BrandID       string
	Title         string
	Description   string
	ImageURL      *string
	SourceURL     string
	UpdateType    string
	PublishedDate time.Time
	ExternalID    *string // Nil for manually created updates
	Origin        string
	IsActive      bool
	ViewCount     int
	LikeCount     int
	CreatedAt     time.Time
}

// UpdateStats aggregates counts over active updates for the admin
// stats endpoint.
type UpdateStats struct {
	Total    int
	ByOrigin map[string]int
	ByType   map[string]int
}

func ValidUpdateType(t string) bool {
	switch t {
	case UpdateTypeProductLaunch, UpdateTypeCollection, UpdateTypePressRelease,
		UpdateTypeEvent, UpdateTypeCollaboration, UpdateTypeGeneral:
		return true
	}
	return false
}

func ValidOrigin(o string) bool {
	switch o {
	case OriginFeed, OriginManual, OriginAPI:
		return true
	}
	return false
}
