package models

import "time"

// Property is a listing handled by the agency
type Property struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state,omitempty"`
	ZipCode      string    `json:"zip_code,omitempty"`
	PropertyType string    `json:"property_type"`
	Status       string    `json:"status"`
	Price        float64   `json:"price"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    float64   `json:"bathrooms"`
	SquareFeet   int       `json:"square_feet"`
	Description  string    `json:"description,omitempty"`
	Images       []string  `json:"images"`
	ListingAgent string    `json:"listing_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreatePropertyRequest is the property form payload
type CreatePropertyRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Address      string   `json:"address" validate:"required,max=255"`
	City         string   `json:"city" validate:"required,max=100"`
	State        string   `json:"state" validate:"max=50"`
	ZipCode      string   `json:"zip_code" validate:"max=20"`
	PropertyType string   `json:"property_type" validate:"required,oneof=house apartment condo townhouse land commercial"`
	Status       string   `json:"status" validate:"omitempty,max=50"`
	Price        float64  `json:"price" validate:"min=0"`
	Bedrooms     int      `json:"bedrooms" validate:"min=0,max=100"`
	Bathrooms    float64  `json:"bathrooms" validate:"min=0,max=100"`
	SquareFeet   int      `json:"square_feet" validate:"min=0"`
	Description  string   `json:"description" validate:"max=10000"`
	Images       []string `json:"images" validate:"max=50,dive,url"`
	ListingAgent string   `json:"listing_agent" validate:"max=64"`
}

// UpdatePropertyRequest is a partial property update
type UpdatePropertyRequest struct {
	Title        *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Address      *string   `json:"address" validate:"omitempty,min=1,max=255"`
	City         *string   `json:"city" validate:"omitempty,min=1,max=100"`
	State        *string   `json:"state" validate:"omitempty,max=50"`
	ZipCode      *string   `json:"zip_code" validate:"omitempty,max=20"`
	PropertyType *string   `json:"property_type" validate:"omitempty,oneof=house apartment condo townhouse land commercial"`
	Price        *float64  `json:"price" validate:"omitempty,min=0"`
	Bedrooms     *int      `json:"bedrooms" validate:"omitempty,min=0,max=100"`
	Bathrooms    *float64  `json:"bathrooms" validate:"omitempty,min=0,max=100"`
	SquareFeet   *int      `json:"square_feet" validate:"omitempty,min=0"`
	Description  *string   `json:"description" validate:"omitempty,max=10000"`
	Images       *[]string `json:"images" validate:"omitempty,max=50,dive,url"`
	ListingAgent *string   `json:"listing_agent" validate:"omitempty,max=64"`
}

// PropertyFilter holds list query parameters for properties
type PropertyFilter struct {
	Status       string  `query:"status" validate:"omitempty,max=50"`
	City         string  `query:"city" validate:"omitempty,max=100"`
	PropertyType string  `query:"property_type" validate:"omitempty,max=50"`
	MinPrice     float64 `query:"min_price" validate:"min=0"`
	MaxPrice     float64 `query:"max_price" validate:"min=0"`
	Limit        int     `query:"limit" validate:"min=0,max=100"`
	Offset       int     `query:"offset" validate:"min=0"`
}
