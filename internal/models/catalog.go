package models

import (
	"net/url"
	"strconv"
)

type Company struct {
	ID          int    `json:"id" yaml:"id"`
	Slug        string `json:"slug" yaml:"slug"`
	Name        string `json:"name" yaml:"name"`
	Logo        string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

type CompanyInput struct {
	Slug        string `json:"slug,omitempty"`
	Name        string `json:"name,omitempty"`
	Logo        string `json:"logo,omitempty"`
	Description string `json:"description,omitempty"`
}

type Project struct {
	ID          int      `json:"id" yaml:"id"`
	CompanyID   int      `json:"company_id" yaml:"company_id"`
	Slug        string   `json:"slug" yaml:"slug"`
	Title       string   `json:"title" yaml:"title"`
	Location    string   `json:"location,omitempty" yaml:"location,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Images      []string `json:"images,omitempty" yaml:"images,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

type ProjectInput struct {
	CompanyID   int    `json:"company_id,omitempty"`
	CompanySlug string `json:"company_slug,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Title       string `json:"title,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// ProjectFilter narrows the project listing to a single company and/or status.
type ProjectFilter struct {
	CompanySlug string
	Status      string
}

func (f ProjectFilter) Values() url.Values {
	v := url.Values{}
	if f.CompanySlug != "" {
		v.Set("company_slug", f.CompanySlug)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	return v
}

type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitSold      UnitStatus = "sold"
	UnitReserved  UnitStatus = "reserved"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitAvailable, UnitSold, UnitReserved:
		return true
	default:
		return false
	}
}

type Unit struct {
	ID          int        `json:"id" yaml:"id"`
	ProjectID   int        `json:"project_id" yaml:"project_id"`
	Code        string     `json:"code" yaml:"code"`
	Sqm         float64    `json:"sqm" yaml:"sqm"`
	PricePerSqm int        `json:"price_per_sqm" yaml:"price_per_sqm"`
	Floor       string     `json:"floor" yaml:"floor"`
	Status      UnitStatus `json:"status" yaml:"status"`
	Bedrooms    int        `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	Bathrooms   int        `json:"bathrooms,omitempty" yaml:"bathrooms,omitempty"`
	Images      []string   `json:"images,omitempty" yaml:"images,omitempty"`
	FloorPlan   string     `json:"floor_plan,omitempty" yaml:"floor_plan,omitempty"`
	TotalPrice  int        `json:"total_price" yaml:"total_price"`
}

type UnitInput struct {
	ProjectID   int        `json:"project_id,omitempty"`
	Code        string     `json:"code,omitempty"`
	Sqm         float64    `json:"sqm,omitempty"`
	PricePerSqm int        `json:"price_per_sqm,omitempty"`
	Floor       string     `json:"floor,omitempty"`
	Status      UnitStatus `json:"status,omitempty"`
	Bedrooms    int        `json:"bedrooms,omitempty"`
	Bathrooms   int        `json:"bathrooms,omitempty"`
}

// UnitFilter holds the query parameters understood by the unit listing.
// Zero values are left out of the query.
type UnitFilter struct {
	ProjectID int
	MinSqm    float64
	MaxPrice  int
	Floor     string
	Status    UnitStatus
	Bedrooms  int
	Bathrooms int
	Page      int
	Limit     int
}

func (f UnitFilter) Values() url.Values {
	v := url.Values{}
	setInt := func(key string, val int) {
		if val > 0 {
			v.Set(key, strconv.Itoa(val))
		}
	}
	setInt("project_id", f.ProjectID)
	if f.MinSqm > 0 {
		v.Set("min_sqm", strconv.FormatFloat(f.MinSqm, 'f', -1, 64))
	}
	setInt("max_price", f.MaxPrice)
	if f.Floor != "" {
		v.Set("floor", f.Floor)
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	setInt("bedrooms", f.Bedrooms)
	setInt("bathrooms", f.Bathrooms)
	setInt("page", f.Page)
	setInt("limit", f.Limit)
	return v
}

type Pagination struct {
	Page  int `json:"page" yaml:"page"`
	Limit int `json:"limit" yaml:"limit"`
	Total int `json:"total" yaml:"total"`
}

type UnitPage struct {
	Units      []Unit     `json:"units" yaml:"units"`
	Pagination Pagination `json:"pagination" yaml:"pagination"`
}
