package domain

import (
	"net/url"
	"strconv"
)

// DefaultPageLimit is used when a list request does not specify a limit
const DefaultPageLimit = 10

// Pagination is the server's paging envelope for list endpoints
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

// Page is one page of a list endpoint
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// SyntheticPagination builds an envelope for a client-side merged result set.
// Pages is never less than 1 so empty tabs still render "page 1 of 1".
func SyntheticPagination(total, page, limit int) Pagination {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if page <= 0 {
		page = 1
	}
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return Pagination{Total: total, Page: page, Pages: pages, Limit: limit}
}

// AppointmentFilter holds the query parameters accepted by GET /appointment.
// Field tags double as the cache-key fragment, so omitted fields never affect key identity.
type AppointmentFilter struct {
	Status    AppointmentStatus `json:"status,omitempty"`
	FromDate  string            `json:"fromDate,omitempty"`
	ToDate    string            `json:"toDate,omitempty"`
	DoctorID  string            `json:"doctorId,omitempty"`
	PatientID string            `json:"patientId,omitempty"`
	Page      int               `json:"page,omitempty"`
	Limit     int               `json:"limit,omitempty"`
}

// Values encodes the filter as URL query parameters
func (f AppointmentFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "status", string(f.Status))
	setIf(v, "fromDate", f.FromDate)
	setIf(v, "toDate", f.ToDate)
	setIf(v, "doctorId", f.DoctorID)
	setIf(v, "patientId", f.PatientID)
	setPaging(v, f.Page, f.Limit)
	return v
}

// OrderFilter holds the query parameters accepted by GET /orders
type OrderFilter struct {
	Status OrderStatus `json:"status,omitempty"`
	Page   int         `json:"page,omitempty"`
	Limit  int         `json:"limit,omitempty"`
}

// Values encodes the filter as URL query parameters
func (f OrderFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "status", string(f.Status))
	setPaging(v, f.Page, f.Limit)
	return v
}

// ListFilter is the generic search + paging filter used by products, doctors and users
type ListFilter struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Role     Role   `json:"role,omitempty"`
	Page     int    `json:"page,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Values encodes the filter as URL query parameters
func (f ListFilter) Values() url.Values {
	v := url.Values{}
	setIf(v, "search", f.Search)
	setIf(v, "category", f.Category)
	setIf(v, "role", string(f.Role))
	setPaging(v, f.Page, f.Limit)
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setPaging(v url.Values, page, limit int) {
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}
