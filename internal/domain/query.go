package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number and size into the accepted range.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// List is one page of results plus the total number of matching rows.
type List[T any] struct {
	Items []T
	Total int
	Page  Page
}

// JobQuery filters job listings. String filters are case-insensitive
// substring matches; empty means no filter.
type JobQuery struct {
	Title       string
	Location    string
	CompanyName string
	Status      *JobStatus

	// Set by the engine, never by callers.
	OpenOnly bool
	OwnerID  *uuid.UUID
	// WithCounts annotates each job with its application count.
	WithCounts bool

	Page Page
}

// JobApplicationsQuery lists the applications received by one job.
type JobApplicationsQuery struct {
	JobID  uuid.UUID
	Status *ApplicationStatus
	Page   Page
}

// OrderField is a sortable attribute of an applicant's application list.
type OrderField string

const (
	OrderAppliedAt   OrderField = "appliedAt"
	OrderCompanyName OrderField = "companyName"
	OrderStatus      OrderField = "status"
	OrderJobTitle    OrderField = "jobTitle"
)

var orderAliases = map[string]OrderField{
	"appliedAt":            OrderAppliedAt,
	"companyName":          OrderCompanyName,
	"job__createdBy__name": OrderCompanyName,
	"status":               OrderStatus,
	"jobTitle":             OrderJobTitle,
	"job__title":           OrderJobTitle,
}

// Ordering is one sort key.
type Ordering struct {
	Field OrderField
	Desc  bool
}

// DefaultApplicationOrdering is most recently applied first.
var DefaultApplicationOrdering = []Ordering{{Field: OrderAppliedAt, Desc: true}}

// ParseOrdering parses a comma separated list such as "-appliedAt,jobTitle".
// An empty string yields the default ordering.
func ParseOrdering(raw string) ([]Ordering, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultApplicationOrdering, nil
	}
	var out []Ordering
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		field, ok := orderAliases[strings.TrimPrefix(part, "-")]
		if !ok {
			return nil, fmt.Errorf("unknown ordering field %q", strings.TrimPrefix(part, "-"))
		}
		out = append(out, Ordering{Field: field, Desc: desc})
	}
	if len(out) == 0 {
		return DefaultApplicationOrdering, nil
	}
	return out, nil
}

// ApplicationQuery filters an applicant's own applications.
type ApplicationQuery struct {
	CompanyName string
	JobStatus   *JobStatus
	Statuses    []ApplicationStatus
	Ordering    []Ordering

	// Set by the engine.
	ApplicantID uuid.UUID

	Page Page
}
