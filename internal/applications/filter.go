package applications

import (
	"fmt"
	"strings"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
)

// Filter is the raw, string-typed form of an applicant listing request as it
// arrives on the wire.
type Filter struct {
	CompanyName string
	JobStatus   string
	Statuses    []string
	Ordering    string
	Page        domain.Page
}

// Query validates f. Unknown job or application statuses and unknown
// ordering fields are reported as field errors.
func (f Filter) Query() (domain.ApplicationQuery, error) {
	q := domain.ApplicationQuery{
		CompanyName: strings.TrimSpace(f.CompanyName),
		Page:        f.Page,
	}
	fields := make(map[string]string)

	if js := strings.TrimSpace(f.JobStatus); js != "" {
		st, err := domain.ParseJobStatusFold(js)
		if err != nil {
			fields["jobStatus"] = fmt.Sprintf("%q is not a valid choice.", js)
		} else {
			q.JobStatus = &st
		}
	}

	for _, raw := range f.Statuses {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			st, err := domain.ParseApplicationStatus(part)
			if err != nil {
				fields["status"] = fmt.Sprintf("%q is not a valid choice.", part)
				continue
			}
			q.Statuses = append(q.Statuses, st)
		}
	}

	ordering, err := domain.ParseOrdering(f.Ordering)
	if err != nil {
		fields["ordering"] = err.Error()
	}
	q.Ordering = ordering

	if len(fields) > 0 {
		return domain.ApplicationQuery{}, apperr.Validation("Invalid filter.", fields)
	}
	return q, nil
}
