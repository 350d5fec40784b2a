// Package access holds the capability predicates every engine operation is
// gated on. Predicates are pure: they never touch storage, so callers load
// the target first and hand it in.
package access

import (
	"fmt"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
)

// Check is a named predicate evaluated against the caller.
type Check struct {
	Name string
	OK   bool
}

func IsCompany(caller *domain.User) bool {
	return caller != nil && caller.Role == domain.RoleCompany
}

func IsApplicant(caller *domain.User) bool {
	return caller != nil && caller.Role == domain.RoleApplicant
}

// OwnsJob is true when caller is a company and created job.
func OwnsJob(caller *domain.User, job *domain.Job) bool {
	return IsCompany(caller) && job != nil && job.OwnerID == caller.ID
}

// OwnsJobOfApplication is true when caller owns the job app was filed against.
func OwnsJobOfApplication(caller *domain.User, app *domain.Application) bool {
	return IsCompany(caller) && app != nil && app.JobOwnerID == caller.ID
}

// Company, Applicant, JobOwner and ApplicationOwner build the checks passed
// to Require.
func Company(caller *domain.User) Check {
	return Check{Name: "company", OK: IsCompany(caller)}
}

func Applicant(caller *domain.User) Check {
	return Check{Name: "applicant", OK: IsApplicant(caller)}
}

func JobOwner(caller *domain.User, job *domain.Job) Check {
	return Check{Name: "job owner", OK: OwnsJob(caller, job)}
}

func ApplicationOwner(caller *domain.User, app *domain.Application) Check {
	return Check{Name: "owner of the application's job", OK: OwnsJobOfApplication(caller, app)}
}

// Require returns an authorization error naming the first failed check.
func Require(checks ...Check) error {
	for _, c := range checks {
		if !c.OK {
			return apperr.Authorization(fmt.Sprintf("You must be the %s to perform this action.", c.Name))
		}
	}
	return nil
}
