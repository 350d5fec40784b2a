package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/jobs"
)

func (s *Server) createJob(w http.ResponseWriter, r *http.Request, caller *domain.User) {
	var in jobs.JobInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, s.logger, err)
		return
	}
	j, err := s.jobs.Create(r.Context(), caller, in)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusCreated, "Job created successfully.", j)
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	q, err := jobQueryFrom(r)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	list, err := s.jobs.List(r.Context(), callerFrom(r.Context()), q)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonList(w, list)
}

func (s *Server) listMyJobs(w http.ResponseWriter, r *http.Request, caller *domain.User) {
	q, err := jobQueryFrom(r)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	list, err := s.jobs.ListMine(r.Context(), caller, q)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonList(w, list)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Job")
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	j, err := s.jobs.Get(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusOK, "Job retrieved successfully.", j)
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request, caller *domain.User) {
	id, err := pathID(r, "Job")
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	var patch jobs.JobPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, s.logger, err)
		return
	}
	j, err := s.jobs.Update(r.Context(), caller, id, patch)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusOK, "Job updated successfully.", j)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request, caller *domain.User) {
	id, err := pathID(r, "Job")
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	if err := s.jobs.Delete(r.Context(), caller, id); err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusOK, "Job deleted successfully.", nil)
}

func (s *Server) listJobApplications(w http.ResponseWriter, r *http.Request, caller *domain.User) {
	id, err := pathID(r, "Job")
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	q := domain.JobApplicationsQuery{JobID: id, Page: pageFrom(r)}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st, err := domain.ParseApplicationStatus(raw)
		if err != nil {
			jsonError(w, s.logger, apperr.Validation("Invalid filter.", map[string]string{
				"status": fmt.Sprintf("%q is not a valid choice.", raw),
			}))
			return
		}
		q.Status = &st
	}
	list, err := s.jobs.ListApplications(r.Context(), caller, q)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonList(w, list)
}

// jobQueryFrom reads the title, location, companyName and status filters.
func jobQueryFrom(r *http.Request) (domain.JobQuery, error) {
	v := r.URL.Query()
	q := domain.JobQuery{
		Title:       strings.TrimSpace(v.Get("title")),
		Location:    strings.TrimSpace(v.Get("location")),
		CompanyName: strings.TrimSpace(v.Get("companyName")),
		Page:        pageFrom(r),
	}
	if raw := strings.TrimSpace(v.Get("status")); raw != "" {
		st, err := domain.ParseJobStatusFold(raw)
		if err != nil {
			return q, apperr.Validation("Invalid filter.", map[string]string{
				"status": fmt.Sprintf("%q is not a valid choice.", raw),
			})
		}
		q.Status = &st
	}
	return q, nil
}
