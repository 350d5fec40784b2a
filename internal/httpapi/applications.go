package httpapi

import (
	"errors"
	"net/http"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/applications"
	"jobmate/board-service/internal/domain"
)

// multipartSlack is the room left in the request body for the cover letter
// and multipart framing on top of the resume itself.
const multipartSlack = 64 << 10

func (s *Server) apply(w http.ResponseWriter, r *http.Request, caller *domain.User) {
	id, err := pathID(r, "Job")
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}

	// A closed or missing job is reported before the upload is read.
	if err := s.apps.EnsureOpen(r.Context(), id); err != nil {
		jsonError(w, s.logger, err)
		return
	}

	// Oversized bodies are cut off here; a resume just over the limit still
	// parses and is rejected by the engine with a field error.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxResume+multipartSlack)
	if err := r.ParseMultipartForm(s.maxResume + multipartSlack); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, s.logger, apperr.Validation("Invalid application data.", map[string]string{
				"resume": "The submitted file is too large.",
			}))
			return
		}
		jsonError(w, s.logger, apperr.Validation("Invalid application data.", map[string]string{
			"resume": "The submitted data was not a file. Check the encoding type on the form.",
		}))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var resume *applications.Resume
	file, header, err := r.FormFile("resume")
	if err == nil {
		defer file.Close()
		resume = &applications.Resume{Filename: header.Filename, Size: header.Size, Content: file}
	}

	var cover *string
	if v, ok := r.MultipartForm.Value["coverLetter"]; ok && len(v) > 0 {
		cover = &v[0]
	}

	app, err := s.apps.Apply(r.Context(), caller, id, resume, cover)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusCreated, "Application submitted successfully.", app)
}

func (s *Server) listMyApplications(w http.ResponseWriter, r *http.Request, caller *domain.User) {
	v := r.URL.Query()
	q, err := applications.Filter{
		CompanyName: v.Get("companyName"),
		JobStatus:   v.Get("jobStatus"),
		Statuses:    v["status"],
		Ordering:    v.Get("ordering"),
		Page:        pageFrom(r),
	}.Query()
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	list, err := s.apps.ListMine(r.Context(), caller, q)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonList(w, list)
}

func (s *Server) updateApplicationStatus(w http.ResponseWriter, r *http.Request, caller *domain.User) {
	id, err := pathID(r, "Application")
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, s.logger, err)
		return
	}
	app, err := s.apps.UpdateStatus(r.Context(), caller, id, body.Status)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusOK, "Application status updated successfully.", app)
}
