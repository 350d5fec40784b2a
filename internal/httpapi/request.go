package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
)

const maxJSONBody = 1 << 20

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return apperr.Validation("Request body is empty.", nil)
	}
	if err != nil {
		return apperr.Validation("Malformed request body.", map[string]string{"body": err.Error()})
	}
	return nil
}

// pathID parses the {id} wildcard. A malformed id cannot name anything, so
// it is reported as not found.
func pathID(r *http.Request, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound(what+" not found.", err)
	}
	return id, nil
}

// pageFrom reads page and pageSize; bad values fall back to the defaults.
func pageFrom(r *http.Request) domain.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	return domain.NewPage(number, size)
}
