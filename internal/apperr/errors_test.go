package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"jobmate/board-service/internal/apperr"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("load job: %w", apperr.NotFound("job not found", nil))
	if got := apperr.KindOf(err); got != apperr.KindNotFound {
		t.Errorf("KindOf = %s, want %s", got, apperr.KindNotFound)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) should be true")
	}
	if errors.Is(err, apperr.ErrAuthorization) {
		t.Error("errors.Is(err, ErrAuthorization) should be false")
	}
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	if got := apperr.KindOf(errors.New("boom")); got != apperr.KindInternal {
		t.Errorf("KindOf(plain) = %s, want %s", got, apperr.KindInternal)
	}
}

func TestNew_CapturesStackAndCause(t *testing.T) {
	cause := errors.New("cloud unreachable")
	err := apperr.Upload("resume upload failed", cause)
	if len(err.StackTrace()) == 0 {
		t.Error("expected a captured stack trace")
	}
	if !errors.Is(err, cause) {
		t.Error("Upload error should unwrap to its cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindValidation:           http.StatusBadRequest,
		apperr.KindInvalidTransition:    http.StatusBadRequest,
		apperr.KindDuplicateApplication: http.StatusBadRequest,
		apperr.KindJobNotOpen:           http.StatusBadRequest,
		apperr.KindUnauthenticated:      http.StatusUnauthorized,
		apperr.KindAuthorization:        http.StatusForbidden,
		apperr.KindNotFound:             http.StatusNotFound,
		apperr.KindUpload:               http.StatusBadGateway,
		apperr.KindDependency:           http.StatusBadGateway,
		apperr.KindInternal:             http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := apperr.HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestPublicMessage_HidesInternals(t *testing.T) {
	err := apperr.Internal("pq: relation users does not exist", errors.New("sql"))
	if got := apperr.PublicMessage(err); got != "An unexpected error occurred." {
		t.Errorf("PublicMessage(internal) = %q", got)
	}
	if got := apperr.PublicMessage(apperr.JobNotOpen("This job is not open for applications.")); got != "This job is not open for applications." {
		t.Errorf("PublicMessage(job not open) = %q", got)
	}
}
