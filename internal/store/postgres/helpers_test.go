package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"jobmate/board-service/internal/store"
)

func TestLikePattern_EscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"go":       "%go%",
		"100%":     `%100\%%`,
		"snake_ca": `%snake\_ca%`,
		`back\sl`:  `%back\\sl%`,
	}
	for in, want := range cases {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapWriteErr(t *testing.T) {
	dup := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "applications_applicant_job_key"})
	if err := mapWriteErr("createApplication", dup); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("unique violation mapped to %v, want ErrDuplicate", err)
	}

	fk := &pgconn.PgError{Code: "23503"}
	if err := mapWriteErr("createJob", fk); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("foreign key violation mapped to %v, want ErrNotFound", err)
	}

	if err := mapWriteErr("createUser", pgx.ErrNoRows); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("no rows mapped to %v, want ErrNotFound", err)
	}

	other := errors.New("connection reset")
	err := mapWriteErr("createUser", other)
	if errors.Is(err, store.ErrDuplicate) || !errors.Is(err, other) {
		t.Errorf("other error mapped to %v", err)
	}
}

func TestOrderColumns_CoverEveryField(t *testing.T) {
	for _, f := range []string{"appliedAt", "companyName", "status", "jobTitle"} {
		found := false
		for k := range orderColumns {
			if string(k) == f {
				found = true
			}
		}
		if !found {
			t.Errorf("no column for ordering field %q", f)
		}
	}
}
