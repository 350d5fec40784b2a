package notify_test

import (
	"strings"
	"testing"

	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/notify"
)

func application(status domain.ApplicationStatus) *domain.Application {
	return &domain.Application{
		Status:         status,
		ApplicantName:  "Ada",
		ApplicantEmail: "ada@example.com",
		JobTitle:       "Go Engineer",
		CompanyName:    "Acme",
		CompanyEmail:   "jobs@acme.test",
	}
}

func TestNewApplicationEmail(t *testing.T) {
	msg := notify.NewApplicationEmail(application(domain.ApplicationStatusApplied))
	if msg.To != "jobs@acme.test" {
		t.Errorf("To = %q, want the job owner", msg.To)
	}
	if msg.Subject != "New Application for Go Engineer" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.Body != "A new applicant, Ada, has applied for your job posting: 'Go Engineer'." {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestStatusChangeEmail(t *testing.T) {
	cases := []struct {
		status domain.ApplicationStatus
		want   string
	}{
		{domain.ApplicationStatusInterview, "selected for an interview for the Go Engineer position"},
		{domain.ApplicationStatusRejected, "will not be moving forward with your application for the Go Engineer position"},
		{domain.ApplicationStatusHired, "hired for the Go Engineer position at Acme!"},
	}
	for _, c := range cases {
		msg, ok := notify.StatusChangeEmail(application(c.status))
		if !ok {
			t.Errorf("StatusChangeEmail(%s) should send", c.status)
			continue
		}
		if msg.To != "ada@example.com" || msg.Subject != "Update on your application for Go Engineer" {
			t.Errorf("StatusChangeEmail(%s) = %+v", c.status, msg)
		}
		if !strings.Contains(msg.Body, c.want) || !strings.HasPrefix(msg.Body, "Hi Ada,") || !strings.HasSuffix(msg.Body, "Best regards,\nAcme") {
			t.Errorf("StatusChangeEmail(%s) body = %q", c.status, msg.Body)
		}
	}

	for _, s := range []domain.ApplicationStatus{domain.ApplicationStatusApplied, domain.ApplicationStatusReviewed} {
		if _, ok := notify.StatusChangeEmail(application(s)); ok {
			t.Errorf("StatusChangeEmail(%s) should not send", s)
		}
	}
}

func TestVerificationEmail(t *testing.T) {
	msg := notify.VerificationEmail("ada@example.com", "Ada", "https://board/users/verify-email?token=abc")
	if msg.Subject != "Verify Your Email for Job Portal" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "https://board/users/verify-email?token=abc") || !strings.Contains(msg.Body, "expire in 1 hour") {
		t.Errorf("Body = %q", msg.Body)
	}
}
