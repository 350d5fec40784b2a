package notify

import (
	"fmt"

	"jobmate/board-service/internal/domain"
)

// VerificationEmail carries the activation link sent after registration and
// on an expired-link retry.
func VerificationEmail(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify Your Email for Job Portal",
		Body: fmt.Sprintf("Hi %s,\n\nPlease click the link below to verify your email address:\n%s\n\n"+
			"This link will expire in 1 hour.\n\nThanks,\nThe Job Portal Team", name, link),
	}
}

// NewApplicationEmail tells a company that someone applied to its job.
func NewApplicationEmail(app *domain.Application) Message {
	return Message{
		To:      app.CompanyEmail,
		Subject: fmt.Sprintf("New Application for %s", app.JobTitle),
		Body: fmt.Sprintf("A new applicant, %s, has applied for your job posting: '%s'.",
			app.ApplicantName, app.JobTitle),
	}
}

// StatusChangeEmail tells the applicant their application moved to a status
// worth hearing about. ok is false for statuses that send nothing.
func StatusChangeEmail(app *domain.Application) (msg Message, ok bool) {
	var line string
	switch app.Status {
	case domain.ApplicationStatusInterview:
		line = fmt.Sprintf("Good news! You've been selected for an interview for the %s position.", app.JobTitle)
	case domain.ApplicationStatusRejected:
		line = fmt.Sprintf("We regret to inform you that we will not be moving forward with your application for the %s position.", app.JobTitle)
	case domain.ApplicationStatusHired:
		line = fmt.Sprintf("Congratulations! You've been hired for the %s position at %s!", app.JobTitle, app.CompanyName)
	default:
		return Message{}, false
	}
	return Message{
		To:      app.ApplicantEmail,
		Subject: fmt.Sprintf("Update on your application for %s", app.JobTitle),
		Body:    fmt.Sprintf("Hi %s,\n\n%s\n\nBest regards,\n%s", app.ApplicantName, line, app.CompanyName),
	}, true
}
