package mailer

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"jobmate/board-service/internal/notify"
)

// SMTPSender relays plain-text mail. Authentication is skipped when no
// username is configured, which suits a local relay such as MailHog.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	s := &SMTPSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: from,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, buildMessage(s.from, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// headerBreaks folds line breaks out of header values so a value can never
// start a header of its own.
var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func buildMessage(from string, msg notify.Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + headerBreaks.Replace(from) + "\r\n")
	b.WriteString("To: " + headerBreaks.Replace(msg.To) + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", headerBreaks.Replace(msg.Subject)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
