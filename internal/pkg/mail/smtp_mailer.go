package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/atolyesoft/DrapeDesk/internal/pkg/env"
)

// SendMail delivers one HTML mail via the configured SMTP relay. Auth is
// optional; relays inside the deployment network often run without it.
func SendMail(to, subject, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "25")
	sender := strings.TrimSpace(env.GetEnv("SMTP_SENDER", ""))
	if sender == "" {
		sender = "no-reply@localhost"
		log.Printf("mail: SMTP_SENDER not set, using %s", sender)
	}

	var auth smtp.Auth
	if user := env.GetEnv("SMTP_USERNAME", ""); user != "" {
		auth = smtp.PlainAuth("", user, env.GetEnv("SMTP_PASSWORD", ""), host)
	}

	msg := buildMessage(sender, to, subject, body)

	addr := fmt.Sprintf("%s:%s", host, port)
	if err := smtp.SendMail(addr, auth, sender, []string{to}, msg); err != nil {
		log.Printf("mail: send to %s via %s failed: %v", to, addr, err)
		return err
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
