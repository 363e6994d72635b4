package mailer

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendDocument(toEmail, title, markdown string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

// SendDocument emails a rendered thinking document. The markdown goes in
// preformatted so the recipient sees the outline structure as captured.
func (s *emailService) SendDocument(toEmail, title, markdown string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Shared thinking document: %s", title))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>A thinking document was shared with you.</p>
			<pre style="background: #f6f8fa; padding: 16px; border-radius: 6px; white-space: pre-wrap;">%s</pre>
		</div>
	`, html.EscapeString(title), html.EscapeString(markdown))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send document to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Document shared with %s\n", toEmail)
	return nil
}
