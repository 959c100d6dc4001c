package mailbot

import (
	"log"

	gomail "gopkg.in/gomail.v2"
)

const (
	confirmationReply = `Thank you for your application!

We have received your CV and it has been added to our candidate database.
Your profile will be matched to suitable positions by our automation system.

If there's a good match, our HR team will contact you shortly.

Best regards,
HR Team`

	requestCVReply = `Thank you for your interest in our positions.

We notice that your email doesn't contain a CV attachment.
Please reply to this email with your CV attached in PDF, DOC, or DOCX format
so we can properly review your application.

Best regards,
HR Team`

	ineligibilityReply = `Thank you for your interest in our positions.
Currently, we are only considering candidates based in the allowed regions.
We appreciate your understanding.

Best regards,
HR Team`
)

// Replier sends an acknowledgement back to an applicant.
type Replier interface {
	SendReply(to, subject, body string) error
}

// SMTPReplier sends plain-text replies through an authenticated relay.
type SMTPReplier struct {
	host     string
	port     int
	user     string
	password string
}

func NewSMTPReplier(host string, port int, user, password string) *SMTPReplier {
	return &SMTPReplier{host: host, port: port, user: user, password: password}
}

func (r *SMTPReplier) SendReply(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", r.user)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Re: "+subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(r.host, r.port, r.user, r.password)
	if err := d.DialAndSend(m); err != nil {
		return err
	}
	log.Printf("[EmailBot] reply sent to %s", to)
	return nil
}
