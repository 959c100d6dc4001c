package mailbot

import (
	"io"
	"log"
	"strings"

	"github.com/emersion/go-message/mail"

	"cv-intake/internal/cv"
)

// Attachment is one CV-like file pulled out of an inbound email.
type Attachment struct {
	Filename string
	Content  []byte
}

// inboundMail is the channel-neutral view of one mailbox message.
type inboundMail struct {
	SenderName  string
	SenderAddr  string
	Subject     string
	Body        string
	Attachments []Attachment
}

// parseInbound walks the MIME structure of a raw message, collecting the
// plain-text body and any attachment on the CV extension allow-list.
func parseInbound(r io.Reader) (*inboundMail, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, err
	}

	m := &inboundMail{}
	if subject, err := mr.Header.Subject(); err == nil {
		m.Subject = subject
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		m.SenderName = from[0].Name
		m.SenderAddr = strings.ToLower(from[0].Address)
	}
	if m.SenderName == "" && m.SenderAddr != "" {
		// "John Doe <john@x.com>" carries a display name; bare addresses
		// fall back to the local part, as the reply salutation source.
		m.SenderName = strings.SplitN(m.SenderAddr, "@", 2)[0]
	}

	var body strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[EmailBot] skipping unreadable MIME part: %v", err)
			break
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := header.ContentType()
			if contentType == "" || strings.HasPrefix(contentType, "text/plain") {
				raw, err := io.ReadAll(part.Body)
				if err == nil {
					body.Write(raw)
				}
			}
		case *mail.AttachmentHeader:
			filename, _ := header.Filename()
			if !cv.IsCVFile(filename) {
				continue
			}
			content, err := io.ReadAll(part.Body)
			if err != nil {
				log.Printf("[EmailBot] failed reading attachment %s: %v", filename, err)
				continue
			}
			m.Attachments = append(m.Attachments, Attachment{Filename: filename, Content: content})
		}
	}
	m.Body = body.String()
	return m, nil
}
