package mailbot

import (
	"strings"
	"testing"
)

const rawMultipart = "MIME-Version: 1.0\r\n" +
	"From: Jane Doe <jane@x.com>\r\n" +
	"Subject: Application\r\n" +
	"Content-Type: multipart/mixed; boundary=\"frontier\"\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Hello, my number is +49 151 1234567.\r\n" +
	"--frontier\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"cv.pdf\"\r\n" +
	"\r\n" +
	"fake-pdf-bytes\r\n" +
	"--frontier--\r\n"

func TestParseInboundMultipart(t *testing.T) {
	m, err := parseInbound(strings.NewReader(rawMultipart))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.SenderAddr != "jane@x.com" || m.SenderName != "Jane Doe" {
		t.Fatalf("unexpected sender: %q <%s>", m.SenderName, m.SenderAddr)
	}
	if m.Subject != "Application" {
		t.Fatalf("unexpected subject: %q", m.Subject)
	}
	if !strings.Contains(m.Body, "+49 151 1234567") {
		t.Fatalf("body not collected: %q", m.Body)
	}
	if len(m.Attachments) != 1 || m.Attachments[0].Filename != "cv.pdf" {
		t.Fatalf("attachment not collected: %+v", m.Attachments)
	}
	if string(m.Attachments[0].Content) != "fake-pdf-bytes" {
		t.Fatalf("attachment content wrong: %q", m.Attachments[0].Content)
	}
}

const rawBareSender = "MIME-Version: 1.0\r\n" +
	"From: john@example.org\r\n" +
	"Subject: Hi\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"just text\r\n"

func TestParseInboundBareSenderNameFromLocalPart(t *testing.T) {
	m, err := parseInbound(strings.NewReader(rawBareSender))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.SenderAddr != "john@example.org" {
		t.Fatalf("unexpected sender: %q", m.SenderAddr)
	}
	if m.SenderName != "john" {
		t.Fatalf("expected local-part name fallback, got %q", m.SenderName)
	}
	if len(m.Attachments) != 0 {
		t.Fatalf("unexpected attachments: %+v", m.Attachments)
	}
}

const rawNonCVAttachment = "MIME-Version: 1.0\r\n" +
	"From: Jane Doe <jane@x.com>\r\n" +
	"Subject: Photos\r\n" +
	"Content-Type: multipart/mixed; boundary=\"frontier\"\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Disposition: attachment; filename=\"me.png\"\r\n" +
	"\r\n" +
	"png-bytes\r\n" +
	"--frontier--\r\n"

func TestParseInboundIgnoresNonCVAttachments(t *testing.T) {
	m, err := parseInbound(strings.NewReader(rawNonCVAttachment))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Attachments) != 0 {
		t.Fatalf("non-CV attachment should be ignored: %+v", m.Attachments)
	}
}
