// Package mailbot polls a mailbox for job applications, extracts CV
// attachments, and feeds them through the parsing and reconciliation
// pipeline.
package mailbot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"cv-intake/internal/eligibility"
)

type Bot struct {
	store   Store
	parser  CVParser
	filter  *eligibility.Filter
	replier Replier

	imapAddr string
	user     string
	password string

	uploadsDir   string
	pollInterval time.Duration
	backoff      time.Duration
}

type Options struct {
	IMAPServer   string
	IMAPPort     int
	User         string
	Password     string
	UploadsDir   string
	PollInterval time.Duration
	Backoff      time.Duration
}

func NewBot(store Store, parser CVParser, filter *eligibility.Filter, replier Replier, opts Options) *Bot {
	return &Bot{
		store:        store,
		parser:       parser,
		filter:       filter,
		replier:      replier,
		imapAddr:     fmt.Sprintf("%s:%d", opts.IMAPServer, opts.IMAPPort),
		user:         opts.User,
		password:     opts.Password,
		uploadsDir:   opts.UploadsDir,
		pollInterval: opts.PollInterval,
		backoff:      opts.Backoff,
	}
}

// Run polls the mailbox until ctx is cancelled. A failed cycle switches to
// the long backoff interval instead of crashing the loop. Missing
// credentials disable the channel: Run logs and returns.
func (b *Bot) Run(ctx context.Context) {
	if b.user == "" || b.password == "" {
		log.Println("[EmailBot] email credentials not configured, channel disabled")
		return
	}

	log.Printf("[EmailBot] monitoring %s every %s", b.imapAddr, b.pollInterval)
	for {
		wait := b.pollInterval
		if err := b.checkMail(ctx); err != nil {
			log.Printf("[EmailBot] poll cycle failed: %v (retrying in %s)", err, b.backoff)
			wait = b.backoff
		}

		select {
		case <-ctx.Done():
			log.Println("[EmailBot] shutting down")
			return
		case <-time.After(wait):
		}
	}
}

// checkMail runs one poll cycle: connect, list unseen messages, process
// each in arrival order, mark processed ones seen. Connect-level failures
// abort the cycle without marking anything.
func (b *Bot) checkMail(ctx context.Context) error {
	c, err := client.DialTLS(b.imapAddr, nil)
	if err != nil {
		return fmt.Errorf("imap dial %s: %w", b.imapAddr, err)
	}
	c.Timeout = 30 * time.Second
	defer c.Logout()

	if err := c.Login(b.user, b.password); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("search unseen: %w", err)
	}
	if len(uids) == 0 {
		return nil
	}
	log.Printf("[EmailBot] found %d new emails", len(uids))

	section := &imap.BodySectionName{}
	for _, uid := range uids {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		seqset := new(imap.SeqSet)
		seqset.AddNum(uid)

		messages := make(chan *imap.Message, 1)
		if err := c.UidFetch(seqset, []imap.FetchItem{section.FetchItem()}, messages); err != nil {
			log.Printf("[EmailBot] fetch of uid %d failed: %v", uid, err)
			continue
		}
		msg := <-messages
		if msg == nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			log.Printf("[EmailBot] uid %d has no body section", uid)
			continue
		}

		inbound, err := parseInbound(body)
		if err != nil {
			log.Printf("[EmailBot] parsing uid %d failed: %v", uid, err)
			continue
		}

		log.Printf("[EmailBot] processing email from %s: %q", inbound.SenderAddr, inbound.Subject)
		b.processMessage(ctx, inbound)

		// Mark consumed so the next cycle skips it.
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			log.Printf("[EmailBot] marking uid %d seen failed: %v", uid, err)
		}
	}
	return nil
}
