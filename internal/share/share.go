package share

import (
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"swipereel/pkg/models"
	"swipereel/pkg/utils"
)

// Mailer delivers movie recommendations over SMTP. A zero SMTPAddr turns the
// sender into a logger-only stub so local dev works without a relay.
type Mailer struct {
	cfg    utils.ShareConfig
	logger *log.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg utils.ShareConfig, logger *log.Logger) *Mailer {
	if logger == nil {
		logger = log.Default()
	}
	return &Mailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

type Recommendation struct {
	Recipient string
	Sender    string
	Message   string
	Card      models.MovieCard
}

func (m *Mailer) Enabled() bool { return m.cfg.SMTPAddr != "" }

// Share composes and sends the mail, retrying once before giving up.
func (m *Mailer) Share(rec Recommendation) error {
	if rec.Recipient == "" {
		return errors.New("missing recipient")
	}
	if !m.Enabled() {
		m.logger.Printf("[share] SMTP disabled, would mail %s about %q", rec.Recipient, rec.Card.Title)
		return nil
	}

	msg := m.compose(rec)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		host := m.cfg.SMTPAddr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, host)
	}

	if err := m.send(m.cfg.SMTPAddr, auth, m.cfg.From, []string{rec.Recipient}, msg); err == nil {
		return nil
	}
	if err := m.send(m.cfg.SMTPAddr, auth, m.cfg.From, []string{rec.Recipient}, msg); err != nil {
		m.logger.Printf("[share] failed to mail %s: %v", rec.Recipient, err)
		return err
	}
	return nil
}

func (m *Mailer) compose(rec Recommendation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", rec.Recipient)
	fmt.Fprintf(&b, "Subject: %s thinks you should watch %s\r\n", rec.Sender, rec.Card.Title)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&b, "%s recommends %s", rec.Sender, rec.Card.Title)
	if y := rec.Card.Year(); y > 0 {
		fmt.Fprintf(&b, " (%d)", y)
	}
	b.WriteString(".\r\n\r\n")
	if rec.Message != "" {
		fmt.Fprintf(&b, "%s\r\n\r\n", rec.Message)
	}
	if rec.Card.Overview != "" {
		fmt.Fprintf(&b, "%s\r\n\r\n", rec.Card.Overview)
	}
	if len(rec.Card.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\r\n", strings.Join(rec.Card.Genres, ", "))
	}
	if rec.Card.VoteAverage > 0 {
		fmt.Fprintf(&b, "Rating: %.1f/10\r\n", rec.Card.VoteAverage)
	}
	return []byte(b.String())
}
