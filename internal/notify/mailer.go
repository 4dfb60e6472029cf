package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	mail "github.com/wneessen/go-mail"

	"github.com/querydesk/querydesk/internal/observability"
	"github.com/querydesk/querydesk/internal/report"
)

// Message is one HTML email.
type Message struct {
	Subject string
	To      []string
	HTML    string
}

// Mailer delivers a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendError is a failed SMTP submission.
type SendError struct {
	Op  string
	Err error
}

func (e *SendError) Error() string { return fmt.Sprintf("send email (%s): %v", e.Op, e.Err) }

func (e *SendError) Unwrap() error { return e.Err }

// SMTPConfig holds the submission server and sender credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From    string
	Timeout time.Duration
}

// SMTPMailer submits mail over STARTTLS with PLAIN auth
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "smtp host")
	}
	if cfg.Username == "" {
		missing = append(missing, "sender email")
	}
	if cfg.Password == "" {
		missing = append(missing, "sender password")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("smtp mailer: missing %s", strings.Join(missing, ", "))
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return &SendError{Op: "compose", Err: errors.New("no recipients")}
	}

	mm := mail.NewMsg()
	if err := mm.From(m.cfg.From); err != nil {
		return &SendError{Op: "compose", Err: err}
	}
	if err := mm.To(msg.To...); err != nil {
		return &SendError{Op: "compose", Err: err}
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTML)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return &SendError{Op: "client", Err: err}
	}
	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return &SendError{Op: "submit", Err: err}
	}
	return nil
}

// Reporter renders tables and mails them to a default recipient list.
type Reporter struct {
	mailer     Mailer
	recipients []string
}

func NewReporter(mailer Mailer, recipients []string) *Reporter {
	return &Reporter{mailer: mailer, recipients: recipients}
}

// Recipients returns the configured default list.
func (r *Reporter) Recipients() []string { return r.recipients }

// SendReport mails t under subject to the configured recipients and returns
// the list it was sent to.
func (r *Reporter) SendReport(ctx context.Context, subject string, t report.Table) ([]string, error) {
	to := slices.Clone(r.recipients)
	if len(to) == 0 {
		return nil, &SendError{Op: "recipients", Err: errors.New("no recipients configured")}
	}
	body, err := RenderReport(subject, DefaultIntro, t)
	if err != nil {
		return to, fmt.Errorf("render report: %w", err)
	}

	err = r.mailer.Send(ctx, Message{Subject: subject, To: to, HTML: body})
	observability.ObserveEmail(err)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Int("recipients", len(to)).Msg("report email failed")
		return to, err
	}
	log.Info().Str("subject", subject).Int("recipients", len(to)).Int("rows", len(t.Rows)).Msg("report email sent")
	return to, nil
}
