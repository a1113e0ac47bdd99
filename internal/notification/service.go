// Package notification emails a daily digest of overdue bills when email
// delivery is configured.
package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/billing"
	"github.com/powerflowhq/powerflow/internal/store"
)

// Config holds email delivery settings.
type Config struct {
	Enabled     bool
	Provider    string // "smtp" or "sendgrid"
	Host        string
	Port        int
	Username    string
	Password    string
	APIKey      string
	FromAddress string
	FromName    string
	To          string
}

// Service renders and delivers the overdue digest. It remembers the last
// delivery date so the refresh worker can call it on every run without
// flooding the recipient.
type Service struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	lastSent string // YYYY-MM-DD of the last delivered digest
}

func NewService(cfg Config, logger *zap.Logger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Enabled reports whether delivery is configured.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled && s.cfg.To != ""
}

// MaybeSendDigest sends the overdue digest at most once per calendar day,
// and only when overdue bills exist in real (non-sample) data.
func (s *Service) MaybeSendDigest(ctx context.Context, snap store.Snapshot, now time.Time) error {
	if !s.Enabled() || snap.Fallback {
		return nil
	}

	today := now.Format(billing.DateLayout)
	s.mu.Lock()
	alreadySent := s.lastSent == today
	s.mu.Unlock()
	if alreadySent {
		return nil
	}

	subject, body, count := BuildOverdueDigest(snap)
	if count == 0 {
		return nil
	}

	if err := s.send(ctx, subject, body); err != nil {
		return err
	}

	s.mu.Lock()
	s.lastSent = today
	s.mu.Unlock()
	s.logger.Info("overdue digest sent", zap.Int("bills", count), zap.String("to", s.cfg.To))
	return nil
}

// BuildOverdueDigest renders the digest and returns the overdue bill count.
func BuildOverdueDigest(snap store.Snapshot) (subject, body string, count int) {
	names := make(map[int64]string, len(snap.Customers))
	for _, c := range snap.Customers {
		names[c.CustomerID] = c.CustomerName
	}

	type line struct {
		customer string
		bill     billing.Bill
	}
	var lines []line
	var total float64
	for _, b := range snap.Bills {
		if b.Status != billing.BillOverdue {
			continue
		}
		name := names[b.CustomerID]
		if name == "" {
			name = fmt.Sprintf("customer #%d", b.CustomerID)
		}
		lines = append(lines, line{customer: name, bill: b})
		total += b.AmountDue
	}
	if len(lines) == 0 {
		return "", "", 0
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].bill.AmountDue > lines[j].bill.AmountDue })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h2>%d overdue bills, $%.2f outstanding</h2>", len(lines), total))
	sb.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>Bill</th><th>Customer</th><th>Due</th><th>Amount</th></tr>")
	for _, l := range lines {
		sb.WriteString(fmt.Sprintf("<tr><td>#%d</td><td>%s</td><td>%s</td><td>$%.2f</td></tr>",
			l.bill.BillID, l.customer, l.bill.DueDate, l.bill.AmountDue))
	}
	sb.WriteString("</table>")

	subject = fmt.Sprintf("PowerFlow: %d overdue bills ($%.2f)", len(lines), total)
	return subject, sb.String(), len(lines)
}

func (s *Service) send(ctx context.Context, subject, body string) error {
	switch s.cfg.Provider {
	case "sendgrid":
		return s.sendSendgrid(subject, body)
	case "smtp", "":
		return s.sendSMTP(subject, body)
	default:
		return fmt.Errorf("unknown email provider: %s", s.cfg.Provider)
	}
}

func (s *Service) sendSMTP(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
		"\r\n"+
		"%s\r\n", s.cfg.To, subject, body))

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, s.cfg.FromAddress, []string{s.cfg.To}, msg)
}

func (s *Service) sendSendgrid(subject, body string) error {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromAddress)
	to := mail.NewEmail("", s.cfg.To)
	message := mail.NewSingleEmail(from, subject, to, body, body)
	client := sendgrid.NewSendClient(s.cfg.APIKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
