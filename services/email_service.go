package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"buildtrack/config"
	"buildtrack/models"
	"buildtrack/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// convertHTMLToText converts HTML content to plain text for the text/plain part
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(strings.TrimSpace(n.Data))
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("\n- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)

	result := text.String()
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(result)
}

// Mailer delivers one message with an HTML and a plain-text part.
type Mailer interface {
	Send(to []string, subject, htmlBody, textBody string) error
}

// SMTPMailer sends through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(to []string, subject, htmlBody, textBody string) error {
	if len(to) == 0 {
		return nil
	}
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	msg := buildMessage(m.cfg.From, to, subject, htmlBody, textBody)
	return smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, to, msg)
}

const mimeBoundary = "buildtrack-digest-boundary"

// buildMessage renders a multipart/alternative message.
func buildMessage(from string, to []string, subject, htmlBody, textBody string) []byte {
	headers := []string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mimeBoundary,
		"",
		"--" + mimeBoundary,
		"Content-Type: text/plain; charset=UTF-8",
		"",
		textBody,
		"--" + mimeBoundary,
		"Content-Type: text/html; charset=UTF-8",
		"",
		htmlBody,
		"--" + mimeBoundary + "--",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n")
}

// LogMailer writes messages to the log. Used when SMTP is not configured.
type LogMailer struct {
	log *logrus.Logger
}

func NewLogMailer(log *logrus.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(to []string, subject, _, textBody string) error {
	m.log.WithFields(logrus.Fields{
		"to":      strings.Join(to, ","),
		"subject": subject,
	}).Info("digest (smtp disabled)\n" + textBody)
	return nil
}

// ProjectDigest is the daily site summary of one project.
type ProjectDigest struct {
	Project       models.Project
	Date          time.Time
	CriticalItems []models.CriticalItem
	Delayed       []DelayedEntry
	OpenIssues    int
}

type DelayedEntry struct {
	Label     string
	DelayDays int
	Progress  string
}

// Empty reports whether the digest has nothing worth sending.
func (d *ProjectDigest) Empty() bool {
	return len(d.CriticalItems) == 0 && len(d.Delayed) == 0 && d.OpenIssues == 0
}

var digestTemplate = template.Must(template.New("digest").Parse(`<html><body>
<h2>{{.Project.Name}}: site digest for {{.Date.Format "2 Jan 2006"}}</h2>
{{if .CriticalItems}}<h3>Materials running low</h3>
<table><tr><th>Item</th><th>Category</th><th>Remaining</th><th>%</th></tr>
{{range .CriticalItems}}<tr><td>{{.ItemName}}</td><td>{{.Category}}</td><td>{{.RemainingQuantity}} {{.Unit}}</td><td>{{.RemainingPercentage}}</td></tr>
{{end}}</table>{{end}}
{{if .Delayed}}<h3>Delayed phases</h3>
<ul>{{range .Delayed}}<li>{{.Label}}: {{.DelayDays}} day(s) late at {{.Progress}}%</li>{{end}}</ul>{{end}}
{{if .OpenIssues}}<p>{{.OpenIssues}} unresolved site issue(s).</p>{{end}}
</body></html>`))

// RenderDigest returns the HTML and plain-text bodies of d.
func RenderDigest(d *ProjectDigest) (string, string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("render digest: %w", err)
	}
	htmlBody := buf.String()
	return htmlBody, convertHTMLToText(htmlBody), nil
}

// DigestService builds and mails the daily digest of every project.
type DigestService struct {
	store      *repository.Store
	mailer     Mailer
	recipients []string
	log        *logrus.Logger
	now        func() time.Time
}

func NewDigestService(store *repository.Store, mailer Mailer, recipients []string, log *logrus.Logger) *DigestService {
	return &DigestService{store: store, mailer: mailer, recipients: recipients, log: log, now: time.Now}
}

// Build assembles the digest of one project.
func (s *DigestService) Build(ctx context.Context, projectID string) (*ProjectDigest, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "Project")
	}
	items, err := s.store.ListBOQItems(ctx, projectID, repository.BOQFilter{})
	if err != nil {
		return nil, err
	}
	phases, err := s.store.ListPhases(ctx, projectID, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &ProjectDigest{Project: *project, Date: now, CriticalItems: CriticalItems(items)}
	for i := range phases {
		p := &phases[i]
		if delay, late := DelayDays(p, now); late {
			d.Delayed = append(d.Delayed, DelayedEntry{
				Label:     PhaseLabel(p),
				DelayDays: delay,
				Progress:  FormatFixed2(p.Progress),
			})
		}
		for _, issue := range p.Issues {
			if !issue.Resolved {
				d.OpenIssues++
			}
		}
	}
	return d, nil
}

// recipientsFor merges the configured recipients with the project's staff.
func (s *DigestService) recipientsFor(ctx context.Context, projectID string) ([]string, error) {
	members, err := s.store.ProjectMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	add := func(email string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" && !seen[email] {
			seen[email] = true
			out = append(out, email)
		}
	}
	for _, r := range s.recipients {
		add(r)
	}
	for _, m := range members {
		if m.Role != models.RoleViewer {
			add(m.Email)
		}
	}
	return out, nil
}

// SendAll mails a digest for every project that has something to report and
// returns how many were sent. A failing project is logged and skipped.
func (s *DigestService) SendAll(ctx context.Context) (int, error) {
	ids, err := s.store.ProjectIDs(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, id := range ids {
		entry := s.log.WithField("project", id)
		d, err := s.Build(ctx, id)
		if err != nil {
			entry.WithError(err).Error("digest build failed")
			continue
		}
		if d.Empty() {
			continue
		}
		to, err := s.recipientsFor(ctx, id)
		if err != nil {
			entry.WithError(err).Error("digest recipients lookup failed")
			continue
		}
		htmlBody, textBody, err := RenderDigest(d)
		if err != nil {
			entry.WithError(err).Error("digest render failed")
			continue
		}
		subject := fmt.Sprintf("[%s] Site digest %s", d.Project.Name, d.Date.Format("2006-01-02"))
		if err := s.mailer.Send(to, subject, htmlBody, textBody); err != nil {
			entry.WithError(err).Error("digest send failed")
			continue
		}
		sent++
	}
	return sent, nil
}
