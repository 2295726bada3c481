// Package notify delivers the console tail salvaged from the previous session to email and webhook
// destinations. Email gets the html report, webhooks get plain text.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
)

// Service sends reports to all configured destinations
type Service struct {
	destinations []notify.Notifier
	fromEmail    string
	toEmails     []string
	webhooks     []string
	host         string
	maxLines     int
	tmplFile     string
	repeater     *repeater.Repeater
}

// Params defines report content and delivery retries
type Params struct {
	Host       string        // host name shown in the report
	MaxLines   int           // lines of the tail included, 0 for all
	Template   string        // optional html template file, the embedded one used if empty or broken
	Retries    int           // attempts per destination
	RetryDelay time.Duration // delay between attempts
}

// SendersParams defines destinations and their transports
type SendersParams struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
	SMTPStartTLS bool
	SMTPTimeout  time.Duration
	FromEmail    string
	ToEmails     []string

	WebhookURLs    []string
	WebhookTimeout time.Duration
}

// Report is the content of a notification
type Report struct {
	Salvaged     []byte    // snapshot content
	StartedAt    time.Time // current session start
	HostBootTime time.Time // zero if unknown
}

// NewService makes notification service. Returns nil if no destinations configured.
func NewService(p Params, sp SendersParams) *Service {
	res := &Service{
		fromEmail: sp.FromEmail,
		toEmails:  sp.ToEmails,
		webhooks:  sp.WebhookURLs,
		host:      p.Host,
		maxLines:  p.MaxLines,
		tmplFile:  p.Template,
		repeater:  repeater.NewDefault(max(p.Retries, 1), p.RetryDelay),
	}
	if res.host == "" {
		res.host, _ = os.Hostname()
	}

	if len(sp.ToEmails) > 0 {
		res.destinations = append(res.destinations, notify.NewEmail(notify.SMTPParams{
			Host:        sp.SMTPHost,
			Port:        sp.SMTPPort,
			TLS:         sp.SMTPTLS,
			StartTLS:    sp.SMTPStartTLS,
			ContentType: "text/html",
			Charset:     "UTF-8",
			Username:    sp.SMTPUsername,
			Password:    sp.SMTPPassword,
			TimeOut:     sp.SMTPTimeout,
		}))
	}
	if len(sp.WebhookURLs) > 0 {
		res.destinations = append(res.destinations, notify.NewWebhook(notify.WebhookParams{Timeout: sp.WebhookTimeout}))
	}

	if len(res.destinations) == 0 {
		return nil
	}
	return res
}

// Send delivers the report to every destination. A failed destination doesn't stop the others,
// all errors are returned together.
func (s *Service) Send(ctx context.Context, r Report) error {
	subj := fmt.Sprintf("console tail of the previous session on %s", s.host)
	var errs []error
	for _, dest := range s.destinations {
		if dest.Schema() == "mailto" {
			msg, err := s.MakeReportHTML(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := s.send(ctx, dest, s.mailto(subj), msg); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, u := range s.webhooks {
			if err := s.send(ctx, dest, u, subj+"\n\n"+s.tail(r.Salvaged)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Service) send(ctx context.Context, n notify.Notifier, dest, text string) error {
	err := s.repeater.Do(ctx, func() error { return n.Send(ctx, dest, text) })
	if err != nil {
		return fmt.Errorf("can't send to %s: %w", n, err)
	}
	log.Printf("[DEBUG] report sent to %s", n)
	return nil
}

func (s *Service) mailto(subj string) string {
	q := url.Values{}
	q.Set("from", s.fromEmail)
	q.Set("subject", subj)
	return "mailto:" + strings.Join(s.toEmails, ",") + "?" + q.Encode()
}

// tail returns last maxLines lines of the salvaged text
func (s *Service) tail(b []byte) string {
	text := string(b)
	if s.maxLines <= 0 {
		return text
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > s.maxLines {
		lines = lines[len(lines)-s.maxLines:]
	}
	return strings.Join(lines, "")
}

// MakeReportHTML creates html report to be sent, uses the custom template if it can be loaded
func (s *Service) MakeReportHTML(r Report) (string, error) {
	data := struct {
		Host         string
		TS           time.Time
		StartedAt    time.Time
		HostBootTime time.Time
		Size         int
		Tail         string
	}{
		Host:         s.host,
		TS:           time.Now(),
		StartedAt:    r.StartedAt,
		HostBootTime: r.HostBootTime,
		Size:         len(r.Salvaged),
		Tail:         s.tail(r.Salvaged),
	}

	t := s.template()
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

func (s *Service) template() *template.Template {
	if s.tmplFile != "" {
		b, err := os.ReadFile(s.tmplFile)
		if err == nil {
			var t *template.Template
			if t, err = template.New("report").Parse(string(b)); err == nil {
				return t
			}
		}
		log.Printf("[WARN] can't load template %s, using default: %v", s.tmplFile, err)
	}
	return template.Must(template.New("report").Parse(defaultReportTmpl))
}

const defaultReportTmpl = `<!DOCTYPE html>
<html>
	<head>
		<meta name="viewport" content="width=device-width" />
		<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
		<style type="text/css">
			body {
				font-family: "Arial";
				font-size: 1.0em;
			}
			ul {
				margin-top: -0.5em;
				margin-left: -0.5em;
			}
			pre {
				padding: 0.6em;
				font-size: 0.7em;
				background-color: #E8E2A0;
				font-family: "Menlo";
				overflow-x: auto;
				white-space: pre-wrap;
				word-wrap: break-word;
			}
			.bold {
				color: #882828;
				font-weight: 900;
			}
		</style>
	</head>

	<body>
		<p>Previous session console recovered on <span class="bold">{{.Host}}</span> at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}</p>
		<ul>
			<li>Recovered: <span class="bold">{{.Size}} bytes</span></li>
			<li>Session started: <span class="bold">{{.StartedAt.Format "2006-01-02T15:04:05Z07:00"}}</span></li>
			{{if not .HostBootTime.IsZero}}<li>Host booted: <span class="bold">{{.HostBootTime.Format "2006-01-02T15:04:05Z07:00"}}</span></li>{{end}}
		</ul>

		<pre>
{{.Tail}}
		</pre>
	</body>
</html>
`
