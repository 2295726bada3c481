package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/kmsglast/app/notify/mocks"
)

func TestService_EmptyDestinations(t *testing.T) {
	svc := NewService(Params{}, SendersParams{})
	require.Nil(t, svc)
}

func TestNewService(t *testing.T) {
	svc := NewService(Params{Host: "h1"}, SendersParams{ToEmails: []string{"a@example.com"},
		WebhookURLs: []string{"https://example.com/hook"}})
	require.NotNil(t, svc)
	require.Len(t, svc.destinations, 2)
	assert.Equal(t, "mailto", svc.destinations[0].Schema())
	assert.Equal(t, "h1", svc.host)

	svc = NewService(Params{}, SendersParams{WebhookURLs: []string{"https://example.com/hook"}})
	require.NotNil(t, svc)
	assert.Len(t, svc.destinations, 1)
	assert.NotEmpty(t, svc.host, "host name defaults to os hostname")
}

func TestMakeReportHTMLDefault(t *testing.T) {
	svc := NewService(Params{Host: "box1"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	res, err := svc.MakeReportHTML(Report{Salvaged: []byte("oops <panic>\n"), StartedAt: started})
	require.NoError(t, err)
	assert.Contains(t, res, `recovered on <span class="bold">box1</span>`)
	assert.Contains(t, res, `<li>Recovered: <span class="bold">13 bytes</span></li>`)
	assert.Contains(t, res, "2024-03-01T10:00:00Z")
	assert.Contains(t, res, "oops &lt;panic&gt;", "content escaped")
	assert.NotContains(t, res, "Host booted")

	res, err = svc.MakeReportHTML(Report{StartedAt: started, HostBootTime: started.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Contains(t, res, "Host booted: <span class=\"bold\">2024-03-01T09:00:00Z")
}

func TestMakeReportHTMLCustom(t *testing.T) {
	svc := NewService(Params{Host: "box1", Template: "testfiles/report.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeReportHTML(Report{Salvaged: []byte("abc\n")})
	require.NoError(t, err)
	assert.Equal(t, "<p>Recovered on box1: 4 bytes</p>\n<pre>abc\n</pre>\n", res)

	for _, tmpl := range []string{"testfiles/report-bad.tmpl", "testfiles/no-such.tmpl"} {
		svc = NewService(Params{Host: "box1", Template: tmpl}, SendersParams{ToEmails: []string{"test@example.com"}})
		require.NotNil(t, svc)
		res, err = svc.MakeReportHTML(Report{Salvaged: []byte("abc\n")})
		require.NoError(t, err)
		assert.Contains(t, res, "Previous session console recovered", "falls back to default for %s", tmpl)
	}
}

func TestService_tail(t *testing.T) {
	tests := []struct {
		name     string
		maxLines int
		in       string
		want     string
	}{
		{"all lines", 0, "a\nb\nc\n", "a\nb\nc\n"},
		{"last two", 2, "a\nb\nc\n", "b\nc\n"},
		{"partial last line", 2, "a\nb\nc", "b\nc"},
		{"fewer than max", 10, "a\nb\n", "a\nb\n"},
		{"empty", 3, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Service{maxLines: tt.maxLines}
			assert.Equal(t, tt.want, s.tail([]byte(tt.in)))
		})
	}
}

func TestService_Send(t *testing.T) {
	tests := []struct {
		name           string
		mockSendErr    error
		expectedErrMsg string
	}{
		{name: "successful send"},
		{name: "send error", mockSendErr: errors.New("mock error"), expectedErrMsg: "can't send to mailto: mock error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailtoNotifier := &mocks.NotifierMock{
				SendFunc: func(_ context.Context, dest string, text string) error {
					assert.Equal(t, "mailto:to@example.com,to2@example.com?from=from%40example.com&"+
						"subject=console+tail+of+the+previous+session+on+box1", dest)
					assert.Contains(t, text, "kernel: oops")
					assert.Contains(t, text, "<!DOCTYPE html>")
					return tt.mockSendErr
				},
				SchemaFunc: func() string { return "mailto" },
				StringFunc: func() string { return "mailto" },
			}

			s := Service{
				destinations: []notify.Notifier{mailtoNotifier},
				fromEmail:    "from@example.com",
				toEmails:     []string{"to@example.com", "to2@example.com"},
				host:         "box1",
				repeater:     newRepeater(2),
			}

			err := s.Send(context.Background(), Report{Salvaged: []byte("kernel: oops\n")})
			if tt.expectedErrMsg == "" {
				require.NoError(t, err)
				assert.Len(t, mailtoNotifier.SendCalls(), 1)
				return
			}
			assert.EqualError(t, err, tt.expectedErrMsg)
			assert.Len(t, mailtoNotifier.SendCalls(), 2, "retried")
		})
	}
}

func TestService_SendWebhooks(t *testing.T) {
	var dests []string
	hook := &mocks.NotifierMock{
		SendFunc: func(_ context.Context, dest string, text string) error {
			dests = append(dests, dest)
			assert.Equal(t, "console tail of the previous session on box1\n\nline 2\nline 3\n", text)
			if strings.Contains(dest, "bad") {
				return errors.New("503")
			}
			return nil
		},
		SchemaFunc: func() string { return "http" },
		StringFunc: func() string { return "webhook" },
	}

	s := Service{
		destinations: []notify.Notifier{hook},
		webhooks:     []string{"https://bad.example.com/h", "https://good.example.com/h"},
		host:         "box1",
		maxLines:     2,
		repeater:     newRepeater(1),
	}
	err := s.Send(context.Background(), Report{Salvaged: []byte("line 1\nline 2\nline 3\n")})
	require.EqualError(t, err, "can't send to webhook: 503")
	assert.Equal(t, []string{"https://bad.example.com/h", "https://good.example.com/h"}, dests,
		"failed destination doesn't stop the rest")
}

func newRepeater(attempts int) *repeater.Repeater {
	return repeater.NewDefault(attempts, time.Millisecond)
}
