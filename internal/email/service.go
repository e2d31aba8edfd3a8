// Package email sends notification mail over SMTP.
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
}

func NewService(config Config) *Service {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

func (s *Service) SendHTMLEmail(to []string, subject, textBody, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}
	if len(to) == 0 {
		return nil
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	const boundary = "boundary-intranet"
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n\r\n", boundary, textBody)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n\r\n", boundary, htmlBody)
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return s.send(s.server, s.auth, s.config.From, to, msg.Bytes())
}

type MeetingInviteData struct {
	AppName   string
	Title     string
	Organizer string
	StartsAt  time.Time
	EndsAt    time.Time
}

const meetingInviteHTML = `<p>{{.Organizer}} invited you to <strong>{{.Title}}</strong>.</p>
<p>{{.StartsAt.Format "Mon 02 Jan 2006 15:04"}} to {{.EndsAt.Format "15:04 MST"}}</p>
<p>Open {{.AppName}} to see the details.</p>`

func (s *Service) SendMeetingInvite(to []string, data MeetingInviteData) error {
	if data.AppName == "" {
		data.AppName = "the intranet"
	}
	html, err := renderTemplate(meetingInviteHTML, data)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%s invited you to %q on %s.", data.Organizer, data.Title, data.StartsAt.Format(time.RFC1123))
	return s.SendHTMLEmail(to, "Meeting invitation: "+data.Title, text, html)
}

type BookingDecisionData struct {
	Resource string
	Status   string
	StartsAt time.Time
	EndsAt   time.Time
}

const bookingDecisionHTML = `<p>Your booking of <strong>{{.Resource}}</strong> for
{{.StartsAt.Format "Mon 02 Jan 2006 15:04"}} was <strong>{{.Status}}</strong>.</p>`

func (s *Service) SendBookingDecision(to string, data BookingDecisionData) error {
	html, err := renderTemplate(bookingDecisionHTML, data)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Your booking of %s for %s was %s.", data.Resource, data.StartsAt.Format(time.RFC1123), data.Status)
	return s.SendHTMLEmail([]string{to}, "Booking "+data.Status+": "+data.Resource, text, html)
}

func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
