// Package email sends notification emails over SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

// ErrNotConfigured is returned when SMTP settings are missing.
var ErrNotConfigured = errors.New("email not configured")

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// AppURL is linked from every email.
	AppURL string
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

// IsConfigured reports whether host, port and sender are set.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SendHTML sends a multipart message with a plain-text fallback.
func (s *Service) SendHTML(to, subject, text, html string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	const boundary = "solace-boundary"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n\r\n", boundary, text)
	fmt.Fprintf(&msg, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n\r\n", boundary, html)
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return s.send(s.server, s.auth, s.config.From, []string{to}, msg.Bytes())
}

// Message is one rendered notification.
type Message struct {
	Name    string
	Heading string
	Lines   []string
	AppURL  string
}

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif; color: #1f2937;">
<h2>{{.Heading}}</h2>
<p>Hi {{.Name}},</p>
{{range .Lines}}<p>{{.}}</p>
{{end}}<p><a href="{{.AppURL}}">Open Solace</a></p>
<p style="color: #6b7280; font-size: 12px;">If you are in crisis, please contact your local emergency number or a crisis line right away.</p>
</body></html>`))

func (s *Service) deliver(to, subject string, m Message) error {
	m.AppURL = s.config.AppURL
	var html bytes.Buffer
	if err := layout.Execute(&html, m); err != nil {
		return fmt.Errorf("render %q: %w", subject, err)
	}
	text := fmt.Sprintf("Hi %s,\n\n%s\n\n%s\n", m.Name, strings.Join(m.Lines, "\n\n"), s.config.AppURL)
	return s.SendHTML(to, subject, text, html.String())
}

func formatWhen(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
}

// SendApplicationDecision tells an applicant their counselor application was decided.
func (s *Service) SendApplicationDecision(to, name string, approved bool, notes string) error {
	m := Message{Name: name, Heading: "Your counselor application was not approved"}
	m.Lines = []string{"Thank you for applying to counsel on Solace. After review we are unable to approve your application at this time."}
	if approved {
		m.Heading = "Welcome to the Solace counselor team"
		m.Lines = []string{"Your counselor application has been approved. Your profile now appears in the counselor directory and members can book sessions with you."}
	}
	if notes != "" {
		m.Lines = append(m.Lines, "Reviewer notes: "+notes)
	}
	return s.deliver(to, m.Heading, m)
}

// SendSessionBooked confirms a new booking to one participant.
func (s *Service) SendSessionBooked(to, name, other string, at time.Time, minutes int) error {
	m := Message{
		Name:    name,
		Heading: "Counseling session booked",
		Lines:   []string{fmt.Sprintf("Your %d-minute session with %s is booked for %s.", minutes, other, formatWhen(at))},
	}
	return s.deliver(to, m.Heading, m)
}

// SendSessionStatus reports a status change or reschedule to one participant.
func (s *Service) SendSessionStatus(to, name, other, status string, at time.Time, reason string) error {
	m := Message{
		Name:    name,
		Heading: "Counseling session update",
		Lines:   []string{fmt.Sprintf("Your session with %s on %s is now %s.", other, formatWhen(at), strings.ReplaceAll(status, "_", " "))},
	}
	if reason != "" {
		m.Lines = append(m.Lines, "Reason: "+reason)
	}
	return s.deliver(to, m.Heading, m)
}

// SendSessionReminder reminds a participant of an upcoming session.
func (s *Service) SendSessionReminder(to, name, other string, at time.Time) error {
	m := Message{
		Name:    name,
		Heading: "Upcoming counseling session",
		Lines:   []string{fmt.Sprintf("Reminder: your session with %s starts at %s.", other, formatWhen(at))},
	}
	return s.deliver(to, m.Heading, m)
}
