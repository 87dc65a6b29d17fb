package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

type captured struct {
	addr string
	to   []string
	msg  string
}

func newTestService(t *testing.T) (*Service, *captured) {
	t.Helper()
	s := NewService(Config{Host: "smtp.test", Port: "587", From: "noreply@solace.test", FromName: "Solace", AppURL: "https://solace.test"})
	c := &captured{}
	s.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		c.addr, c.to, c.msg = addr, to, string(msg)
		return nil
	}
	return s, c
}

func TestNotConfigured(t *testing.T) {
	s := NewService(Config{})
	if err := s.SendApplicationDecision("a@b.c", "A", true, ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestApplicationDecision(t *testing.T) {
	s, c := newTestService(t)
	if err := s.SendApplicationDecision("sam@example.com", "Sam <b>", true, "great credentials"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if c.addr != "smtp.test:587" || len(c.to) != 1 || c.to[0] != "sam@example.com" {
		t.Fatalf("unexpected envelope %+v", c)
	}
	for _, want := range []string{
		"Subject: Welcome to the Solace counselor team",
		"From: Solace <noreply@solace.test>",
		"Reviewer notes: great credentials",
		"Sam &lt;b&gt;",
	} {
		if !strings.Contains(c.msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSessionStatus(t *testing.T) {
	s, c := newTestService(t)
	at := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	if err := s.SendSessionStatus("p@example.com", "Pat", "Dr. Lee", "in_progress", at, ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(c.msg, "is now in progress") || !strings.Contains(c.msg, "Wed, 04 Mar 2026 15:30 UTC") {
		t.Fatalf("unexpected body:\n%s", c.msg)
	}
}
