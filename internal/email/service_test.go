package email

import (
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   bool
	}{
		{"complete", Config{Host: "smtp.corp.test", Port: "587", From: "noreply@corp.test"}, true},
		{"missing host", Config{Port: "587", From: "noreply@corp.test"}, false},
		{"missing from", Config{Host: "smtp.corp.test", Port: "587"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewService(tc.config).IsConfigured(); got != tc.want {
				t.Fatalf("IsConfigured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSendRequiresConfiguration(t *testing.T) {
	if err := NewService(Config{}).SendHTMLEmail([]string{"a@corp.test"}, "s", "t", "h"); err == nil {
		t.Fatal("expected error when unconfigured")
	}
}

func TestSendMeetingInvite(t *testing.T) {
	svc := NewService(Config{Host: "smtp.corp.test", Port: "25", From: "noreply@corp.test", FromName: "Intranet"})
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	svc.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	start := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	err := svc.SendMeetingInvite([]string{"ada@corp.test", "lin@corp.test"}, MeetingInviteData{
		Title: "Sprint <review>", Organizer: "Grace", StartsAt: start, EndsAt: start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("SendMeetingInvite: %v", err)
	}
	if gotAddr != "smtp.corp.test:25" || len(gotTo) != 2 {
		t.Fatalf("addr=%s to=%v", gotAddr, gotTo)
	}
	for _, want := range []string{
		"From: Intranet <noreply@corp.test>",
		"Subject: Meeting invitation: Sprint <review>",
		"Sprint &lt;review&gt;",
		"Mon 02 Mar 2026 09:30",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message missing %q:\n%s", want, gotMsg)
		}
	}
}

func TestSendSkipsEmptyRecipients(t *testing.T) {
	svc := NewService(Config{Host: "h", Port: "25", From: "f@corp.test"})
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send should not be called")
		return nil
	}
	if err := svc.SendHTMLEmail(nil, "s", "t", "h"); err != nil {
		t.Fatal(err)
	}
}
