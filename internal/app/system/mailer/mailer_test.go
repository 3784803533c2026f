package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/devweekends/clanverify/internal/domain/models"
	"go.uber.org/zap"
)

func TestRender(t *testing.T) {
	got := Render("{{code}} for {{clan}} ({{email}}) {{code}}", VerificationData{
		Code:  "482913",
		Clan:  "Crimson Guard",
		Email: "a@x.com",
	})
	want := "482913 for Crimson Guard (a@x.com) 482913"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestBuildVerificationEmail_Defaults(t *testing.T) {
	e := BuildVerificationEmail(models.BotConfig{}, VerificationData{
		Code:  "123456",
		Clan:  "Blue Owls",
		Email: "a@x.com",
	})

	if e.To != "a@x.com" {
		t.Errorf("To: got %q", e.To)
	}
	if e.Subject != "Your Verification Code: 123456" {
		t.Errorf("Subject: got %q", e.Subject)
	}
	if e.FromName != models.DefaultEmailFromName {
		t.Errorf("FromName: got %q", e.FromName)
	}
	if !strings.Contains(e.HTMLBody, "123456") || !strings.Contains(e.HTMLBody, "Blue Owls") {
		t.Error("HTML body missing code or clan")
	}
	if strings.Contains(e.HTMLBody, "{{") {
		t.Error("HTML body still has placeholders")
	}
	if !strings.Contains(e.TextBody, "123456") {
		t.Error("text body missing code")
	}
}

func TestBuildVerificationEmail_EscapesHTMLValues(t *testing.T) {
	cfg := models.DefaultBotConfig()
	cfg.EmailTemplate = "<p>{{clan}}</p>"
	e := BuildVerificationEmail(cfg, VerificationData{Code: "1", Clan: "<b>R&D</b>"})

	if e.HTMLBody != "<p>&lt;b&gt;R&amp;D&lt;/b&gt;</p>" {
		t.Errorf("HTMLBody: got %q", e.HTMLBody)
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zap.NewNop())
	if err := s.Send(context.Background(), Email{To: "a@x.com"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSMTPSender_RejectsEmptyRecipient(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 1025, From: "bot@x.com"}, zap.NewNop())
	if err := s.Send(context.Background(), Email{}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

func TestSMTPSender_HonoursCancelledContext(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost", Port: 1025, From: "bot@x.com"}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, Email{To: "a@x.com"}); err != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestNew_PicksSender(t *testing.T) {
	if _, ok := New(SMTPConfig{}, zap.NewNop()).(*LogSender); !ok {
		t.Error("expected LogSender when SMTP is not configured")
	}
	if _, ok := New(SMTPConfig{Host: "smtp", From: "a@b.c"}, zap.NewNop()).(*SMTPSender); !ok {
		t.Error("expected SMTPSender when SMTP is configured")
	}
}
