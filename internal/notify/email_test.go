package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/mailgun/mailgun-go/v4"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != DefaultFromName {
		t.Errorf("expected default from name %q, got %q", DefaultFromName, sender.fromName)
	}
}

type fakeSendGrid struct {
	status int
	err    error
	last   *mail.SGMailV3
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.last = m
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status}, nil
}

func TestSendGridSender_SendUsesMessageFrom(t *testing.T) {
	fake := &fakeSendGrid{status: http.StatusAccepted}
	sender := &SendGridSender{client: fake, fromEmail: "noreply@visitplus.kr", fromName: "VisitPlus Korea", logger: logging.Default()}

	err := sender.Send(context.Background(), EmailMessage{
		From:     "system@visitplus.kr",
		FromName: "VisitPlus System",
		To:       "sales@visitplus.kr",
		Subject:  "[신규 문의] 홍길동",
		HTML:     "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.last.From.Address != "system@visitplus.kr" {
		t.Errorf("expected message from override, got %s", fake.last.From.Address)
	}
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	fake := &fakeSendGrid{status: http.StatusUnauthorized}
	sender := &SendGridSender{client: fake, fromEmail: "noreply@visitplus.kr", logger: logging.Default()}

	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.co", Subject: "s", Body: "b"}); err == nil {
		t.Error("expected error for 401 status")
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{
		client: nil,
	}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})

	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})

	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
	if got := sender.Sent(); len(got) != 1 || got[0].Subject != "Test Subject" {
		t.Errorf("expected recorded message, got %+v", got)
	}
}

func TestResendSender_Send(t *testing.T) {
	var (
		gotAuth string
		gotBody resendRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"re_123"}`))
	}))
	defer srv.Close()

	sender := NewResendSender(ResendConfig{APIKey: "re_key", BaseURL: srv.URL, FromEmail: "noreply@visitplus.kr"}, nil)
	err := sender.Send(context.Background(), EmailMessage{To: "hong@example.com", Subject: "[VisitPlus] 문의가 접수되었습니다", HTML: "<h2>hi</h2>", Tag: TagCustomerAck})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer re_key" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotBody.From != "VisitPlus Korea <noreply@visitplus.kr>" {
		t.Errorf("unexpected from %q", gotBody.From)
	}
	if gotBody.To != "hong@example.com" || gotBody.HTML != "<h2>hi</h2>" {
		t.Errorf("unexpected body %+v", gotBody)
	}
	if len(gotBody.Tags) != 1 || gotBody.Tags[0].Value != "lead-ack" || gotBody.ReplyTo != "" {
		t.Errorf("unexpected tags or reply-to %+v", gotBody)
	}
}

func TestResendSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	sender := NewResendSender(ResendConfig{APIKey: "bad", BaseURL: srv.URL}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.co", Subject: "s"}); err == nil {
		t.Error("expected error for 403 response")
	}
}

func TestNewResendSender_NilWithoutAPIKey(t *testing.T) {
	if NewResendSender(ResendConfig{}, nil) != nil {
		t.Error("expected nil sender without api key")
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSender(fake, SESConfig{FromEmail: "noreply@visitplus.kr"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "hong@example.com", ToName: "홍길동", Subject: "s", Body: "b", HTML: "<p>b</p>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(fake.input.FromEmailAddress); got != "VisitPlus Korea <noreply@visitplus.kr>" {
		t.Errorf("unexpected from %q", got)
	}
	if fake.input.Content.Simple.Body.Html == nil || fake.input.Content.Simple.Body.Text == nil {
		t.Error("expected both text and html bodies")
	}

	if fake.input.ConfigurationSetName != nil || fake.input.ReplyToAddresses != nil {
		t.Error("expected no configuration set or reply-to by default")
	}

	fake.err = errors.New("throttled")
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.co"}); err == nil {
		t.Error("expected error from SES")
	}
}

func TestSESSender_ReplyToTagAndConfigurationSet(t *testing.T) {
	fake := &fakeSES{}
	sender := NewSESSender(fake, SESConfig{FromEmail: "noreply@visitplus.kr", ConfigurationSet: "leads"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		From:     "system@visitplus.kr",
		FromName: "VisitPlus System",
		To:       "sales@visitplus.kr",
		Subject:  "[신규 문의] 홍길동",
		Body:     "b",
		ReplyTo:  "hong@example.com",
		Tag:      TagSalesNotification,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := fake.input
	if got := aws.ToString(in.FromEmailAddress); got != "VisitPlus System <system@visitplus.kr>" {
		t.Errorf("unexpected from %q", got)
	}
	if len(in.ReplyToAddresses) != 1 || in.ReplyToAddresses[0] != "hong@example.com" {
		t.Errorf("unexpected reply-to %v", in.ReplyToAddresses)
	}
	if aws.ToString(in.ConfigurationSetName) != "leads" {
		t.Errorf("unexpected configuration set %v", in.ConfigurationSetName)
	}
	if len(in.EmailTags) != 1 || aws.ToString(in.EmailTags[0].Value) != "lead-sales" {
		t.Errorf("unexpected tags %+v", in.EmailTags)
	}
	if in.Content.Simple.Body.Html != nil {
		t.Error("expected no html body")
	}
}

type fakeMailgun struct {
	impl *mailgun.MailgunImpl
	sent []*mailgun.Message
	err  error
	from string
	to   []string
}

func (f *fakeMailgun) NewMessage(from, subject, text string, to ...string) *mailgun.Message {
	f.from = from
	f.to = to
	return f.impl.NewMessage(from, subject, text, to...)
}

func (f *fakeMailgun) Send(_ context.Context, m *mailgun.Message) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.sent = append(f.sent, m)
	return "Queued. Thank you.", "<mg-1@visitplus.kr>", nil
}

func TestMailgunSender_Send(t *testing.T) {
	fake := &fakeMailgun{impl: mailgun.NewMailgun("mg.visitplus.kr", "key")}
	sender := &MailgunSender{client: fake, fromEmail: "noreply@visitplus.kr", fromName: "VisitPlus Korea", logger: logging.Default()}

	err := sender.Send(context.Background(), EmailMessage{To: "hong@example.com", ToName: "홍길동", Subject: "s", HTML: "<p>x</p>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(fake.sent))
	}
	if fake.from != "VisitPlus Korea <noreply@visitplus.kr>" {
		t.Errorf("unexpected from %q", fake.from)
	}
	if len(fake.to) != 1 || fake.to[0] != "홍길동 <hong@example.com>" {
		t.Errorf("unexpected to %v", fake.to)
	}

	fake.err = errors.New("401 unauthorized")
	if err := sender.Send(context.Background(), EmailMessage{To: "a@b.co"}); err == nil {
		t.Error("expected mailgun error")
	}
}

func TestNewMailgunSender_RequiresDomainAndKey(t *testing.T) {
	if NewMailgunSender(MailgunConfig{APIKey: "key"}, nil) != nil {
		t.Error("expected nil without domain")
	}
	if NewMailgunSender(MailgunConfig{Domain: "mg.visitplus.kr", APIKey: "key"}, nil) == nil {
		t.Error("expected sender when configured")
	}
}
