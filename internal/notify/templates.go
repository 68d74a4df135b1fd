package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// Sender defaults used when nothing is configured.
const (
	DefaultFromName    = "VisitPlus Korea"
	DefaultFromEmail   = "noreply@visitplus.kr"
	DefaultSystemName  = "VisitPlus System"
	DefaultSystemEmail = "system@visitplus.kr"
	DefaultSalesEmail  = "sales@visitplus.kr"
)

// Tags attached to lead emails for provider-side filtering.
const (
	TagCustomerAck       = "lead-ack"
	TagSalesNotification = "lead-sales"
)

var kst = time.FixedZone("KST", 9*60*60)

// LeadEmailConfig holds the addresses used for lead emails.
type LeadEmailConfig struct {
	FromEmail   string
	FromName    string
	SystemEmail string
	SystemName  string
	SalesEmail  string
}

func (c LeadEmailConfig) withDefaults() LeadEmailConfig {
	if c.FromEmail == "" {
		c.FromEmail = DefaultFromEmail
	}
	if c.FromName == "" {
		c.FromName = DefaultFromName
	}
	if c.SystemEmail == "" {
		c.SystemEmail = DefaultSystemEmail
	}
	if c.SystemName == "" {
		c.SystemName = DefaultSystemName
	}
	if c.SalesEmail == "" {
		c.SalesEmail = DefaultSalesEmail
	}
	return c
}

var customerAckTmpl = template.Must(template.New("customer_ack").Parse(`
<h2>안녕하세요 {{.Name}}님,</h2>
<p>VisitPlus 명품 출장 감정 서비스에 관심을 가져주셔서 감사합니다.</p>
<p>빠른 시일 내에 {{.Phone}}로 연락드려 자세한 안내를 드리겠습니다.</p>
<br>
<p>문의사항이 있으시면 언제든 연락주세요.</p>
<p>감사합니다.</p>
`))

var salesNotificationTmpl = template.Must(template.New("sales_notification").Parse(`
<h2>새로운 문의</h2>
<p><strong>고객 정보:</strong></p>
<ul>
  <li>이름: {{.Name}}</li>
  {{- if .Email}}
  <li>이메일: {{.Email}}</li>
  {{- end}}
  <li>전화: {{.Phone}}</li>
  {{- if .Category}}
  <li>브랜드: {{.Category}}</li>
  {{- end}}
  {{- if .Area}}
  <li>지역: {{.Area}}</li>
  {{- end}}
  {{- if .PhotoCount}}
  <li>사진: {{.PhotoCount}}장</li>
  {{- end}}
  <li>UTM Source: {{.Source}}</li>
  <li>UTM Medium: {{.Medium}}</li>
  <li>UTM Campaign: {{.Campaign}}</li>
  <li>신청일시: {{.SubmittedAt}}</li>
</ul>
`))

type leadView struct {
	Name        string
	Email       string
	Phone       string
	Category    string
	Area        string
	PhotoCount  int
	Source      string
	Medium      string
	Campaign    string
	SubmittedAt string
}

func viewOf(sub *leads.Submission) leadView {
	attr := sub.Attribution.WithDefaults()
	return leadView{
		Name:        sub.Name,
		Email:       sub.Email,
		Phone:       sub.Phone,
		Category:    sub.Category,
		Area:        sub.Area,
		PhotoCount:  len(sub.Attachments),
		Source:      attr.Source,
		Medium:      attr.Medium,
		Campaign:    attr.Campaign,
		SubmittedAt: sub.SubmittedAt.In(kst).Format("2006-01-02 15:04:05"),
	}
}

// CustomerAckEmail builds the acknowledgement sent to the submitter.
func CustomerAckEmail(cfg LeadEmailConfig, sub *leads.Submission) (EmailMessage, error) {
	cfg = cfg.withDefaults()
	html, err := render(customerAckTmpl, viewOf(sub))
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		From:     cfg.FromEmail,
		FromName: cfg.FromName,
		To:       sub.Email,
		ToName:   sub.Name,
		Subject:  "[VisitPlus] 문의가 접수되었습니다",
		Body:     fmt.Sprintf("%s님, 문의가 접수되었습니다. 빠른 시일 내에 %s로 연락드리겠습니다.", sub.Name, sub.Phone),
		HTML:     html,
		Tag:      TagCustomerAck,
	}, nil
}

// SalesNotificationEmail builds the internal alert for the sales inbox.
func SalesNotificationEmail(cfg LeadEmailConfig, sub *leads.Submission) (EmailMessage, error) {
	cfg = cfg.withDefaults()
	html, err := render(salesNotificationTmpl, viewOf(sub))
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		From:     cfg.SystemEmail,
		FromName: cfg.SystemName,
		To:       cfg.SalesEmail,
		Subject:  "[신규 문의] " + strings.TrimSpace(sub.Name),
		Body:     fmt.Sprintf("신규 문의: %s / %s", sub.Name, sub.Phone),
		HTML:     html,
		ReplyTo:  sub.Email,
		Tag:      TagSalesNotification,
	}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
