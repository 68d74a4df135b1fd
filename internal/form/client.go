package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/wolfman30/visitplus-leads/internal/analytics"
	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// NoticeSubmitFailed is the blocking notice shown when a submission fails.
const NoticeSubmitFailed = "문의 접수 중 오류가 발생했습니다. 다시 시도해주세요."

// ThanksPath is where the visitor lands after a successful submission.
const ThanksPath = "/thanks"

// ErrSubmitFailed wraps every transport or non-2xx failure.
var ErrSubmitFailed = errors.New("form: submission failed")

// Receipt is the intake endpoint's success body.
type Receipt struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	LeadID  string `json:"leadId,omitempty"`
}

// Navigator moves the visitor to another page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Notifier shows a blocking message to the visitor.
type Notifier interface {
	Alert(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Alert(msg string) { f(msg) }

// Client sends form values to the Lead Intake Endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	pageURL    func() *url.URL
	tracker    analytics.Tracker
	navigator  Navigator
	notifier   Notifier
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPageURL sets how the current page URL is read. It is called on every
// submission so attribution reflects the URL at submit time.
func WithPageURL(fn func() *url.URL) ClientOption {
	return func(c *Client) { c.pageURL = fn }
}

// WithTracker sets the analytics sink.
func WithTracker(t analytics.Tracker) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.tracker = t
		}
	}
}

// WithNavigator sets the post-success navigation hook.
func WithNavigator(n Navigator) ClientOption {
	return func(c *Client) { c.navigator = n }
}

// WithNotifier sets the failure notice hook.
func WithNotifier(n Notifier) ClientOption {
	return func(c *Client) { c.notifier = n }
}

// NewClient creates a client posting to endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tracker:    analytics.Nop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit issues exactly one request. JSON is used when there are no
// attachments, multipart otherwise. Any non-2xx status is a failure.
func (c *Client) Submit(ctx context.Context, in leads.Input) (Receipt, error) {
	var page *url.URL
	if c.pageURL != nil {
		page = c.pageURL()
	}
	in.Attribution = analytics.AttributionFromURL(page)

	receipt, err := c.send(ctx, in)
	if err != nil {
		if c.notifier != nil {
			c.notifier.Alert(NoticeSubmitFailed)
		}
		return Receipt{}, err
	}

	c.tracker.Track(ctx, analytics.FormSubmit)
	c.tracker.Track(ctx, analytics.LeadGenerated)
	if c.navigator != nil {
		c.navigator.Navigate(ThanksPath)
	}
	return receipt, nil
}

func (c *Client) send(ctx context.Context, in leads.Input) (Receipt, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if len(in.Attachments) == 0 {
		body, contentType, err = encodeJSON(in)
	} else {
		body, contentType, err = encodeMultipart(in)
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: encode: %v", ErrSubmitFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, fmt.Errorf("%w: status %d", ErrSubmitFailed, resp.StatusCode)
	}
	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil && !errors.Is(err, io.EOF) {
		return Receipt{}, fmt.Errorf("%w: decode: %v", ErrSubmitFailed, err)
	}
	return receipt, nil
}

type jsonPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone"`
	Category    string `json:"category,omitempty"`
	Area        string `json:"area,omitempty"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
}

func encodeJSON(in leads.Input) (io.Reader, string, error) {
	raw, err := json.Marshal(jsonPayload{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Category:    in.Category,
		Area:        in.Area,
		UTMSource:   in.Attribution.Source,
		UTMMedium:   in.Attribution.Medium,
		UTMCampaign: in.Attribution.Campaign,
		UTMTerm:     in.Attribution.Term,
		UTMContent:  in.Attribution.Content,
	})
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(raw), "application/json", nil
}

func encodeMultipart(in leads.Input) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"name", in.Name},
		{"email", in.Email},
		{"phone", in.Phone},
		{"category", in.Category},
		{"area", in.Area},
		{"utm_source", in.Attribution.Source},
		{"utm_medium", in.Attribution.Medium},
		{"utm_campaign", in.Attribution.Campaign},
		{"utm_term", in.Attribution.Term},
		{"utm_content", in.Attribution.Content},
	}
	for _, kv := range fields {
		if kv[1] == "" {
			continue
		}
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	for i, a := range in.Attachments {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image%d"; filename=%q`, i, a.Filename))
		h.Set("Content-Type", a.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(a.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
