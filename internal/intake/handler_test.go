package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/visitplus-leads/internal/delivery"
	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/internal/observability/metrics"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

type recordingAdapter struct {
	name string
	id   string
	err  error

	mu   sync.Mutex
	subs []*leads.Submission
}

func (a *recordingAdapter) Name() string { return a.name }

func (a *recordingAdapter) Deliver(_ context.Context, sub *leads.Submission) (string, error) {
	a.mu.Lock()
	a.subs = append(a.subs, sub)
	a.mu.Unlock()
	return a.id, a.err
}

func (a *recordingAdapter) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs)
}

func (a *recordingAdapter) last() *leads.Submission {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.subs) == 0 {
		return nil
	}
	return a.subs[len(a.subs)-1]
}

func newTestHandler(t *testing.T, variant leads.Variant, plan delivery.Plan) *Handler {
	t.Helper()
	profile, err := leads.ProfileFor(variant)
	require.NoError(t, err)
	m := metrics.NewLeadMetrics(prometheus.NewRegistry())
	logger := logging.Default()
	return NewHandler(Config{
		Profile:    profile,
		Plan:       plan,
		Dispatcher: delivery.NewDispatcher(logger, m, time.Second),
		Logger:     logger,
		Metrics:    m,
		NewID:      func() string { return "local-id" },
		Now:        func() time.Time { return time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC) },
	})
}

func postJSON(t *testing.T, h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestServeHTTP_Options(t *testing.T) {
	h := newTestHandler(t, leads.VariantInquiry, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/lead", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
	assertCORS(t, rec)
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, leads.VariantInquiry, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/lead", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assertCORS(t, rec)
}

func TestServeHTTP_AcceptsInquiryWithDefaultAttribution(t *testing.T) {
	sheets := &recordingAdapter{name: delivery.NameSheetsWebhook}
	crm := &recordingAdapter{name: delivery.NameCRM, id: "hubspot-1"}
	email := &recordingAdapter{name: delivery.NameEmail}
	h := newTestHandler(t, leads.VariantInquiry, delivery.Plan{{Adapter: sheets}, {Adapter: crm}, {Adapter: email}})

	rec := postJSON(t, h, `{"name":"홍길동","email":"hong@example.com","phone":"010-1234-5678"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assertCORS(t, rec)
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, MsgAccepted, resp.Message)
	assert.Equal(t, "local-id", resp.ID, "optional adapter ids are not surfaced")

	sub := sheets.last()
	require.NotNil(t, sub)
	assert.Equal(t, leads.Attribution{Source: "direct", Medium: "none", Campaign: "none"}, sub.Attribution)
	assert.Equal(t, time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC), sub.SubmittedAt)
	assert.Empty(t, sub.IPAddress, "inquiry variant does not record client metadata")
	assert.Equal(t, 1, crm.calls())
	assert.Equal(t, 1, email.calls())
}

func TestServeHTTP_InvalidPhoneIsRejectedWithoutDelivery(t *testing.T) {
	crm := &recordingAdapter{name: delivery.NameCRM}
	h := newTestHandler(t, leads.VariantInquiry, delivery.Plan{{Adapter: crm}})

	rec := postJSON(t, h, `{"name":"홍길동","email":"hong@example.com","phone":"123"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertCORS(t, rec)
	assert.Equal(t, MsgInvalid, decodeError(t, rec))
	assert.Equal(t, 0, crm.calls())
}

func TestServeHTTP_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		variant leads.Variant
		body    string
	}{
		{leads.VariantInquiry, `{"email":"hong@example.com","phone":"010-1234-5678"}`},
		{leads.VariantInquiry, `{"name":"홍길동","email":"hong@example.com"}`},
		{leads.VariantInquiry, `{"name":"홍길동","phone":"010-1234-5678"}`},
		{leads.VariantDatabase, `{"name":"   ","phone":"010-1234-5678"}`},
		{leads.VariantDatabase, `{"name":"홍길동","phone":"abc","email":""}`},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("%s-%d", tc.variant, i), func(t *testing.T) {
			adapter := &recordingAdapter{name: delivery.NameDatabase}
			h := newTestHandler(t, tc.variant, delivery.Plan{{Adapter: adapter, Required: true}})
			rec := postJSON(t, h, tc.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
			assert.Equal(t, 0, adapter.calls())
		})
	}
}

func TestServeHTTP_MissingBeatsInvalidMessage(t *testing.T) {
	h := newTestHandler(t, leads.VariantInquiry, nil)
	rec := postJSON(t, h, `{"name":"","email":"bad","phone":"010-1234-5678"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgMissing, decodeError(t, rec))
}

func TestServeHTTP_MandatoryFailureIs500(t *testing.T) {
	sheets := &recordingAdapter{name: delivery.NameSheetsWebhook}
	crm := &recordingAdapter{name: delivery.NameCRM, err: errors.New("hubspot 401: secret detail")}
	email := &recordingAdapter{name: delivery.NameEmail}
	h := newTestHandler(t, leads.VariantInquiry, delivery.Plan{{Adapter: sheets}, {Adapter: crm, Required: true}, {Adapter: email}})

	rec := postJSON(t, h, `{"name":"홍길동","email":"hong@example.com","phone":"010-1234-5678"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assertCORS(t, rec)
	msg := decodeError(t, rec)
	assert.Equal(t, MsgFailed, msg)
	assert.NotContains(t, msg, "secret")
	assert.Equal(t, 0, email.calls(), "optional steps after the mandatory failure are skipped")
}

func TestServeHTTP_OptionalFailuresStillSucceed(t *testing.T) {
	sheets := &recordingAdapter{name: delivery.NameSheetsWebhook, err: errors.New("timeout")}
	email := &recordingAdapter{name: delivery.NameEmail, err: errors.New("resend 500")}
	h := newTestHandler(t, leads.VariantInquiry, delivery.Plan{{Adapter: sheets}, {Adapter: email}})

	rec := postJSON(t, h, `{"name":"홍길동","email":"hong@example.com","phone":"010-1234-5678"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
}

func TestServeHTTP_DatabaseVariantRecordsMetadataAndLeadID(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	h := newTestHandler(t, leads.VariantDatabase, delivery.Plan{{Adapter: delivery.NewDatabase(repo)}})

	rec := postJSON(t, h, `{"name":"홍길동","phone":"010-1234-5678"}`, map[string]string{
		"X-Forwarded-For": "203.0.113.7, 10.0.0.1",
		"User-Agent":      "Mozilla/5.0",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "local-id", resp.LeadID)

	stored, err := repo.GetByID(context.Background(), "local-id")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", stored.IPAddress)
	assert.Equal(t, "Mozilla/5.0", stored.UserAgent)
}

func TestServeHTTP_DatabaseVariantUnknownMetadata(t *testing.T) {
	db := &recordingAdapter{name: delivery.NameDatabase, id: "row-9"}
	h := newTestHandler(t, leads.VariantDatabase, delivery.Plan{{Adapter: db}})

	req := httptest.NewRequest(http.MethodPost, "/api/lead-db", strings.NewReader(`{"name":"홍길동","phone":"01012345678"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Del("User-Agent")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sub := db.last()
	assert.Equal(t, leads.Unknown, sub.IPAddress)
	assert.Equal(t, leads.Unknown, sub.UserAgent)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "row-9", resp.LeadID)
}

func TestServeHTTP_MalformedBodyIs500(t *testing.T) {
	h := newTestHandler(t, leads.VariantInquiry, nil)
	rec := postJSON(t, h, `{"name":`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MsgFailed, decodeError(t, rec))
	assertCORS(t, rec)
}

func TestServeHTTP_UnsupportedContentType(t *testing.T) {
	h := newTestHandler(t, leads.VariantInquiry, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/lead", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type upload struct {
	field, filename, contentType string
	size                         int
}

func multipartRequest(t *testing.T, fields map[string]string, files []upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0xff}, f.size))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/lead-photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestServeHTTP_PhotoVariantForwardsAllImages(t *testing.T) {
	crm := &recordingAdapter{name: delivery.NameCRM, id: "hubspot-7"}
	email := &recordingAdapter{name: delivery.NameEmail}
	h := newTestHandler(t, leads.VariantPhoto, delivery.Plan{{Adapter: crm, Required: true}, {Adapter: email}})

	req := multipartRequest(t, map[string]string{
		"name":       "홍길동",
		"phone":      "010-1234-5678",
		"category":   "에르메스",
		"area":       "경기 성남시",
		"utm_source": "instagram",
	}, []upload{
		{"image2", "c.jpg", "image/jpeg", 300},
		{"image0", "a.jpg", "image/jpeg", 100},
		{"image1", "b.png", "image/png", 200},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "hubspot-7", resp.ID)

	sub := crm.last()
	require.Len(t, sub.Attachments, 3)
	assert.Equal(t, "a.jpg", sub.Attachments[0].Filename)
	assert.Equal(t, "c.jpg", sub.Attachments[2].Filename)
	assert.Len(t, sub.Attachments[2].Data, 300)
	assert.Equal(t, "instagram", sub.Attribution.Source)
	assert.Equal(t, "none", sub.Attribution.Medium)
	assert.Equal(t, 1, email.calls())
}

func TestServeHTTP_PhotoVariantRejectsNonImage(t *testing.T) {
	crm := &recordingAdapter{name: delivery.NameCRM}
	h := newTestHandler(t, leads.VariantPhoto, delivery.Plan{{Adapter: crm, Required: true}})

	req := multipartRequest(t, map[string]string{"name": "홍길동", "phone": "010-1234-5678"},
		[]upload{{"image0", "doc.pdf", "application/pdf", 10}})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgInvalid, decodeError(t, rec))
	assert.Equal(t, 0, crm.calls())
}

func TestServeHTTP_ConcurrentRequestsAreIndependent(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	profile, _ := leads.ProfileFor(leads.VariantDatabase)
	var (
		mu sync.Mutex
		n  int
	)
	h := NewHandler(Config{
		Profile: profile,
		Plan:    delivery.Plan{{Adapter: delivery.NewDatabase(repo), Required: true}},
		Metrics: metrics.NewLeadMetrics(prometheus.NewRegistry()),
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("lead-%d", n)
		},
	})

	var wg sync.WaitGroup
	codes := make([]int, 20)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := postJSON(t, h, fmt.Sprintf(`{"name":"고객%02d","phone":"010-1234-56%02d"}`, i, i), nil)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for _, c := range codes {
		assert.Equal(t, http.StatusOK, c)
	}
	all, err := repo.List(context.Background(), leads.ListFilter{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
