package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

var (
	errUnsupportedMediaType = errors.New("intake: unsupported content type")
	imageFieldRE            = regexp.MustCompile(`^image(\d+)$`)
)

type jsonBody struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Category    string `json:"category"`
	Area        string `json:"area"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
}

// parseInput decodes the body by its declared encoding.
func parseInput(r *http.Request, maxMemory int64) (leads.Input, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return leads.Input{}, fmt.Errorf("%w: %v", errUnsupportedMediaType, err)
	}
	switch mediaType {
	case "application/json":
		return parseJSON(r.Body)
	case "multipart/form-data":
		return parseMultipart(r, maxMemory)
	}
	return leads.Input{}, fmt.Errorf("%w: %s", errUnsupportedMediaType, mediaType)
}

func parseJSON(body io.Reader) (leads.Input, error) {
	var b jsonBody
	if err := json.NewDecoder(body).Decode(&b); err != nil {
		return leads.Input{}, fmt.Errorf("intake: decode json: %w", err)
	}
	return leads.Input{
		Name:     b.Name,
		Email:    b.Email,
		Phone:    b.Phone,
		Category: b.Category,
		Area:     b.Area,
		Attribution: leads.Attribution{
			Source:   b.UTMSource,
			Medium:   b.UTMMedium,
			Campaign: b.UTMCampaign,
			Term:     b.UTMTerm,
			Content:  b.UTMContent,
		},
	}, nil
}

func parseMultipart(r *http.Request, maxMemory int64) (leads.Input, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return leads.Input{}, fmt.Errorf("intake: parse multipart: %w", err)
	}
	form := r.MultipartForm
	defer form.RemoveAll()

	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	in := leads.Input{
		Name:     value("name"),
		Email:    value("email"),
		Phone:    value("phone"),
		Category: value("category"),
		Area:     value("area"),
		Attribution: leads.Attribution{
			Source:   value("utm_source"),
			Medium:   value("utm_medium"),
			Campaign: value("utm_campaign"),
			Term:     value("utm_term"),
			Content:  value("utm_content"),
		},
	}

	type indexed struct {
		index int
		fh    *multipart.FileHeader
	}
	var files []indexed
	for key, fhs := range form.File {
		m := imageFieldRE.FindStringSubmatch(key)
		if m == nil || len(fhs) == 0 {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		files = append(files, indexed{index: idx, fh: fhs[0]})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	for _, f := range files {
		att, err := readAttachment(f.fh)
		if err != nil {
			return leads.Input{}, err
		}
		in.Attachments = append(in.Attachments, att)
	}
	return in, nil
}

func readAttachment(fh *multipart.FileHeader) (leads.Attachment, error) {
	file, err := fh.Open()
	if err != nil {
		return leads.Attachment{}, fmt.Errorf("intake: open %s: %w", fh.Filename, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return leads.Attachment{}, fmt.Errorf("intake: read %s: %w", fh.Filename, err)
	}
	return leads.Attachment{
		Filename:    fh.Filename,
		ContentType: strings.TrimSpace(fh.Header.Get("Content-Type")),
		Size:        fh.Size,
		Data:        data,
	}, nil
}
