package intake

import (
	"net/http"
	"strings"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// clientMetadata reads the originating address from proxy headers (first
// X-Forwarded-For hop, then X-Real-IP) and the client identifier from
// User-Agent. Absent values are left empty for NewSubmission to default.
func clientMetadata(r *http.Request) leads.Metadata {
	var ip string
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip == "" {
		ip = strings.TrimSpace(r.Header.Get("X-Real-IP"))
	}
	return leads.Metadata{
		IPAddress: ip,
		UserAgent: strings.TrimSpace(r.Header.Get("User-Agent")),
	}
}
