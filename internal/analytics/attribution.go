package analytics

import (
	"net/url"
	"strings"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// Query parameter names carrying campaign tags.
const (
	ParamSource   = "utm_source"
	ParamMedium   = "utm_medium"
	ParamCampaign = "utm_campaign"
	ParamTerm     = "utm_term"
	ParamContent  = "utm_content"
)

// ParseAttribution reads campaign tags from a query string, applying the
// direct/none/none defaults.
func ParseAttribution(q url.Values) leads.Attribution {
	return leads.Attribution{
		Source:   strings.TrimSpace(q.Get(ParamSource)),
		Medium:   strings.TrimSpace(q.Get(ParamMedium)),
		Campaign: strings.TrimSpace(q.Get(ParamCampaign)),
		Term:     strings.TrimSpace(q.Get(ParamTerm)),
		Content:  strings.TrimSpace(q.Get(ParamContent)),
	}.WithDefaults()
}

// AttributionFromURL is ParseAttribution for a full page URL. A nil URL
// yields the defaults.
func AttributionFromURL(u *url.URL) leads.Attribution {
	if u == nil {
		return ParseAttribution(nil)
	}
	return ParseAttribution(u.Query())
}
