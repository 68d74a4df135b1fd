package web

import (
	"encoding/json"
	"net/http"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Defaults for the confirmation page contact block.
const (
	DefaultSupportPhone = "02-1234-5678"
	DefaultKakaoURL     = "https://pf.kakao.com/_xXxXxX"
)

// ThanksConfig controls the analytics tags and contact links on /thanks.
type ThanksConfig struct {
	GAMeasurementID     string
	AdsConversionSendTo string
	SupportPhone        string
	KakaoURL            string
}

type nextStep struct {
	title, body string
}

var nextSteps = []nextStep{
	{"담당자 연락", "영업일 기준 24시간 이내에 전화 또는 카카오톡으로 연락드립니다"},
	{"방문 일정 협의", "고객님께 편리한 시간대에 맞춰 방문 일정을 잡아드립니다"},
	{"전문 감정 및 매입", "전문 감정사가 방문하여 정확한 감정 후 즉시 현금 매입합니다"},
}

// Thanks renders the post-submission confirmation page. It has no
// precondition and can be opened directly.
func Thanks(cfg ThanksConfig) http.HandlerFunc {
	if cfg.SupportPhone == "" {
		cfg.SupportPhone = DefaultSupportPhone
	}
	if cfg.KakaoURL == "" {
		cfg.KakaoURL = DefaultKakaoURL
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = ThanksPage(cfg).Render(w)
	}
}

// ThanksPage builds the confirmation document.
func ThanksPage(cfg ThanksConfig) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("ko"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				Meta(Name("robots"), Content("noindex")),
				TitleEl(g.Text("신청 완료 | VisitPlus")),
				gtagScripts(cfg),
			),
			Body(
				Main(
					Class("min-h-screen bg-gradient-to-b from-blue-50 to-white"),
					Div(Class("container mx-auto px-4 py-20"),
						Div(Class("max-w-2xl mx-auto text-center"),
							Div(Class("mb-8"),
								Span(Class("inline-flex items-center justify-center w-24 h-24 bg-green-100 rounded-full text-green-600 text-5xl"), g.Text("✓")),
							),
							H1(Class("text-3xl md:text-4xl font-bold text-gray-900 mb-4"), g.Text("신청이 완료되었습니다!")),
							P(Class("text-xl text-gray-600 mb-8"), g.Text("24시간 이내에 담당자가 연락드릴 예정입니다")),
							stepsBox(),
							quickContact(cfg.SupportPhone),
							Div(Class("space-y-4"),
								A(Href(cfg.KakaoURL), Target("_blank"), Rel("noopener noreferrer"),
									Class("inline-flex items-center justify-center w-full sm:w-auto px-8 py-4 bg-yellow-400 text-gray-900 font-medium rounded-lg"),
									g.Text("카카오톡으로 문의하기"),
								),
								Div(A(Href("/"), Class("text-gray-600"), g.Text("홈으로 돌아가기"))),
							),
						),
					),
				),
			),
		),
	})
}

func stepsBox() g.Node {
	items := make([]g.Node, 0, len(nextSteps))
	for i, s := range nextSteps {
		items = append(items, Div(Class("flex items-start"),
			Span(Class("flex-shrink-0 w-8 h-8 bg-blue-100 text-blue-600 rounded-full flex items-center justify-center font-semibold text-sm"),
				g.Textf("%d", i+1)),
			Div(Class("ml-4"),
				H3(Class("font-medium text-gray-900"), g.Text(s.title)),
				P(Class("text-gray-600 text-sm mt-1"), g.Text(s.body)),
			),
		))
	}
	return Div(Class("bg-white rounded-lg shadow-lg p-8 mb-8"),
		H2(Class("text-xl font-semibold text-gray-900 mb-4"), g.Text("다음 단계 안내")),
		Div(Class("space-y-4 text-left"), g.Group(items)),
	)
}

func quickContact(phone string) g.Node {
	return Div(Class("bg-blue-50 rounded-lg p-6 mb-8"),
		P(Class("text-gray-700"),
			Strong(g.Text("빠른 문의:")),
			g.Text(" 급하신 경우 "),
			A(Href("tel:"+phone), Class("text-blue-600 font-medium ml-1"), g.Text(phone)),
			g.Text("로 직접 연락주시면 더욱 빠르게 처리해드립니다"),
		),
	)
}

// gtagScripts loads gtag.js and fires the Ads conversion on page view.
// Nothing is emitted without a measurement id.
func gtagScripts(cfg ThanksConfig) g.Node {
	if cfg.GAMeasurementID == "" {
		return nil
	}
	id := jsString(cfg.GAMeasurementID)
	inline := "window.dataLayer=window.dataLayer||[];" +
		"function gtag(){dataLayer.push(arguments);}" +
		"gtag('js',new Date());" +
		"gtag('config'," + id + ");"
	if cfg.AdsConversionSendTo != "" {
		inline += "gtag('event','conversion',{'send_to':" + jsString(cfg.AdsConversionSendTo) + ",'value':1.0,'currency':'KRW'});"
	}
	return g.Group([]g.Node{
		Script(g.Attr("async"), Src("https://www.googletagmanager.com/gtag/js?id="+cfg.GAMeasurementID)),
		Script(g.Raw(inline)),
	})
}

// jsString quotes s as a JS string literal; json escapes <, > and & so the
// value cannot close the script element.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
