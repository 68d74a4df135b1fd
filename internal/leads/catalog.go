package leads

// Brands accepted for appraisal. "기타" covers anything not listed.
var categories = []string{
	"에르메스",
	"샤넬",
	"루이비통",
	"구찌",
	"프라다",
	"발렌시아가",
	"셀린느",
	"디올",
	"기타",
}

// AreaGroup lists the service areas inside one province or metropolitan city.
type AreaGroup struct {
	Province string   `json:"province"`
	Areas    []string `json:"areas"`
}

var areaGroups = []AreaGroup{
	{Province: "서울", Areas: []string{
		"서울 강남구", "서울 강동구", "서울 강북구", "서울 강서구", "서울 관악구",
		"서울 광진구", "서울 구로구", "서울 금천구", "서울 노원구", "서울 도봉구",
		"서울 동대문구", "서울 동작구", "서울 마포구", "서울 서대문구", "서울 서초구",
		"서울 성동구", "서울 성북구", "서울 송파구", "서울 양천구", "서울 영등포구",
		"서울 용산구", "서울 은평구", "서울 종로구", "서울 중구", "서울 중랑구",
	}},
	{Province: "경기", Areas: []string{
		"경기 성남시", "경기 용인시", "경기 수원시", "경기 고양시", "경기 부천시",
		"경기 안양시", "경기 과천시", "경기 하남시", "경기 화성시",
	}},
	{Province: "인천", Areas: []string{
		"인천 연수구", "인천 남동구", "인천 부평구",
	}},
}

var (
	categorySet = toSet(categories)
	areaSet     = func() map[string]struct{} {
		out := map[string]struct{}{}
		for _, g := range areaGroups {
			for _, a := range g.Areas {
				out[a] = struct{}{}
			}
		}
		return out
	}()
)

// Categories returns the closed brand list in display order.
func Categories() []string {
	return append([]string(nil), categories...)
}

// Areas returns service areas grouped by province.
func Areas() []AreaGroup {
	out := make([]AreaGroup, len(areaGroups))
	for i, g := range areaGroups {
		out[i] = AreaGroup{Province: g.Province, Areas: append([]string(nil), g.Areas...)}
	}
	return out
}

func IsCategory(v string) bool {
	_, ok := categorySet[v]
	return ok
}

func IsArea(v string) bool {
	_, ok := areaSet[v]
	return ok
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
