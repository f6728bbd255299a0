package entities

const (
	// UnknownRegion marks a region the geocoder could not resolve.
	UnknownRegion = "알 수 없음"

	// AnyRegion is the "no preference" choice for a preferred region.
	AnyRegion = "상관없음"
)

// RegionChoices are the preferred regions a plan form offers, spelled as
// the survey tables spell them, with AnyRegion first.
var RegionChoices = []string{
	AnyRegion, "경기", "서울", "인천", "경남", "부산", "충남", "전북특별자치도",
	"제주특별자치도", "대전", "강원특별자치도", "울산", "충북", "경북",
	"광주", "대구", "전남", "세종특별자치시",
}

var sidoShortNames = map[string]string{
	"서울특별시":   "서울",
	"부산광역시":   "부산",
	"대구광역시":   "대구",
	"인천광역시":   "인천",
	"광주광역시":   "광주",
	"대전광역시":   "대전",
	"울산광역시":   "울산",
	"세종특별자치시": "세종",
	"경기도":     "경기",
	"강원특별자치도": "강원",
	"충청북도":    "충북",
	"충청남도":    "충남",
	"전라북도":    "전북",
	"전라남도":    "전남",
	"경상북도":    "경북",
	"경상남도":    "경남",
	"제주특별자치도": "제주",
}

// NormalizeSido shortens a long-form province/metropolitan name to the form
// the survey tables use. Names outside the table are returned unchanged.
func NormalizeSido(name string) string {
	if short, ok := sidoShortNames[name]; ok {
		return short
	}
	return name
}

// IsUnknownRegion reports whether a geocoded region part is missing.
func IsUnknownRegion(name string) bool {
	return name == "" || name == UnknownRegion
}
