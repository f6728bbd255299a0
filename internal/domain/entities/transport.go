package entities

// TransportMode is the MVMN_CD_1 code of a trip leg.
type TransportMode int

const (
	ModePrivateCar   TransportMode = 1
	ModeRentalCar    TransportMode = 2
	ModeCamper       TransportMode = 3
	ModeTaxi         TransportMode = 4
	ModeSubway       TransportMode = 5
	ModeExpressRail  TransportMode = 6
	ModeHighSpeed    TransportMode = 7
	ModeRegularRail  TransportMode = 8
	ModeAircraft     TransportMode = 9
	ModeShip         TransportMode = 10
	ModeTourBus      TransportMode = 11
	ModeIntercityBus TransportMode = 12
	ModeCityBus      TransportMode = 13
	ModeBicycle      TransportMode = 14
	ModeWalk         TransportMode = 15
	ModeOther        TransportMode = 16
	ModeBusSubway    TransportMode = 50
)

// Raw transport labels as they appear in the survey code book.
const (
	LabelPrivateCar   = "자가용(승용/승합/트럭 등등)"
	LabelRentalCar    = "렌터카(승용/승합/버스 등등)"
	LabelCamper       = "캠핑카(자차 및 렌탈)"
	LabelTaxi         = "택시"
	LabelSubway       = "지하철"
	LabelExpressRail  = "고속전철(ITX 등)"
	LabelHighSpeed    = "KTX/SRT(고속열차)"
	LabelRegularRail  = "새마을/무궁화열차"
	LabelAircraft     = "항공기"
	LabelShip         = "배/선박"
	LabelTourBus      = "관광버스"
	LabelIntercityBus = "시외/고속버스"
	LabelCityBus      = "시내/마을버스"
	LabelBicycle      = "자전거"
	LabelWalk         = "도보"
	LabelOther        = "기타"
	LabelBusSubway    = "버스 + 지하철"
	LabelDeparture    = "출발"

	// UnknownModeLabel renders a code outside the table; it has priority 0.
	UnknownModeLabel = "미상"
)

// Label returns the raw survey label for the mode.
func (m TransportMode) Label() string {
	switch m {
	case ModePrivateCar:
		return LabelPrivateCar
	case ModeRentalCar:
		return LabelRentalCar
	case ModeCamper:
		return LabelCamper
	case ModeTaxi:
		return LabelTaxi
	case ModeSubway:
		return LabelSubway
	case ModeExpressRail:
		return LabelExpressRail
	case ModeHighSpeed:
		return LabelHighSpeed
	case ModeRegularRail:
		return LabelRegularRail
	case ModeAircraft:
		return LabelAircraft
	case ModeShip:
		return LabelShip
	case ModeTourBus:
		return LabelTourBus
	case ModeIntercityBus:
		return LabelIntercityBus
	case ModeCityBus:
		return LabelCityBus
	case ModeBicycle:
		return LabelBicycle
	case ModeWalk:
		return LabelWalk
	case ModeOther:
		return LabelOther
	case ModeBusSubway:
		return LabelBusSubway
	default:
		return UnknownModeLabel
	}
}

// LabelPriority scores a raw label for dominant-mode selection. Labels outside
// the table (including the combined bus+subway label) score 0.
func LabelPriority(label string) float64 {
	switch label {
	case LabelAircraft:
		return 10
	case LabelPrivateCar, LabelExpressRail, LabelHighSpeed, LabelRegularRail, LabelShip:
		return 4
	case LabelRentalCar, LabelCamper, LabelTourBus, LabelIntercityBus:
		return 3
	case LabelTaxi:
		return 2
	case LabelSubway, LabelCityBus, LabelBicycle:
		return 1
	case LabelWalk:
		return 0.1
	case LabelOther:
		return 0.01
	case LabelDeparture:
		return 0
	default:
		return 0
	}
}

// Short transport labels offered to users and used by the lodging cohort.
const (
	ShortPrivateCar = "자가용"
	ShortRentalCar  = "렌터카"
	ShortTaxi       = "택시"
	ShortSubway     = "지하철"
	ShortTrain      = "기차"
	ShortAircraft   = "항공기"
	ShortShip       = "배/선박"
	ShortBus        = "버스"
	ShortWalk       = "도보"
	ShortOther      = "기타"
)

// ShortTransportLabels lists the choices a client may send.
var ShortTransportLabels = []string{
	ShortPrivateCar, ShortBus, ShortTrain, ShortSubway, ShortTaxi,
	ShortShip, ShortRentalCar, ShortAircraft, ShortWalk, ShortOther,
}

// SimplifyLabel collapses a raw label into its short form. Unknown labels
// are returned unchanged.
func SimplifyLabel(raw string) string {
	switch raw {
	case LabelPrivateCar:
		return ShortPrivateCar
	case LabelRentalCar, LabelCamper:
		return ShortRentalCar
	case LabelTaxi:
		return ShortTaxi
	case LabelSubway:
		return ShortSubway
	case LabelExpressRail, LabelHighSpeed, LabelRegularRail:
		return ShortTrain
	case LabelAircraft:
		return ShortAircraft
	case LabelShip:
		return ShortShip
	case LabelTourBus, LabelIntercityBus, LabelCityBus:
		return ShortBus
	case LabelBicycle, LabelWalk:
		return ShortWalk
	case LabelOther:
		return ShortOther
	default:
		return raw
	}
}

// Trip-level transport summaries (tn_travel.MVMN_NM).
const (
	MvmnPrivateCar    = "자가용"
	MvmnPublicTransit = "대중교통 등"
)

// TransitFlag maps a trip's transport summary to the public-transit
// indicator. Anything but the public-transit summary counts as 0.
func TransitFlag(mvmnName string) float64 {
	if mvmnName == MvmnPublicTransit {
		return 1
	}
	return 0
}

// QueryTransitFlag maps a requested short transport label to the same
// indicator: only a private car is non-transit.
func QueryTransitFlag(short string) float64 {
	if short == ShortPrivateCar {
		return 0
	}
	return 1
}
