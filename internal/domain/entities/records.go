package entities

// The record types below are the normalized rows of the travel-survey tables.
// The csv tags are the source column names; the TableSource implementations
// decode into these structs and nothing downstream sees raw columns.

// VisitRecord is one stop of one trip (tn_visit_area_info).
type VisitRecord struct {
	TravelID           string    `csv:"TRAVEL_ID"`
	VisitAreaID        int       `csv:"VISIT_AREA_ID"`
	Name               string    `csv:"VISIT_AREA_NM"`
	RoadAddress        string    `csv:"ROAD_NM_ADDR"`
	X                  NullFloat `csv:"X_COORD"`
	Y                  NullFloat `csv:"Y_COORD"`
	TypeCode           int       `csv:"VISIT_AREA_TYPE_CD"`
	Satisfaction       float64   `csv:"DGSTFN"`
	RevisitYN          YesNo     `csv:"REVISIT_YN"`
	RevisitIntention   float64   `csv:"REVISIT_INTENTION"`
	RecommendIntention float64   `csv:"RCMDTN_INTENTION"`
	BaseScore          float64   `csv:"Calculated_Final_Score"`
	Sido               string    `csv:"SIDO_NM"`
	Sgg                string    `csv:"SGG_NM"`
	Dong               string    `csv:"DONG_NM"`
	StartDate          string    `csv:"VISIT_START_YMD"`
	EndDate            string    `csv:"VISIT_END_YMD"`
}

// HasCoords reports whether both coordinates are present.
func (v *VisitRecord) HasCoords() bool {
	return v.X.Valid && v.Y.Valid
}

// MoveRecord is one leg of a trip (tn_move_his). TRIP_ID in the source joins
// to VISIT_AREA_ID.
type MoveRecord struct {
	TravelID    string `csv:"TRAVEL_ID"`
	VisitAreaID int    `csv:"TRIP_ID"`
	ModeCode    int    `csv:"MVMN_CD_1"`
}

// TravelRecord is the trip master row (tn_travel).
type TravelRecord struct {
	TravelID   string `csv:"TRAVEL_ID"`
	TravelerID string `csv:"TRAVELER_ID"`
	Purpose    string `csv:"TRAVEL_PURPOSE"`
	MvmnName   string `csv:"MVMN_NM"`
}

// TravelerProfile is the traveler master row (tn_traveller_master).
type TravelerProfile struct {
	TravelerID     string `csv:"TRAVELER_ID"`
	Accompany      string `csv:"TRAVEL_STATUS_ACCOMPANY"`
	AgeGroup       int    `csv:"AGE_GRP"`
	CompanionCount int    `csv:"TRAVEL_COMPANIONS_NUM"`
}

// ActivityRecord is one activity performed at a stop (tn_activity_his).
type ActivityRecord struct {
	TravelID     string `csv:"TRAVEL_ID"`
	VisitAreaID  int    `csv:"VISIT_AREA_ID"`
	ActivityCode int    `csv:"ACTIVITY_TYPE_CD"`
}

// CodeEntry maps a code within a family to its label (tc_codeb).
type CodeEntry struct {
	Family string `csv:"cd_a"`
	Code   string `csv:"cd_b"`
	Label  string `csv:"cd_nm"`
}

// ClusterMember is a historical trip with the features the cluster model was
// trained on and the cluster it was assigned.
type ClusterMember struct {
	TravelID       string  `csv:"TRAVEL_ID"`
	AgeGroup       float64 `csv:"AGE_GRP"`
	CompanionCount float64 `csv:"TRAVEL_COMPANIONS_NUM"`
	Accompany      string  `csv:"TRAVEL_STATUS_ACCOMPANY"`
	Sleep          float64 `csv:"SLEEP"`
	Activity       string  `csv:"ACTIVITY"`
	ResultMvmn     string  `csv:"RESULT_MVMN"`
	Cluster        int     `csv:"Cluster"`
}

// ConsumptionRecord is a spending-by-category row tied to a place.
type ConsumptionRecord struct {
	TravelID    string    `csv:"TRAVEL_ID"`
	Sido        string    `csv:"SIDO_NM"`
	Sgg         string    `csv:"SGG_NM"`
	Category    string    `csv:"CATEGORY"`
	Name        string    `csv:"VISIT_AREA_NM"`
	RoadAddress string    `csv:"ROAD_NM_ADDR"`
	X           NullFloat `csv:"X_COORD"`
	Y           NullFloat `csv:"Y_COORD"`
	Score       float64   `csv:"Calculated_Final_Score"`
}

// CodeFamilyActivity is the code family holding activity-type labels.
const CodeFamilyActivity = "ACT"

// CodeBook indexes code entries by family and code.
type CodeBook map[string]map[string]string

// NewCodeBook builds a CodeBook; later duplicates overwrite earlier ones.
func NewCodeBook(entries []CodeEntry) CodeBook {
	book := make(CodeBook)
	for _, e := range entries {
		if book[e.Family] == nil {
			book[e.Family] = make(map[string]string)
		}
		book[e.Family][e.Code] = e.Label
	}
	return book
}

// Label returns the label of code in family.
func (b CodeBook) Label(family, code string) (string, bool) {
	label, ok := b[family][code]
	return label, ok
}
