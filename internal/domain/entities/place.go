package entities

// ScoredPlace is one ranked destination candidate.
type ScoredPlace struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	AvgWeight float64 `json:"avg_weight"`
	// Distance is in km from the query point, rounded to two decimals.
	// Region queries have no query point and leave it 0.
	Distance float64 `json:"distance_km"`
	Cluster  int     `json:"cluster"`
	Sido     string  `json:"sido,omitempty"`
}

// Coord returns the place's exact coordinate key.
func (p ScoredPlace) Coord() Coord {
	return Coord{X: p.X, Y: p.Y}
}

// ActivityRow is one preprocessed visit row: a destination visit joined with
// its activity match, weights and cluster.
type ActivityRow struct {
	TravelID       string
	Name           string
	Address        string
	X              NullFloat
	Y              NullFloat
	Sido           string
	Sgg            string
	Dong           string
	ActivityLabel  string
	Representative string
	ActivityWeight float64
	TotalWeight    float64
	Cluster        int
	HasCluster     bool
}

// LodgingAggregate is the per-name lodging summary built from the survey.
type LodgingAggregate struct {
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	AvgScore        float64 `json:"avg_score"`
	MaxScore        float64 `json:"max_score"`
	MinScore        float64 `json:"min_score"`
	RevisitSum      float64 `json:"revisit_sum"`
	SatisfactionSum float64 `json:"satisfaction_sum"`
	TotalNights     int     `json:"total_nights"`
	Visits          int     `json:"visits"`
	TransitVisits   float64 `json:"-"`
	FamilyVisits    float64 `json:"-"`
}

// TransitRatio is the share of stays with the given transit flag.
func (a *LodgingAggregate) TransitRatio(flag float64) float64 {
	return ratio(a.TransitVisits, a.Visits, flag)
}

// FamilyRatio is the share of stays with the given family flag.
func (a *LodgingAggregate) FamilyRatio(flag float64) float64 {
	return ratio(a.FamilyVisits, a.Visits, flag)
}

func ratio(ones float64, total int, flag float64) float64 {
	if total == 0 {
		return 0
	}
	if flag == 1 {
		return ones / float64(total)
	}
	return (float64(total) - ones) / float64(total)
}

// LodgingCandidate is a lodging aggregate with its query-specific score.
type LodgingCandidate struct {
	LodgingAggregate
	Distance     float64 `json:"distance_km"`
	TransitRatio float64 `json:"transit_ratio"`
	FamilyRatio  float64 `json:"family_ratio"`
	FinalScore   float64 `json:"final_score"`
}

// FoodPlace is a recommended restaurant.
type FoodPlace struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// TransportResult is the inferred transport between two points.
type TransportResult struct {
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	TransportModes   string  `json:"transport_modes"`
	PrimaryTransport string  `json:"primary_transport"`
	// Simplified is PrimaryTransport collapsed to its short label.
	Simplified string `json:"simplified"`
	// TravelID is the survey trip the inference was taken from.
	TravelID string `json:"travel_id"`
}

// FeatureVector is the raw attribute row handed to the cluster model, in the
// column order the model was trained on.
type FeatureVector struct {
	AgeGroup       float64 `json:"age_grp"`
	CompanionCount float64 `json:"travel_companions_num"`
	Accompany      string  `json:"travel_status_accompany"`
	Sleep          float64 `json:"sleep"`
	Activity       string  `json:"activity"`
	ResultMvmn     string  `json:"result_mvmn"`
}

// Row returns the vector as model input: numeric columns as float64 and
// categorical columns as string.
func (f FeatureVector) Row() []any {
	return []any{f.AgeGroup, f.CompanionCount, f.Accompany, f.Sleep, f.Activity, f.ResultMvmn}
}

// CategoricalColumns are the indices of the categorical columns in Row.
var CategoricalColumns = []int{2, 4, 5}

// FeatureVectorFromMember converts a historical cluster row.
func FeatureVectorFromMember(m ClusterMember) FeatureVector {
	return FeatureVector{
		AgeGroup:       m.AgeGroup,
		CompanionCount: m.CompanionCount,
		Accompany:      m.Accompany,
		Sleep:          m.Sleep,
		Activity:       m.Activity,
		ResultMvmn:     m.ResultMvmn,
	}
}
