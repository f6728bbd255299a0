package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tripreco/internal/domain/entities"
	"tripreco/internal/geo"
	"tripreco/internal/logging"
	"tripreco/internal/metrics"
	"tripreco/internal/repository"
)

// LodgingVisitType is the VISIT_AREA_TYPE_CD of overnight stays.
const LodgingVisitType = 24

// Cohort ratios are added to a lodging's average score with this weight.
const cohortWeight = 0.5

var visitDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"20060102",
	"2006/01/02",
	"2006.01.02",
}

func parseVisitDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range visitDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Nights is the number of whole days between two visit dates. Dates that
// do not parse count as 0 nights.
func Nights(start, end string) int {
	s, ok1 := parseVisitDate(start)
	e, ok2 := parseVisitDate(end)
	if !ok1 || !ok2 {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}

// LodgingScore combines one stay's ratings. Each intention is discounted by
// 10% when the other intention is below 3.
func LodgingScore(revisitYN, satisfaction, revisit, recommend float64) float64 {
	correctedRevisit := revisit
	if recommend < 3 {
		correctedRevisit *= 0.9
	}
	correctedRecommend := recommend
	if revisit < 3 {
		correctedRecommend *= 0.9
	}
	return 0.20*revisitYN + 0.35*satisfaction + 0.25*correctedRevisit + 0.20*correctedRecommend
}

// LodgingService ranks places to stay near a point for a traveler cohort.
type LodgingService struct {
	tables repository.TableSource
	log    zerolog.Logger
}

func NewLodgingService(tables repository.TableSource) *LodgingService {
	return &LodgingService{
		tables: tables,
		log:    logging.Component("lodging"),
	}
}

type lodgingStay struct {
	visit   entities.VisitRecord
	score   float64
	transit float64
	family  float64
	nights  int
}

// BuildIndex aggregates every lodging visit by place name. Aggregates are
// ordered by name; places with no coordinate are dropped.
func (s *LodgingService) BuildIndex(ctx context.Context) ([]entities.LodgingAggregate, error) {
	var (
		visits    []entities.VisitRecord
		travels   []entities.TravelRecord
		travelers []entities.TravelerProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		visits, err = s.tables.LoadVisits(gctx)
		return err
	})
	g.Go(func() (err error) {
		travels, err = s.tables.LoadTravels(gctx)
		return err
	})
	g.Go(func() (err error) {
		travelers, err = s.tables.LoadTravelers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load lodging tables: %w", err)
	}

	travelByID := make(map[string]entities.TravelRecord, len(travels))
	for _, t := range travels {
		if _, ok := travelByID[t.TravelID]; !ok {
			travelByID[t.TravelID] = t
		}
	}
	accompanyByTraveler := make(map[string]string, len(travelers))
	for _, t := range travelers {
		if _, ok := accompanyByTraveler[t.TravelerID]; !ok {
			accompanyByTraveler[t.TravelerID] = t.Accompany
		}
	}

	groups := make(map[string][]lodgingStay)
	for _, v := range visits {
		if v.TypeCode != LodgingVisitType {
			continue
		}
		stay := lodgingStay{
			visit:  v,
			score:  LodgingScore(v.RevisitYN.Float(), v.Satisfaction, v.RevisitIntention, v.RecommendIntention),
			nights: Nights(v.StartDate, v.EndDate),
		}
		if t, ok := travelByID[v.TravelID]; ok {
			stay.transit = entities.TransitFlag(t.MvmnName)
			stay.family = entities.ParseCompanionType(accompanyByTraveler[t.TravelerID]).FamilyFlag()
		}
		groups[v.Name] = append(groups[v.Name], stay)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	aggs := make([]entities.LodgingAggregate, 0, len(names))
	for _, name := range names {
		if agg, ok := aggregateStays(name, groups[name]); ok {
			aggs = append(aggs, agg)
		}
	}
	s.log.Debug().Int("places", len(aggs)).Msg("lodging index built")
	return aggs, nil
}

func aggregateStays(name string, stays []lodgingStay) (entities.LodgingAggregate, bool) {
	agg := entities.LodgingAggregate{
		Name:     name,
		MaxScore: stays[0].score,
		MinScore: stays[0].score,
		Visits:   len(stays),
	}
	var haveX, haveY, haveAddr bool
	var total float64
	for _, st := range stays {
		total += st.score
		if st.score > agg.MaxScore {
			agg.MaxScore = st.score
		}
		if st.score < agg.MinScore {
			agg.MinScore = st.score
		}
		agg.RevisitSum += st.visit.RevisitIntention
		agg.SatisfactionSum += st.visit.Satisfaction
		agg.TransitVisits += st.transit
		agg.FamilyVisits += st.family
		agg.TotalNights += st.nights

		if !haveX && st.visit.X.Valid {
			agg.X, haveX = st.visit.X.Value, true
		}
		if !haveY && st.visit.Y.Valid {
			agg.Y, haveY = st.visit.Y.Value, true
		}
		if !haveAddr && st.visit.RoadAddress != "" {
			agg.Address, haveAddr = st.visit.RoadAddress, true
		}
	}
	agg.AvgScore = total / float64(len(stays))
	return agg, haveX && haveY
}

// ScoreCandidates keeps the aggregates within boundaryKm of (x, y) and scores
// them for the querying cohort, best first. Equal scores keep name order.
func ScoreCandidates(aggs []entities.LodgingAggregate, x, y, boundaryKm float64, transport, companion string) []entities.LodgingCandidate {
	transitFlag := entities.QueryTransitFlag(transport)
	familyFlag := entities.ParseCompanionType(companion).FamilyFlag()

	ix := geo.NewPlaceIndex(boundaryKm)
	for i, a := range aggs {
		ix.Add(i, a.Y, a.X)
	}

	hits := ix.Within(context.Background(), y, x, boundaryKm)
	out := make([]entities.LodgingCandidate, 0, len(hits))
	for _, h := range hits {
		a := aggs[h.Ref]
		c := entities.LodgingCandidate{
			LodgingAggregate: a,
			Distance:         h.Distance,
			TransitRatio:     a.TransitRatio(transitFlag),
			FamilyRatio:      a.FamilyRatio(familyFlag),
		}
		c.FinalScore = a.AvgScore + cohortWeight*c.TransitRatio + cohortWeight*c.FamilyRatio
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	return out
}

// Rank returns the best lodging within boundaryKm of (x, y), or nil when
// there is none.
func (s *LodgingService) Rank(ctx context.Context, x, y, boundaryKm float64, transport, companion string) (*entities.LodgingCandidate, error) {
	aggs, err := s.BuildIndex(ctx)
	if err != nil {
		metrics.RecordRecommendation("lodging", false, err)
		return nil, err
	}

	candidates := ScoreCandidates(aggs, x, y, boundaryKm, transport, companion)
	if len(candidates) == 0 {
		metrics.RecordRecommendation("lodging", false, nil)
		return nil, nil
	}
	best := candidates[0]
	s.log.Debug().
		Str("name", best.Name).
		Float64("final_score", best.FinalScore).
		Int("candidates", len(candidates)).
		Msg("lodging ranked")
	metrics.RecordRecommendation("lodging", true, nil)
	return &best, nil
}
