package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tripreco/internal/clients/geocoding"
	"tripreco/internal/domain/entities"
	"tripreco/internal/logging"
	"tripreco/internal/metrics"
	"tripreco/internal/repository"
)

var (
	ErrRegionUnknown    = errors.New("region could not be resolved")
	ErrNoFoodCandidates = errors.New("no restaurant left to recommend")
	ErrSessionRequired  = errors.New("session is required")
)

// FoodCategory is the consumption category of restaurants.
const FoodCategory = "음식점"

// DefaultFoodTopN is how many of the best restaurants take part in a draw.
const DefaultFoodTopN = 10

// FoodService recommends a restaurant near a point by a weighted draw over
// the best-scored restaurants of the point's district. A session never gets
// the same restaurant twice.
type FoodService struct {
	tables   repository.TableSource
	geocoder geocoding.Geocoder
	topN     int
	log      zerolog.Logger
}

func NewFoodService(tables repository.TableSource, geocoder geocoding.Geocoder, topN int) *FoodService {
	if topN <= 0 {
		topN = DefaultFoodTopN
	}
	return &FoodService{
		tables:   tables,
		geocoder: geocoder,
		topN:     topN,
		log:      logging.Component("food"),
	}
}

// FoodFilter selects the restaurants a draw may pick from.
type FoodFilter struct {
	Sido    string
	Sgg     string
	Travels map[string]bool // nil means any trip
	Visited map[string]struct{}
}

// FilterRestaurants returns the consumption rows matching f, in table order.
func FilterRestaurants(rows []entities.ConsumptionRecord, f FoodFilter) []entities.ConsumptionRecord {
	var out []entities.ConsumptionRecord
	for _, r := range rows {
		if r.Category != FoodCategory || r.Sido != f.Sido || r.Sgg != f.Sgg {
			continue
		}
		if f.Travels != nil && !f.Travels[r.TravelID] {
			continue
		}
		if _, seen := f.Visited[r.Name]; seen {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DrawWeights shifts scores so none is negative, keeps the topN best
// (stable on ties) and returns them with their draw weights. When every
// kept score is zero the weights are uniform.
func DrawWeights(rows []entities.ConsumptionRecord, topN int) ([]entities.ConsumptionRecord, []float64) {
	if len(rows) == 0 {
		return nil, nil
	}
	top := make([]entities.ConsumptionRecord, len(rows))
	copy(top, rows)

	minScore := top[0].Score
	for _, r := range top[1:] {
		if r.Score < minScore {
			minScore = r.Score
		}
	}
	if minScore < 0 {
		for i := range top {
			top[i].Score -= minScore
		}
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Score > top[j].Score
	})
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}

	var sum float64
	for _, r := range top {
		sum += r.Score
	}
	weights := make([]float64, len(top))
	for i, r := range top {
		if sum > 0 {
			weights[i] = r.Score / sum
		} else {
			weights[i] = 1 / float64(len(top))
		}
	}
	return top, weights
}

// Pick maps a uniform draw u in [0, 1) onto weights.
func Pick(weights []float64, u float64) int {
	var cum float64
	for i, w := range weights {
		cum += w
		if u < cum {
			return i
		}
	}
	// Rounding can leave cum just under 1.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

// Recommend draws a restaurant in the district of (lon, lat), preferring
// restaurants visited on trips of clusterID. The pick is marked visited on
// the session before it is returned.
func (s *FoodService) Recommend(ctx context.Context, session *entities.Session, lon, lat float64, clusterID int) (*entities.FoodPlace, error) {
	place, err := s.recommend(ctx, session, lon, lat, clusterID)
	metrics.RecordRecommendation("food", place != nil, ignoreEmpty(err))
	return place, err
}

// ignoreEmpty keeps "nothing to recommend" out of the error metric.
func ignoreEmpty(err error) error {
	if errors.Is(err, ErrNoFoodCandidates) || errors.Is(err, ErrRegionUnknown) {
		return nil
	}
	return err
}

func (s *FoodService) recommend(ctx context.Context, session *entities.Session, lon, lat float64, clusterID int) (*entities.FoodPlace, error) {
	if session == nil {
		return nil, ErrSessionRequired
	}

	region, err := s.geocoder.ReverseGeocode(ctx, lon, lat)
	if err != nil || region.IsUnknown() {
		s.log.Debug().Err(err).Float64("x", lon).Float64("y", lat).Msg("no region for food lookup")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRegionUnknown, err)
		}
		return nil, ErrRegionUnknown
	}

	var (
		consumption []entities.ConsumptionRecord
		members     []entities.ClusterMember
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		consumption, err = s.tables.LoadConsumption(gctx)
		return err
	})
	g.Go(func() (err error) {
		members, err = s.tables.LoadClusterMembers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load food tables: %w", err)
	}

	travels := make(map[string]bool)
	for _, m := range members {
		if m.Cluster == clusterID {
			travels[m.TravelID] = true
		}
	}

	// A failed draw means concurrent requests claimed every candidate seen
	// in the snapshot; filter again against the grown visited set.
	var (
		chosen     entities.ConsumptionRecord
		candidates []entities.ConsumptionRecord
	)
	for {
		filter := FoodFilter{
			Sido:    region.Sido,
			Sgg:     region.Sgg,
			Travels: travels,
			Visited: session.VisitedSnapshot(),
		}
		candidates = FilterRestaurants(consumption, filter)
		if len(candidates) == 0 {
			filter.Travels = nil
			candidates = FilterRestaurants(consumption, filter)
			metrics.FoodClusterFallbacks.Inc()
			s.log.Debug().Int("cluster", clusterID).Msg("no cluster restaurant, widening to all trips")
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%s %s: %w", region.Sido, region.Sgg, ErrNoFoodCandidates)
		}
		var ok bool
		if chosen, ok = s.draw(session, candidates); ok {
			break
		}
	}

	s.log.Debug().
		Str("session_id", session.ID).
		Str("name", chosen.Name).
		Int("candidates", len(candidates)).
		Msg("restaurant drawn")

	return &entities.FoodPlace{
		Name:    chosen.Name,
		Address: chosen.RoadAddress,
		X:       chosen.X.Value,
		Y:       chosen.Y.Value,
	}, nil
}

// draw picks a restaurant and claims it on the session. A name claimed by a
// concurrent request since the visited snapshot was taken is dropped and
// the draw repeats over what is left; false means nothing was left.
func (s *FoodService) draw(session *entities.Session, candidates []entities.ConsumptionRecord) (entities.ConsumptionRecord, bool) {
	for len(candidates) > 0 {
		top, weights := DrawWeights(candidates, s.topN)
		chosen := top[Pick(weights, session.Float64())]
		if session.Claim(chosen.Name) {
			return chosen, true
		}
		candidates = withoutName(candidates, chosen.Name)
	}
	return entities.ConsumptionRecord{}, false
}

func withoutName(rows []entities.ConsumptionRecord, name string) []entities.ConsumptionRecord {
	out := make([]entities.ConsumptionRecord, 0, len(rows))
	for _, r := range rows {
		if r.Name != name {
			out = append(out, r)
		}
	}
	return out
}
