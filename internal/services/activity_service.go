package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tripreco/internal/domain/entities"
	"tripreco/internal/geo"
	"tripreco/internal/logging"
	"tripreco/internal/metrics"
	"tripreco/internal/repository"
	"tripreco/pkg/utils"
)

var ErrSidoRequired = errors.New("sido is required for a region query")

// Visit types that are never offered as destinations: transit stops,
// lodging and other non-destination stops.
var excludedVisitTypes = map[int]struct{}{
	9: {}, 10: {}, 11: {}, 12: {}, 21: {}, 22: {}, 23: {}, 24: {},
}

// RegionQuery narrows a ranking to administrative names. Sgg and Dong are
// optional; every supplied part must be a substring of the row's name.
type RegionQuery struct {
	Sido string `json:"sido" form:"sido"`
	Sgg  string `json:"sgg,omitempty" form:"sgg"`
	Dong string `json:"dong,omitempty" form:"dong"`
}

func (q RegionQuery) matches(r *entities.ActivityRow) bool {
	if !strings.Contains(r.Sido, q.Sido) {
		return false
	}
	if q.Sgg != "" && !strings.Contains(r.Sgg, q.Sgg) {
		return false
	}
	if q.Dong != "" && !strings.Contains(r.Dong, q.Dong) {
		return false
	}
	return true
}

// ActivityService ranks destinations for a traveler cluster.
//
// Go Learning Note — Recompute Per Call:
// Preprocess rebuilds every join from the tables on each query. Nothing is
// cached on the service, so it holds no mutable state and is safe to share
// between request goroutines without a lock.
type ActivityService struct {
	tables repository.TableSource
	log    zerolog.Logger
}

func NewActivityService(tables repository.TableSource) *ActivityService {
	return &ActivityService{
		tables: tables,
		log:    logging.Component("activity"),
	}
}

// RepresentativeActivity picks a trip's main activity: among performed
// activity codes that are also stated purposes, the most frequent one. The
// first code reaching the maximum wins. With no overlap it returns
// entities.UnclassifiedActivity.
func RepresentativeActivity(activities, purposes []int) int {
	stated := make(map[int]bool, len(purposes))
	for _, p := range purposes {
		stated[p] = true
	}
	counts := make(map[int]int, len(activities))
	for _, a := range activities {
		counts[a]++
	}

	best, bestWeight := entities.UnclassifiedActivity, 0
	for _, a := range activities {
		if !stated[a] {
			continue
		}
		// Every candidate is a stated purpose, so all carry the same x2.
		if w := counts[a] * 2; w > bestWeight {
			best, bestWeight = a, w
		}
	}
	return best
}

// ActivityWeight scores a visit whose activity matched its trip's main
// activity, before normalization.
func ActivityWeight(v *entities.VisitRecord) float64 {
	return 0.4*v.Satisfaction + 0.3*v.RevisitYN.Float() + 0.15*v.RevisitIntention + 0.15*v.RecommendIntention
}

type activityTables struct {
	travels    []entities.TravelRecord
	travelers  []entities.TravelerProfile
	activities []entities.ActivityRecord
	visits     []entities.VisitRecord
	codes      []entities.CodeEntry
	clusters   []entities.ClusterMember
}

func (s *ActivityService) loadTables(ctx context.Context) (*activityTables, error) {
	t := &activityTables{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { t.travels, err = s.tables.LoadTravels(gctx); return err })
	g.Go(func() (err error) { t.travelers, err = s.tables.LoadTravelers(gctx); return err })
	g.Go(func() (err error) { t.activities, err = s.tables.LoadActivities(gctx); return err })
	g.Go(func() (err error) { t.visits, err = s.tables.LoadVisits(gctx); return err })
	g.Go(func() (err error) { t.codes, err = s.tables.LoadCodes(gctx); return err })
	g.Go(func() (err error) { t.clusters, err = s.tables.LoadClusterMembers(gctx); return err })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load activity tables: %w", err)
	}
	return t, nil
}

// Preprocess joins every destination visit with its activity match,
// weights and cluster. A visit with several recorded activities yields one
// row per activity.
func (s *ActivityService) Preprocess(ctx context.Context) ([]entities.ActivityRow, error) {
	t, err := s.loadTables(ctx)
	if err != nil {
		return nil, err
	}
	book := entities.NewCodeBook(t.codes)
	activityLabel := func(code int) string {
		label, _ := book.Label(entities.CodeFamilyActivity, strconv.Itoa(code))
		return label
	}

	type visitKey struct {
		travelID string
		areaID   int
	}
	performed := make(map[string][]int)
	byVisit := make(map[visitKey][]int)
	for _, a := range t.activities {
		performed[a.TravelID] = append(performed[a.TravelID], a.ActivityCode)
		k := visitKey{a.TravelID, a.VisitAreaID}
		byVisit[k] = append(byVisit[k], a.ActivityCode)
	}

	// Only trips of known travelers get a main activity.
	known := make(map[string]bool, len(t.travelers))
	for _, tr := range t.travelers {
		known[tr.TravelerID] = true
	}
	representative := make(map[string]string)
	for _, tv := range t.travels {
		if !known[tv.TravelerID] {
			continue
		}
		if _, done := representative[tv.TravelID]; done {
			continue
		}
		purposes, err := entities.ParsePurposes(tv.Purpose)
		if err != nil {
			s.log.Warn().Err(err).Str("travel_id", tv.TravelID).Msg("unparseable travel purpose")
		}
		representative[tv.TravelID] = activityLabel(RepresentativeActivity(performed[tv.TravelID], purposes))
	}

	clusterOf := make(map[string]int, len(t.clusters))
	for _, c := range t.clusters {
		if _, ok := clusterOf[c.TravelID]; !ok {
			clusterOf[c.TravelID] = c.Cluster
		}
	}

	var rows []entities.ActivityRow
	maxWeight := 0.0
	for i := range t.visits {
		v := &t.visits[i]
		if _, skip := excludedVisitTypes[v.TypeCode]; skip {
			continue
		}
		codes := byVisit[visitKey{v.TravelID, v.VisitAreaID}]
		if len(codes) == 0 {
			codes = []int{entities.UnclassifiedActivity}
		}
		rep := representative[v.TravelID]
		cluster, hasCluster := clusterOf[v.TravelID]
		for _, code := range codes {
			row := entities.ActivityRow{
				TravelID:       v.TravelID,
				Name:           v.Name,
				Address:        v.RoadAddress,
				X:              v.X,
				Y:              v.Y,
				Sido:           v.Sido,
				Sgg:            v.Sgg,
				Dong:           v.Dong,
				ActivityLabel:  activityLabel(code),
				Representative: rep,
				Cluster:        cluster,
				HasCluster:     hasCluster,
			}
			// Unlabeled codes never match.
			if row.ActivityLabel != "" && row.ActivityLabel == rep {
				row.ActivityWeight = ActivityWeight(v)
				if row.ActivityWeight > maxWeight {
					maxWeight = row.ActivityWeight
				}
			}
			row.TotalWeight = v.BaseScore
			rows = append(rows, row)
		}
	}

	for i := range rows {
		if maxWeight > 0 {
			rows[i].ActivityWeight /= maxWeight
		} else {
			rows[i].ActivityWeight = 0
		}
		rows[i].TotalWeight += rows[i].ActivityWeight
	}
	s.log.Debug().Int("rows", len(rows)).Float64("max_activity_weight", maxWeight).Msg("activity rows built")
	return rows, nil
}

func inCluster(rows []entities.ActivityRow, clusterID int) []entities.ActivityRow {
	var out []entities.ActivityRow
	for _, r := range rows {
		if r.HasCluster && r.Cluster == clusterID && r.X.Valid && r.Y.Valid {
			out = append(out, r)
		}
	}
	return out
}

// RankPlaces groups rows by exact coordinate, averages their total weight
// and returns the topN best coordinates. Each place is described by the
// first row seen at its coordinate; equal averages keep first-seen order.
// topN <= 0 returns every place.
func RankPlaces(rows []entities.ActivityRow, topN int) []entities.ScoredPlace {
	type group struct {
		first entities.ActivityRow
		sum   float64
		n     int
	}
	index := make(map[entities.Coord]int)
	var groups []*group
	for _, r := range rows {
		c := entities.Coord{X: r.X.Value, Y: r.Y.Value}
		i, ok := index[c]
		if !ok {
			i = len(groups)
			index[c] = i
			groups = append(groups, &group{first: r})
		}
		groups[i].sum += r.TotalWeight
		groups[i].n++
	}

	places := make([]entities.ScoredPlace, len(groups))
	for i, g := range groups {
		places[i] = entities.ScoredPlace{
			Name:      g.first.Name,
			Address:   g.first.Address,
			X:         g.first.X.Value,
			Y:         g.first.Y.Value,
			AvgWeight: g.sum / float64(g.n),
			Cluster:   g.first.Cluster,
			Sido:      g.first.Sido,
		}
	}
	sort.SliceStable(places, func(i, j int) bool {
		return places[i].AvgWeight > places[j].AvgWeight
	})
	if topN > 0 && len(places) > topN {
		places = places[:topN]
	}
	return places
}

// RankFirst ranks the cluster's destinations and attaches each one's
// distance from the user.
func (s *ActivityService) RankFirst(ctx context.Context, clusterID int, userLat, userLon float64, topN int) ([]entities.ScoredPlace, error) {
	rows, err := s.Preprocess(ctx)
	if err != nil {
		metrics.RecordRecommendation("activity_first", false, err)
		return nil, err
	}
	places := RankPlaces(inCluster(rows, clusterID), topN)
	for i := range places {
		places[i].Distance = utils.Round2(utils.HaversineDistance(userLat, userLon, places[i].Y, places[i].X))
	}
	metrics.RecordRecommendation("activity_first", len(places) > 0, nil)
	return places, nil
}

// RankSecond ranks the cluster's destinations within radiusKm of the
// anchor, skipping every coordinate in exclude.
func (s *ActivityService) RankSecond(ctx context.Context, clusterID int, anchorLat, anchorLon, radiusKm float64, topN int, exclude []entities.Coord) ([]entities.ScoredPlace, error) {
	rows, err := s.Preprocess(ctx)
	if err != nil {
		metrics.RecordRecommendation("activity_second", false, err)
		return nil, err
	}
	candidates := inCluster(rows, clusterID)

	excluded := make(map[entities.Coord]bool, len(exclude))
	for _, c := range exclude {
		excluded[c] = true
	}

	ix := geo.NewPlaceIndex(radiusKm)
	for i, r := range candidates {
		ix.Add(i, r.Y.Value, r.X.Value)
	}
	hits := ix.Within(ctx, anchorLat, anchorLon, radiusKm)

	nearby := make([]entities.ActivityRow, 0, len(hits))
	distance := make(map[entities.Coord]float64, len(hits))
	for _, h := range hits {
		r := candidates[h.Ref]
		c := entities.Coord{X: r.X.Value, Y: r.Y.Value}
		if excluded[c] {
			continue
		}
		nearby = append(nearby, r)
		distance[c] = h.Distance
	}

	places := RankPlaces(nearby, topN)
	for i := range places {
		places[i].Distance = utils.Round2(distance[places[i].Coord()])
	}
	metrics.RecordRecommendation("activity_second", len(places) > 0, nil)
	return places, nil
}

// RankByRegion ranks the cluster's destinations inside an administrative
// region. Places carry no distance.
func (s *ActivityService) RankByRegion(ctx context.Context, clusterID int, region RegionQuery, topN int) ([]entities.ScoredPlace, error) {
	if strings.TrimSpace(region.Sido) == "" {
		return nil, ErrSidoRequired
	}
	rows, err := s.Preprocess(ctx)
	if err != nil {
		metrics.RecordRecommendation("activity_region", false, err)
		return nil, err
	}

	var matched []entities.ActivityRow
	for _, r := range inCluster(rows, clusterID) {
		if region.matches(&r) {
			matched = append(matched, r)
		}
	}
	places := RankPlaces(matched, topN)
	metrics.RecordRecommendation("activity_region", len(places) > 0, nil)
	return places, nil
}
