package services

import (
	"context"
	"fmt"
	"sort"
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

// ModeSeparator joins the labels of a compressed mode sequence.
const ModeSeparator = "->"

// LegPoint is a visit joined with the transport mode used to reach it.
type LegPoint struct {
	TravelID    string
	VisitAreaID int
	Mode        entities.TransportMode
	X           entities.NullFloat
	Y           entities.NullFloat
}

// Route is a slice of one historical trip, from StartArea to EndArea
// inclusive. StartArea < EndArea always holds.
type Route struct {
	TravelID  string
	StartArea int
	EndArea   int
	// Distance is the mean of the start and end distances to the query
	// points, in km.
	Distance float64
}

// TransportService infers how people usually travel between two points by
// finding historical trips that passed near both.
type TransportService struct {
	tables repository.TableSource
	log    zerolog.Logger
}

func NewTransportService(tables repository.TableSource) *TransportService {
	return &TransportService{
		tables: tables,
		log:    logging.Component("transport"),
	}
}

// LoadLegs inner-joins the move history with the visit table on
// (TRAVEL_ID, VISIT_AREA_ID). Points are ordered by trip, then visit area.
func (s *TransportService) LoadLegs(ctx context.Context) ([]LegPoint, error) {
	var (
		moves  []entities.MoveRecord
		visits []entities.VisitRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		moves, err = s.tables.LoadMoves(gctx)
		return err
	})
	g.Go(func() (err error) {
		visits, err = s.tables.LoadVisits(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load transport tables: %w", err)
	}

	type key struct {
		travelID string
		areaID   int
	}
	byKey := make(map[key][]int, len(visits))
	for i, v := range visits {
		k := key{v.TravelID, v.VisitAreaID}
		byKey[k] = append(byKey[k], i)
	}

	var points []LegPoint
	for _, m := range moves {
		for _, i := range byKey[key{m.TravelID, m.VisitAreaID}] {
			v := visits[i]
			points = append(points, LegPoint{
				TravelID:    m.TravelID,
				VisitAreaID: m.VisitAreaID,
				Mode:        entities.TransportMode(m.ModeCode),
				X:           v.X,
				Y:           v.Y,
			})
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].TravelID != points[j].TravelID {
			return points[i].TravelID < points[j].TravelID
		}
		return points[i].VisitAreaID < points[j].VisitAreaID
	})
	return points, nil
}

// CandidateRoutes pairs every point within boundaryKm of prev with every
// later point of the same trip within boundaryKm of next. Routes are ordered
// by trip id, start area, then end area.
func CandidateRoutes(points []LegPoint, prev, next entities.Location, boundaryKm float64) []Route {
	ix := geo.NewPlaceIndex(boundaryKm)
	for i, p := range points {
		if p.X.Valid && p.Y.Valid {
			ix.Add(i, p.Y.Value, p.X.Value)
		}
	}

	starts := ix.Within(context.Background(), prev.Latitude, prev.Longitude, boundaryKm)
	ends := ix.Within(context.Background(), next.Latitude, next.Longitude, boundaryKm)

	endsByTrip := make(map[string][]geo.PlaceHit)
	for _, e := range ends {
		id := points[e.Ref].TravelID
		endsByTrip[id] = append(endsByTrip[id], e)
	}

	var routes []Route
	for _, st := range starts {
		sp := points[st.Ref]
		for _, e := range endsByTrip[sp.TravelID] {
			ep := points[e.Ref]
			if sp.VisitAreaID >= ep.VisitAreaID {
				continue
			}
			routes = append(routes, Route{
				TravelID:  sp.TravelID,
				StartArea: sp.VisitAreaID,
				EndArea:   ep.VisitAreaID,
				Distance:  (st.Distance + e.Distance) / 2,
			})
		}
	}
	sortRoutes(routes)
	return routes
}

func sortRoutes(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.TravelID != b.TravelID {
			return a.TravelID < b.TravelID
		}
		if a.StartArea != b.StartArea {
			return a.StartArea < b.StartArea
		}
		return a.EndArea < b.EndArea
	})
}

// RoutePoints returns the points of route's trip whose area lies in
// [StartArea, EndArea], in area order. points must be ordered as LoadLegs
// returns them.
func RoutePoints(points []LegPoint, route Route) []LegPoint {
	var out []LegPoint
	for _, p := range points {
		if p.TravelID == route.TravelID && p.VisitAreaID >= route.StartArea && p.VisitAreaID <= route.EndArea {
			out = append(out, p)
		}
	}
	return out
}

// SplitRoutesByPrivateCar cuts every route at its private-car points, which
// are dropped, and keeps the segments whose first point is within
// boundaryKm of prev, whose last point is within boundaryKm of next and whose
// start area precedes its end area.
func SplitRoutesByPrivateCar(routes []Route, points []LegPoint, prev, next entities.Location, boundaryKm float64) []Route {
	var out []Route
	for _, r := range routes {
		var segments [][]LegPoint
		var current []LegPoint
		for _, p := range RoutePoints(points, r) {
			if p.Mode == entities.ModePrivateCar {
				if len(current) > 0 {
					segments = append(segments, current)
				}
				current = nil
				continue
			}
			current = append(current, p)
		}
		if len(current) > 0 {
			segments = append(segments, current)
		}

		for _, seg := range segments {
			first, last := seg[0], seg[len(seg)-1]
			if !first.X.Valid || !first.Y.Valid || !last.X.Valid || !last.Y.Valid {
				continue
			}
			startDist := utils.HaversineDistance(prev.Latitude, prev.Longitude, first.Y.Value, first.X.Value)
			endDist := utils.HaversineDistance(next.Latitude, next.Longitude, last.Y.Value, last.X.Value)
			if startDist > boundaryKm || endDist > boundaryKm {
				continue
			}
			if first.VisitAreaID >= last.VisitAreaID {
				continue
			}
			out = append(out, Route{
				TravelID:  r.TravelID,
				StartArea: first.VisitAreaID,
				EndArea:   last.VisitAreaID,
				Distance:  (startDist + endDist) / 2,
			})
		}
	}
	return out
}

// CompressModes collapses runs of equal labels. It is idempotent.
func CompressModes(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	out := []string{labels[0]}
	for _, l := range labels[1:] {
		if l != out[len(out)-1] {
			out = append(out, l)
		}
	}
	return out
}

// RouteModes renders the mode sequence of a route. The first point's mode
// is how the traveler reached the start, so it is skipped; a route of one
// point has no sequence.
func RouteModes(route []LegPoint) string {
	if len(route) <= 1 {
		return ""
	}
	labels := make([]string, 0, len(route)-1)
	for _, p := range route[1:] {
		labels = append(labels, p.Mode.Label())
	}
	return strings.Join(CompressModes(labels), ModeSeparator)
}

// DominantMode picks the highest-priority label of a sequence. Ties go to
// the label seen first.
func DominantMode(sequence string) string {
	labels := strings.Split(sequence, ModeSeparator)
	best := labels[0]
	bestScore := entities.LabelPriority(best)
	for _, l := range labels[1:] {
		if score := entities.LabelPriority(l); score > bestScore {
			best, bestScore = l, score
		}
	}
	return best
}

// Resolve infers the transport between prev and next from the first
// candidate route. It returns nil when no historical trip passed within
// boundaryKm of both points.
func (s *TransportService) Resolve(ctx context.Context, prev, next entities.Location, boundaryKm float64) (*entities.TransportResult, error) {
	return s.resolve(ctx, prev, next, boundaryKm, false)
}

// ResolveAvoidingPrivateCar is Resolve over routes split at private-car
// legs.
func (s *TransportService) ResolveAvoidingPrivateCar(ctx context.Context, prev, next entities.Location, boundaryKm float64) (*entities.TransportResult, error) {
	return s.resolve(ctx, prev, next, boundaryKm, true)
}

func (s *TransportService) resolve(ctx context.Context, prev, next entities.Location, boundaryKm float64, avoidCar bool) (*entities.TransportResult, error) {
	points, err := s.LoadLegs(ctx)
	if err != nil {
		metrics.RecordRecommendation("transport", false, err)
		return nil, err
	}

	routes := CandidateRoutes(points, prev, next, boundaryKm)
	if avoidCar {
		routes = SplitRoutesByPrivateCar(routes, points, prev, next, boundaryKm)
	}
	if len(routes) == 0 {
		s.log.Debug().Float64("boundary_km", boundaryKm).Msg("no candidate route")
		metrics.RecordRecommendation("transport", false, nil)
		return nil, nil
	}

	route := routes[0]
	modes := RouteModes(RoutePoints(points, route))
	primary := DominantMode(modes)
	s.log.Debug().
		Str("travel_id", route.TravelID).
		Int("candidates", len(routes)).
		Str("modes", modes).
		Msg("transport resolved")
	metrics.RecordRecommendation("transport", true, nil)

	return &entities.TransportResult{
		X:                next.Longitude,
		Y:                next.Latitude,
		TransportModes:   modes,
		PrimaryTransport: primary,
		Simplified:       entities.SimplifyLabel(primary),
		TravelID:         route.TravelID,
	}, nil
}
