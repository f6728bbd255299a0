package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tripreco/internal/clients/geocoding"
	"tripreco/internal/config"
	"tripreco/internal/domain/entities"
	"tripreco/internal/logging"
	"tripreco/internal/repository"
	"tripreco/pkg/utils"
)

var (
	ErrInvalidNights   = errors.New("invalid nights selection")
	ErrMissingField    = errors.New("required field missing")
	ErrLocationUnknown = errors.New("location could not be resolved")
	ErrPlanInProgress  = errors.New("a plan is already being built for this session")
)

// NoRecommendation is the reason given for an empty slot.
const NoRecommendation = "추천 데이터 없음"

// PlanRequest is the traveler's form input.
type PlanRequest struct {
	Location        string   `json:"location"`
	PreferredRegion string   `json:"preferred_region"`
	Nights          string   `json:"nights"`
	Age             int      `json:"age"`
	Companion       string   `json:"companion"`
	Companions      *int     `json:"companions,omitempty"`
	Transport       string   `json:"transport"`
	Purposes        []string `json:"purposes"`
	// Option picks one of the first-stage options when no region is
	// preferred. It defaults to the best option.
	Option int `json:"option"`
}

func (r *PlanRequest) traveler() Traveler {
	return Traveler{
		Nights:     r.Nights,
		Age:        r.Age,
		Companion:  r.Companion,
		Companions: r.Companions,
		Transport:  r.Transport,
		Purposes:   r.Purposes,
	}
}

func (r *PlanRequest) validate() (nights, companions int, err error) {
	var missing []string
	if strings.TrimSpace(r.Location) == "" {
		missing = append(missing, "location")
	}
	return r.traveler().validate(missing)
}

// Stop is one day of the plan: a destination with lunch, and a second
// destination near lunch followed by dinner.
type Stop struct {
	Activity   entities.ScoredPlace  `json:"activity"`
	Lunch      *entities.FoodPlace   `json:"lunch,omitempty"`
	LunchNote  string                `json:"lunch_note,omitempty"`
	Second     *entities.ScoredPlace `json:"second,omitempty"`
	SecondNote string                `json:"second_note,omitempty"`
	Dinner     *entities.FoodPlace   `json:"dinner,omitempty"`
	DinnerNote string                `json:"dinner_note,omitempty"`
}

// Itinerary is a complete plan.
type Itinerary struct {
	SessionID string  `json:"session_id"`
	Cluster   int     `json:"cluster"`
	Region    string  `json:"region"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Days      int     `json:"days"`
	// PreferredRegion is the region the stops were ranked in; with no
	// preference it is the chosen option's province.
	PreferredRegion string                     `json:"preferred_region"`
	Options         []entities.ScoredPlace     `json:"options,omitempty"`
	Stops           []Stop                     `json:"stops"`
	Lodging         *entities.LodgingCandidate `json:"lodging,omitempty"`
	LodgingNote     string                     `json:"lodging_note,omitempty"`
	Note            string                     `json:"note,omitempty"`
}

// ItineraryService builds multi-day plans out of the individual scorers.
type ItineraryService struct {
	cfg      config.RecommendConfig
	planTTL  time.Duration
	geocoder geocoding.Geocoder
	clusters *ClusterService
	activity *ActivityService
	lodging  *LodgingService
	food     *FoodService
	inputs   repository.InputLog
	locks    repository.LockManager
	now      func() time.Time
	log      zerolog.Logger
}

func NewItineraryService(
	cfg *config.Config,
	geocoder geocoding.Geocoder,
	clusters *ClusterService,
	activity *ActivityService,
	lodging *LodgingService,
	food *FoodService,
	inputs repository.InputLog,
	locks repository.LockManager,
) *ItineraryService {
	return &ItineraryService{
		cfg:      cfg.Recommend,
		planTTL:  cfg.Session.PlanTTL,
		geocoder: geocoder,
		clusters: clusters,
		activity: activity,
		lodging:  lodging,
		food:     food,
		inputs:   inputs,
		locks:    locks,
		now:      time.Now,
		log:      logging.Component("itinerary"),
	}
}

// Plan validates the request, assigns the traveler a cluster and fills one
// stop per day. Slots that cannot be filled carry NoRecommendation.
//
// Only one plan per session runs at a time; a concurrent call gets
// ErrPlanInProgress.
func (s *ItineraryService) Plan(ctx context.Context, session *entities.Session, req PlanRequest) (*Itinerary, error) {
	if session == nil {
		return nil, ErrSessionRequired
	}
	nights, companions, err := req.validate()
	if err != nil {
		return nil, err
	}

	lockKey := "plan:" + session.ID
	acquired, err := s.locks.AcquireLock(ctx, lockKey, s.planTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire plan lock: %w", err)
	}
	if !acquired {
		return nil, ErrPlanInProgress
	}
	defer s.locks.ReleaseLock(context.Background(), lockKey)

	log := logging.Ctx(ctx, s.log)

	place, err := s.geocoder.Geocode(ctx, req.Location)
	if err != nil {
		log.Info().Err(err).Str("location", req.Location).Msg("location not resolved")
		return nil, fmt.Errorf("%w: %q", ErrLocationUnknown, req.Location)
	}

	features := BuildFeatures(req.Age, companions, req.Companion, nights, req.Purposes, req.Transport)
	clusterID, err := s.clusters.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	days := nights + 1
	plan := &Itinerary{
		SessionID:       session.ID,
		Cluster:         clusterID,
		Region:          place.Region,
		X:               place.X,
		Y:               place.Y,
		Days:            days,
		PreferredRegion: req.PreferredRegion,
	}
	s.logInput(ctx, session, req, companions, plan)

	region := strings.TrimSpace(req.PreferredRegion)
	if region == "" || region == entities.AnyRegion {
		options, err := s.options(ctx, clusterID, place)
		if err != nil {
			return nil, err
		}
		plan.Options = options
		if len(options) == 0 {
			plan.Note = NoRecommendation
			return plan, nil
		}
		choice := req.Option
		if choice < 0 || choice >= len(options) {
			choice = 0
		}
		region = options[choice].Sido
		plan.PreferredRegion = region
	}

	picks, err := s.activity.RankByRegion(ctx, clusterID, RegionQuery{Sido: region}, days)
	if err != nil && !errors.Is(err, ErrSidoRequired) {
		return nil, err
	}
	if len(picks) == 0 {
		plan.Note = NoRecommendation
		return plan, nil
	}

	exclude := make([]entities.Coord, len(picks))
	for i := range picks {
		picks[i].Distance = utils.Round2(utils.HaversineDistance(place.Y, place.X, picks[i].Y, picks[i].X))
		exclude[i] = picks[i].Coord()
	}

	plan.Stops = make([]Stop, len(picks))
	for i, p := range picks {
		plan.Stops[i].Activity = p
		plan.Stops[i].Lunch, plan.Stops[i].LunchNote = s.meal(ctx, session, p.X, p.Y, clusterID)
	}

	if days > 1 {
		first := picks[0]
		best, err := s.lodging.Rank(ctx, first.X, first.Y, s.cfg.LodgingBoundaryKm, req.Transport, req.Companion)
		if err != nil {
			return nil, err
		}
		plan.Lodging = best
		if best == nil {
			plan.LodgingNote = NoRecommendation
		}
	}

	for i := range plan.Stops {
		stop := &plan.Stops[i]
		if stop.Lunch == nil || stop.Lunch.X == 0 || stop.Lunch.Y == 0 {
			stop.SecondNote = NoRecommendation
			continue
		}
		second, err := s.activity.RankSecond(ctx, clusterID, stop.Lunch.Y, stop.Lunch.X, s.cfg.SecondRadiusKm, s.cfg.SecondTopN, exclude)
		if err != nil {
			return nil, err
		}
		if len(second) == 0 {
			stop.SecondNote = NoRecommendation
			continue
		}
		stop.Second = &second[0]
		stop.Dinner, stop.DinnerNote = s.meal(ctx, session, second[0].X, second[0].Y, clusterID)
	}

	log.Info().
		Int("cluster", clusterID).
		Str("region", region).
		Int("stops", len(plan.Stops)).
		Bool("lodging", plan.Lodging != nil).
		Msg("itinerary planned")
	return plan, nil
}

// options ranks the cluster's best places around the user and labels each
// with its province.
func (s *ItineraryService) options(ctx context.Context, clusterID int, user *geocoding.Place) ([]entities.ScoredPlace, error) {
	options, err := s.activity.RankFirst(ctx, clusterID, user.Y, user.X, s.cfg.FirstTopN)
	if err != nil {
		return nil, err
	}
	for i := range options {
		region, err := s.geocoder.ReverseGeocode(ctx, options[i].X, options[i].Y)
		if err == nil && !entities.IsUnknownRegion(region.Sido) {
			options[i].Sido = region.Sido
		}
	}
	return options, nil
}

// meal recommends a restaurant, turning every failure into a note.
func (s *ItineraryService) meal(ctx context.Context, session *entities.Session, x, y float64, clusterID int) (*entities.FoodPlace, string) {
	place, err := s.food.Recommend(ctx, session, x, y, clusterID)
	if err != nil {
		if !errors.Is(err, ErrNoFoodCandidates) && !errors.Is(err, ErrRegionUnknown) {
			logging.Ctx(ctx, s.log).Warn().Err(err).Msg("food recommendation failed")
		}
		return nil, NoRecommendation
	}
	return place, ""
}

func (s *ItineraryService) logInput(ctx context.Context, session *entities.Session, req PlanRequest, companions int, plan *Itinerary) {
	if s.inputs == nil {
		return
	}
	rec := repository.InputRecord{
		Timestamp:       s.now().Format(time.RFC3339),
		SessionID:       session.ID,
		Location:        req.Location,
		PreferredRegion: req.PreferredRegion,
		Age:             req.Age,
		Accompany:       req.Companion,
		Companions:      companions,
		Days:            plan.Days,
		Transport:       req.Transport,
		Purpose:         strings.Join(req.Purposes, PurposeSeparator),
		Cluster:         plan.Cluster,
		Region:          plan.Region,
		X:               plan.X,
		Y:               plan.Y,
	}
	if err := s.inputs.Append(ctx, rec); err != nil {
		logging.Ctx(ctx, s.log).Warn().Err(err).Msg("failed to save inputs")
	}
}

// LastInputs returns the most recently logged form inputs with the stay
// rendered back to its label, for pre-filling a form.
func (s *ItineraryService) LastInputs(ctx context.Context) (*PlanRequest, error) {
	if s.inputs == nil {
		return nil, repository.ErrNoInputs
	}
	rec, err := s.inputs.Last(ctx)
	if err != nil {
		return nil, err
	}
	companions := rec.Companions
	var purposes []string
	if rec.Purpose != "" {
		purposes = strings.Split(rec.Purpose, PurposeSeparator)
	}
	return &PlanRequest{
		Location:        rec.Location,
		PreferredRegion: rec.PreferredRegion,
		Nights:          entities.NightsLabel(rec.Days - 1),
		Age:             rec.Age,
		Companion:       rec.Accompany,
		Companions:      &companions,
		Transport:       rec.Transport,
		Purposes:        purposes,
	}, nil
}
