package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripreco/internal/clients/geocoding"
	"tripreco/internal/config"
	"tripreco/internal/domain/entities"
	"tripreco/internal/repository"
	"tripreco/internal/repository/memory"
)

type itineraryHarness struct {
	svc    *ItineraryService
	inputs *memory.InputLog
	locks  *memory.LockManager
	model  *fakeModel
}

func setupItineraryService(t *testing.T) *itineraryHarness {
	t.Helper()
	tables := activityFixture()
	meal := func(travelID, name string) entities.ConsumptionRecord {
		r := restaurant(travelID, name, "종로구", 2)
		r.X, r.Y = entities.Float(127.005), entities.Float(37.505)
		return r
	}
	tables.Consumption = []entities.ConsumptionRecord{
		meal("e_1", "Gukbap"),
		meal("e_2", "Naengmyeon"),
		meal("e_1", "Bibimbap"),
		meal("e_9", "Other Cluster"),
	}

	geo := &fakeGeocoder{
		places: map[string]*geocoding.Place{
			"서울시청": {X: 126.978, Y: 37.5665, Region: "중구"},
		},
		reverse: fixedRegion("서울", "종로구"),
	}
	model := &fakeModel{cluster: 1}
	inputs := memory.NewInputLog()
	locks := memory.NewLockManager(time.Minute)
	t.Cleanup(locks.Stop)

	cfg := config.NewDefaultConfig()
	svc := NewItineraryService(
		cfg,
		geo,
		NewClusterService(tables, model),
		NewActivityService(tables),
		NewLodgingService(tables),
		NewFoodService(tables, geo, cfg.Recommend.FoodTopN),
		inputs,
		locks,
	)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return &itineraryHarness{svc: svc, inputs: inputs, locks: locks, model: model}
}

func validPlanRequest() PlanRequest {
	return PlanRequest{
		Location:        "서울시청",
		PreferredRegion: "서울",
		Nights:          "1박 2일",
		Age:             34,
		Companion:       "2인 가족 여행",
		Transport:       entities.ShortTrain,
		Purposes:        []string{"휴식"},
	}
}

func TestItineraryService_PlanWithRegion(t *testing.T) {
	h := setupItineraryService(t)
	session := entities.NewSeededSession("s-1", 3)

	plan, err := h.svc.Plan(context.Background(), session, validPlanRequest())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if plan.Cluster != 1 || plan.Days != 2 || plan.Region != "중구" {
		t.Errorf("plan header = cluster %d days %d region %q", plan.Cluster, plan.Days, plan.Region)
	}
	if len(plan.Options) != 0 {
		t.Errorf("a preferred region should skip options, got %d", len(plan.Options))
	}
	if len(plan.Stops) != 2 {
		t.Fatalf("expected one stop per day, got %d", len(plan.Stops))
	}
	if plan.Stops[0].Activity.Name != "Museum" || plan.Stops[1].Activity.Name != "Market" {
		t.Errorf("stops = %q, %q", plan.Stops[0].Activity.Name, plan.Stops[1].Activity.Name)
	}

	meals := make(map[string]bool)
	for i, stop := range plan.Stops {
		if stop.Activity.Distance <= 0 {
			t.Errorf("stop %d has no distance", i)
		}
		if stop.Lunch == nil || stop.Dinner == nil {
			t.Fatalf("stop %d missing meals: %+v", i, stop)
		}
		if stop.Second == nil || stop.Second.Name != "Park" {
			t.Errorf("stop %d second = %+v, want Park", i, stop.Second)
		}
		for _, m := range []string{stop.Lunch.Name, stop.Dinner.Name} {
			if meals[m] {
				t.Errorf("restaurant %q recommended twice", m)
			}
			meals[m] = true
		}
	}

	if plan.Lodging == nil || plan.Lodging.Name != "Hotel" {
		t.Errorf("lodging = %+v, want Hotel", plan.Lodging)
	}

	records := h.inputs.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 logged input, got %d", len(records))
	}
	rec := records[0]
	if rec.Days != 2 || rec.Cluster != 1 || rec.Companions != 1 || rec.SessionID != "s-1" {
		t.Errorf("logged input = %+v", rec)
	}
	if rec.Timestamp != "2024-05-01T09:00:00Z" {
		t.Errorf("timestamp = %q", rec.Timestamp)
	}

	if h.model.lastRow == nil {
		t.Fatal("model was not called")
	}
	if locked, _ := h.locks.IsLocked(context.Background(), "plan:s-1"); locked {
		t.Error("plan lock should be released")
	}
}

func TestItineraryService_PlanAnyRegion(t *testing.T) {
	h := setupItineraryService(t)
	req := validPlanRequest()
	req.PreferredRegion = entities.AnyRegion
	req.Nights = entities.DayTripLabel

	plan, err := h.svc.Plan(context.Background(), entities.NewSeededSession("s-2", 3), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Options) != 3 {
		t.Fatalf("expected 3 options, got %+v", plan.Options)
	}
	for _, o := range plan.Options {
		if o.Sido != "서울" {
			t.Errorf("option %q sido = %q", o.Name, o.Sido)
		}
	}
	if plan.PreferredRegion != "서울" {
		t.Errorf("PreferredRegion = %q", plan.PreferredRegion)
	}
	if len(plan.Stops) != 1 || plan.Stops[0].Activity.Name != "Museum" {
		t.Errorf("stops = %+v", plan.Stops)
	}
	if plan.Lodging != nil || plan.LodgingNote != "" {
		t.Error("a day trip has no lodging")
	}
}

func TestItineraryService_PlanNoData(t *testing.T) {
	h := setupItineraryService(t)
	req := validPlanRequest()
	req.PreferredRegion = "제주"

	plan, err := h.svc.Plan(context.Background(), entities.NewSeededSession("s-3", 3), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Stops) != 0 || plan.Note != NoRecommendation {
		t.Errorf("expected an empty plan with a note, got %+v", plan)
	}
}

func TestItineraryService_PlanValidation(t *testing.T) {
	h := setupItineraryService(t)
	session := entities.NewSeededSession("s-4", 3)

	tests := []struct {
		name   string
		modify func(*PlanRequest)
		want   error
	}{
		{"bad nights", func(r *PlanRequest) { r.Nights = "10박 11일" }, ErrInvalidNights},
		{"no location", func(r *PlanRequest) { r.Location = " " }, ErrMissingField},
		{"no age", func(r *PlanRequest) { r.Age = 0 }, ErrMissingField},
		{"no purposes", func(r *PlanRequest) { r.Purposes = nil }, ErrMissingField},
		{"group without count", func(r *PlanRequest) { r.Companion = "3인 이상 여행(가족 외)" }, ErrMissingField},
		{"unknown place", func(r *PlanRequest) { r.Location = "어딘가" }, ErrLocationUnknown},
		{"unknown transport", func(r *PlanRequest) { r.Transport = "bus" }, ErrInvalidChoice},
		{"unknown companion", func(r *PlanRequest) { r.Companion = "친구들" }, ErrInvalidChoice},
		{"unknown purpose", func(r *PlanRequest) { r.Purposes = []string{"낚시"} }, ErrInvalidChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPlanRequest()
			tt.modify(&req)
			if _, err := h.svc.Plan(context.Background(), session, req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	req := validPlanRequest()
	req.Companion = "3인 이상 여행(가족 외)"
	n := 4
	req.Companions = &n
	if _, err := h.svc.Plan(context.Background(), session, req); err != nil {
		t.Errorf("explicit companion count should be accepted: %v", err)
	}
}

func TestItineraryService_PlanSoloDefaultsToNoCompanions(t *testing.T) {
	h := setupItineraryService(t)
	req := validPlanRequest()
	req.Companion = "나홀로 여행"

	if _, err := h.svc.Plan(context.Background(), entities.NewSeededSession("s-solo", 3), req); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	recs := h.inputs.Records()
	if len(recs) != 1 || recs[0].Companions != 0 {
		t.Fatalf("logged inputs = %+v, want 0 companions", recs)
	}
	if h.model.lastRow[2] != "나홀로 여행" {
		t.Errorf("model saw companion type %v", h.model.lastRow[2])
	}
}

func TestItineraryService_PlanInProgress(t *testing.T) {
	h := setupItineraryService(t)
	ctx := context.Background()
	if ok, _ := h.locks.AcquireLock(ctx, "plan:s-5", time.Minute); !ok {
		t.Fatal("could not take lock")
	}
	_, err := h.svc.Plan(ctx, entities.NewSeededSession("s-5", 3), validPlanRequest())
	if !errors.Is(err, ErrPlanInProgress) {
		t.Errorf("expected ErrPlanInProgress, got %v", err)
	}
}

func TestItineraryService_LastInputs(t *testing.T) {
	h := setupItineraryService(t)
	ctx := context.Background()

	if _, err := h.svc.LastInputs(ctx); !errors.Is(err, repository.ErrNoInputs) {
		t.Errorf("expected ErrNoInputs, got %v", err)
	}

	req := validPlanRequest()
	req.Purposes = []string{"휴식", "쇼핑 / 구매"}
	if _, err := h.svc.Plan(ctx, entities.NewSeededSession("s-6", 3), req); err != nil {
		t.Fatalf("Plan: %v", err)
	}

	last, err := h.svc.LastInputs(ctx)
	if err != nil {
		t.Fatalf("LastInputs: %v", err)
	}
	if last.Nights != "1박 2일" || last.Location != "서울시청" || len(last.Purposes) != 2 {
		t.Errorf("LastInputs() = %+v", last)
	}
	if last.Companions == nil || *last.Companions != 1 {
		t.Errorf("companions = %v", last.Companions)
	}
}
