package services

import (
	"context"
	"math"
	"testing"

	"tripreco/internal/domain/entities"
	"tripreco/internal/repository/memory"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLodgingScore(t *testing.T) {
	tests := []struct {
		name                        string
		yn, sat, revisit, recommend float64
		want                        float64
	}{
		{"no discount", 1, 4.75, 4.75, 4.75, 4.0},
		{"revisit discounted by low recommend", 0, 4, 4, 2, 0.35*4 + 0.25*3.6 + 0.20*2},
		{"recommend discounted by low revisit", 0, 4, 2, 4, 0.35*4 + 0.25*2 + 0.20*3.6},
		{"both discounted", 1, 1, 1, 1, 0.20 + 0.35 + 0.25*0.9 + 0.20*0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LodgingScore(tt.yn, tt.sat, tt.revisit, tt.recommend)
			if !approxEqual(got, tt.want) {
				t.Errorf("LodgingScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNights(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
	}{
		{"2022-08-01", "2022-08-03", 2},
		{"2022-08-01", "2022-08-01", 0},
		{"20220831", "20220901", 1},
		{"2022-08-01", "", 0},
		{"yesterday", "2022-08-01", 0},
	}
	for _, tt := range tests {
		if got := Nights(tt.start, tt.end); got != tt.want {
			t.Errorf("Nights(%q, %q) = %d, want %d", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestScoreCandidates_CohortExample(t *testing.T) {
	aggs := []entities.LodgingAggregate{{
		Name:          "Hanok A",
		X:             127.00,
		Y:             37.50,
		AvgScore:      4.0,
		Visits:        1,
		TransitVisits: 1,
		FamilyVisits:  0,
	}}

	got := ScoreCandidates(aggs, 127.001, 37.501, 5, entities.ShortTrain, "나홀로 여행")
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if !approxEqual(got[0].FinalScore, 5.0) {
		t.Errorf("FinalScore = %v, want 5.0", got[0].FinalScore)
	}
	if got[0].TransitRatio != 1 || got[0].FamilyRatio != 1 {
		t.Errorf("ratios = (%v, %v), want (1, 1)", got[0].TransitRatio, got[0].FamilyRatio)
	}

	// A private-car family query flips both ratios.
	got = ScoreCandidates(aggs, 127.001, 37.501, 5, entities.ShortPrivateCar, "자녀 동반 여행")
	if !approxEqual(got[0].FinalScore, 4.0) {
		t.Errorf("FinalScore = %v, want 4.0", got[0].FinalScore)
	}

	if got := ScoreCandidates(aggs, 128.0, 36.0, 5, entities.ShortTrain, "나홀로 여행"); len(got) != 0 {
		t.Errorf("expected no candidate outside boundary, got %d", len(got))
	}
}

func lodgingFixture() *memory.Tables {
	tables := memory.NewTables()
	stay := func(travelID, name string, x, y entities.NullFloat, sat float64) entities.VisitRecord {
		return entities.VisitRecord{
			TravelID:           travelID,
			Name:               name,
			RoadAddress:        name + " 주소",
			X:                  x,
			Y:                  y,
			TypeCode:           LodgingVisitType,
			Satisfaction:       sat,
			RevisitYN:          true,
			RevisitIntention:   sat,
			RecommendIntention: sat,
			StartDate:          "2022-08-01",
			EndDate:            "2022-08-03",
		}
	}
	tables.Visits = []entities.VisitRecord{
		stay("e_1", "Hanok A", entities.Float(127.00), entities.Float(37.50), 4.75),
		stay("e_2", "Hanok A", entities.NullFloat{}, entities.NullFloat{}, 3.75),
		stay("e_1", "Hotel B", entities.Float(127.01), entities.Float(37.51), 4.75),
		stay("e_2", "No Coords", entities.NullFloat{}, entities.NullFloat{}, 5),
		// not a lodging visit
		{TravelID: "e_1", Name: "Beach", TypeCode: 1, X: entities.Float(127.0), Y: entities.Float(37.5), Satisfaction: 5},
	}
	tables.Travels = []entities.TravelRecord{
		{TravelID: "e_1", TravelerID: "a", MvmnName: entities.MvmnPublicTransit},
		{TravelID: "e_2", TravelerID: "b", MvmnName: entities.MvmnPrivateCar},
	}
	tables.Travelers = []entities.TravelerProfile{
		{TravelerID: "a", Accompany: "나홀로 여행"},
		{TravelerID: "b", Accompany: "자녀 동반 여행"},
	}
	return tables
}

func TestLodgingService_BuildIndex(t *testing.T) {
	svc := NewLodgingService(lodgingFixture())
	aggs, err := svc.BuildIndex(context.Background())
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 aggregates, got %+v", aggs)
	}
	if aggs[0].Name != "Hanok A" || aggs[1].Name != "Hotel B" {
		t.Fatalf("aggregates not ordered by name: %q, %q", aggs[0].Name, aggs[1].Name)
	}

	a := aggs[0]
	if a.Visits != 2 || a.TotalNights != 4 {
		t.Errorf("visits=%d nights=%d, want 2 and 4", a.Visits, a.TotalNights)
	}
	if a.TransitVisits != 1 || a.FamilyVisits != 1 {
		t.Errorf("transit=%v family=%v, want 1 and 1", a.TransitVisits, a.FamilyVisits)
	}
	if a.X != 127.00 || a.Y != 37.50 {
		t.Errorf("first coordinate not kept: (%v, %v)", a.X, a.Y)
	}
	if !approxEqual(a.MaxScore, 4.0) || !approxEqual(a.MinScore, 3.2) || !approxEqual(a.AvgScore, 3.6) {
		t.Errorf("scores avg=%v max=%v min=%v", a.AvgScore, a.MaxScore, a.MinScore)
	}
}

func TestLodgingService_Rank(t *testing.T) {
	svc := NewLodgingService(lodgingFixture())
	ctx := context.Background()

	best, err := svc.Rank(ctx, 127.001, 37.501, 5, entities.ShortTrain, "나홀로 여행")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if best == nil {
		t.Fatal("expected a lodging")
	}
	// Hotel B: 4.0 + 0.5 + 0.5; Hanok A: 3.6 + 0.25 + 0.25.
	if best.Name != "Hotel B" || !approxEqual(best.FinalScore, 5.0) {
		t.Errorf("best = %s (%v), want Hotel B (5.0)", best.Name, best.FinalScore)
	}

	none, err := svc.Rank(ctx, 129.0, 35.1, 5, entities.ShortTrain, "나홀로 여행")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if none != nil {
		t.Errorf("expected no lodging, got %+v", none)
	}
}

func TestLodgingService_TiesKeepNameOrder(t *testing.T) {
	tables := memory.NewTables()
	for _, name := range []string{"Zeta", "Alpha"} {
		tables.Visits = append(tables.Visits, entities.VisitRecord{
			TravelID: "e_1", Name: name, TypeCode: LodgingVisitType,
			X: entities.Float(127.0), Y: entities.Float(37.5),
			Satisfaction: 4, RevisitIntention: 4, RecommendIntention: 4,
		})
	}
	best, err := NewLodgingService(tables).Rank(context.Background(), 127.0, 37.5, 1, entities.ShortBus, "")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if best == nil || best.Name != "Alpha" {
		t.Errorf("tie should go to first name, got %+v", best)
	}
}
