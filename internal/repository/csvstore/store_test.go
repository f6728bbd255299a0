package csvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/korean"

	"tripreco/internal/config"
	"tripreco/internal/repository"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestStore(dir string) *Store {
	return NewStore(config.DataConfig{
		Dir: dir,
		Tables: map[string]config.TableFile{
			repository.TableVisits:    {Name: "visits.csv", Encoding: "utf-8"},
			repository.TableTravels:   {Name: "travels.csv", Encoding: "euc-kr"},
			repository.TableClusters:  {Name: "clusters.csv", Encoding: "auto"},
			repository.TableMoves:     {Name: "missing.csv", Encoding: "utf-8"},
			repository.TableTravelers: {Name: "travelers.csv", Encoding: "utf-8"},
		},
	})
}

func TestStore_LoadVisits_BOMAndMissingCoords(t *testing.T) {
	dir := t.TempDir()
	csv := "\xEF\xBB\xBFTRAVEL_ID,VISIT_AREA_ID,VISIT_AREA_NM,X_COORD,Y_COORD,VISIT_AREA_TYPE_CD,DGSTFN,REVISIT_YN,SIDO_NM\n" +
		"e_1,1,경복궁,126.977,37.579,1,5,Y,서울\n" +
		"e_1,2,집,,,21,,N,서울\n"
	writeFile(t, dir, "visits.csv", []byte(csv))

	visits, err := newTestStore(dir).LoadVisits(context.Background())
	if err != nil {
		t.Fatalf("LoadVisits: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(visits))
	}
	if visits[0].TravelID != "e_1" {
		t.Errorf("BOM not stripped from first header: TravelID=%q", visits[0].TravelID)
	}
	if visits[0].Name != "경복궁" || !visits[0].HasCoords() || visits[0].X.Value != 126.977 {
		t.Errorf("unexpected first row: %+v", visits[0])
	}
	if !bool(visits[0].RevisitYN) {
		t.Error("REVISIT_YN Y should decode to true")
	}
	if visits[1].HasCoords() {
		t.Error("blank coordinates must stay missing")
	}
}

func TestStore_LoadTravels_EUCKR(t *testing.T) {
	dir := t.TempDir()
	text := "TRAVEL_ID,TRAVELER_ID,TRAVEL_PURPOSE,MVMN_NM\ne_1,t_1,1;21,대중교통 등\n"
	encoded, err := korean.EUCKR.NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "travels.csv", []byte(encoded))

	travels, err := newTestStore(dir).LoadTravels(context.Background())
	if err != nil {
		t.Fatalf("LoadTravels: %v", err)
	}
	if len(travels) != 1 || travels[0].MvmnName != "대중교통 등" || travels[0].Purpose != "1;21" {
		t.Errorf("unexpected rows: %+v", travels)
	}
}

func TestStore_LoadClusterMembers_AutoEncoding(t *testing.T) {
	text := "TRAVEL_ID,AGE_GRP,TRAVEL_COMPANIONS_NUM,TRAVEL_STATUS_ACCOMPANY,SLEEP,ACTIVITY,RESULT_MVMN,Cluster\n" +
		"e_1,20,1,2인 여행(가족 외),1,휴식,자가용,3\n"

	eucKR, err := korean.EUCKR.NewEncoder().String(text)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"utf-8", []byte(text)},
		{"utf-8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, text...)},
		{"euc-kr", []byte(eucKR)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "clusters.csv", tt.data)

			rows, err := newTestStore(dir).LoadClusterMembers(context.Background())
			if err != nil {
				t.Fatalf("LoadClusterMembers: %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("expected 1 row, got %d", len(rows))
			}
			if rows[0].Accompany != "2인 여행(가족 외)" || rows[0].Activity != "휴식" || rows[0].Cluster != 3 {
				t.Errorf("unexpected row: %+v", rows[0])
			}
		})
	}
}

func TestStore_MissingFile(t *testing.T) {
	store := newTestStore(t.TempDir())

	_, err := store.LoadMoves(context.Background())
	if !errors.Is(err, repository.ErrTableNotFound) {
		t.Errorf("missing file: expected ErrTableNotFound, got %v", err)
	}

	_, err = store.LoadCodes(context.Background())
	if !errors.Is(err, repository.ErrTableNotFound) {
		t.Errorf("unconfigured table: expected ErrTableNotFound, got %v", err)
	}
}

func TestStore_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "travelers.csv", nil)

	rows, err := newTestStore(dir).LoadTravelers(context.Background())
	if err != nil {
		t.Fatalf("empty file should be an empty table, got %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestStore(t.TempDir()).LoadVisits(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNormalizeEncoding(t *testing.T) {
	tests := map[string]string{
		"":          EncodingUTF8,
		"UTF-8":     EncodingUTF8,
		"utf-8-sig": EncodingUTF8,
		"CP949":     EncodingEUCKR,
		"ANSI":      EncodingEUCKR,
		"auto":      EncodingAuto,
	}
	for in, want := range tests {
		if got := normalizeEncoding(in); got != want {
			t.Errorf("normalizeEncoding(%q) = %q, want %q", in, got, want)
		}
	}
}
