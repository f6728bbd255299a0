package cluster

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testArtifact = `{
  "gamma": 0.5,
  "prototypes": [
    {"label": 0, "numeric": [-1, -1, -1], "categorical": ["나홀로 여행", "휴식", "자가용"]},
    {"label": 1, "numeric": [1, 1, 1], "categorical": ["2인 가족 여행", "쇼핑 / 구매", "기차"]},
    {"label": 7, "numeric": [1, 1, 1], "categorical": ["2인 가족 여행", "쇼핑 / 구매", "기차"]}
  ]
}`

func TestKPrototypes_Predict(t *testing.T) {
	m, err := Parse([]byte(testArtifact))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		name string
		row  []any
		want int
	}{
		{"numeric and categorical agree", []any{-1.0, -1.0, "나홀로 여행", -1.0, "휴식", "자가용"}, 0},
		{"tie goes to first prototype", []any{1.0, 1.0, "2인 가족 여행", 1.0, "쇼핑 / 구매", "기차"}, 1},
		{"categorical mismatches outweigh small numeric gap",
			[]any{0.1, 0.1, "나홀로 여행", 0.1, "휴식", "자가용"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.row, []int{2, 4, 5})
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if got != tt.want {
				t.Errorf("Predict() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKPrototypes_PredictErrors(t *testing.T) {
	m, _ := Parse([]byte(testArtifact))

	tests := []struct {
		name        string
		row         []any
		categorical []int
	}{
		{"wrong column count", []any{1.0, "a"}, []int{1}},
		{"string in numeric column", []any{"x", 1.0, "a", 1.0, "b", "c"}, []int{2, 4, 5}},
		{"number in categorical column", []any{1.0, 1.0, 3.0, 1.0, "b", "c"}, []int{2, 4, 5}},
		{"index out of range", []any{1.0}, []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Predict(tt.row, tt.categorical); !errors.Is(err, ErrFeatureMismatch) {
				t.Errorf("expected ErrFeatureMismatch, got %v", err)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte(`{"gamma":1,"prototypes":[]}`)); !errors.Is(err, ErrEmptyModel) {
		t.Errorf("expected ErrEmptyModel, got %v", err)
	}
	ragged := `{"gamma":1,"prototypes":[{"label":0,"numeric":[1],"categorical":["a"]},{"label":1,"numeric":[1,2],"categorical":["a"]}]}`
	if _, err := Parse([]byte(ragged)); !errors.Is(err, ErrFeatureMismatch) {
		t.Errorf("expected ErrFeatureMismatch, got %v", err)
	}
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(testArtifact), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Prototypes) != 3 || m.Gamma != 0.5 {
		t.Errorf("unexpected model: %+v", m)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}
