// Package cluster assigns a behavioral cluster to a feature row.
//
// The model itself is trained offline. What ships is a JSON artifact with
// one prototype per cluster: numeric centroid values and categorical modes,
// plus the gamma weight that balances the two parts of the distance.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"
)

var (
	ErrEmptyModel       = errors.New("cluster model has no prototypes")
	ErrFeatureMismatch  = errors.New("feature row does not match model")
	ErrModelUnavailable = errors.New("cluster model unavailable")
)

// Model predicts the cluster of one feature row. categorical lists the
// positions of the non-numeric columns; every other column must be float64.
type Model interface {
	Predict(row []any, categorical []int) (int, error)
}

// Prototype is one cluster centre.
type Prototype struct {
	Label       int       `json:"label"`
	Numeric     []float64 `json:"numeric"`
	Categorical []string  `json:"categorical"`
}

// KPrototypes is a k-prototypes model: the distance to a prototype is the
// squared euclidean distance over numeric columns plus gamma times the
// number of categorical mismatches.
type KPrototypes struct {
	Gamma      float64     `json:"gamma"`
	Prototypes []Prototype `json:"prototypes"`
}

var _ Model = (*KPrototypes)(nil)

// Load reads a model artifact from path.
func Load(path string) (*KPrototypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return Parse(data)
}

// Parse decodes and validates a model artifact.
func Parse(data []byte) (*KPrototypes, error) {
	var m KPrototypes
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode cluster model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *KPrototypes) validate() error {
	if len(m.Prototypes) == 0 {
		return ErrEmptyModel
	}
	nNum, nCat := len(m.Prototypes[0].Numeric), len(m.Prototypes[0].Categorical)
	for _, p := range m.Prototypes[1:] {
		if len(p.Numeric) != nNum || len(p.Categorical) != nCat {
			return fmt.Errorf("%w: prototype %d has %d numeric and %d categorical values, want %d and %d",
				ErrFeatureMismatch, p.Label, len(p.Numeric), len(p.Categorical), nNum, nCat)
		}
	}
	return nil
}

// Predict returns the label of the nearest prototype. Ties go to the
// prototype listed first.
func (m *KPrototypes) Predict(row []any, categorical []int) (int, error) {
	if len(m.Prototypes) == 0 {
		return 0, ErrEmptyModel
	}
	num, cat, err := split(row, categorical)
	if err != nil {
		return 0, err
	}
	if len(num) != len(m.Prototypes[0].Numeric) || len(cat) != len(m.Prototypes[0].Categorical) {
		return 0, fmt.Errorf("%w: row has %d numeric and %d categorical columns", ErrFeatureMismatch, len(num), len(cat))
	}

	best, bestCost := 0, math.Inf(1)
	for i, p := range m.Prototypes {
		cost := 0.0
		for j, v := range num {
			d := v - p.Numeric[j]
			cost += d * d
		}
		mismatches := 0
		for j, v := range cat {
			if v != p.Categorical[j] {
				mismatches++
			}
		}
		cost += m.Gamma * float64(mismatches)
		if cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return m.Prototypes[best].Label, nil
}

// split separates a row into numeric and categorical values, each in column
// order.
func split(row []any, categorical []int) ([]float64, []string, error) {
	isCat := make(map[int]bool, len(categorical))
	for _, idx := range categorical {
		if idx < 0 || idx >= len(row) {
			return nil, nil, fmt.Errorf("%w: categorical index %d out of range", ErrFeatureMismatch, idx)
		}
		isCat[idx] = true
	}

	idxs := make([]int, 0, len(categorical))
	for idx := range isCat {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	cat := make([]string, 0, len(idxs))
	for _, idx := range idxs {
		s, ok := row[idx].(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: column %d is %T, want string", ErrFeatureMismatch, idx, row[idx])
		}
		cat = append(cat, s)
	}

	num := make([]float64, 0, len(row)-len(idxs))
	for i, v := range row {
		if isCat[i] {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			return nil, nil, fmt.Errorf("%w: column %d is %T, want float64", ErrFeatureMismatch, i, v)
		}
		num = append(num, f)
	}
	return num, cat, nil
}
