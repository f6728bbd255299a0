package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"tripreco/internal/cluster"
	"tripreco/internal/domain/entities"
	"tripreco/internal/logging"
	"tripreco/internal/metrics"
	"tripreco/internal/repository"
)

// PurposeSeparator joins several stated purposes into the ACTIVITY feature.
const PurposeSeparator = ", "

// AgeBracket maps an age to its decade bracket; 60 and over share one.
func AgeBracket(age int) int {
	switch {
	case age < 20:
		return 10
	case age < 30:
		return 20
	case age < 40:
		return 30
	case age < 50:
		return 40
	case age < 60:
		return 50
	default:
		return 60
	}
}

// ErrInvalidChoice is returned when a label is not one of the offered
// choices.
var ErrInvalidChoice = errors.New("not one of the offered choices")

// Traveler is the profile a traveler enters, before it becomes model input.
type Traveler struct {
	Nights    string `json:"nights"`
	Age       int    `json:"age"`
	Companion string `json:"companion"`
	// Companions excludes the traveler. When nil it is derived from the
	// companion type, if the type fixes it.
	Companions *int     `json:"companions,omitempty"`
	Transport  string   `json:"transport"`
	Purposes   []string `json:"purposes"`
}

// Validate resolves the stay and the companion count. Labels must come from
// entities.CompanionLabels, entities.ShortTransportLabels and
// entities.PurposeChoices.
func (t Traveler) Validate() (nights, companions int, err error) {
	return t.validate(nil)
}

// validate reports every problem at once; missing carries fields the caller
// already found absent.
func (t Traveler) validate(missing []string) (nights, companions int, err error) {
	nights = entities.ParseNights(t.Nights)
	if nights == entities.InvalidNights {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidNights, t.Nights)
	}

	var invalid []string
	if t.Age <= 0 {
		missing = append(missing, "age")
	}

	companionType := entities.ParseCompanionType(t.Companion)
	switch {
	case t.Companion == "":
		missing = append(missing, "companion")
	case companionType == entities.CompanionUnknown:
		invalid = append(invalid, fmt.Sprintf("companion %q", t.Companion))
	}

	switch {
	case t.Transport == "":
		missing = append(missing, "transport")
	case !slices.Contains(entities.ShortTransportLabels, t.Transport):
		invalid = append(invalid, fmt.Sprintf("transport %q", t.Transport))
	}

	if len(t.Purposes) == 0 {
		missing = append(missing, "purposes")
	}
	for _, p := range t.Purposes {
		if !slices.Contains(entities.PurposeChoices, p) {
			invalid = append(invalid, fmt.Sprintf("purpose %q", p))
		}
	}

	switch {
	case t.Companions != nil:
		if *t.Companions < 0 {
			invalid = append(invalid, fmt.Sprintf("companions %d", *t.Companions))
		}
		companions = *t.Companions
	case companionType != entities.CompanionUnknown:
		n, ok := companionType.DefaultCompanionCount()
		if !ok {
			missing = append(missing, "companions")
		}
		companions = n
	}

	if len(missing) > 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidChoice, strings.Join(invalid, ", "))
	}
	return nights, companions, nil
}

// Features validates the traveler and builds the model input.
func (t Traveler) Features() (entities.FeatureVector, error) {
	nights, companions, err := t.Validate()
	if err != nil {
		return entities.FeatureVector{}, err
	}
	return BuildFeatures(t.Age, companions, t.Companion, nights, t.Purposes, t.Transport), nil
}

// BuildFeatures assembles the model input for a traveler. nights is the
// number of nights, not days.
func BuildFeatures(age, companions int, companionType string, nights int, purposes []string, transport string) entities.FeatureVector {
	return entities.FeatureVector{
		AgeGroup:       float64(AgeBracket(age)),
		CompanionCount: float64(companions),
		Accompany:      companionType,
		Sleep:          float64(nights),
		Activity:       strings.Join(purposes, PurposeSeparator),
		ResultMvmn:     transport,
	}
}

// ClusterService assigns travelers to the behavioral clusters the
// recommendations are scoped by.
//
// Go Learning Note — Refit On Every Call:
// The numeric columns are z-scored against the historical cluster table plus
// the query row each time Predict runs. The scaling therefore moves whenever
// the historical table changes, even though the model artifact does not.
type ClusterService struct {
	tables repository.TableSource
	model  cluster.Model
	log    zerolog.Logger
}

func NewClusterService(tables repository.TableSource, model cluster.Model) *ClusterService {
	return &ClusterService{
		tables: tables,
		model:  model,
		log:    logging.Component("cluster"),
	}
}

// numeric returns the z-scored columns of a feature vector.
func numeric(f entities.FeatureVector) [3]float64 {
	return [3]float64{f.AgeGroup, f.CompanionCount, f.Sleep}
}

// Standardize z-scores each column of rows in place using the population
// standard deviation. A constant column is only centred.
func Standardize(rows [][3]float64) {
	if len(rows) == 0 {
		return
	}
	n := float64(len(rows))
	for col := 0; col < 3; col++ {
		var mean float64
		for _, r := range rows {
			mean += r[col]
		}
		mean /= n

		var variance float64
		for _, r := range rows {
			d := r[col] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / n)
		if std == 0 {
			std = 1
		}
		for i := range rows {
			rows[i][col] = (rows[i][col] - mean) / std
		}
	}
}

// Normalize scales the query's numeric columns jointly with the historical
// members and returns the scaled query.
func Normalize(members []entities.ClusterMember, query entities.FeatureVector) entities.FeatureVector {
	rows := make([][3]float64, 0, len(members)+1)
	for _, m := range members {
		rows = append(rows, numeric(entities.FeatureVectorFromMember(m)))
	}
	rows = append(rows, numeric(query))
	Standardize(rows)

	scaled := rows[len(rows)-1]
	query.AgeGroup = scaled[0]
	query.CompanionCount = scaled[1]
	query.Sleep = scaled[2]
	return query
}

// Predict returns the cluster of a raw feature vector.
func (s *ClusterService) Predict(ctx context.Context, features entities.FeatureVector) (int, error) {
	if s.model == nil {
		return 0, cluster.ErrModelUnavailable
	}
	members, err := s.tables.LoadClusterMembers(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cluster table: %w", err)
	}

	scaled := Normalize(members, features)
	id, err := s.model.Predict(scaled.Row(), entities.CategoricalColumns)
	if err != nil {
		return 0, fmt.Errorf("predict cluster: %w", err)
	}

	s.log.Debug().
		Int("cluster", id).
		Int("history", len(members)).
		Str("accompany", features.Accompany).
		Msg("cluster assigned")
	metrics.RecordClusterAssignment(id)
	return id, nil
}
