package memory

import (
	"context"
	"fmt"
	"sync"

	"tripreco/internal/domain/entities"
	"tripreco/internal/repository"
)

// Tables is an in-memory TableSource. A nil slice means the table is
// missing and its loader returns repository.ErrTableNotFound; an empty
// non-nil slice is an empty table.
//
// Loaders return copies so callers may sort or mutate the result.
type Tables struct {
	mu sync.RWMutex

	Visits      []entities.VisitRecord
	Moves       []entities.MoveRecord
	Travels     []entities.TravelRecord
	Travelers   []entities.TravelerProfile
	Activities  []entities.ActivityRecord
	Codes       []entities.CodeEntry
	Clusters    []entities.ClusterMember
	Consumption []entities.ConsumptionRecord
}

// NewTables returns a source where every table exists and is empty.
func NewTables() *Tables {
	return &Tables{
		Visits:      []entities.VisitRecord{},
		Moves:       []entities.MoveRecord{},
		Travels:     []entities.TravelRecord{},
		Travelers:   []entities.TravelerProfile{},
		Activities:  []entities.ActivityRecord{},
		Codes:       []entities.CodeEntry{},
		Clusters:    []entities.ClusterMember{},
		Consumption: []entities.ConsumptionRecord{},
	}
}

var _ repository.TableSource = (*Tables)(nil)

func load[T any](t *Tables, name string, table func() []T) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := table()
	if rows == nil {
		return nil, fmt.Errorf("%s: %w", name, repository.ErrTableNotFound)
	}
	out := make([]T, len(rows))
	copy(out, rows)
	return out, nil
}

func (t *Tables) LoadVisits(ctx context.Context) ([]entities.VisitRecord, error) {
	return load(t, repository.TableVisits, func() []entities.VisitRecord { return t.Visits })
}

func (t *Tables) LoadMoves(ctx context.Context) ([]entities.MoveRecord, error) {
	return load(t, repository.TableMoves, func() []entities.MoveRecord { return t.Moves })
}

func (t *Tables) LoadTravels(ctx context.Context) ([]entities.TravelRecord, error) {
	return load(t, repository.TableTravels, func() []entities.TravelRecord { return t.Travels })
}

func (t *Tables) LoadTravelers(ctx context.Context) ([]entities.TravelerProfile, error) {
	return load(t, repository.TableTravelers, func() []entities.TravelerProfile { return t.Travelers })
}

func (t *Tables) LoadActivities(ctx context.Context) ([]entities.ActivityRecord, error) {
	return load(t, repository.TableActivities, func() []entities.ActivityRecord { return t.Activities })
}

func (t *Tables) LoadCodes(ctx context.Context) ([]entities.CodeEntry, error) {
	return load(t, repository.TableCodes, func() []entities.CodeEntry { return t.Codes })
}

func (t *Tables) LoadClusterMembers(ctx context.Context) ([]entities.ClusterMember, error) {
	return load(t, repository.TableClusters, func() []entities.ClusterMember { return t.Clusters })
}

func (t *Tables) LoadConsumption(ctx context.Context) ([]entities.ConsumptionRecord, error) {
	return load(t, repository.TableConsumption, func() []entities.ConsumptionRecord { return t.Consumption })
}

// InputLog collects input records in memory.
type InputLog struct {
	mu      sync.Mutex
	records []repository.InputRecord
}

func NewInputLog() *InputLog {
	return &InputLog{}
}

func (l *InputLog) Append(ctx context.Context, rec repository.InputRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *InputLog) Last(ctx context.Context) (*repository.InputRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return nil, repository.ErrNoInputs
	}
	rec := l.records[len(l.records)-1]
	return &rec, nil
}

// Records returns a copy of everything appended so far.
func (l *InputLog) Records() []repository.InputRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]repository.InputRecord, len(l.records))
	copy(out, l.records)
	return out
}
