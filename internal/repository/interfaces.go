package repository

import (
	"context"
	"errors"
	"time"

	"tripreco/internal/domain/entities"
)

// ErrTableNotFound is returned (wrapped with the table name) when a source
// table cannot be opened.
var ErrTableNotFound = errors.New("table not found")

// Table names used in errors, logs and configuration keys.
const (
	TableVisits      = "visits"
	TableMoves       = "moves"
	TableTravels     = "travels"
	TableTravelers   = "travelers"
	TableActivities  = "activities"
	TableCodes       = "codes"
	TableClusters    = "clusters"
	TableConsumption = "consumption"
)

// TableSource is the read-only capability that yields the normalized survey
// tables. Every scoring query reads through it on each call; implementations
// must not cache across calls unless their data is immutable.
type TableSource interface {
	LoadVisits(ctx context.Context) ([]entities.VisitRecord, error)
	LoadMoves(ctx context.Context) ([]entities.MoveRecord, error)
	LoadTravels(ctx context.Context) ([]entities.TravelRecord, error)
	LoadTravelers(ctx context.Context) ([]entities.TravelerProfile, error)
	LoadActivities(ctx context.Context) ([]entities.ActivityRecord, error)
	LoadCodes(ctx context.Context) ([]entities.CodeEntry, error)
	LoadClusterMembers(ctx context.Context) ([]entities.ClusterMember, error)
	LoadConsumption(ctx context.Context) ([]entities.ConsumptionRecord, error)
}

type SessionRepository interface {
	GetOrCreate(ctx context.Context, id string) (*entities.Session, error)
	GetByID(ctx context.Context, id string) (*entities.Session, error)
	Delete(ctx context.Context, id string) error
}

// ErrNoInputs is returned by InputLog.Last when nothing was logged yet.
var ErrNoInputs = errors.New("no logged inputs")

// InputRecord is one row of the flat input log: the validated form inputs
// of a plan request plus what was derived from them.
type InputRecord struct {
	Timestamp       string  `csv:"timestamp"`
	SessionID       string  `csv:"session_id"`
	Location        string  `csv:"location"`
	PreferredRegion string  `csv:"preferred_region"`
	Age             int     `csv:"age"`
	Accompany       string  `csv:"accompany"`
	Companions      int     `csv:"companions"`
	Days            int     `csv:"days"`
	Transport       string  `csv:"transport"`
	Purpose         string  `csv:"purpose"`
	Cluster         int     `csv:"cluster"`
	Region          string  `csv:"region"`
	X               float64 `csv:"x"`
	Y               float64 `csv:"y"`
}

// InputLog is an append-only log of plan inputs.
type InputLog interface {
	Append(ctx context.Context, rec InputRecord) error
	// Last returns the most recent record, or ErrNoInputs.
	Last(ctx context.Context) (*InputRecord, error)
}

type LockManager interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	IsLocked(ctx context.Context, key string) (bool, error)
}
