// Package csvstore reads the survey tables from CSV files on disk.
//
// Go Learning Note — Streaming Decoders:
// The travel and traveler masters are EUC-KR encoded. Instead of converting
// the files up front, the file is wrapped in a transform.Reader that decodes
// bytes to UTF-8 as gocsv pulls them, so the rest of the program only ever
// sees UTF-8 strings.
package csvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"tripreco/internal/config"
	"tripreco/internal/domain/entities"
	"tripreco/internal/logging"
	"tripreco/internal/metrics"
	"tripreco/internal/repository"
)

// Supported table encodings.
const (
	EncodingUTF8  = "utf-8"
	EncodingEUCKR = "euc-kr"
	EncodingAuto  = "auto"
)

// Store is a TableSource over a directory of CSV files. It holds no table
// data; every Load call reads its file again.
type Store struct {
	dir    string
	tables map[string]config.TableFile
	log    zerolog.Logger
}

var _ repository.TableSource = (*Store)(nil)

func NewStore(cfg config.DataConfig) *Store {
	tables := make(map[string]config.TableFile, len(cfg.Tables))
	for name, t := range cfg.Tables {
		tables[name] = t
	}
	return &Store{
		dir:    cfg.Dir,
		tables: tables,
		log:    logging.Component("csvstore"),
	}
}

func (s *Store) path(table string) (string, config.TableFile, error) {
	t, ok := s.tables[table]
	if !ok || t.Name == "" {
		return "", t, fmt.Errorf("%s: no file configured: %w", table, repository.ErrTableNotFound)
	}
	if filepath.IsAbs(t.Name) {
		return t.Name, t, nil
	}
	return filepath.Join(s.dir, t.Name), t, nil
}

// readTable opens, decodes and unmarshals one table.
func readTable[T any](ctx context.Context, s *Store, table string) ([]T, error) {
	start := time.Now()
	rows, err := decodeTable[T](ctx, s, table)
	metrics.RecordTableLoad(table, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("table", table).Int("rows", len(rows)).Dur("took", time.Since(start)).Msg("table loaded")
	return rows, nil
}

func decodeTable[T any](ctx context.Context, s *Store, table string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, t, err := s.path(table)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s (%s): %w", table, path, repository.ErrTableNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", table, err)
	}
	defer f.Close()

	r, err := decodingReader(f, t.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table, err)
	}
	var rows []T
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("parse %s: %w", table, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// decodingReader wraps r so it yields UTF-8 regardless of the file's
// encoding. A leading UTF-8 BOM is dropped.
func decodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch normalizeEncoding(encoding) {
	case EncodingUTF8:
		return utf8Reader(r), nil
	case EncodingEUCKR:
		return transform.NewReader(r, korean.EUCKR.NewDecoder()), nil
	case EncodingAuto:
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if utf8.Valid(raw) {
			return utf8Reader(bytes.NewReader(raw)), nil
		}
		return transform.NewReader(bytes.NewReader(raw), korean.EUCKR.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func utf8Reader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

func normalizeEncoding(enc string) string {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return EncodingUTF8
	case "euc-kr", "euckr", "cp949", "ansi":
		return EncodingEUCKR
	case "auto":
		return EncodingAuto
	default:
		return enc
	}
}

func (s *Store) LoadVisits(ctx context.Context) ([]entities.VisitRecord, error) {
	return readTable[entities.VisitRecord](ctx, s, repository.TableVisits)
}

func (s *Store) LoadMoves(ctx context.Context) ([]entities.MoveRecord, error) {
	return readTable[entities.MoveRecord](ctx, s, repository.TableMoves)
}

func (s *Store) LoadTravels(ctx context.Context) ([]entities.TravelRecord, error) {
	return readTable[entities.TravelRecord](ctx, s, repository.TableTravels)
}

func (s *Store) LoadTravelers(ctx context.Context) ([]entities.TravelerProfile, error) {
	return readTable[entities.TravelerProfile](ctx, s, repository.TableTravelers)
}

func (s *Store) LoadActivities(ctx context.Context) ([]entities.ActivityRecord, error) {
	return readTable[entities.ActivityRecord](ctx, s, repository.TableActivities)
}

func (s *Store) LoadCodes(ctx context.Context) ([]entities.CodeEntry, error) {
	return readTable[entities.CodeEntry](ctx, s, repository.TableCodes)
}

func (s *Store) LoadClusterMembers(ctx context.Context) ([]entities.ClusterMember, error) {
	return readTable[entities.ClusterMember](ctx, s, repository.TableClusters)
}

func (s *Store) LoadConsumption(ctx context.Context) ([]entities.ConsumptionRecord, error) {
	return readTable[entities.ConsumptionRecord](ctx, s, repository.TableConsumption)
}
