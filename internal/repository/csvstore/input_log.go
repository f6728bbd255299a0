package csvstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/gocarina/gocsv"

	"tripreco/internal/repository"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// InputLog appends plan inputs to a UTF-8 CSV file with a BOM, so the file
// opens cleanly in spreadsheet tools. The header is written once, when the
// file is created.
type InputLog struct {
	mu   sync.Mutex
	path string
}

var _ repository.InputLog = (*InputLog)(nil)

func NewInputLog(path string) *InputLog {
	return &InputLog{path: path}
}

func (l *InputLog) Append(ctx context.Context, rec repository.InputRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open input log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat input log: %w", err)
	}

	var buf bytes.Buffer
	rows := []repository.InputRecord{rec}
	if info.Size() == 0 {
		buf.Write(utf8BOM)
		err = gocsv.Marshal(rows, &buf)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, &buf)
	}
	if err != nil {
		return fmt.Errorf("encode input record: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write input log: %w", err)
	}
	return nil
}

// Last returns the most recently appended record.
func (l *InputLog) Last(ctx context.Context) (*repository.InputRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrNoInputs
		}
		return nil, fmt.Errorf("open input log: %w", err)
	}
	defer f.Close()

	var rows []repository.InputRecord
	if err := gocsv.Unmarshal(utf8Reader(f), &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, repository.ErrNoInputs
		}
		return nil, fmt.Errorf("parse input log: %w", err)
	}
	if len(rows) == 0 {
		return nil, repository.ErrNoInputs
	}
	last := rows[len(rows)-1]
	return &last, nil
}
