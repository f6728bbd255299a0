package csvstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tripreco/internal/repository"
)

func TestInputLog_AppendAndLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.csv")
	log := NewInputLog(path)
	ctx := context.Background()

	if _, err := log.Last(ctx); !errors.Is(err, repository.ErrNoInputs) {
		t.Fatalf("expected ErrNoInputs before first append, got %v", err)
	}

	first := repository.InputRecord{Location: "서울역", Age: 27, Days: 2, Transport: "기차", Cluster: 1, X: 126.97, Y: 37.55}
	second := repository.InputRecord{Location: "부산역", Age: 40, Days: 1, Transport: "자가용", Cluster: 2}
	if err := log.Append(ctx, first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Append(ctx, second); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, utf8BOM) {
		t.Error("input log should start with a UTF-8 BOM")
	}
	if n := strings.Count(string(raw), "location"); n != 1 {
		t.Errorf("header written %d times, want 1", n)
	}

	last, err := log.Last(ctx)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last.Location != "부산역" || last.Age != 40 || last.Cluster != 2 {
		t.Errorf("unexpected last record: %+v", last)
	}
}
