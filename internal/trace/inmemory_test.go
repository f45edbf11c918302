package trace

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRecordAndList(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	rec := Record{
		ThreadID:  "thread-1",
		Query:     "how many pending invoices",
		Decision:  "STRUCTURED",
		Stages:    []string{"route", "query_sql", "generate"},
		CreatedAt: time.Now(),
	}
	if err := s.Record(ctx, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(ctx, Record{ThreadID: "thread-1", Query: "second"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := s.List(ctx, "thread-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Decision != "STRUCTURED" || len(got[0].Stages) != 3 {
		t.Fatalf("unexpected first record: %+v", got[0])
	}

	other, err := s.List(ctx, "thread-2")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no records for unknown thread, got %d", len(other))
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	ctx := context.Background()

	if err := s.Record(ctx, Record{ThreadID: "thread-1", Query: "q"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	got, err := s.List(ctx, "thread-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired thread to list empty, got %d", len(got))
	}
}
