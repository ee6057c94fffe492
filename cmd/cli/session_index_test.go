package main

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *sessionIndex {
	t.Helper()
	idx, err := newSessionIndex(filepath.Join(t.TempDir(), "session_index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSessionIndexTouchAndList(t *testing.T) {
	idx := openTestIndex(t)
	base := time.Now().Truncate(time.Millisecond)

	if err := idx.Touch("session_a", "first question", base); err != nil {
		t.Fatal(err)
	}
	if err := idx.Touch("session_a", "second question", base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := idx.Touch("session_b", "other topic", base.Add(2*time.Minute)); err != nil {
		t.Fatal(err)
	}

	items, err := idx.List(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d sessions, want 2", len(items))
	}
	if items[0].SessionID != "session_b" {
		t.Fatalf("newest first: got %q", items[0].SessionID)
	}
	a := items[1]
	if a.ExchangeCount != 2 {
		t.Fatalf("exchange count = %d", a.ExchangeCount)
	}
	if a.LastQuestion != "second question" {
		t.Fatalf("last question = %q", a.LastQuestion)
	}
	if !a.CreatedAt.Equal(base) {
		t.Fatalf("created at = %v, want %v", a.CreatedAt, base)
	}
}

func TestSessionIndexEmptyQuestionKeepsPrevious(t *testing.T) {
	idx := openTestIndex(t)
	now := time.Now()
	if err := idx.Touch("s", "real question", now); err != nil {
		t.Fatal(err)
	}
	if err := idx.Touch("s", "   ", now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	items, err := idx.List(1)
	if err != nil {
		t.Fatal(err)
	}
	if items[0].LastQuestion != "real question" {
		t.Fatalf("last question = %q", items[0].LastQuestion)
	}
	if items[0].ExchangeCount != 2 {
		t.Fatalf("exchange count = %d", items[0].ExchangeCount)
	}
}

func TestSessionIndexListLimit(t *testing.T) {
	idx := openTestIndex(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if err := idx.Touch("session_"+string(rune('a'+i)), "q", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatal(err)
		}
	}
	items, err := idx.List(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
}

func TestSessionIndexRejectsEmptySessionID(t *testing.T) {
	idx := openTestIndex(t)
	if err := idx.Touch("  ", "q", time.Now()); err == nil {
		t.Fatal("expected error for empty session id")
	}
}
