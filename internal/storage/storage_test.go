package storage

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/dpapathanasiou/coatcheck/pkg/errors"
	"github.com/dpapathanasiou/coatcheck/pkg/options"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coatcheck.db")
	s, err := New(&Config{
		Options: &options.Options{FilePath: path},
		Logger:  zap.NewNop().Sugar(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

// S1: first read of a missing file.
func TestReadMissingFile(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Read("meh")
	if err == nil {
		t.Fatal("expected a not-found error for a missing backing file")
	}
	se, ok := errors.AsStorageError(err)
	if !ok || se.Code() != errors.ErrorCodeNotFound {
		t.Fatalf("expected a not-found StorageError, got %v", err)
	}
}

// S2: write then read.
func TestUpsertThenRead(t *testing.T) {
	s := newTestStorage(t)

	n, err := s.Upsert("boo", []byte("some value goes here"))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if n == 0 {
		t.Fatal("expected a non-zero byte count on first upsert")
	}

	got, err := s.Read("boo")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "some value goes here" {
		t.Fatalf("Read() = %q, want %q", got, "some value goes here")
	}
}

// S3: write then delete then read.
func TestUpsertThenDeleteThenRead(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Upsert("boo", []byte("some value goes here")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	deleted, err := s.Delete("boo")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if string(deleted) != "some value goes here" {
		t.Fatalf("Delete() = %q, want %q", deleted, "some value goes here")
	}

	got, err := s.Read("boo")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() after delete = %q, want nil", got)
	}
}

// S4: reinsertion cycle.
func TestReinsertionCycle(t *testing.T) {
	s := newTestStorage(t)

	values := []string{"あ", "い", "う", "え", "お"}
	for i, v := range values {
		if _, err := s.Upsert("katakana", []byte(v)); err != nil {
			t.Fatalf("Upsert(%d) error = %v", i, err)
		}
		if i != len(values)-1 {
			if _, err := s.Delete("katakana"); err != nil {
				t.Fatalf("Delete(%d) error = %v", i, err)
			}
		}
	}

	got, err := s.Read("katakana")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "お" {
		t.Fatalf("Read() = %q, want %q", got, "お")
	}
}

// S5: idempotent upsert.
func TestUpsertIdempotent(t *testing.T) {
	s := newTestStorage(t)
	value := []byte("V")

	first, err := s.Upsert("k", value)
	if err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	if first == 0 {
		t.Fatal("expected a non-zero byte count on the first upsert")
	}

	second, err := s.Upsert("k", value)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if second != 0 {
		t.Fatalf("second Upsert() = %d bytes, want 0", second)
	}

	got, err := s.Read("k")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Fatalf("Read() = %q, want %q", got, value)
	}
}

// Last-write-wins for distinct values.
func TestUpsertLastWriteWins(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Upsert("k", []byte("V1")); err != nil {
		t.Fatalf("Upsert(V1) error = %v", err)
	}
	if _, err := s.Upsert("k", []byte("V2")); err != nil {
		t.Fatalf("Upsert(V2) error = %v", err)
	}

	got, err := s.Read("k")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "V2" {
		t.Fatalf("Read() = %q, want %q", got, "V2")
	}
}

// S6: compaction round-trip.
func TestCompactionRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	numerals := []string{"uno", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve", "diez"}
	for i, v := range numerals {
		key := string(rune('1' + i))
		if _, err := s.Upsert(key, []byte(v)); err != nil {
			t.Fatalf("Upsert(%s) error = %v", key, err)
		}
	}

	for i := 0; i < len(numerals); i += 2 {
		key := string(rune('1' + i))
		if _, err := s.Delete(key); err != nil {
			t.Fatalf("Delete(%s) error = %v", key, err)
		}
	}

	if err := s.Compact(); err != nil {
		t.Fatalf("Compact() error = %v", err)
	}

	for i, v := range numerals {
		key := string(rune('1' + i))
		got, err := s.Read(key)
		if err != nil {
			t.Fatalf("Read(%s) error = %v", key, err)
		}
		if i%2 == 0 {
			if got != nil {
				t.Fatalf("Read(%s) = %q, want absent after compaction", key, got)
			}
		} else if string(got) != v {
			t.Fatalf("Read(%s) = %q, want %q", key, got, v)
		}
	}
}

// Compacting a file with no live records leaves every key absent.
func TestCompactionAllTombstoned(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Upsert("a", []byte("1")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := s.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Compact(); err != nil {
		t.Fatalf("Compact() error = %v", err)
	}

	got, err := s.Read("a")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %q, want absent", got)
	}
}

// Compacting a missing file surfaces not-found, which callers treat as success.
func TestCompactionMissingFile(t *testing.T) {
	s := newTestStorage(t)

	err := s.Compact()
	if err == nil {
		t.Fatal("expected a not-found error for a missing backing file")
	}
	se, ok := errors.AsStorageError(err)
	if !ok || se.Code() != errors.ErrorCodeNotFound {
		t.Fatalf("expected a not-found StorageError, got %v", err)
	}
}

// Deleting a key twice is idempotent: the second delete finds nothing.
func TestDeleteIdempotent(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.Upsert("k", []byte("v")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := s.Delete("k"); err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}

	got, err := s.Delete("k")
	if err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if got != nil {
		t.Fatalf("second Delete() = %q, want absent", got)
	}
}

// Concurrent writers on distinct keys never produce a torn read.
func TestConcurrentDistinctKeys(t *testing.T) {
	s := newTestStorage(t)

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			value := bytes.Repeat([]byte{byte('0' + i)}, 64)
			if _, err := s.Upsert(key, value); err != nil {
				t.Errorf("Upsert(%s) error = %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		key := string(rune('a' + i))
		want := bytes.Repeat([]byte{byte('0' + i)}, 64)
		got, err := s.Read(key)
		if err != nil {
			t.Fatalf("Read(%s) error = %v", key, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Read(%s) = %q, want %q", key, got, want)
		}
	}
}
