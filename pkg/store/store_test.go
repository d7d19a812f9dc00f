package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return map[string]Store{"memory": NewMemory(), "bolt": b}
}

func get(t *testing.T, s Store, key string) (string, bool) {
	t.Helper()
	var (
		val string
		ok  bool
	)
	err := s.View(func(tx Tx) error {
		v, found, err := tx.Get(key)
		val, ok = string(v), found
		return err
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	return val, ok
}

func TestStoreCommit(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Update(func(tx Tx) error {
				if err := tx.Put("a", []byte("1")); err != nil {
					return err
				}
				if err := tx.Put("b", []byte("2")); err != nil {
					return err
				}
				// Reads see the transaction's own writes.
				if v, ok, _ := tx.Get("a"); !ok || string(v) != "1" {
					t.Errorf("read-your-writes: got %q %v", v, ok)
				}
				return tx.Delete("b")
			})
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if v, ok := get(t, s, "a"); !ok || v != "1" {
				t.Errorf("a: got %q %v", v, ok)
			}
			if _, ok := get(t, s, "b"); ok {
				t.Error("b should be deleted")
			}
		})
	}
}

func TestStoreRollback(t *testing.T) {
	boom := errors.New("boom")
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Update(func(tx Tx) error { return tx.Put("keep", []byte("x")) }); err != nil {
				t.Fatalf("Update: %v", err)
			}
			err := s.Update(func(tx Tx) error {
				tx.Put("new", []byte("y"))
				tx.Delete("keep")
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
			if _, ok := get(t, s, "new"); ok {
				t.Error("rolled back write is visible")
			}
			if _, ok := get(t, s, "keep"); !ok {
				t.Error("rolled back delete took effect")
			}
		})
	}
}

func TestStoreKeys(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s.Update(func(tx Tx) error {
				tx.Put("b", []byte("1"))
				tx.Put("a", []byte("1"))
				tx.Put("c", []byte("1"))
				return nil
			})
			var keys []string
			s.Update(func(tx Tx) error {
				tx.Delete("c")
				tx.Put("d", []byte("1"))
				var err error
				keys, err = tx.Keys()
				return err
			})
			if want := []string{"a", "b", "d"}; !reflect.DeepEqual(keys, want) {
				t.Errorf("keys: got %v, want %v", keys, want)
			}
		})
	}
}

func TestMemoryReadOnlyView(t *testing.T) {
	m := NewMemory()
	err := m.View(func(tx Tx) error { return tx.Put("a", nil) })
	if err == nil {
		t.Fatal("expected write in View to fail")
	}
}
