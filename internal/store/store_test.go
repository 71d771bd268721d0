package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/xabinapal/skiff/internal/config"
	"github.com/xabinapal/skiff/internal/types"
)

type backend struct {
	name string
	open func(t *testing.T) Store
	// the go-keyring mock provider is not safe for concurrent use
	serial bool
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) Store { return NewMemoryStore() }, false},
		{"file", func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir())
			require.NoError(t, err)
			return s
		}, false},
		{"keyring", func(t *testing.T) Store {
			gokeyring.MockInit()
			return NewKeyringStoreWithService("skiff-test")
		}, true},
	}
}

func sample(name string) *types.Profile {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &types.Profile{
		DisplayName: name,
		Kind:        types.KindCustom,
		Host:        "example.com",
		Port:        443,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestStoreContract(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) {
				s := b.open(t)
				require.NoError(t, s.IsAvailable())

				require.NoError(t, s.Put("p1", sample("one"), `{"remarks":"one"}`))

				got, err := s.Get("p1")
				require.NoError(t, err)
				assert.Equal(t, "p1", got.ID)
				assert.Equal(t, "one", got.DisplayName)
				assert.Equal(t, types.KindCustom, got.Kind)
				assert.Equal(t, "example.com", got.Host)
				assert.Equal(t, 443, got.Port)
				assert.True(t, got.CreatedAt.Equal(sample("").CreatedAt))

				raw, err := s.GetRaw("p1")
				require.NoError(t, err)
				assert.Equal(t, `{"remarks":"one"}`, raw)
			})

			t.Run("put replaces both", func(t *testing.T) {
				s := b.open(t)
				require.NoError(t, s.Put("p1", sample("one"), "first"))
				require.NoError(t, s.Put("p1", sample("uno"), "second"))

				got, err := s.Get("p1")
				require.NoError(t, err)
				assert.Equal(t, "uno", got.DisplayName)

				raw, err := s.GetRaw("p1")
				require.NoError(t, err)
				assert.Equal(t, "second", raw)

				list, err := s.List()
				require.NoError(t, err)
				assert.Len(t, list, 1)
			})

			t.Run("record id follows key", func(t *testing.T) {
				s := b.open(t)
				p := sample("x")
				p.ID = "other"
				require.NoError(t, s.Put("p1", p, ""))

				got, err := s.Get("p1")
				require.NoError(t, err)
				assert.Equal(t, "p1", got.ID)
				assert.Equal(t, "other", p.ID, "caller's profile must not be modified")
			})

			t.Run("empty raw text is kept", func(t *testing.T) {
				s := b.open(t)
				require.NoError(t, s.Put("p1", sample("x"), ""))

				raw, err := s.GetRaw("p1")
				require.NoError(t, err)
				assert.Empty(t, raw)
			})

			t.Run("missing id", func(t *testing.T) {
				s := b.open(t)
				_, err := s.Get("nope")
				assert.ErrorIs(t, err, ErrNotFound)
				_, err = s.GetRaw("nope")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("remove is idempotent", func(t *testing.T) {
				s := b.open(t)
				require.NoError(t, s.Put("p1", sample("one"), "raw"))
				require.NoError(t, s.Remove("p1"))
				require.NoError(t, s.Remove("p1"))
				require.NoError(t, s.Remove("never-existed"))

				_, err := s.Get("p1")
				assert.ErrorIs(t, err, ErrNotFound)
				_, err = s.GetRaw("p1")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("list is sorted by display name", func(t *testing.T) {
				s := b.open(t)
				require.NoError(t, s.Put("c", sample("charlie"), ""))
				require.NoError(t, s.Put("a", sample("alpha"), ""))
				require.NoError(t, s.Put("b", sample("bravo"), ""))
				require.NoError(t, s.Remove("b"))

				list, err := s.List()
				require.NoError(t, err)
				require.Len(t, list, 2)
				assert.Equal(t, "alpha", list[0].DisplayName)
				assert.Equal(t, "charlie", list[1].DisplayName)
			})

			t.Run("invalid arguments", func(t *testing.T) {
				s := b.open(t)
				assert.ErrorIs(t, s.Put("", sample("x"), ""), ErrInvalidID)
				assert.ErrorIs(t, s.Put("p1", nil, ""), ErrProfileNil)

				bad := sample("x")
				bad.Kind = "carrier-pigeon"
				assert.ErrorIs(t, s.Put("p1", bad, ""), ErrInvalidKind)
			})

			t.Run("similar ids stay distinct", func(t *testing.T) {
				s := b.open(t)
				require.NoError(t, s.Put("a.b", sample("dotted"), "raw dotted"))

				_, err := s.Get("a_b")
				assert.ErrorIs(t, err, ErrNotFound)
				_, err = s.GetRaw("a_b")
				assert.ErrorIs(t, err, ErrNotFound)

				require.NoError(t, s.Put("a_b", sample("underscored"), "raw underscored"))
				require.NoError(t, s.Put("A.B", sample("upper"), "raw upper"))

				for id, want := range map[string]string{
					"a.b": "raw dotted",
					"a_b": "raw underscored",
					"A.B": "raw upper",
				} {
					raw, err := s.GetRaw(id)
					require.NoError(t, err)
					assert.Equal(t, want, raw, "raw text of %s", id)
				}

				list, err := s.List()
				require.NoError(t, err)
				assert.Len(t, list, 3)

				require.NoError(t, s.Remove("a.b"))
				got, err := s.Get("a_b")
				require.NoError(t, err)
				assert.Equal(t, "underscored", got.DisplayName)
			})

			t.Run("concurrent puts", func(t *testing.T) {
				if b.serial {
					t.Skip("backend mock is not goroutine safe")
				}
				s := b.open(t)
				var wg sync.WaitGroup
				for i := range 8 {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						id := fmt.Sprintf("p%d", i%2)
						assert.NoError(t, s.Put(id, sample(id), fmt.Sprintf("raw-%d", i)))
					}(i)
				}
				wg.Wait()

				list, err := s.List()
				require.NoError(t, err)
				assert.Len(t, list, 2)
			})
		})
	}
}

func TestMemoryStoreFailing(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put("p1", sample("one"), "raw"))
	s.SetFailing(true)

	assert.ErrorIs(t, s.IsAvailable(), ErrUnavailable)

	_, err := s.Get("p1")
	assert.ErrorIs(t, err, ErrStorage)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "get", se.Op)
	assert.Equal(t, "p1", se.ID)

	assert.ErrorIs(t, s.Put("p1", sample("two"), "new"), ErrStorage)
	assert.ErrorIs(t, s.Remove("p1"), ErrStorage)
	_, err = s.List()
	assert.ErrorIs(t, err, ErrStorage)

	s.SetFailing(false)
	got, err := s.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, "one", got.DisplayName)
	assert.Equal(t, 1, s.Count())
}

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	p := sample("one")
	require.NoError(t, s.Put("p1", p, ""))
	p.DisplayName = "changed"

	got, err := s.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, "one", got.DisplayName)

	got.DisplayName = "changed again"
	again, err := s.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, "one", again.DisplayName)
}

func TestStorageError(t *testing.T) {
	err := storageErr("put", "p1", ErrUnavailable)
	assert.Equal(t, "store put p1: profile store is not available", err.Error())
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "store list: boom", storageErr("list", "", errors.New("boom")).Error())
}

func TestNew(t *testing.T) {
	t.Run("test dir override", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(TestStoreEnvVar, dir)

		cfg := config.Default()
		cfg.Store.Backend = config.BackendMemory
		s, err := New(cfg)
		require.NoError(t, err)

		fs, ok := s.(*FileStore)
		require.True(t, ok, "expected *FileStore, got %T", s)
		assert.Equal(t, dir, fs.Dir())
	})

	t.Run("memory", func(t *testing.T) {
		t.Setenv(TestStoreEnvVar, "")
		cfg := config.Default()
		cfg.Store.Backend = config.BackendMemory
		s, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("keyring", func(t *testing.T) {
		t.Setenv(TestStoreEnvVar, "")
		cfg := config.Default()
		cfg.Store.Backend = config.BackendKeyring
		s, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, &KeyringStore{}, s)
	})

	t.Run("file uses configured dir", func(t *testing.T) {
		t.Setenv(TestStoreEnvVar, "")
		dir := t.TempDir()
		cfg := config.Default()
		cfg.Store.Dir = dir
		s, err := New(cfg)
		require.NoError(t, err)

		fs, ok := s.(*FileStore)
		require.True(t, ok)
		assert.Equal(t, dir, fs.Dir())
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv(TestStoreEnvVar, "")
		cfg := config.Default()
		cfg.Store.Backend = "tape"
		_, err := New(cfg)
		assert.ErrorIs(t, err, config.ErrInvalidBackend)
	})
}
