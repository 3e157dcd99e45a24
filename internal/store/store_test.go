package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"chodewars-server/internal/entity"
	"chodewars-server/internal/shared/config"
	apperrors "chodewars-server/internal/shared/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// backend opens an initialized store and returns a hook that writes a raw
// record bypassing the codec.
type backend struct {
	name string
	open func(t *testing.T) (Store, func(id, raw string))
}

func backends() []backend {
	return []backend{
		{"file", func(t *testing.T) (Store, func(id, raw string)) {
			dir := filepath.Join(t.TempDir(), "u")
			s := NewFileStore(dir, discardLogger())
			require.NoError(t, s.Initialize(context.Background()))
			return s, func(id, raw string) {
				require.NoError(t, os.WriteFile(s.path(id), []byte(raw), 0o644))
			}
		}},
		{"sqlite", func(t *testing.T) (Store, func(id, raw string)) {
			cfg := &config.Config{
				Store:    config.StoreConfig{Driver: config.StoreDriverSQLite},
				Database: config.DatabaseConfig{SQLitePath: filepath.Join(t.TempDir(), "store.db")},
			}
			s, err := Open(context.Background(), cfg, discardLogger())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			sqlStore := s.(*SQLStore)
			return s, func(id, raw string) {
				_, err := sqlStore.db.Exec("INSERT INTO entities (id, name, kind, record) VALUES (?, ?, ?, ?)", id, id, "Entity", raw)
				require.NoError(t, err)
			}
		}},
		{"redis", func(t *testing.T) (Store, func(id, raw string)) {
			mr := miniredis.RunT(t)
			cfg := &config.Config{
				Store: config.StoreConfig{Driver: config.StoreDriverRedis},
				Redis: config.RedisConfig{URL: "redis://" + mr.Addr(), KeyPrefix: "test"},
			}
			s, err := Open(context.Background(), cfg, discardLogger())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s, func(id, raw string) {
				require.NoError(t, mr.Set("test:entity:"+id, raw))
				_, err := mr.SAdd("test:entities", id)
				require.NoError(t, err)
			}
		}},
	}
}

func TestStoreContract(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("exists after initialize", func(t *testing.T) {
				s, _ := b.open(t)
				exists, err := s.Exists(context.Background())
				require.NoError(t, err)
				assert.True(t, exists)
			})

			t.Run("load missing returns nil", func(t *testing.T) {
				s, _ := b.open(t)
				e, err := s.Load(context.Background(), "nope")
				require.NoError(t, err)
				assert.Nil(t, e)

				e, err = s.Load(context.Background(), "")
				require.NoError(t, err)
				assert.Nil(t, e)
			})

			t.Run("save and load round trip", func(t *testing.T) {
				ctx := context.Background()
				s, _ := b.open(t)

				ship := entity.NewShip(entity.ShipConfig{Name: "Rocinante"})
				ship.Parent = "sector-1"
				ship.AddChild("fuel-1")
				_, err := s.Save(ctx, ship)
				require.NoError(t, err)

				loaded, err := s.Load(ctx, ship.ID)
				require.NoError(t, err)
				assert.Equal(t, ship, loaded)
			})

			t.Run("save overwrites", func(t *testing.T) {
				ctx := context.Background()
				s, _ := b.open(t)

				planet := entity.NewPlanet(entity.PlanetConfig{Name: "Ceres"})
				_, err := s.Save(ctx, planet)
				require.NoError(t, err)

				planet.Name = "Vesta"
				_, err = s.Save(ctx, planet)
				require.NoError(t, err)

				loaded, err := s.Load(ctx, planet.ID)
				require.NoError(t, err)
				assert.Equal(t, "Vesta", loaded.Name)

				byOldName, err := s.LoadByName(ctx, "Ceres")
				require.NoError(t, err)
				assert.Nil(t, byOldName)
			})

			t.Run("player ids are arbitrary strings", func(t *testing.T) {
				ctx := context.Background()
				s, _ := b.open(t)

				player := entity.NewPlayer("pilot+1@example.com/x", "Pilot")
				_, err := s.Save(ctx, player)
				require.NoError(t, err)

				loaded, err := s.Load(ctx, player.ID)
				require.NoError(t, err)
				require.NotNil(t, loaded)
				assert.Equal(t, entity.KindPlayer, loaded.Kind)
			})

			t.Run("load by name matches sector composite", func(t *testing.T) {
				ctx := context.Background()
				s, _ := b.open(t)

				alpha := entity.NewSector("alpha", 12)
				beta := entity.NewSector("beta", 12)
				for _, e := range []*entity.Entity{alpha, beta} {
					_, err := s.Save(ctx, e)
					require.NoError(t, err)
				}

				found, err := s.LoadByName(ctx, "beta-12")
				require.NoError(t, err)
				require.NotNil(t, found)
				assert.Equal(t, beta.ID, found.ID)

				missing, err := s.LoadByName(ctx, "gamma-12")
				require.NoError(t, err)
				assert.Nil(t, missing)
			})

			t.Run("malformed records are skipped", func(t *testing.T) {
				ctx := context.Background()
				s, putRaw := b.open(t)

				putRaw("corrupt", `{"id": "corrupt", "name": `)
				ship := entity.NewShip(entity.ShipConfig{Name: "Rocinante"})
				_, err := s.Save(ctx, ship)
				require.NoError(t, err)

				loaded, err := s.Load(ctx, "corrupt")
				require.NoError(t, err)
				assert.Nil(t, loaded)

				found, err := s.LoadByName(ctx, "Rocinante")
				require.NoError(t, err)
				require.NotNil(t, found)
				assert.Equal(t, ship.ID, found.ID)

				var seen []string
				require.NoError(t, s.Scan(ctx, func(e *entity.Entity) error {
					seen = append(seen, e.ID)
					return nil
				}))
				assert.Equal(t, []string{ship.ID}, seen)
			})

			t.Run("scan stops on callback error", func(t *testing.T) {
				ctx := context.Background()
				s, _ := b.open(t)

				for _, name := range []string{"a", "b", "c"} {
					_, err := s.Save(ctx, entity.NewShip(entity.ShipConfig{Name: name}))
					require.NoError(t, err)
				}

				boom := errors.New("boom")
				calls := 0
				err := s.Scan(ctx, func(*entity.Entity) error {
					calls++
					return boom
				})
				assert.ErrorIs(t, err, boom)
				assert.Equal(t, 1, calls)
			})

			t.Run("reset empties the store", func(t *testing.T) {
				ctx := context.Background()
				s, _ := b.open(t)

				ship := entity.NewShip(entity.ShipConfig{Name: "Rocinante"})
				_, err := s.Save(ctx, ship)
				require.NoError(t, err)

				require.NoError(t, s.Reset(ctx))

				loaded, err := s.Load(ctx, ship.ID)
				require.NoError(t, err)
				assert.Nil(t, loaded)

				exists, err := s.Exists(ctx)
				require.NoError(t, err)
				assert.True(t, exists)
			})

			t.Run("initialize keeps existing records", func(t *testing.T) {
				ctx := context.Background()
				s, _ := b.open(t)

				ship := entity.NewShip(entity.ShipConfig{Name: "Rocinante"})
				_, err := s.Save(ctx, ship)
				require.NoError(t, err)

				require.NoError(t, s.Initialize(ctx))

				loaded, err := s.Load(ctx, ship.ID)
				require.NoError(t, err)
				assert.NotNil(t, loaded)
			})
		})
	}
}

func TestFileStoreResetOnMissingDirectory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "never", "created")
	s := NewFileStore(dir, discardLogger())

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Reset(ctx))

	exists, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir, discardLogger())

	ship := entity.NewShip(entity.ShipConfig{Name: "Rocinante"})
	_, err := s.Save(ctx, ship)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ship.ID+".json", entries[0].Name())
}

func TestFileStoreSaveWithoutDirectoryIsWriteFailure(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing"), discardLogger())

	_, err := s.Save(context.Background(), entity.NewShip(entity.ShipConfig{Name: "Rocinante"}))
	require.Error(t, err)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeWriteFailure))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "tape"}}, discardLogger())
	assert.Error(t, err)
}
