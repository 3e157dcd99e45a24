package game

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"chodewars-server/internal/economy"
	"chodewars-server/internal/entity"
	"chodewars-server/internal/graph"
	"chodewars-server/internal/sector"
	"chodewars-server/internal/shared/config"
	apperrors "chodewars-server/internal/shared/errors"
	"chodewars-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   store.Store
	graph   *graph.Service
	sectors *sector.Service
	game    *Service
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	universe, err := config.ParseUniverse([]byte(`
home_cluster: alpha
clusters:
  - {name: alpha, x: 4, y: 4}
  - {name: beta, x: 2, y: 2}
commodities:
  - name: fuel
  - name: ore
`))
	require.NoError(t, err)

	s := store.NewFileStore(t.TempDir(), logger)
	require.NoError(t, s.Initialize(ctx))

	g := graph.NewService(s, logger)
	sectors := sector.NewService(s, g, sector.NewRand(7), 500, logger)
	econ := economy.NewService(s, g, economy.NewCatalog(universe.CommodityConfigs()), logger)

	f := &fixture{
		store:   s,
		graph:   g,
		sectors: sectors,
		game:    NewService(s, g, sectors, econ, *universe, logger),
	}

	created, err := f.game.Bootstrap(ctx)
	require.NoError(t, err)
	require.Len(t, created, 2)
	return f
}

func (f *fixture) placedPlayer(t *testing.T, id string) (*entity.Entity, Location) {
	t.Helper()
	ctx := context.Background()

	player, err := f.game.CreatePlayer(ctx, id, "Pilot")
	require.NoError(t, err)
	require.NoError(t, f.game.AssignHomeSector(ctx, player, id+"-planet", id+"-ship"))

	loc, err := f.game.Locate(ctx, player)
	require.NoError(t, err)
	require.True(t, loc.Placed())
	return player, loc
}

func (f *fixture) count(t *testing.T, kind entity.Kind) int {
	t.Helper()
	n := 0
	require.NoError(t, f.store.Scan(context.Background(), func(e *entity.Entity) error {
		if e.Kind == kind {
			n++
		}
		return nil
	}))
	return n
}

func TestBootstrapIsIdempotent(t *testing.T) {
	f := setup(t)

	created, err := f.game.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, 2, f.count(t, entity.KindCluster))
}

func TestPlayerNamedLikeClusterDoesNotHideIt(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.game.CreatePlayer(ctx, "-shadow@example.com", "alpha")
	require.NoError(t, err)

	_, loc := f.placedPlayer(t, "pilot")
	cluster, err := f.graph.GetParent(ctx, loc.Sector)
	require.NoError(t, err)
	assert.Equal(t, "alpha", cluster.Name)

	created, err := f.game.Bootstrap(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, 2, f.count(t, entity.KindCluster))
}

func TestCreatePlayerLoadsExisting(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	first, err := f.game.CreatePlayer(ctx, "pilot@example.com", "Pilot")
	require.NoError(t, err)
	second, err := f.game.CreatePlayer(ctx, "pilot@example.com", "Renamed")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Pilot", second.Name)
	assert.Equal(t, 1, f.count(t, entity.KindPlayer))

	_, err = f.game.CreatePlayer(ctx, " ", "Nobody")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestAssignHomeSector(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	player, loc := f.placedPlayer(t, "pilot")

	assert.Equal(t, loc.Ship.ID, player.Parent)
	assert.Equal(t, "pilot-ship", loc.Ship.Name)
	require.NotNil(t, loc.Sector)
	assert.Equal(t, "alpha", loc.Sector.ClusterName)
	assert.False(t, loc.Landed())

	cluster, err := f.sectors.Cluster(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, cluster.ID, loc.Sector.Parent)
	assert.Contains(t, cluster.Children, loc.Sector.ID)

	planet, err := f.store.LoadByName(ctx, "pilot-planet")
	require.NoError(t, err)
	require.NotNil(t, planet)
	assert.Equal(t, loc.Sector.ID, planet.Parent)

	stock, err := f.graph.GetChildren(ctx, planet)
	require.NoError(t, err)
	require.Len(t, stock, 2)
	for _, c := range stock {
		assert.Equal(t, 1, c.Count)
	}
	assert.ElementsMatch(t, []string{"fuel", "ore"}, []string{stock[0].Name, stock[1].Name})

	assert.ElementsMatch(t, []string{planet.ID, loc.Ship.ID}, loc.Sector.Children)
}

func TestAssignHomeSectorTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	player, loc := f.placedPlayer(t, "pilot")
	require.NoError(t, f.game.AssignHomeSector(ctx, player, "other-planet", "other-ship"))

	again, err := f.game.Locate(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, loc.Ship.ID, again.Ship.ID)
	assert.Equal(t, 1, f.count(t, entity.KindShip))
	assert.Equal(t, 1, f.count(t, entity.KindPlanet))
	assert.Equal(t, 1, f.count(t, entity.KindSector))
}

func TestAssignHomeSectorRejectsTakenNames(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.placedPlayer(t, "first")

	second, err := f.game.CreatePlayer(ctx, "second", "Second")
	require.NoError(t, err)

	err = f.game.AssignHomeSector(ctx, second, "first-planet", "second-ship")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeConflict))

	err = f.game.AssignHomeSector(ctx, second, "same", "same")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))

	err = f.game.AssignHomeSector(ctx, second, "", "second-ship")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestAssignHomeSectorIgnoresSectorAndPlayerNames(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	_, loc := f.placedPlayer(t, "first")

	second, err := f.game.CreatePlayer(ctx, "second", "Voyager")
	require.NoError(t, err)

	sectorName := loc.Sector.Name
	require.NoError(t, f.game.AssignHomeSector(ctx, second, sectorName, "Voyager"))

	placed, err := f.game.Locate(ctx, second)
	require.NoError(t, err)
	require.True(t, placed.Placed())
	assert.Equal(t, "Voyager", placed.Ship.Name)
}

func TestAssignHomeSectorUsesDistinctSectors(t *testing.T) {
	f := setup(t)

	_, a := f.placedPlayer(t, "a")
	_, b := f.placedPlayer(t, "b")
	assert.NotEqual(t, a.Sector.Number, b.Sector.Number)
}

func TestMoveShipAlongWarp(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	player, loc := f.placedPlayer(t, "pilot")

	warps, err := f.game.Warps(ctx, player.ID)
	require.NoError(t, err)
	require.NotEmpty(t, warps)

	target := warps[0]
	require.NoError(t, f.game.MoveShip(ctx, loc.Ship, target))

	moved, err := f.game.Locate(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, target.ID, moved.Sector.ID)

	home, err := f.store.Load(ctx, loc.Sector.ID)
	require.NoError(t, err)
	assert.NotContains(t, home.Children, loc.Ship.ID)
}

func TestMoveShipRejectsNonAdjacentSector(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	_, loc := f.placedPlayer(t, "pilot")

	warps, err := f.sectors.AvailableWarps(ctx, loc.Sector)
	require.NoError(t, err)
	adjacent := map[int]bool{loc.Sector.Number: true}
	for _, w := range warps {
		adjacent[w.Number] = true
	}

	far := 0
	for n := 1; n <= 16; n++ {
		if !adjacent[n] {
			far = n
			break
		}
	}
	require.NotZero(t, far)

	distant, err := f.sectors.GetSector(ctx, "alpha", far)
	require.NoError(t, err)

	err = f.game.MoveShip(ctx, loc.Ship, distant)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestLandAndLaunch(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	player, loc := f.placedPlayer(t, "pilot")

	planet, err := f.store.LoadByName(ctx, "pilot-planet")
	require.NoError(t, err)

	require.NoError(t, f.game.MoveShip(ctx, loc.Ship, planet))

	landed, err := f.game.Locate(ctx, player)
	require.NoError(t, err)
	require.True(t, landed.Landed())
	assert.Equal(t, planet.ID, landed.Planet.ID)
	assert.Equal(t, loc.Sector.ID, landed.Sector.ID)

	warps, err := f.game.Warps(ctx, player.ID)
	require.NoError(t, err)
	require.NotEmpty(t, warps)
	err = f.game.MoveShip(ctx, landed.Ship, warps[0])
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation), "launch must return to the planet's own sector")

	require.NoError(t, f.game.MoveShip(ctx, landed.Ship, loc.Sector))

	launched, err := f.game.Locate(ctx, player)
	require.NoError(t, err)
	assert.False(t, launched.Landed())
	assert.Equal(t, loc.Sector.ID, launched.Sector.ID)
}

func TestLandingRequiresPlanetInSector(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	_, a := f.placedPlayer(t, "a")
	f.placedPlayer(t, "b")

	foreign, err := f.store.LoadByName(ctx, "b-planet")
	require.NoError(t, err)

	err = f.game.MoveShip(ctx, a.Ship, foreign)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestMovePlayerShip(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	player, _ := f.placedPlayer(t, "pilot")

	planet, err := f.store.LoadByName(ctx, "pilot-planet")
	require.NoError(t, err)

	destination, err := f.game.MovePlayerShip(ctx, player.ID, planet.ID)
	require.NoError(t, err)
	assert.Equal(t, planet.ID, destination.ID)

	_, err = f.game.MovePlayerShip(ctx, player.ID, "nowhere")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeNotFound))

	unplaced, err := f.game.CreatePlayer(ctx, "drifter", "Drifter")
	require.NoError(t, err)
	_, err = f.game.MovePlayerShip(ctx, unplaced.ID, planet.ID)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))
}

func TestTransferCargo(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	player, loc := f.placedPlayer(t, "pilot")

	planet, err := f.store.LoadByName(ctx, "pilot-planet")
	require.NoError(t, err)
	fuel, err := f.graph.FindChild(ctx, planet, entity.KindCommodity, "fuel")
	require.NoError(t, err)
	require.NotNil(t, fuel)

	err = f.game.TransferCargo(ctx, player, fuel.ID, loc.Ship.ID, 1)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation), "transfer requires landing")

	require.NoError(t, f.game.MoveShip(ctx, loc.Ship, planet))
	require.NoError(t, f.game.TransferCargo(ctx, player, fuel.ID, loc.Ship.ID, 1))

	status, err := f.game.Status(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, status.Cargo, 1)
	assert.Equal(t, fuel.ID, status.Cargo[0].ID)
	assert.Equal(t, 9, status.AvailableHolds)

	err = f.game.TransferCargo(ctx, player, fuel.ID, loc.Ship.ID, 1)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeValidation))

	require.NoError(t, f.game.TransferCargo(ctx, player, fuel.ID, planet.ID, 1))

	status, err = f.game.Status(ctx, player.ID)
	require.NoError(t, err)
	assert.Empty(t, status.Cargo)
	assert.Equal(t, 10, status.AvailableHolds)
}

func TestTransferCargoInsufficientHolds(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	player, loc := f.placedPlayer(t, "pilot")

	planet, err := f.store.LoadByName(ctx, "pilot-planet")
	require.NoError(t, err)
	require.NoError(t, f.game.MoveShip(ctx, loc.Ship, planet))

	ore, err := f.game.economy.AddCommodity(ctx, planet, "ore", 20)
	require.NoError(t, err)

	err = f.game.TransferCargo(ctx, player, ore.ID, loc.Ship.ID, 15)
	require.Error(t, err)
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeInsufficientHolds))

	available, ok := economy.AvailableFrom(err)
	require.True(t, ok)
	assert.Equal(t, 10, available)
}

func TestResetUniverse(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.placedPlayer(t, "pilot")

	require.NoError(t, f.game.ResetUniverse(ctx))

	assert.Equal(t, 2, f.count(t, entity.KindCluster))
	assert.Zero(t, f.count(t, entity.KindPlayer))
	assert.Zero(t, f.count(t, entity.KindShip))
}

func TestInspect(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	_, loc := f.placedPlayer(t, "pilot")

	e, children, err := f.game.Inspect(ctx, loc.Ship.ID)
	require.NoError(t, err)
	assert.Equal(t, loc.Ship.ID, e.ID)
	require.Len(t, children, 1)
	assert.Equal(t, entity.KindPlayer, children[0].Kind)

	_, _, err = f.game.Inspect(ctx, "missing")
	assert.True(t, apperrors.HasType(err, apperrors.ErrorTypeNotFound))
}
