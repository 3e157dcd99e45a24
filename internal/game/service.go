package game

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"chodewars-server/internal/economy"
	"chodewars-server/internal/entity"
	"chodewars-server/internal/graph"
	"chodewars-server/internal/sector"
	"chodewars-server/internal/shared/config"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/store"
)

var errStopScan = fmt.Errorf("stop scan")

// Service is the entry point for player-facing operations. Every call
// re-reads the records it needs from the store.
type Service struct {
	store    store.Store
	graph    *graph.Service
	sectors  *sector.Service
	economy  *economy.Service
	universe config.Universe
	logger   *slog.Logger
}

func NewService(
	s store.Store,
	g *graph.Service,
	sectors *sector.Service,
	econ *economy.Service,
	universe config.Universe,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    s,
		graph:    g,
		sectors:  sectors,
		economy:  econ,
		universe: universe,
		logger:   logger.With("component", "game"),
	}
}

// Bootstrap creates every configured cluster that does not exist yet and
// returns the ones it created.
func (s *Service) Bootstrap(ctx context.Context) ([]*entity.Entity, error) {
	logger := s.logger.With("operation", "bootstrap")

	var created []*entity.Entity
	for _, spec := range s.universe.Clusters {
		existing, err := s.sectors.Cluster(ctx, spec.Name)
		if err != nil && !errors.HasType(err, errors.ErrorTypeNotFound) {
			return nil, err
		}
		if existing != nil {
			continue
		}

		cluster := entity.NewCluster(spec.Name, spec.X, spec.Y)
		if _, err := s.store.Save(ctx, cluster); err != nil {
			logger.Error("Failed to create cluster", "cluster", spec.Name, "error", err)
			return nil, fmt.Errorf("failed to create cluster %s: %w", spec.Name, err)
		}
		created = append(created, cluster)
		logger.Info("Cluster created", "cluster", spec.Name, "x", spec.X, "y", spec.Y)
	}

	return created, nil
}

// ResetUniverse destroys every record and bootstraps the configured clusters.
func (s *Service) ResetUniverse(ctx context.Context) error {
	logger := s.logger.With("operation", "reset_universe")
	logger.Warn("Resetting universe")

	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	if _, err := s.Bootstrap(ctx); err != nil {
		return err
	}

	logger.Info("Universe reset")
	return nil
}

// CreatePlayer returns the player with the given id, creating it if needed.
func (s *Service) CreatePlayer(ctx context.Context, playerID, name string) (*entity.Entity, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, errors.Validation("player id is required")
	}

	existing, err := s.store.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Kind != entity.KindPlayer {
			return nil, errors.Conflictf("id %q belongs to a %s", playerID, existing.Kind)
		}
		return existing, nil
	}

	player := entity.NewPlayer(playerID, name)
	if _, err := s.store.Save(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("Player created", "operation", "create_player", "player_id", playerID)
	return player, nil
}

// Player loads a player by id.
func (s *Service) Player(ctx context.Context, playerID string) (*entity.Entity, error) {
	player, err := s.store.Load(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil || player.Kind != entity.KindPlayer {
		return nil, errors.NotFoundf("player %q not found", playerID)
	}
	return player, nil
}

// AssignHomeSector places a new player: it claims an empty sector of the home
// cluster, creates a planet stocked with one unit of every catalog commodity
// and a ship, and boards the player. Players already aboard something are
// left untouched.
func (s *Service) AssignHomeSector(ctx context.Context, player *entity.Entity, planetName, shipName string) error {
	logger := s.logger.With("operation", "assign_home_sector", "player_id", player.ID)

	current, err := s.Player(ctx, player.ID)
	if err != nil {
		return err
	}
	if !current.IsRoot() {
		logger.Debug("Player already placed", "parent_id", current.Parent)
		*player = *current
		return nil
	}

	planetName = strings.TrimSpace(planetName)
	shipName = strings.TrimSpace(shipName)
	if planetName == "" || shipName == "" {
		return errors.Validation("planet and ship names are required")
	}
	if planetName == shipName {
		return errors.Validation("planet and ship names must differ")
	}
	if err := s.checkNamesFree(ctx, planetName, shipName); err != nil {
		return err
	}

	cluster, err := s.sectors.Cluster(ctx, s.universe.HomeCluster)
	if err != nil {
		return err
	}

	home, err := s.sectors.FindEmptySector(ctx, cluster)
	if err != nil {
		return err
	}
	if err := s.graph.AssignChild(ctx, cluster, home); err != nil {
		return fmt.Errorf("failed to attach home sector: %w", err)
	}

	planet := entity.NewPlanet(entity.PlanetConfig{Name: planetName})
	if err := s.graph.AssignChild(ctx, home, planet); err != nil {
		return fmt.Errorf("failed to place planet: %w", err)
	}
	for _, template := range s.economy.Catalog().All() {
		if _, err := s.economy.AddCommodity(ctx, planet, template.Name, 1); err != nil {
			return fmt.Errorf("failed to stock planet: %w", err)
		}
	}

	ship := entity.NewShip(entity.ShipConfig{Name: shipName})
	if err := s.graph.AssignChild(ctx, home, ship); err != nil {
		return fmt.Errorf("failed to place ship: %w", err)
	}
	if err := s.graph.AssignChild(ctx, ship, current); err != nil {
		return fmt.Errorf("failed to board ship: %w", err)
	}

	*player = *current
	logger.Info("Home sector assigned",
		"sector", home.Label(),
		"planet_id", planet.ID,
		"ship_id", ship.ID)
	return nil
}

// Locate resolves the player's ship, planet and sector by walking up from
// the player.
func (s *Service) Locate(ctx context.Context, player *entity.Entity) (Location, error) {
	loc := Location{Player: player}

	parent, err := s.graph.GetParent(ctx, player)
	if err != nil || parent == nil {
		return loc, err
	}
	if parent.Kind != entity.KindShip {
		return loc, nil
	}
	loc.Ship = parent

	where, err := s.graph.GetParent(ctx, loc.Ship)
	if err != nil || where == nil {
		return loc, err
	}

	switch where.Kind {
	case entity.KindSector:
		loc.Sector = where
	case entity.KindPlanet:
		loc.Planet = where
		loc.Sector, err = s.graph.GetParent(ctx, where)
		if err != nil {
			return loc, err
		}
	}
	return loc, nil
}

// Status returns the player's location and the cargo aboard their ship.
func (s *Service) Status(ctx context.Context, playerID string) (*Status, error) {
	player, err := s.Player(ctx, playerID)
	if err != nil {
		return nil, err
	}

	loc, err := s.Locate(ctx, player)
	if err != nil {
		return nil, err
	}

	status := &Status{Location: loc, Cargo: []*entity.Entity{}}
	if loc.Ship == nil {
		return status, nil
	}

	children, err := s.graph.GetChildren(ctx, loc.Ship)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.Kind == entity.KindCommodity {
			status.Cargo = append(status.Cargo, child)
		}
	}

	status.AvailableHolds, err = s.economy.AvailableHolds(ctx, loc.Ship)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Warps lists the sectors the player's ship can warp to.
func (s *Service) Warps(ctx context.Context, playerID string) ([]*entity.Entity, error) {
	player, err := s.Player(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return s.sectors.AvailableWarps(ctx, player)
}

// MoveShip moves a ship to destination. Sector to sector moves must follow a
// warp, landing requires a landable planet in the ship's sector, and
// launching returns the ship to the planet's sector.
func (s *Service) MoveShip(ctx context.Context, ship, destination *entity.Entity) error {
	logger := s.logger.With("operation", "move_ship", "ship_id", ship.ID, "destination_id", destination.ID)

	if ship.Kind != entity.KindShip {
		return errors.Validationf("%s is not a ship", ship)
	}

	freshShip, err := s.reload(ctx, ship)
	if err != nil {
		return err
	}
	freshDestination, err := s.reload(ctx, destination)
	if err != nil {
		return err
	}
	*ship, *destination = *freshShip, *freshDestination

	current, err := s.graph.GetParent(ctx, ship)
	if err != nil {
		return err
	}
	if current == nil {
		return errors.Validationf("%s is not anywhere", ship)
	}
	if current.ID == destination.ID {
		return errors.Validationf("%s is already at %s", ship, destination.Label())
	}

	switch {
	case current.Kind == entity.KindSector && destination.Kind == entity.KindSector:
		warps, err := s.sectors.AvailableWarps(ctx, current)
		if err != nil {
			return err
		}
		reachable := slices.ContainsFunc(warps, func(w *entity.Entity) bool {
			return w.ID == destination.ID
		})
		if !reachable {
			return errors.Validationf("no warp from %s to %s", current.Label(), destination.Label())
		}

	case current.Kind == entity.KindSector && destination.Kind == entity.KindPlanet:
		if !destination.Landable {
			return errors.Validationf("%s is not landable", destination.Label())
		}
		if destination.Parent != current.ID {
			return errors.Validationf("%s is not in %s", destination.Label(), current.Label())
		}

	case current.Kind == entity.KindPlanet && destination.Kind == entity.KindSector:
		if !current.HasChild(ship.ID) {
			return errors.Validationf("%s is not on %s", ship, current.Label())
		}
		if current.Parent != destination.ID {
			return errors.Validationf("%s does not orbit in %s", current.Label(), destination.Label())
		}

	default:
		return errors.Validationf("cannot move from %s to %s", current.Kind, destination.Kind)
	}

	if err := s.graph.AssignChild(ctx, destination, ship); err != nil {
		return err
	}

	logger.Info("Ship moved", "from", current.Label(), "to", destination.Label())
	return nil
}

// MovePlayerShip moves the player's ship to the entity with destinationID.
func (s *Service) MovePlayerShip(ctx context.Context, playerID, destinationID string) (*entity.Entity, error) {
	player, err := s.Player(ctx, playerID)
	if err != nil {
		return nil, err
	}
	loc, err := s.Locate(ctx, player)
	if err != nil {
		return nil, err
	}
	if !loc.Placed() {
		return nil, errors.Validation("player has no ship")
	}

	destination, err := s.store.Load(ctx, destinationID)
	if err != nil {
		return nil, err
	}
	if destination == nil {
		return nil, errors.NotFoundf("destination %q not found", destinationID)
	}

	if err := s.MoveShip(ctx, loc.Ship, destination); err != nil {
		return nil, err
	}
	return destination, nil
}

// TransferCargo moves amount units of a commodity between the player's ship
// and the planet it has landed on, in either direction.
func (s *Service) TransferCargo(ctx context.Context, player *entity.Entity, commodityID, targetID string, amount int) error {
	logger := s.logger.With("operation", "transfer_cargo",
		"player_id", player.ID,
		"commodity_id", commodityID,
		"target_id", targetID,
		"amount", amount)

	current, err := s.Player(ctx, player.ID)
	if err != nil {
		return err
	}
	loc, err := s.Locate(ctx, current)
	if err != nil {
		return err
	}
	if !loc.Landed() {
		return errors.Validation("cargo can only be transferred while landed")
	}

	commodity, err := s.store.Load(ctx, commodityID)
	if err != nil {
		return err
	}
	if commodity == nil || commodity.Kind != entity.KindCommodity {
		return errors.NotFoundf("commodity %q not found", commodityID)
	}

	var target *entity.Entity
	switch {
	case commodity.Parent == loc.Ship.ID && targetID == loc.Planet.ID:
		target = loc.Planet
	case commodity.Parent == loc.Planet.ID && targetID == loc.Ship.ID:
		target = loc.Ship
	default:
		return errors.Validation("cargo moves only between your ship and the planet it is on")
	}

	if err := s.economy.MoveCommodity(ctx, commodity, target, amount); err != nil {
		return err
	}

	logger.Info("Cargo transferred", "commodity", commodity.Name)
	return nil
}

// Inspect returns an entity together with its children.
func (s *Service) Inspect(ctx context.Context, id string) (*entity.Entity, []*entity.Entity, error) {
	e, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if e == nil {
		return nil, nil, errors.NotFoundf("entity %q not found", id)
	}

	children, err := s.graph.GetChildren(ctx, e)
	if err != nil {
		return nil, nil, err
	}
	return e, children, nil
}

// checkNamesFree rejects names already used by a planet or ship. Sector
// numbers and player display names do not count.
func (s *Service) checkNamesFree(ctx context.Context, names ...string) error {
	var taken string
	err := s.store.Scan(ctx, func(e *entity.Entity) error {
		if e.Kind != entity.KindPlanet && e.Kind != entity.KindShip {
			return nil
		}
		if slices.Contains(names, e.Name) {
			taken = e.Name
			return errStopScan
		}
		return nil
	})
	if err != nil && err != errStopScan {
		return err
	}
	if taken != "" {
		return errors.Conflictf("name %q is already taken", taken)
	}
	return nil
}

// reload re-reads e from the store.
func (s *Service) reload(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	fresh, err := s.store.Load(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, errors.NotFoundf("%s not found", e)
	}
	return fresh, nil
}
