package game

import "chodewars-server/internal/entity"

// Location is where a player currently is. Fields are nil when the player
// has not been placed, and Planet is nil while the ship is in space.
type Location struct {
	Player *entity.Entity
	Ship   *entity.Entity
	Planet *entity.Entity
	Sector *entity.Entity
}

// Placed reports whether the player is aboard a ship.
func (l Location) Placed() bool {
	return l.Ship != nil
}

// Landed reports whether the player's ship is on a planet.
func (l Location) Landed() bool {
	return l.Planet != nil
}

// Status is a player's location plus the ship's cargo.
type Status struct {
	Location
	Cargo          []*entity.Entity
	AvailableHolds int
}
