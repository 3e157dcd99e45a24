package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantDefaults(t *testing.T) {
	planet := NewPlanet(PlanetConfig{Name: "Ceres"})
	assert.True(t, planet.Landable)
	assert.True(t, planet.Scanable)
	assert.True(t, planet.Habitable)
	assert.Equal(t, DefaultPlanetHolds, planet.Holds)

	ship := NewShip(ShipConfig{Name: "Rocinante"})
	assert.True(t, ship.Habitable)
	assert.False(t, ship.Landable)
	assert.Equal(t, DefaultShipHolds, ship.Holds)

	fuel := NewCommodity(DefaultCommodityConfig("fuel"))
	assert.True(t, fuel.Tradeable)
	assert.False(t, fuel.Transferable)
	assert.True(t, fuel.Countable)
	assert.Equal(t, 100, fuel.Count)
	assert.Zero(t, fuel.GrowthPercent)

	player := NewPlayer("pilot@example.com", "Pilot")
	assert.Equal(t, "pilot@example.com", player.ID)
	assert.Equal(t, Flags{}, player.Flags)

	cluster := NewCluster("alpha", 10, 5)
	assert.Equal(t, 50, cluster.GridSize())
	assert.Equal(t, Flags{}, cluster.Flags)
}

func TestConstructorsGenerateUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := NewShip(ShipConfig{}).ID
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestChildrenHelpers(t *testing.T) {
	e := NewPlanet(PlanetConfig{Name: "Ceres"})

	e.AddChild("a")
	e.AddChild("b")
	e.AddChild("a")
	assert.Equal(t, []string{"a", "b"}, e.Children)
	assert.True(t, e.HasChild("b"))

	assert.True(t, e.RemoveChild("a"))
	assert.False(t, e.RemoveChild("a"))
	assert.Equal(t, []string{"b"}, e.Children)
}

func TestSectorNameMatching(t *testing.T) {
	sector := NewSector("alpha", 12)

	assert.Equal(t, "alpha-12", sector.Label())
	assert.True(t, sector.MatchesName("alpha-12"))
	assert.True(t, sector.MatchesName("12"))
	assert.False(t, sector.MatchesName("beta-12"))

	ship := NewShip(ShipConfig{Name: "alpha-12"})
	assert.True(t, ship.MatchesName("alpha-12"))
	assert.Equal(t, "alpha-12", ship.Label())
}

func TestCloneIsDeep(t *testing.T) {
	e := NewShip(ShipConfig{Name: "Rocinante"})
	e.AddChild("a")

	c := e.Clone()
	c.AddChild("b")
	c.Name = "Tachi"

	assert.Equal(t, []string{"a"}, e.Children)
	assert.Equal(t, "Rocinante", e.Name)
}
