package entity

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// Kind is the discriminator persisted in every record's "type" field.
type Kind string

const (
	KindEntity    Kind = "Entity"
	KindCluster   Kind = "Cluster"
	KindSector    Kind = "Sector"
	KindPlanet    Kind = "Planet"
	KindShip      Kind = "Ship"
	KindPlayer    Kind = "Player"
	KindCommodity Kind = "Commodity"
)

// ParseKind maps a persisted type tag to a Kind. Unknown or empty tags fall
// back to the generic Entity shape.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindCluster, KindSector, KindPlanet, KindShip, KindPlayer, KindCommodity:
		return Kind(s)
	default:
		return KindEntity
	}
}

const (
	DefaultShipHolds      = 10
	DefaultPlanetHolds    = 1000
	DefaultCommodityCount = 100
)

// Flags gate which operations a variant supports.
type Flags struct {
	Landable     bool `json:"landable"`
	Tradeable    bool `json:"tradeable"`
	Transferable bool `json:"transferable"`
	Dockable     bool `json:"dockable"`
	Scanable     bool `json:"scanable"`
	Habitable    bool `json:"habitable"`
	Countable    bool `json:"countable"`
}

// Entity is a persisted game object. Variant-specific fields are only
// meaningful for the Kind that owns them: X/Y for clusters, ClusterName and
// Number for sectors, Holds for containers, Count/GrowthPercent when Countable.
//
// Parent and Children hold identifiers, never live references; use the graph
// service to dereference them.
type Entity struct {
	ID       string
	Name     string
	Kind     Kind
	Parent   string
	Children []string
	Flags

	Count         int
	GrowthPercent float64
	Holds         int

	X int
	Y int

	ClusterName string
	Number      int
}

func newEntity(kind Kind, name string) *Entity {
	return &Entity{
		ID:       uuid.NewString(),
		Name:     name,
		Kind:     kind,
		Children: []string{},
	}
}

// NewCluster creates a cluster with an x by y sector grid.
func NewCluster(name string, x, y int) *Entity {
	e := newEntity(KindCluster, name)
	e.X = x
	e.Y = y
	return e
}

// NewSector creates sector number n of the named cluster. The record is not
// persisted or attached to its cluster.
func NewSector(clusterName string, n int) *Entity {
	e := newEntity(KindSector, strconv.Itoa(n))
	e.ClusterName = clusterName
	e.Number = n
	e.Scanable = true
	return e
}

type PlanetConfig struct {
	Name string
	// Holds defaults to DefaultPlanetHolds when zero.
	Holds int
}

// NewPlanet creates a landable, scanable, habitable planet.
func NewPlanet(cfg PlanetConfig) *Entity {
	e := newEntity(KindPlanet, cfg.Name)
	e.Landable = true
	e.Scanable = true
	e.Habitable = true
	e.Holds = cfg.Holds
	if e.Holds == 0 {
		e.Holds = DefaultPlanetHolds
	}
	return e
}

type ShipConfig struct {
	Name string
	// Holds defaults to DefaultShipHolds when zero.
	Holds int
}

// NewShip creates a habitable ship with cargo holds.
func NewShip(cfg ShipConfig) *Entity {
	e := newEntity(KindShip, cfg.Name)
	e.Habitable = true
	e.Holds = cfg.Holds
	if e.Holds == 0 {
		e.Holds = DefaultShipHolds
	}
	return e
}

// NewPlayer creates a player whose id is supplied by the identity provider.
func NewPlayer(id, name string) *Entity {
	e := newEntity(KindPlayer, name)
	e.ID = id
	return e
}

// CommodityConfig is the template a commodity stack is created from.
type CommodityConfig struct {
	Name          string
	Tradeable     bool
	Transferable  bool
	Count         int
	GrowthPercent float64
}

// DefaultCommodityConfig returns the defaults for a commodity with no
// catalog entry: tradeable, not transferable, 100 units, no growth.
func DefaultCommodityConfig(name string) CommodityConfig {
	return CommodityConfig{
		Name:      name,
		Tradeable: true,
		Count:     DefaultCommodityCount,
	}
}

// NewCommodity creates a countable commodity stack from a template.
func NewCommodity(cfg CommodityConfig) *Entity {
	e := newEntity(KindCommodity, cfg.Name)
	e.Tradeable = cfg.Tradeable
	e.Transferable = cfg.Transferable
	e.Countable = true
	e.Count = cfg.Count
	e.GrowthPercent = cfg.GrowthPercent
	return e
}

// Template returns the commodity template this stack was created from, with
// its current count.
func (e *Entity) Template() CommodityConfig {
	return CommodityConfig{
		Name:          e.Name,
		Tradeable:     e.Tradeable,
		Transferable:  e.Transferable,
		Count:         e.Count,
		GrowthPercent: e.GrowthPercent,
	}
}

// IsRoot reports whether the entity has no parent.
func (e *Entity) IsRoot() bool {
	return e.Parent == ""
}

func (e *Entity) HasChild(id string) bool {
	return slices.Contains(e.Children, id)
}

// AddChild appends id to Children unless it is already present.
func (e *Entity) AddChild(id string) {
	if e.HasChild(id) {
		return
	}
	e.Children = append(e.Children, id)
}

// RemoveChild drops id from Children, reporting whether it was present.
func (e *Entity) RemoveChild(id string) bool {
	idx := slices.Index(e.Children, id)
	if idx < 0 {
		return false
	}
	e.Children = slices.Delete(e.Children, idx, idx+1)
	return true
}

// Label is the name the entity answers to in name lookups. Sectors answer to
// "{cluster_name}-{number}" in addition to their bare number.
func (e *Entity) Label() string {
	if e.Kind == KindSector {
		return SectorLabel(e.ClusterName, e.Number)
	}
	return e.Name
}

// MatchesName reports whether a lookup by name should return this entity.
func (e *Entity) MatchesName(name string) bool {
	if e.Name == name {
		return true
	}
	return e.Kind == KindSector && SectorLabel(e.ClusterName, e.Number) == name
}

// GridSize is the number of sectors in a cluster.
func (e *Entity) GridSize() int {
	return e.X * e.Y
}

// Clone returns a deep copy sharing no slices with e.
func (e *Entity) Clone() *Entity {
	c := *e
	c.Children = slices.Clone(e.Children)
	if c.Children == nil {
		c.Children = []string{}
	}
	return &c
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s %q (%s)", e.Kind, e.Label(), e.ID)
}

func SectorLabel(clusterName string, n int) string {
	return fmt.Sprintf("%s-%d", clusterName, n)
}
