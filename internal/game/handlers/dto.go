package handlers

import (
	"chodewars-server/internal/entity"
	"chodewars-server/internal/game"
)

type EntityResponse struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Label         string       `json:"label"`
	Type          string       `json:"type"`
	Parent        string       `json:"parent,omitempty"`
	Children      []string     `json:"children"`
	Flags         entity.Flags `json:"flags"`
	Count         int          `json:"count,omitempty"`
	GrowthPercent float64      `json:"growth_percent,omitempty"`
	Holds         int          `json:"holds,omitempty"`
}

func toEntityResponse(e *entity.Entity) *EntityResponse {
	if e == nil {
		return nil
	}
	children := e.Children
	if children == nil {
		children = []string{}
	}
	return &EntityResponse{
		ID:            e.ID,
		Name:          e.Name,
		Label:         e.Label(),
		Type:          string(e.Kind),
		Parent:        e.Parent,
		Children:      children,
		Flags:         e.Flags,
		Count:         e.Count,
		GrowthPercent: e.GrowthPercent,
		Holds:         e.Holds,
	}
}

func toEntityResponses(entities []*entity.Entity) []*EntityResponse {
	out := make([]*EntityResponse, 0, len(entities))
	for _, e := range entities {
		out = append(out, toEntityResponse(e))
	}
	return out
}

type StatusResponse struct {
	Player         *EntityResponse   `json:"player"`
	Ship           *EntityResponse   `json:"ship"`
	Planet         *EntityResponse   `json:"planet"`
	Sector         *EntityResponse   `json:"sector"`
	Cargo          []*EntityResponse `json:"cargo"`
	AvailableHolds int               `json:"available_holds"`
}

func toStatusResponse(s *game.Status) StatusResponse {
	return StatusResponse{
		Player:         toEntityResponse(s.Player),
		Ship:           toEntityResponse(s.Ship),
		Planet:         toEntityResponse(s.Planet),
		Sector:         toEntityResponse(s.Sector),
		Cargo:          toEntityResponses(s.Cargo),
		AvailableHolds: s.AvailableHolds,
	}
}

type InspectResponse struct {
	Entity   *EntityResponse   `json:"entity"`
	Children []*EntityResponse `json:"children"`
}

type AssignHomeRequest struct {
	PlanetName string `json:"planet_name"`
	ShipName   string `json:"ship_name"`
}

type MoveRequest struct {
	DestinationID string `json:"destination_id"`
}

type TransferRequest struct {
	CommodityID string `json:"commodity_id"`
	TargetID    string `json:"target_id"`
	Amount      int    `json:"amount"`
}
