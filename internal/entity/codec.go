package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"chodewars-server/internal/shared/errors"
)

// record is the persisted shape of an Entity: one flat JSON object.
type record struct {
	ID       string          `json:"id"`
	Name     json.RawMessage `json:"name"`
	Type     string          `json:"type"`
	Parent   *string         `json:"parent"`
	Children []string        `json:"children"`
	Flags

	X           *int     `json:"x,omitempty"`
	Y           *int     `json:"y,omitempty"`
	ClusterName *string  `json:"cluster_name,omitempty"`
	Holds       *int     `json:"holds,omitempty"`
	Count       *int     `json:"count,omitempty"`
	Growth      *float64 `json:"growth_percent,omitempty"`
}

// Encode renders e as its persisted record. The parent is an explicit JSON
// null for roots, and a sector's name is written as a JSON number.
func Encode(e *Entity) ([]byte, error) {
	if e.ID == "" {
		return nil, errors.Validation("entity has no id")
	}

	rec := record{
		ID:       e.ID,
		Type:     string(e.Kind),
		Children: e.Children,
		Flags:    e.Flags,
	}
	if rec.Type == "" {
		rec.Type = string(KindEntity)
	}
	if rec.Children == nil {
		rec.Children = []string{}
	}
	if e.Parent != "" {
		parent := e.Parent
		rec.Parent = &parent
	}

	var err error
	switch e.Kind {
	case KindSector:
		rec.Name = json.RawMessage(strconv.Itoa(e.Number))
		clusterName := e.ClusterName
		rec.ClusterName = &clusterName
	default:
		rec.Name, err = json.Marshal(e.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode name: %w", err)
		}
	}

	switch e.Kind {
	case KindCluster:
		x, y := e.X, e.Y
		rec.X, rec.Y = &x, &y
	case KindShip, KindPlanet:
		holds := e.Holds
		rec.Holds = &holds
	}
	if e.Holds != 0 && rec.Holds == nil {
		holds := e.Holds
		rec.Holds = &holds
	}
	if e.Countable {
		count, growth := e.Count, e.GrowthPercent
		rec.Count, rec.Growth = &count, &growth
	}

	return json.Marshal(rec)
}

// Decode reconstructs an Entity from a persisted record, selecting the variant
// from its "type" field. Unknown types decode as a generic Entity. Records that
// are not valid JSON, lack an id, or carry a negative count are malformed.
func Decode(data []byte) (*Entity, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.WrapMalformed("failed to decode record", err)
	}
	if rec.ID == "" {
		return nil, errors.Malformedf("record has no id")
	}

	e := &Entity{
		ID:       rec.ID,
		Kind:     ParseKind(rec.Type),
		Children: rec.Children,
		Flags:    rec.Flags,
	}
	if e.Children == nil {
		e.Children = []string{}
	}
	if rec.Parent != nil {
		e.Parent = *rec.Parent
	}

	name, err := decodeName(rec.Name)
	if err != nil {
		return nil, errors.WrapMalformed(fmt.Sprintf("record %s has an invalid name", rec.ID), err)
	}
	e.Name = name

	if rec.X != nil {
		e.X = *rec.X
	}
	if rec.Y != nil {
		e.Y = *rec.Y
	}
	if rec.Holds != nil {
		e.Holds = *rec.Holds
	}
	if rec.Count != nil {
		if *rec.Count < 0 {
			return nil, errors.Malformedf("record %s has negative count %d", rec.ID, *rec.Count)
		}
		e.Count = *rec.Count
	}
	if rec.Growth != nil {
		e.GrowthPercent = *rec.Growth
	}

	if e.Kind == KindSector {
		if rec.ClusterName != nil {
			e.ClusterName = *rec.ClusterName
		}
		n, err := strconv.Atoi(e.Name)
		if err != nil {
			return nil, errors.WrapMalformed(fmt.Sprintf("sector %s has a non-numeric name", rec.ID), err)
		}
		e.Number = n
	}

	return e, nil
}

// decodeName accepts either a JSON string or a JSON number.
func decodeName(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
