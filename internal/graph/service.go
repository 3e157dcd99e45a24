package graph

import (
	"context"
	"fmt"
	"log/slog"

	"chodewars-server/internal/entity"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/store"
)

// Service maintains the single-parent ownership graph. Every mutation is
// persisted immediately; there is no cross-record atomicity.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(s store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  s,
		logger: logger.With("component", "graph"),
	}
}

// AssignChild makes child a child of parent, detaching it from its previous
// parent. Both parent and child are updated in place.
//
// When the new link is persisted but the previous parent cannot be updated,
// the child is briefly listed under two parents and a partial_reparent error
// is returned.
func (s *Service) AssignChild(ctx context.Context, parent, child *entity.Entity) error {
	logger := s.logger.With("operation", "assign_child", "parent_id", parent.ID, "child_id", child.ID)

	if parent.HasChild(child.ID) {
		return nil
	}

	if parent.ID == child.ID {
		return errors.Validationf("%s cannot be its own parent", child)
	}
	if err := s.checkCycle(ctx, parent, child); err != nil {
		return err
	}

	var previous *entity.Entity
	if child.Parent != "" && child.Parent != parent.ID {
		var err error
		previous, err = s.store.Load(ctx, child.Parent)
		if err != nil {
			return fmt.Errorf("failed to load previous parent: %w", err)
		}
		if previous == nil {
			logger.Warn("Dangling parent reference", "previous_parent_id", child.Parent)
		}
	}

	parent.AddChild(child.ID)
	child.Parent = parent.ID

	if _, err := s.store.Save(ctx, parent); err != nil {
		return err
	}
	if _, err := s.store.Save(ctx, child); err != nil {
		return err
	}

	if previous != nil && previous.RemoveChild(child.ID) {
		if _, err := s.store.Save(ctx, previous); err != nil {
			logger.Error("Child linked under two parents",
				"previous_parent_id", previous.ID,
				"error", err)
			return errors.WrapPartialReparent(
				fmt.Sprintf("failed to detach %s from %s", child.ID, previous.ID), err)
		}
	}

	logger.Debug("Child assigned")
	return nil
}

// checkCycle rejects making child an ancestor of itself by walking up from parent.
func (s *Service) checkCycle(ctx context.Context, parent, child *entity.Entity) error {
	seen := map[string]bool{parent.ID: true}
	id := parent.Parent
	for id != "" {
		if id == child.ID {
			return errors.Validationf("%s is an ancestor of %s", child, parent)
		}
		if seen[id] {
			s.logger.Warn("Cycle in parent chain", "operation", "check_cycle", "id", id)
			return nil
		}
		seen[id] = true

		ancestor, err := s.store.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load ancestor %s: %w", id, err)
		}
		if ancestor == nil {
			return nil
		}
		id = ancestor.Parent
	}
	return nil
}

// GetParent returns e's parent, or nil for roots and dangling references.
func (s *Service) GetParent(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	if e.IsRoot() {
		return nil, nil
	}

	parent, err := s.store.Load(ctx, e.Parent)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		s.logger.Warn("Dangling parent reference",
			"operation", "get_parent",
			"id", e.ID,
			"parent_id", e.Parent)
	}
	return parent, nil
}

// GetChildren returns e's children in stored order, skipping ids that no
// longer resolve.
func (s *Service) GetChildren(ctx context.Context, e *entity.Entity) ([]*entity.Entity, error) {
	children := make([]*entity.Entity, 0, len(e.Children))
	for _, id := range e.Children {
		child, err := s.store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if child == nil {
			s.logger.Warn("Dangling child reference",
				"operation", "get_children",
				"id", e.ID,
				"child_id", id)
			continue
		}
		children = append(children, child)
	}
	return children, nil
}

// FindChild returns the first child of e with the given kind and name.
func (s *Service) FindChild(ctx context.Context, e *entity.Entity, kind entity.Kind, name string) (*entity.Entity, error) {
	children, err := s.GetChildren(ctx, e)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.Kind == kind && child.Name == name {
			return child, nil
		}
	}
	return nil, nil
}

// Ancestor walks up from e and returns the nearest ancestor of the given kind.
func (s *Service) Ancestor(ctx context.Context, e *entity.Entity, kind entity.Kind) (*entity.Entity, error) {
	seen := map[string]bool{e.ID: true}
	current := e
	for {
		parent, err := s.GetParent(ctx, current)
		if err != nil || parent == nil {
			return nil, err
		}
		if parent.Kind == kind {
			return parent, nil
		}
		if seen[parent.ID] {
			return nil, nil
		}
		seen[parent.ID] = true
		current = parent
	}
}
