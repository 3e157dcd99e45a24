package economy

import (
	"context"
	"fmt"
	"log/slog"

	"chodewars-server/internal/entity"
	"chodewars-server/internal/graph"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/store"
)

// Service does commodity bookkeeping for containers with fixed hold capacity.
type Service struct {
	store   store.Store
	graph   *graph.Service
	catalog *Catalog
	logger  *slog.Logger
}

func NewService(s store.Store, g *graph.Service, catalog *Catalog, logger *slog.Logger) *Service {
	return &Service{
		store:   s,
		graph:   g,
		catalog: catalog,
		logger:  logger.With("component", "economy"),
	}
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// AvailableHolds is the container's capacity minus the counts of its
// countable children. Non-countable children take no space.
func (s *Service) AvailableHolds(ctx context.Context, container *entity.Entity) (int, error) {
	if container.Holds <= 0 {
		return 0, nil
	}

	children, err := s.graph.GetChildren(ctx, container)
	if err != nil {
		return 0, err
	}

	used := 0
	for _, child := range children {
		if child.Countable {
			used += child.Count
		}
	}

	return max(container.Holds-used, 0), nil
}

// AddCommodity merges amount units into the container's stack of the named
// commodity, creating the stack from the catalog template when there is none.
// Capacity is not checked.
func (s *Service) AddCommodity(ctx context.Context, container *entity.Entity, name string, amount int) (*entity.Entity, error) {
	template, ok := s.catalog.Lookup(name)
	if !ok {
		template = entity.DefaultCommodityConfig(name)
	}
	return s.addCommodity(ctx, container, template, amount)
}

func (s *Service) addCommodity(ctx context.Context, container *entity.Entity, template entity.CommodityConfig, amount int) (*entity.Entity, error) {
	if amount <= 0 {
		return nil, errors.Validationf("amount must be positive, got %d", amount)
	}

	logger := s.logger.With("operation", "add_commodity",
		"container_id", container.ID,
		"commodity", template.Name,
		"amount", amount)

	stack, err := s.graph.FindChild(ctx, container, entity.KindCommodity, template.Name)
	if err != nil {
		return nil, err
	}

	if stack != nil {
		stack.Count += amount
		if _, err := s.store.Save(ctx, stack); err != nil {
			return nil, err
		}
		logger.Debug("Merged into existing stack", "stack_id", stack.ID, "count", stack.Count)
		return stack, nil
	}

	template.Count = amount
	stack = entity.NewCommodity(template)
	if err := s.graph.AssignChild(ctx, container, stack); err != nil {
		return nil, err
	}

	logger.Debug("Created stack", "stack_id", stack.ID)
	return stack, nil
}

// MoveCommodity moves amount units of a commodity stack to target. A partial
// amount splits the stack and merges into target's stack of the same name;
// the whole stack or more reparents the stack itself, keeping its id.
func (s *Service) MoveCommodity(ctx context.Context, commodity, target *entity.Entity, amount int) error {
	logger := s.logger.With("operation", "move_commodity",
		"commodity_id", commodity.ID,
		"target_id", target.ID,
		"amount", amount)

	if amount <= 0 {
		return errors.Validationf("amount must be positive, got %d", amount)
	}
	if !commodity.Countable {
		return errors.Validationf("%s is not countable", commodity)
	}
	if commodity.Parent == target.ID || target.HasChild(commodity.ID) {
		return errors.Validationf("%s already holds %s", target, commodity)
	}

	available, err := s.AvailableHolds(ctx, target)
	if err != nil {
		return err
	}
	if amount > available {
		logger.Debug("Rejected move", "available", available)
		return errors.WrapInsufficientHolds(
			fmt.Sprintf("%s cannot take %d %s", target.Label(), amount, commodity.Name),
			&InsufficientHoldsError{Requested: amount, Available: available})
	}

	if amount < commodity.Count {
		commodity.Count -= amount
		if _, err := s.store.Save(ctx, commodity); err != nil {
			return err
		}

		template, ok := s.catalog.Lookup(commodity.Name)
		if !ok {
			template = commodity.Template()
		}
		if _, err := s.addCommodity(ctx, target, template, amount); err != nil {
			return err
		}

		logger.Debug("Split stack", "remaining", commodity.Count)
		return nil
	}

	if err := s.graph.AssignChild(ctx, target, commodity); err != nil {
		return err
	}

	logger.Debug("Moved whole stack")
	return nil
}
