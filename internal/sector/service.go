package sector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"chodewars-server/internal/entity"
	"chodewars-server/internal/graph"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/store"
)

// Service materializes sectors lazily: a sector record is created the first
// time it is referenced.
type Service struct {
	store    store.Store
	graph    *graph.Service
	attempts int
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService returns a sector service. attempts bounds FindEmptySector.
func NewService(s store.Store, g *graph.Service, rng *rand.Rand, attempts int, logger *slog.Logger) *Service {
	return &Service{
		store:    s,
		graph:    g,
		rng:      rng,
		attempts: attempts,
		logger:   logger.With("component", "sector"),
	}
}

// NewRand seeds a generator; seed 0 picks a random seed.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// Cluster loads the cluster with the given name. Entities of other kinds
// sharing the name are skipped.
func (s *Service) Cluster(ctx context.Context, name string) (*entity.Entity, error) {
	found, err := s.store.LoadByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if found != nil && found.Kind == entity.KindCluster {
		return found, nil
	}

	var cluster *entity.Entity
	if found != nil {
		err = s.store.Scan(ctx, func(e *entity.Entity) error {
			if cluster == nil && e.Kind == entity.KindCluster && e.Name == name {
				cluster = e
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if cluster == nil {
		return nil, errors.NotFoundf("cluster %q not found", name)
	}
	return cluster, nil
}

// lookup returns the materialized sector n of clusterName, or nil.
func (s *Service) lookup(ctx context.Context, clusterName string, n int) (*entity.Entity, error) {
	label := entity.SectorLabel(clusterName, n)

	found, err := s.store.LoadByName(ctx, label)
	if err != nil {
		return nil, err
	}
	if found == nil || isSector(found, clusterName, n) {
		return found, nil
	}

	// Another kind of entity answers to the label; look for the sector itself.
	var sector *entity.Entity
	err = s.store.Scan(ctx, func(e *entity.Entity) error {
		if sector == nil && isSector(e, clusterName, n) {
			sector = e
		}
		return nil
	})
	return sector, err
}

func isSector(e *entity.Entity, clusterName string, n int) bool {
	return e.Kind == entity.KindSector && e.ClusterName == clusterName && e.Number == n
}

// GetSector returns sector n of the named cluster, creating and attaching it
// to the cluster on first use. Repeated calls return the same record.
func (s *Service) GetSector(ctx context.Context, clusterName string, n int) (*entity.Entity, error) {
	existing, err := s.lookup(ctx, clusterName, n)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	cluster, err := s.Cluster(ctx, clusterName)
	if err != nil {
		return nil, err
	}

	grid := Grid{X: cluster.X, Y: cluster.Y}
	if !grid.Contains(n) {
		return nil, errors.Validationf("sector %d is outside cluster %q (1-%d)", n, clusterName, grid.Size())
	}

	sector := entity.NewSector(clusterName, n)
	if err := s.graph.AssignChild(ctx, cluster, sector); err != nil {
		return nil, fmt.Errorf("failed to attach sector %s: %w", sector.Label(), err)
	}

	s.logger.Debug("Sector materialized",
		"operation", "get_sector",
		"cluster", clusterName,
		"sector", n,
		"id", sector.ID)

	return sector, nil
}

// Locate returns the sector e is in: e itself when it is a sector, otherwise
// its nearest sector ancestor.
func (s *Service) Locate(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	if e.Kind == entity.KindSector {
		return e, nil
	}
	return s.graph.Ancestor(ctx, e, entity.KindSector)
}

// AvailableWarps returns the sectors adjacent to the sector e is in, ordered
// by sector number. Each neighbor is materialized as needed.
func (s *Service) AvailableWarps(ctx context.Context, e *entity.Entity) ([]*entity.Entity, error) {
	current, err := s.Locate(ctx, e)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errors.Validationf("%s is not in a sector", e)
	}

	cluster, err := s.Cluster(ctx, current.ClusterName)
	if err != nil {
		return nil, err
	}

	grid := Grid{X: cluster.X, Y: cluster.Y}
	neighbors := grid.Neighbors(current.Number)

	warps := make([]*entity.Entity, 0, len(neighbors))
	for _, n := range neighbors {
		sector, err := s.GetSector(ctx, current.ClusterName, n)
		if err != nil {
			return nil, err
		}
		warps = append(warps, sector)
	}
	return warps, nil
}

// FindEmptySector samples random slots of the cluster until it finds one with
// no sector record and returns an unsaved sector for it. The search gives up
// with a cluster_full error after the configured number of attempts.
func (s *Service) FindEmptySector(ctx context.Context, cluster *entity.Entity) (*entity.Entity, error) {
	logger := s.logger.With("operation", "find_empty_sector", "cluster", cluster.Name)

	size := Grid{X: cluster.X, Y: cluster.Y}.Size()
	if size <= 0 {
		return nil, errors.Validationf("cluster %q has no sectors", cluster.Name)
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := s.randomSlot(size)
		existing, err := s.lookup(ctx, cluster.Name, n)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			logger.Debug("Found empty sector", "sector", n, "attempts", attempt)
			return entity.NewSector(cluster.Name, n), nil
		}
	}

	logger.Warn("No empty sector found", "attempts", s.attempts)
	return nil, errors.ClusterFullf("no empty sector in cluster %q after %d attempts", cluster.Name, s.attempts)
}

func (s *Service) randomSlot(size int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(size) + 1
}
