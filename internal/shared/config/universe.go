package config

import (
	"fmt"
	"os"

	"chodewars-server/internal/entity"

	"gopkg.in/yaml.v3"
)

// Universe describes the clusters bootstrapped at startup and the master
// commodity list.
type Universe struct {
	HomeCluster string          `yaml:"home_cluster"`
	Clusters    []ClusterSpec   `yaml:"clusters"`
	Commodities []CommoditySpec `yaml:"commodities"`
}

type ClusterSpec struct {
	Name string `yaml:"name"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

// CommoditySpec is one master commodity entry. Unset fields take the
// commodity defaults.
type CommoditySpec struct {
	Name          string  `yaml:"name"`
	Tradeable     *bool   `yaml:"tradeable"`
	Transferable  bool    `yaml:"transferable"`
	Count         *int    `yaml:"count"`
	GrowthPercent float64 `yaml:"growth_percent"`
}

// Defaults is the universe used when no universe file exists.
func Defaults() *Universe {
	return &Universe{
		HomeCluster: "alpha",
		Clusters: []ClusterSpec{
			{Name: "alpha", X: 10, Y: 10},
		},
		Commodities: []CommoditySpec{
			{Name: "fuel"},
			{Name: "ore"},
			{Name: "organics"},
			{Name: "equipment"},
		},
	}
}

// LoadUniverse reads a universe file. A missing file yields Defaults().
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file %s: %w", path, err)
	}

	return ParseUniverse(data)
}

func ParseUniverse(data []byte) (*Universe, error) {
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	if err := u.validate(); err != nil {
		return nil, fmt.Errorf("invalid universe: %w", err)
	}
	return &u, nil
}

func (u *Universe) validate() error {
	if len(u.Clusters) == 0 {
		return fmt.Errorf("at least one cluster is required")
	}

	seen := make(map[string]bool, len(u.Clusters))
	for _, c := range u.Clusters {
		if c.Name == "" {
			return fmt.Errorf("cluster name is required")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate cluster %q", c.Name)
		}
		if c.X <= 0 || c.Y <= 0 {
			return fmt.Errorf("cluster %q must have positive dimensions, got %dx%d", c.Name, c.X, c.Y)
		}
		seen[c.Name] = true
	}

	if u.HomeCluster == "" {
		u.HomeCluster = u.Clusters[0].Name
	}
	if !seen[u.HomeCluster] {
		return fmt.Errorf("home cluster %q is not a configured cluster", u.HomeCluster)
	}

	names := make(map[string]bool, len(u.Commodities))
	for _, c := range u.Commodities {
		if c.Name == "" {
			return fmt.Errorf("commodity name is required")
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate commodity %q", c.Name)
		}
		if c.Count != nil && *c.Count < 0 {
			return fmt.Errorf("commodity %q has negative count", c.Name)
		}
		names[c.Name] = true
	}

	return nil
}

// Cluster returns the named cluster spec.
func (u *Universe) Cluster(name string) (ClusterSpec, bool) {
	for _, c := range u.Clusters {
		if c.Name == name {
			return c, true
		}
	}
	return ClusterSpec{}, false
}

// CommodityConfigs converts the master list into commodity templates.
func (u *Universe) CommodityConfigs() []entity.CommodityConfig {
	configs := make([]entity.CommodityConfig, 0, len(u.Commodities))
	for _, spec := range u.Commodities {
		cfg := entity.DefaultCommodityConfig(spec.Name)
		if spec.Tradeable != nil {
			cfg.Tradeable = *spec.Tradeable
		}
		if spec.Count != nil {
			cfg.Count = *spec.Count
		}
		cfg.Transferable = spec.Transferable
		cfg.GrowthPercent = spec.GrowthPercent
		configs = append(configs, cfg)
	}
	return configs
}
