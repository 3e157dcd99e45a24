package economy

import "chodewars-server/internal/entity"

// Catalog is the master commodity list. Templates keep their configured order.
type Catalog struct {
	order     []string
	templates map[string]entity.CommodityConfig
}

func NewCatalog(configs []entity.CommodityConfig) *Catalog {
	c := &Catalog{templates: make(map[string]entity.CommodityConfig, len(configs))}
	for _, cfg := range configs {
		if _, ok := c.templates[cfg.Name]; !ok {
			c.order = append(c.order, cfg.Name)
		}
		c.templates[cfg.Name] = cfg
	}
	return c
}

func (c *Catalog) Lookup(name string) (entity.CommodityConfig, bool) {
	cfg, ok := c.templates[name]
	return cfg, ok
}

func (c *Catalog) All() []entity.CommodityConfig {
	out := make([]entity.CommodityConfig, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.templates[name])
	}
	return out
}
