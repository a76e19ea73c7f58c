package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownScenario is returned when a scenario identifier does not
// resolve to a known link capacity.
var ErrUnknownScenario = errors.New("unknown scenario")

// Link is a single bottleneck link that a scenario runs against.
type Link struct {
	// Scenario identifier written to the scenario column (e.g. "ethernet")
	Name string `json:"name" yaml:"name"`

	// Line rate in bits per second
	CapacityBps float64 `json:"capacity_bps" yaml:"capacity_bps"`
}

// Built-in scenario identifiers
const (
	ScenarioEthernet = "ethernet"
	ScenarioFC       = "fc"
)

// builtinLinks maps scenario identifiers to line rates (bps).
var builtinLinks = map[string]float64{
	ScenarioEthernet: 1_000_000_000,  // 1 Gbps
	ScenarioFC:       16_000_000_000, // 16 Gbps, Fibre-Channel-like
}

// CapacityGbps returns the line rate in Gbps.
func (l Link) CapacityGbps() float64 {
	return l.CapacityBps / 1e9
}

// CapacityMBps returns the line rate in MB/s (1 MB = 1e6 bytes).
func (l Link) CapacityMBps() float64 {
	return l.CapacityBps / 8e6
}

// LinkCatalog resolves scenario identifiers to links. It starts from the
// built-in presets; extra entries come from configuration.
type LinkCatalog struct {
	links map[string]float64
}

// NewLinkCatalog returns a catalog containing the built-in links plus any
// extra named capacities. Extra entries override built-ins of the same name.
func NewLinkCatalog(extra map[string]float64) *LinkCatalog {
	links := make(map[string]float64, len(builtinLinks)+len(extra))
	for name, bps := range builtinLinks {
		links[name] = bps
	}
	for name, bps := range extra {
		links[strings.ToLower(strings.TrimSpace(name))] = bps
	}
	return &LinkCatalog{links: links}
}

// Lookup resolves a scenario identifier (case-insensitive).
func (c *LinkCatalog) Lookup(name string) (Link, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	bps, ok := c.links[key]
	if !ok {
		return Link{}, fmt.Errorf("%w %q: choose from %s", ErrUnknownScenario, name, strings.Join(c.Names(), ", "))
	}
	return Link{Name: key, CapacityBps: bps}, nil
}

// Names returns the known scenario identifiers in sorted order.
func (c *LinkCatalog) Names() []string {
	names := make([]string, 0, len(c.links))
	for name := range c.links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
