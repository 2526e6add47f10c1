// Package vault is C10's Data Vault half: Hub, Link, Satellite,
// PointInTime, and Bridge builders driven by internal/processlog. It has
// no direct teacher analogue; its declarative-Model-plus-Builder shape
// mirrors internal/warehouse, itself grounded on the teacher's
// internal/analyzer.Analyze(Input) *Result orchestration pattern.
package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/tgberrios/datasync/internal/processlog"
	"github.com/tgberrios/datasync/internal/target"
)

// HubTable is one business-key anchor: one row per distinct business-key
// tuple, hash-keyed.
type HubTable struct {
	Name                      string
	SilverSchema, SilverTable string
	BusinessKeys              []string
}

// LinkHubRef is one Hub a Link connects, identified by the silver row
// columns carrying that Hub's business-key values.
type LinkHubRef struct {
	Hub          string
	BusinessKeys []string
}

// LinkTable associates two or more Hubs: its hash key is derived from
// its referenced Hubs' own hash keys, in Refs order.
type LinkTable struct {
	Name                      string
	SilverSchema, SilverTable string
	Refs                      []LinkHubRef
}

// ParentKind names whether a Satellite hangs off a Hub or a Link; a
// Satellite has exactly one parent, never both.
type ParentKind string

const (
	ParentHub  ParentKind = "HUB"
	ParentLink ParentKind = "LINK"
)

// SatelliteTable is descriptive data for one Hub or Link parent:
// append-only history when IsHistorized, a single overwritten row per
// parent otherwise. ParentBusinessKeys names the silver row's columns carrying the
// same natural-key values the parent hashes on, so the satellite can
// recompute the identical parent hash key.
type SatelliteTable struct {
	Name                      string
	SilverSchema, SilverTable string
	ParentKind                ParentKind
	ParentName                string
	ParentBusinessKeys        []string
	DescriptiveColumns        []string

	// IsHistorized governs change detection: true appends a new version
	// only when a descriptive column changed since the latest version;
	// false overwrites a single current row per parent key.
	IsHistorized bool
}

// PointInTimeTable is a snapshot join of one Hub with a fixed set of
// Satellites, each contributing its most-recent-as-of-AsOf row.
type PointInTimeTable struct {
	Name       string
	Hub        string
	Satellites []string
	AsOf       time.Time
}

// BridgeTable is a multi-Link snapshot: for each current member of Hub,
// the set of Link rows connecting it to other Hubs via each named Link.
type BridgeTable struct {
	Name  string
	Hub   string
	Links []string
	AsOf  time.Time
}

// Model is one vault's declarative build target.
type Model struct {
	Name       string
	GoldSchema string

	Hubs       []HubTable
	Links      []LinkTable
	Satellites []SatelliteTable
	PITs       []PointInTimeTable
	Bridges    []BridgeTable
}

// Builder runs Model builds against a single target engine, the same
// "bronze/silver already landed, gold built here" split as
// internal/warehouse.
type Builder struct {
	Warehouse target.Engine
	Log       processlog.Store
}

// NewBuilder wires a Builder.
func NewBuilder(warehouse target.Engine, log processlog.Store) *Builder {
	return &Builder{Warehouse: warehouse, Log: log}
}

// BuildResult summarizes one Model build's row counts per entity.
type BuildResult struct {
	HubRows       map[string]int64
	LinkRows      map[string]int64
	SatelliteRows map[string]int64
	PITRows       map[string]int64
	BridgeRows    map[string]int64
}

// Build validates Model's reference graph is acyclic (§9's "the builder
// validates acyclicity by topological order before execution"), then
// builds every entity in that topological order, bracketed by a single
// processlog entry under entity "vault:<Model.Name>".
func (b *Builder) Build(ctx context.Context, model Model) (BuildResult, error) {
	order, err := topologicalOrder(buildGraph(model))
	if err != nil {
		return BuildResult{}, fmt.Errorf("vault %s: %w", model.Name, err)
	}

	result := BuildResult{
		HubRows:       make(map[string]int64),
		LinkRows:      make(map[string]int64),
		SatelliteRows: make(map[string]int64),
		PITRows:       make(map[string]int64),
		BridgeRows:    make(map[string]int64),
	}

	hubsByName := indexHubs(model.Hubs)
	linksByName := indexLinks(model.Links)
	satsByName := indexSatellites(model.Satellites)

	err = processlog.Run(ctx, b.Log, "vault:"+model.Name, map[string]any{
		"hubs": len(model.Hubs), "links": len(model.Links), "satellites": len(model.Satellites),
	}, func(ctx context.Context) (int64, error) {
		if err := b.Warehouse.CreateSchema(ctx, model.GoldSchema); err != nil {
			return 0, fmt.Errorf("create gold schema: %w", err)
		}

		var total int64
		for _, stepNode := range order {
			kind, name := splitNode(stepNode)
			var n int64
			var buildErr error
			switch kind {
			case nodeHub:
				n, buildErr = b.buildHub(ctx, model.GoldSchema, hubsByName[name])
				result.HubRows[name] = n
			case nodeLink:
				n, buildErr = b.buildLink(ctx, model.GoldSchema, linksByName[name], hubsByName)
				result.LinkRows[name] = n
			case nodeSatellite:
				n, buildErr = b.buildSatellite(ctx, model.GoldSchema, satsByName[name])
				result.SatelliteRows[name] = n
			case nodePIT:
				n, buildErr = b.buildPIT(ctx, model.GoldSchema, pitByName(model.PITs, name), hubsByName, satsByName)
				result.PITRows[name] = n
			case nodeBridge:
				n, buildErr = b.buildBridge(ctx, model.GoldSchema, bridgeByName(model.Bridges, name), linksByName)
				result.BridgeRows[name] = n
			}
			if buildErr != nil {
				return total, fmt.Errorf("%s %s: %w", kind, name, buildErr)
			}
			total += n
		}
		return total, nil
	})
	return result, err
}

func indexHubs(hubs []HubTable) map[string]HubTable {
	out := make(map[string]HubTable, len(hubs))
	for _, h := range hubs {
		out[h.Name] = h
	}
	return out
}

func indexLinks(links []LinkTable) map[string]LinkTable {
	out := make(map[string]LinkTable, len(links))
	for _, l := range links {
		out[l.Name] = l
	}
	return out
}

func indexSatellites(sats []SatelliteTable) map[string]SatelliteTable {
	out := make(map[string]SatelliteTable, len(sats))
	for _, s := range sats {
		out[s.Name] = s
	}
	return out
}

func pitByName(pits []PointInTimeTable, name string) PointInTimeTable {
	for _, p := range pits {
		if p.Name == name {
			return p
		}
	}
	return PointInTimeTable{}
}

func bridgeByName(bridges []BridgeTable, name string) BridgeTable {
	for _, br := range bridges {
		if br.Name == name {
			return br
		}
	}
	return BridgeTable{}
}
