package collect

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/models"
	srvErrors "github.com/sanops/asbuilt/pkg/errors"
	"github.com/sanops/asbuilt/pkg/gridapi"
)

// API is the slice of the request client the collector needs.
type API interface {
	GetJSON(ctx context.Context, path string, out any) (bool, error)
}

// Collector pulls every inventory section in sequence and normalizes the raw
// per-revision payloads into canonical records. Section failures degrade
// completeness; only authentication failure and total unreachability abort
// the run.
type Collector struct {
	api API
	cap models.ClusterCapability
	log *zap.SugaredLogger
}

func New(api API, cap models.ClusterCapability) *Collector {
	return &Collector{
		api: api,
		cap: cap,
		log: zap.S().Named("collector"),
	}
}

type hardwareSection struct {
	name     string
	path     string
	role     models.HardwareRole
	nodeLike bool // node payload shape vs enclosure payload shape
}

var sections = []hardwareSection{
	{"compute-enclosures", gridapi.EndpointComputeEnclosures, models.RoleComputeEnclosure, false},
	{"storage-enclosures", gridapi.EndpointStorageEnclosures, models.RoleStorageEnclosure, false},
	{"storage-trays", gridapi.EndpointStorageTrays, models.RoleStorageTray, false},
	{"compute-nodes", gridapi.EndpointComputeNodes, models.RoleComputeNode, true},
	{"storage-nodes", gridapi.EndpointStorageNodes, models.RoleStorageNode, true},
}

// CollectAll performs every collection in sequence and returns one composite
// inventory even if several sub-collections failed.
func (c *Collector) CollectAll(ctx context.Context) (*models.Inventory, error) {
	inv := &models.Inventory{
		Capability:  c.cap,
		CollectedAt: time.Now().UTC(),
	}

	var failed int
	var lastErr error

	identity, err := c.collectIdentity(ctx)
	if srvErrors.IsAuthFailedError(err) {
		return nil, err
	}
	if err != nil {
		c.log.Errorw("cluster identity collection failed", "error", err)
		identity = rawCluster{}.normalize(c.cap)
		failed++
		lastErr = err
	}
	inv.Cluster = identity
	inv.Scores = append(inv.Scores, scoreIdentity(identity, c.cap))

	collected := make(map[string][]models.HardwareRecord, len(sections))
	for _, section := range sections {
		records, err := c.collectSection(ctx, section)
		if srvErrors.IsAuthFailedError(err) {
			return nil, err
		}
		if err != nil {
			c.log.Errorw("section collection failed", "section", section.name, "error", err)
			inv.Scores = append(inv.Scores, models.SectionScore{Section: section.name, Populated: 0, Expected: 1})
			failed++
			lastErr = err
			continue
		}
		collected[section.name] = records
		inv.Hardware = append(inv.Hardware, records...)
	}

	if failed == len(sections)+1 {
		return nil, fmt.Errorf("every collection failed: %w", lastErr)
	}

	// Enrich before scoring so enclosure-derived rack positions count as
	// populated.
	c.enrichRackPositions(inv)
	idx := 0
	for _, section := range sections {
		records, ok := collected[section.name]
		if !ok {
			continue
		}
		enriched := inv.Hardware[idx : idx+len(records)]
		inv.Scores = append(inv.Scores, scoreHardware(section, enriched, c.cap))
		idx += len(records)
	}
	c.log.Infow("collection finished",
		"records", len(inv.Hardware),
		"completeness", inv.Completeness(),
	)
	return inv, nil
}

func (c *Collector) collectIdentity(ctx context.Context) (models.ClusterIdentity, error) {
	var raw rawCluster
	for _, path := range []string{gridapi.EndpointClusterSelf, gridapi.EndpointSystem} {
		found, err := c.api.GetJSON(ctx, path, &raw)
		if err != nil {
			return models.ClusterIdentity{}, err
		}
		if found {
			return raw.normalize(c.cap), nil
		}
	}
	return models.ClusterIdentity{}, fmt.Errorf("no self-description endpoint present")
}

func (c *Collector) collectSection(ctx context.Context, section hardwareSection) ([]models.HardwareRecord, error) {
	var records []models.HardwareRecord

	if section.nodeLike {
		var raws []rawNode
		found, err := c.api.GetJSON(ctx, section.path, &raws)
		if err != nil {
			return nil, err
		}
		if !found {
			c.log.Infow("endpoint not present for this revision", "section", section.name)
			return nil, nil
		}
		for _, raw := range raws {
			rec := raw.normalize(section.role, c.cap)
			if rec.ID == "" {
				c.log.Warnw("skipping record without id", "section", section.name)
				continue
			}
			records = append(records, rec)
		}
		return records, nil
	}

	var raws []rawEnclosure
	found, err := c.api.GetJSON(ctx, section.path, &raws)
	if err != nil {
		return nil, err
	}
	if !found {
		c.log.Infow("endpoint not present for this revision", "section", section.name)
		return nil, nil
	}
	for _, raw := range raws {
		rec := raw.normalize(section.role, c.cap)
		if rec.ID == "" {
			c.log.Warnw("skipping record without id", "section", section.name)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// enrichRackPositions fills node rack units from the owning enclosure when
// the node payload itself did not carry one. Keyed on enclosure name or id.
func (c *Collector) enrichRackPositions(inv *models.Inventory) {
	if !c.cap.RackPositions {
		return
	}

	byName := make(map[string]int)
	for _, rec := range inv.Hardware {
		switch rec.Role {
		case models.RoleComputeEnclosure, models.RoleStorageEnclosure:
			if rec.RackUnit != models.RackUnitManualFill {
				byName[rec.Name] = rec.RackUnit
				byName[rec.ID] = rec.RackUnit
			}
		}
	}

	for i := range inv.Hardware {
		rec := &inv.Hardware[i]
		if rec.RackUnit != models.RackUnitManualFill || rec.Enclosure == "" {
			continue
		}
		if u, ok := byName[rec.Enclosure]; ok {
			rec.RackUnit = u
		}
	}
}

func scoreIdentity(id models.ClusterIdentity, cap models.ClusterCapability) models.SectionScore {
	fields := []string{id.Name, id.UUID, id.Model, id.Firmware, id.State}
	if cap.SerialTracking {
		fields = append(fields, id.Serial)
	}

	score := models.SectionScore{Section: "cluster", Expected: len(fields)}
	for _, f := range fields {
		if f != "" && f != models.ValueUnknown && f != models.ValueManualEntry {
			score.Populated++
		}
	}
	score.Ratio = ratio(score.Populated, score.Expected)
	return score
}

func scoreHardware(section hardwareSection, records []models.HardwareRecord, cap models.ClusterCapability) models.SectionScore {
	score := models.SectionScore{Section: section.name}
	for _, rec := range records {
		fields := []string{rec.Model, rec.Serial, rec.Status}
		if section.nodeLike {
			fields = append(fields, rec.MgmtIP)
		}
		score.Expected += len(fields)
		for _, f := range fields {
			if f != "" && f != models.ValueUnknown {
				score.Populated++
			}
		}
		if cap.RackPositions {
			score.Expected++
			if rec.RackUnit != models.RackUnitManualFill {
				score.Populated++
			}
		}
	}
	score.Ratio = ratio(score.Populated, score.Expected)
	return score
}

func ratio(populated, expected int) float64 {
	if expected == 0 {
		return 1
	}
	return float64(populated) / float64(expected)
}
