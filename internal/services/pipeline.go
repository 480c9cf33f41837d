// Package services holds the orchestration layer between the transport
// packages and the surfaces (CLI, HTTP). The collector service owns the run
// state machine; the grid pipeline owns the phase sequence of a single run.
package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/collect"
	"github.com/sanops/asbuilt/internal/config"
	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/internal/topology"
	"github.com/sanops/asbuilt/pkg/gridapi"
)

// Pipeline is the phase sequence of one collection run. Connect negotiates
// the API session; Collect pulls and normalizes everything.
type Pipeline interface {
	Connect(ctx context.Context) (models.ClusterCapability, error)
	Collect(ctx context.Context, cap models.ClusterCapability) (*models.Inventory, error)
}

// GridPipeline is the production pipeline: capability probe over the
// management API, sequential inventory collection, optional SSH topology
// correlation.
type GridPipeline struct {
	cfg *config.Config
	log *zap.SugaredLogger
}

func NewGridPipeline(cfg *config.Config) *GridPipeline {
	return &GridPipeline{
		cfg: cfg,
		log: zap.S().Named("pipeline"),
	}
}

func (p *GridPipeline) apiConfig() gridapi.Config {
	return gridapi.Config{
		Host: p.cfg.Cluster.Host,
		Credentials: gridapi.Credentials{
			Username: p.cfg.Cluster.Username,
			Password: p.cfg.Cluster.Password,
			Token:    p.cfg.Cluster.Token,
		},
		Timeout:       p.cfg.Cluster.Timeout,
		MaxRetries:    uint(p.cfg.Cluster.MaxRetries),
		BackoffFactor: p.cfg.Cluster.BackoffFactor,
		Insecure:      p.cfg.Cluster.Insecure,
	}
}

func (p *GridPipeline) Connect(ctx context.Context) (models.ClusterCapability, error) {
	cap := gridapi.NewProber(p.apiConfig()).Probe(ctx)
	p.log.Infow("capability negotiated",
		"revision", cap.Revision,
		"firmware", cap.Firmware,
		"rack_positions", cap.RackPositions,
		"serial_tracking", cap.SerialTracking)
	return cap, nil
}

func (p *GridPipeline) Collect(ctx context.Context, cap models.ClusterCapability) (*models.Inventory, error) {
	client := gridapi.NewClient(p.apiConfig(), cap.Revision)
	inv, err := collect.New(client, cap).CollectAll(ctx)
	if err != nil {
		return nil, err
	}

	if p.cfg.SSH.Enabled {
		p.correlate(ctx, inv)
	}
	return inv, nil
}

// correlate runs the SSH topology pipeline. Correlation is best effort: a
// failure leaves the topology absent and the rest of the run standing.
func (p *GridPipeline) correlate(ctx context.Context, inv *models.Inventory) {
	var nodes []topology.Node
	for _, r := range inv.Hardware {
		if r.Role != models.RoleComputeNode && r.Role != models.RoleStorageNode {
			continue
		}
		if r.MgmtIP == "" || r.MgmtIP == models.ValueUnknown {
			p.log.Debugw("node has no management address, excluded from correlation", "node", r.Name)
			continue
		}
		nodes = append(nodes, topology.Node{
			Hostname: r.Name,
			MgmtIP:   r.MgmtIP,
			Role:     r.Role,
			Vendor:   r.Model,
		})
	}

	nodeSSH := topology.NewSSHRunner(topology.SSHCredentials{
		Username: p.cfg.SSH.NodeUser,
		Password: p.cfg.SSH.NodePassword,
	}, p.cfg.Cluster.Timeout)
	swSSH := topology.NewSSHRunner(topology.SSHCredentials{
		Username: p.cfg.SSH.SwitchUser,
		Password: p.cfg.SSH.SwitchPassword,
	}, p.cfg.Cluster.Timeout)

	topo, err := topology.NewCorrelator(nodes, p.cfg.SSH.Switches, nodeSSH, swSSH).Correlate(ctx)
	if err != nil {
		p.log.Errorw("topology correlation failed, continuing without it", "error", err)
		return
	}
	inv.Topology = topo
}
