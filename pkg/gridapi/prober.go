package gridapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/models"
)

// Prober discovers, without prior knowledge, the newest API revision a
// cluster accepts and derives the capability descriptor from it. Probing
// happens once per session; the descriptor is immutable afterward.
type Prober struct {
	host  string
	creds Credentials
	http  *http.Client
	log   *zap.SugaredLogger
}

func NewProber(cfg Config) *Prober {
	cfg = cfg.withDefaults()
	return &Prober{
		host:  cfg.Host,
		creds: cfg.Credentials,
		http:  cfg.httpClient(),
		log:   zap.S().Named("prober"),
	}
}

// Probe walks the known revisions newest to oldest and selects the first one
// whose stable collection endpoint answers 200. Per-revision failures are
// logged and swallowed; when every revision fails the oldest known revision
// is returned so collection can still be attempted against a best-guess
// baseline. The firmware version is then pulled from the cluster
// self-description and combined with the revision into the capability flags.
func (p *Prober) Probe(ctx context.Context) models.ClusterCapability {
	rev := p.selectRevision(ctx)
	firmware := p.fetchFirmware(ctx, rev)

	cap := models.NewClusterCapability(rev, firmware)
	p.log.Infow("capability probe complete",
		"revision", cap.Revision,
		"firmware", cap.Firmware,
		"rackPositions", cap.RackPositions,
		"serialTracking", cap.SerialTracking,
	)
	return cap
}

func (p *Prober) selectRevision(ctx context.Context) models.Revision {
	for _, rev := range models.KnownRevisions {
		ok, err := p.probeRevision(ctx, rev)
		if err != nil {
			p.log.Debugw("revision probe failed", "revision", rev, "error", err)
			continue
		}
		if ok {
			return rev
		}
	}
	p.log.Warnw("no API revision answered the probe, assuming oldest", "revision", models.OldestRevision)
	return models.OldestRevision
}

func (p *Prober) probeRevision(ctx context.Context, rev models.Revision) (bool, error) {
	resp, err := p.get(ctx, rev, endpointClusters)
	if err != nil {
		return false, err
	}
	drain(resp)
	return resp.StatusCode == http.StatusOK, nil
}

// clusterSelf is the subset of the self-description payload the prober needs.
// The firmware field name drifted across revisions; resolution order is
// sw_version, software_version, version.
type clusterSelf struct {
	SwVersion       string `json:"sw_version"`
	SoftwareVersion string `json:"software_version"`
	Version         string `json:"version"`
}

func (s clusterSelf) firmware() string {
	for _, v := range []string{s.SwVersion, s.SoftwareVersion, s.Version} {
		if v != "" {
			return v
		}
	}
	return ""
}

// fetchFirmware prefers the rich self-description endpoint and falls back to
// the lean one when the rich one is not present for the selected revision.
func (p *Prober) fetchFirmware(ctx context.Context, rev models.Revision) string {
	for _, endpoint := range []string{EndpointClusterSelf, EndpointSystem} {
		resp, err := p.get(ctx, rev, endpoint)
		if err != nil {
			p.log.Debugw("self-description fetch failed", "endpoint", endpoint, "error", err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			drain(resp)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			continue
		}
		var self clusterSelf
		if err := json.Unmarshal(body, &self); err != nil {
			p.log.Debugw("self-description unparsable", "endpoint", endpoint, "error", err)
			continue
		}
		if fw := self.firmware(); fw != "" {
			return fw
		}
	}
	p.log.Warn("could not determine cluster firmware version")
	return ""
}

func (p *Prober) get(ctx context.Context, rev models.Revision, endpoint string) (*http.Response, error) {
	url := (&Client{host: p.host, rev: rev}).url(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if p.creds.Token != "" {
		req.Header.Set(tokenHeader, p.creds.Token)
	} else {
		req.SetBasicAuth(p.creds.Username, p.creds.Password)
	}
	return p.http.Do(req)
}
