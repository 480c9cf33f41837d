package models

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Revision is the ordinal of a management REST API revision. Higher wins.
type Revision int

// Known API revisions, newest first. Probing walks this list top to bottom.
var KnownRevisions = []Revision{7, 6, 5, 4, 3, 2, 1}

// OldestRevision is the conservative fallback when no revision probes clean.
const OldestRevision Revision = 1

func (r Revision) String() string {
	return fmt.Sprintf("v%d", int(r))
}

// Feature thresholds. A feature is available only when BOTH the API revision
// and the cluster firmware meet the threshold: a new API talking to old
// firmware must not claim fields the firmware cannot supply.
const (
	rackPositionMinRevision   Revision = 6
	serialTrackingMinRevision Revision = 5
)

var featureMinFirmware = semver.MustParse("5.2.0")

// ClusterCapability is the immutable capability descriptor derived once at
// session setup. It drives which optional fields later collectors trust.
type ClusterCapability struct {
	Revision       Revision
	Firmware       string
	RackPositions  bool
	SerialTracking bool
}

// NewClusterCapability derives the feature flags from the probed revision and
// the firmware string reported by the cluster. An unparsable firmware string
// disables every optional feature.
func NewClusterCapability(rev Revision, firmware string) ClusterCapability {
	cap := ClusterCapability{
		Revision: rev,
		Firmware: firmware,
	}

	fw, err := semver.NewVersion(firmware)
	if err != nil {
		return cap
	}

	firmwareOK := !fw.LessThan(featureMinFirmware)
	cap.RackPositions = rev >= rackPositionMinRevision && firmwareOK
	cap.SerialTracking = rev >= serialTrackingMinRevision && firmwareOK
	return cap
}
