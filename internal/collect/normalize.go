package collect

import (
	"strconv"
	"strings"

	"github.com/sanops/asbuilt/internal/models"
)

// Racks taller than this do not exist in supported deployments; anything
// outside the range is treated as unparsable.
const maxRackUnit = 60

// ParseRackUnit turns a raw rack-unit string into a rack unit number.
// Accepted forms are "U17" and "17". Anything else, including an empty
// string or an out-of-range value, resolves to the manual-entry sentinel
// instead of an error: a bad position must never sink a record.
func ParseRackUnit(raw string) int {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.ToUpper(s), "U")
	if s == "" {
		return models.RackUnitManualFill
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxRackUnit {
		return models.RackUnitManualFill
	}
	return n
}

// firstNonEmpty applies the fixed field-name resolution order: field names
// drifted across API revisions and the first populated variant wins.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func orUnknown(v string) string {
	if v == "" {
		return models.ValueUnknown
	}
	return v
}

// rawCluster carries every self-description field name seen across v1..v7.
type rawCluster struct {
	Name            string `json:"name"`
	UUID            string `json:"uuid"`
	GUID            string `json:"guid"`
	Model           string `json:"model"`
	PSNT            string `json:"psnt"`
	ProductSerial   string `json:"product_serial"`
	SwVersion       string `json:"sw_version"`
	SoftwareVersion string `json:"software_version"`
	Version         string `json:"version"`
	State           string `json:"state"`
	Health          string `json:"health"`
	NodeCount       int    `json:"node_count"`
}

func (r rawCluster) normalize(cap models.ClusterCapability) models.ClusterIdentity {
	id := models.ClusterIdentity{
		Name:     orUnknown(r.Name),
		UUID:     orUnknown(firstNonEmpty(r.UUID, r.GUID)),
		Model:    orUnknown(r.Model),
		Firmware: orUnknown(firstNonEmpty(r.SwVersion, r.SoftwareVersion, r.Version)),
		State:    orUnknown(firstNonEmpty(r.State, r.Health)),
		NodeCnt:  r.NodeCount,
	}

	// The capability descriptor is the authority for optional fields: a
	// payload-supplied serial tag is ignored when the firmware cannot be
	// trusted to track it.
	if cap.SerialTracking {
		id.Serial = orUnknown(firstNonEmpty(r.PSNT, r.ProductSerial))
	} else {
		id.Serial = models.ValueManualEntry
	}
	return id
}

// rawNode carries every node field name seen across v1..v7. Compute and
// storage nodes share the shape.
type rawNode struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Model         string `json:"model"`
	SerialNumber  string `json:"serial_number"`
	SN            string `json:"sn"`
	Status        string `json:"status"`
	State         string `json:"state"`
	Enclosure     string `json:"enclosure"`
	EnclosureName string `json:"enclosure_name"`
	RackU         string `json:"rack_u"`
	Position      string `json:"position"`
	MgmtIP        string `json:"mgmt_ip"`
	IP            string `json:"ip"`
	DataIP        string `json:"data_ip"`
	BMCIP         string `json:"bmc_ip"`
	IPMIIP        string `json:"ipmi_ip"`
	OSVersion     string `json:"os_version"`
	Firmware      string `json:"fw"`
	BMCFw         string `json:"bmc_fw"`
	BMCVersion    string `json:"bmc_version"`
}

func (r rawNode) normalize(role models.HardwareRole, cap models.ClusterCapability) models.HardwareRecord {
	rec := models.HardwareRecord{
		ID:        firstNonEmpty(r.ID, r.Name),
		Role:      role,
		Name:      orUnknown(r.Name),
		Model:     orUnknown(r.Model),
		Serial:    orUnknown(firstNonEmpty(r.SerialNumber, r.SN)),
		Status:    orUnknown(firstNonEmpty(r.Status, r.State)),
		Enclosure: firstNonEmpty(r.Enclosure, r.EnclosureName),
		RackUnit:  models.RackUnitManualFill,
		MgmtIP:    orUnknown(firstNonEmpty(r.MgmtIP, r.IP)),
		DataIP:    orUnknown(r.DataIP),
		BMCIP:     orUnknown(firstNonEmpty(r.BMCIP, r.IPMIIP)),
		Firmware:  orUnknown(firstNonEmpty(r.OSVersion, r.Firmware)),
		BMCFw:     orUnknown(firstNonEmpty(r.BMCFw, r.BMCVersion)),
	}
	if cap.RackPositions {
		rec.RackUnit = ParseRackUnit(firstNonEmpty(r.RackU, r.Position))
	}
	return rec
}

// rawEnclosure covers compute/storage enclosures and storage trays.
type rawEnclosure struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	SN           string `json:"sn"`
	Status       string `json:"status"`
	State        string `json:"state"`
	Enclosure    string `json:"enclosure"`
	RackU        string `json:"rack_u"`
	Position     string `json:"position"`
}

func (r rawEnclosure) normalize(role models.HardwareRole, cap models.ClusterCapability) models.HardwareRecord {
	rec := models.HardwareRecord{
		ID:        firstNonEmpty(r.ID, r.Name),
		Role:      role,
		Name:      orUnknown(r.Name),
		Model:     orUnknown(r.Model),
		Serial:    orUnknown(firstNonEmpty(r.SerialNumber, r.SN)),
		Status:    orUnknown(firstNonEmpty(r.Status, r.State)),
		Enclosure: r.Enclosure,
		RackUnit:  models.RackUnitManualFill,
		MgmtIP:    models.ValueUnknown,
		DataIP:    models.ValueUnknown,
		BMCIP:     models.ValueUnknown,
		Firmware:  models.ValueUnknown,
		BMCFw:     models.ValueUnknown,
	}
	if cap.RackPositions {
		rec.RackUnit = ParseRackUnit(firstNonEmpty(r.RackU, r.Position))
	}
	return rec
}
