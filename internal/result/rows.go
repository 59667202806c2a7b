package result

import (
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// InterfaceStatus follows the ifOperStatus/ifAdminStatus numbering.
type InterfaceStatus int

const (
	InterfaceUp             InterfaceStatus = 1
	InterfaceDown           InterfaceStatus = 2
	InterfaceTesting        InterfaceStatus = 3
	InterfaceUnknown        InterfaceStatus = 4
	InterfaceDormant        InterfaceStatus = 5
	InterfaceNotPresent     InterfaceStatus = 6
	InterfaceLowerLayerDown InterfaceStatus = 7
)

// IANA ifType values used for array ports.
const (
	PortTypeEthernet     = 6
	PortTypeFibreChannel = 56
	PortTypeVirtual      = 53
	PortTypeVirtualIP    = 112
)

// Inventory paths.
var (
	PathNetworkAddresses  = []string{"networking", "addresses"}
	PathNetworkInterfaces = []string{"networking", "interfaces"}
	PathNetworkRoutes     = []string{"networking", "routes"}
	PathChassis           = []string{"hardware", "chassis"}
	PathStorageController = []string{"hardware", "storage", "controller"}
	PathBackplanes        = []string{"hardware", "components", "backplanes"}
	PathFans              = []string{"hardware", "components", "fans"}
	PathSensors           = []string{"hardware", "components", "sensors"}
	PathOtherHardware     = []string{"hardware", "components", "others"}
	PathModules           = []string{"hardware", "components", "modules"}
	PathManagementPorts   = []string{"hardware", "management_interface"}
	PathPSUs              = []string{"hardware", "components", "psus"}
	PathArrayNetwork      = []string{"hardware", "array", "network"}
	PathArrayHosts        = []string{"hardware", "array", "connections"}
	PathArrayVolumes      = []string{"hardware", "array", "volumes"}
	PathSoftwareOS        = []string{"software", "os"}
	PathDNS               = []string{"software", "os", "DNS"}
	PathAPITokens         = []string{"software", "os", "API_tokens"}
	PathSupport           = []string{"software", "support"}
	PathSMTP              = []string{"software", "smtp"}
	PathArrayConnections  = []string{"software", "array", "connections"}
)

func path(p []string) []string {
	return append([]string(nil), p...)
}

func row(p []string, key, inventory, status Columns) TableRow {
	return TableRow{Path: path(p), Key: key, Inventory: inventory, Status: status}
}

// NetworkAddressRow describes an address configured on device.
func NetworkAddressRow(address, device string, subnet *string) TableRow {
	kind := "IPv6"
	if addr, err := netip.ParseAddr(address); err == nil && addr.Is4() {
		kind = "IPv4"
	}
	return row(PathNetworkAddresses,
		Cols("device", device),
		Cols("address", address, "type", kind, "subnet", subnet),
		nil,
	)
}

// Interface describes a row under networking/interfaces.
type Interface struct {
	Description string
	Alias       string
	// PortType is an IANA ifType. Zero leaves the column empty.
	PortType    int
	Speed       *int64
	MAC         *string
	VLANs       []int
	AdminStatus *InterfaceStatus
	OperStatus  *InterfaceStatus
	Model       *string
	Serial      *string
}

// NetworkInterfaceRow builds an interface row.
func NetworkInterfaceRow(iface Interface) TableRow {
	var vlans any
	if iface.VLANs != nil {
		parts := make([]string, 0, len(iface.VLANs))
		for _, vlan := range iface.VLANs {
			parts = append(parts, strconv.Itoa(vlan))
		}
		vlans = strings.Join(parts, ",")
	}
	var portType any
	if iface.PortType != 0 {
		portType = iface.PortType
	}
	return row(PathNetworkInterfaces,
		Cols("port_type", portType, "description", iface.Description, "alias", iface.Alias),
		Cols(
			"model", iface.Model,
			"serial", iface.Serial,
			"speed", iface.Speed,
			"phys_address", iface.MAC,
			"oper_status", iface.OperStatus,
			"admin_status", iface.AdminStatus,
			"vlans", vlans,
		),
		nil,
	)
}

// NetworkRouteRow describes a route through gateway.
func NetworkRouteRow(target, gateway string, routeType, device *string) TableRow {
	return row(PathNetworkRoutes,
		Cols("target", target, "gateway", gateway),
		Cols("type", routeType, "device", device),
		nil,
	)
}

// DefaultRouteTarget returns the default route for the family of gateway.
func DefaultRouteTarget(gateway string) string {
	if addr, err := netip.ParseAddr(gateway); err == nil && addr.Is4() {
		return "0.0.0.0"
	}
	return "::"
}

// ChassisRow describes a chassis.
func ChassisRow(name string, manufacturer, model, serial, kind *string) TableRow {
	return row(PathChassis,
		Cols("name", name, "Manufacturer", manufacturer, "model", model),
		Cols("serial", serial, "Type", kind, "bootloader", nil, "firmware", nil),
		nil,
	)
}

// DriveControllerRow describes a storage controller.
func DriveControllerRow(name string, model, serial, kind *string) TableRow {
	return row(PathStorageController,
		Cols("name", name),
		Cols(
			"Manufacturer", nil,
			"model", model,
			"serial", serial,
			"Type", kind,
			"bootloader", nil,
			"firmware", nil,
		),
		nil,
	)
}

// BackplaneRow describes a drive or NVRAM bay.
func BackplaneRow(index *int, name string, model, serial, kind *string) TableRow {
	return row(PathBackplanes,
		Cols("index", index, "name", name),
		Cols("model", model, "serial", serial, "type", kind),
		nil,
	)
}

// FanRow describes a cooling component.
func FanRow(index *int, name string, model, serial, kind *string) TableRow {
	return row(PathFans,
		Cols("index", index, "name", name),
		Cols("model", model, "serial", serial, "type", kind),
		nil,
	)
}

// HardwareModuleRow describes a blade or another pluggable module.
func HardwareModuleRow(index *int, name string, model, serial, kind *string, capacity *int64) TableRow {
	return row(PathModules,
		Cols("index", index, "name", name),
		Cols("model", model, "serial", serial, "type", kind, "capacity", capacity),
		nil,
	)
}

// ManagementPortRow describes a dedicated management port.
func ManagementPortRow(name string, model, serial, kind *string) TableRow {
	return row(PathManagementPorts,
		Cols("name", name),
		Cols("model", model, "serial", serial, "type", kind),
		nil,
	)
}

// ChassisAttributes builds the hardware/chassis node of a system with a
// single chassis.
func ChassisAttributes(manufacturer, model, serial *string) Attributes {
	return Attributes{
		Path: path(PathChassis),
		Inventory: Cols(
			"Manufacturer", manufacturer,
			"model", model,
			"serial", serial,
			"Type", nil,
			"bootloader", nil,
			"firmware", nil,
		),
	}
}

// SensorRow describes a temperature sensor.
func SensorRow(index *int, name string, kind *string, temperature *float64) TableRow {
	return row(PathSensors,
		Cols("index", index, "name", name),
		Cols("model", nil, "serial", nil, "type", kind),
		Cols("temperature", temperature),
	)
}

// OtherHardwareRow describes a component without a dedicated path.
func OtherHardwareRow(name string, model, serial, kind *string) TableRow {
	return row(PathOtherHardware,
		Cols("name", name),
		Cols("model", model, "serial", serial, "type", kind),
		nil,
	)
}

// PSURow describes a power supply.
func PSURow(index *int, description string, model, serial *string, voltage *float64) TableRow {
	return row(PathPSUs,
		Cols("index", index),
		Cols("description", description, "model", model, "serial", serial),
		Cols("voltage", voltage),
	)
}

// APITokenRow describes an API token. Times are rendered in UTC.
func APITokenRow(name string, createdAt, expiresAt *time.Time) TableRow {
	return row(PathAPITokens,
		Cols("name", name),
		Cols("created_at", formatTime(createdAt), "expires_at", formatTime(expiresAt)),
		nil,
	)
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// NIC describes a row under hardware/array/network.
type NIC struct {
	Name          string
	InterfaceType *string
	Subtype       *string
	Subinterfaces []string
	Address       *string
	Netmask       *string
	Gateway       *string
	MACAddress    *string
	VLAN          *int
	MTU           *int
	Speed         *int64
	WWN           *string
	Services      []string
	Enabled       *bool
	Subnet        *string
}

// NICRow builds a NIC row.
func NICRow(nic NIC) TableRow {
	return row(PathArrayNetwork,
		Cols("name", nic.Name),
		Cols(
			"type", nic.InterfaceType,
			"subtype", nic.Subtype,
			"subinterfaces", joinList(nic.Subinterfaces),
			"address", nic.Address,
			"netmask", nic.Netmask,
			"gateway", nic.Gateway,
			"mac_address", nic.MACAddress,
			"vlan", nic.VLAN,
			"mtu", nic.MTU,
			"speed", nic.Speed,
			"wwn", nic.WWN,
			"services", joinList(nic.Services),
			"enabled", nic.Enabled,
			"subnet", nic.Subnet,
		),
		nil,
	)
}

// DNSRow describes a DNS configuration.
func DNSRow(name string, domain *string, nameservers, services []string) TableRow {
	return row(PathDNS,
		Cols("name", name),
		Cols("domain", domain, "nameservers", joinList(nameservers), "services", joinList(services)),
		nil,
	)
}

// HostRow describes a host connected to the array.
func HostRow(name string, connectionCount *int, iqns []string) TableRow {
	return row(PathArrayHosts,
		Cols("name", name),
		Cols("connection_count", connectionCount, "iqns", joinList(iqns)),
		nil,
	)
}

// VolumeRow describes a volume.
func VolumeRow(name string, id *string, connectionCount *int) TableRow {
	return row(PathArrayVolumes,
		Cols("name", name),
		Cols("id", id, "connection_count", connectionCount),
		nil,
	)
}

// ArrayConnectionRow describes a replication peer.
func ArrayConnectionRow(name string, managementAddress, kind *string) TableRow {
	return row(PathArrayConnections,
		Cols("name", name),
		Cols("management_address", managementAddress, "type", kind),
		nil,
	)
}

// Software holds the software/os attributes.
type Software struct {
	OS                *string
	Version           *string
	SingleSignOn      bool
	MinPasswordLength *int
	MaxLoginAttempts  *int
	LockoutDuration   *int64
	NTPServers        []string
	SMTPRelayHosts    []string
}

// SoftwareAttributes builds the software/os node.
func SoftwareAttributes(sw Software) Attributes {
	ntp := strings.Join(sw.NTPServers, ",")
	smtp := strings.Join(sw.SMTPRelayHosts, ",")
	return Attributes{
		Path: path(PathSoftwareOS),
		Inventory: Cols(
			"name", sw.OS,
			"version", sw.Version,
			"SingleSignOn Enabled", sw.SingleSignOn,
			"Minimum Password Length", sw.MinPasswordLength,
			"Maximum Login Attempts", sw.MaxLoginAttempts,
			"Lockout Duration", sw.LockoutDuration,
			"NTP Servers", ntp,
			"SMTP Server", smtp,
		),
	}
}

// BladeSoftwareAttributes builds the software/os node of a system that
// exposes no administrator settings. Those columns stay empty.
func BladeSoftwareAttributes(os, version *string, ntpServers []string) Attributes {
	return Attributes{
		Path: path(PathSoftwareOS),
		Inventory: Cols(
			"name", os,
			"version", version,
			"SingleSignOn Enabled", nil,
			"Minimum Password Length", nil,
			"Maximum Login Attempts", nil,
			"Lockout Duration", nil,
			"NTP Servers", strings.Join(ntpServers, ","),
			"SMTP Server", nil,
		),
	}
}

// DNSAttributes builds the software/os/DNS node.
func DNSAttributes(name string, domain *string, nameservers []string) Attributes {
	return Attributes{
		Path: path(PathDNS),
		Inventory: Cols(
			"name", name,
			"domain", domain,
			"nameservers", joinList(nameservers),
		),
	}
}

// SMTPAttributes builds the software/smtp node.
func SMTPAttributes(name, relayHost, senderDomain *string) Attributes {
	return Attributes{
		Path: path(PathSMTP),
		Inventory: Cols(
			"name", name,
			"Sender Domain", senderDomain,
			"Relay Host", relayHost,
		),
	}
}

// SupportAttributes builds the software/support node.
func SupportAttributes(name, id *string, phoneHome, remoteAssist *bool) Attributes {
	return Attributes{
		Path: path(PathSupport),
		Inventory: Cols(
			"Name", name,
			"ID", id,
			"PhoneHome", phoneHome,
			"RemoteAssistActive", remoteAssist,
		),
	}
}

func joinList(values []string) *string {
	if values == nil {
		return nil
	}
	joined := strings.Join(values, ",")
	return &joined
}
