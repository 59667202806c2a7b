package purity

// Entities returned by the FlashArray REST API. Optional attributes are
// pointers or slices and decode as nil when the array omits them.

// Hardware is a hardware component (GET /hardware).
type Hardware struct {
	Name        *string  `json:"name,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Status      string   `json:"status"`
	Index       *int     `json:"index,omitempty"`
	Details     *string  `json:"details,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Serial      *string  `json:"serial,omitempty"`
	Slot        *string  `json:"slot,omitempty"`
	Speed       *int64   `json:"speed,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Voltage     *float64 `json:"voltage,omitempty"`
}

// Hardware types that get special treatment.
const (
	HardwareController  = "controller"
	HardwareTempSensor  = "temp_sensor"
	HardwareCooling     = "cooling"
	HardwareDriveBay    = "drive_bay"
	HardwareNVRAMBay    = "nvram_bay"
	HardwareChassis     = "chassis"
	HardwareDCA         = "direct_compress_accelerator"
	HardwareEthPort     = "eth_port"
	HardwareFCPort      = "fc_port"
	HardwarePowerSupply = "power_supply"
	StatusUnused        = "unused"
	StatusNotInstalled  = "not_installed"
	InterfaceTypeEth    = "eth"
	InterfaceTypeFC     = "fc"
	EthSubtypeVirtual   = "vif"
)

// Drive is a flash module or NVRAM drive (GET /drives).
type Drive struct {
	Name     *string `json:"name,omitempty"`
	ID       *string `json:"id,omitempty"`
	Status   string  `json:"status"`
	Type     *string `json:"type,omitempty"`
	Details  *string `json:"details,omitempty"`
	Capacity *int64  `json:"capacity,omitempty"`
}

// Controller is an array controller (GET /controllers).
type Controller struct {
	Name    *string `json:"name,omitempty"`
	Status  *string `json:"status,omitempty"`
	Mode    *string `json:"mode,omitempty"`
	Model   *string `json:"model,omitempty"`
	Type    *string `json:"type,omitempty"`
	Version *string `json:"version,omitempty"`
}

// ArraySpace is the space accounting of an array.
type ArraySpace struct {
	DataReduction    *float64 `json:"data_reduction,omitempty"`
	TotalReduction   *float64 `json:"total_reduction,omitempty"`
	ThinProvisioning *float64 `json:"thin_provisioning,omitempty"`
	TotalPhysical    *int64   `json:"total_physical,omitempty"`
	TotalProvisioned *int64   `json:"total_provisioned,omitempty"`
	UsedProvisioned  *int64   `json:"used_provisioned,omitempty"`
	Shared           *int64   `json:"shared,omitempty"`
	Snapshots        *int64   `json:"snapshots,omitempty"`
	System           *int64   `json:"system,omitempty"`
	Unique           *int64   `json:"unique,omitempty"`
	Virtual          *int64   `json:"virtual,omitempty"`
	Replication      *int64   `json:"replication,omitempty"`
}

// Array describes the array itself (GET /arrays).
type Array struct {
	Name       *string     `json:"name,omitempty"`
	ID         *string     `json:"id,omitempty"`
	Capacity   *int64      `json:"capacity,omitempty"`
	Space      *ArraySpace `json:"space,omitempty"`
	OS         *string     `json:"os,omitempty"`
	Version    *string     `json:"version,omitempty"`
	NTPServers []string    `json:"ntp_servers,omitempty"`
	Parity     *float64    `json:"parity,omitempty"`
}

// Alert is an array alert (GET /alerts). Timestamps are milliseconds since
// the epoch.
type Alert struct {
	Name        *string `json:"name,omitempty"`
	ID          *string `json:"id,omitempty"`
	Code        *int    `json:"code,omitempty"`
	Category    *string `json:"category,omitempty"`
	Severity    *string `json:"severity,omitempty"`
	State       *string `json:"state,omitempty"`
	Summary     *string `json:"summary,omitempty"`
	Description *string `json:"description,omitempty"`
	Created     *int64  `json:"created,omitempty"`
	Updated     *int64  `json:"updated,omitempty"`
	Closed      *int64  `json:"closed,omitempty"`
}

// Certificate is an installed certificate (GET /certificates).
type Certificate struct {
	Name    *string `json:"name,omitempty"`
	ID      *string `json:"id,omitempty"`
	Status  *string `json:"status,omitempty"`
	ValidTo *int64  `json:"valid_to,omitempty"`
}

// AdminSettings are the global administrator settings (GET /admins/settings).
type AdminSettings struct {
	SingleSignOnEnabled *bool  `json:"single_sign_on_enabled,omitempty"`
	MinPasswordLength   *int   `json:"min_password_length,omitempty"`
	MaxLoginAttempts    *int   `json:"max_login_attempts,omitempty"`
	LockoutDuration     *int64 `json:"lockout_duration,omitempty"`
}

// SMTPServer is a relay configuration (GET /smtp-servers).
type SMTPServer struct {
	Name         *string `json:"name,omitempty"`
	RelayHost    *string `json:"relay_host,omitempty"`
	SenderDomain *string `json:"sender_domain,omitempty"`
}

// DNS is a resolver configuration (GET /dns).
type DNS struct {
	Name        *string  `json:"name,omitempty"`
	Domain      *string  `json:"domain,omitempty"`
	Nameservers []string `json:"nameservers,omitempty"`
	Services    []string `json:"services,omitempty"`
}

// ArrayConnection is a replication peer (GET /array-connections).
type ArrayConnection struct {
	Name                 *string  `json:"name,omitempty"`
	ID                   *string  `json:"id,omitempty"`
	Status               *string  `json:"status,omitempty"`
	ManagementAddress    *string  `json:"management_address,omitempty"`
	ReplicationAddresses []string `json:"replication_addresses,omitempty"`
	Type                 *string  `json:"type,omitempty"`
	Version              *string  `json:"version,omitempty"`
}

// Reference names another object.
type Reference struct {
	Name *string `json:"name,omitempty"`
}

// EthSettings are the Ethernet properties of a network interface.
type EthSettings struct {
	Address       *string     `json:"address,omitempty"`
	Gateway       *string     `json:"gateway,omitempty"`
	MACAddress    *string     `json:"mac_address,omitempty"`
	MTU           *int        `json:"mtu,omitempty"`
	Netmask       *string     `json:"netmask,omitempty"`
	Subtype       *string     `json:"subtype,omitempty"`
	Subinterfaces []Reference `json:"subinterfaces,omitempty"`
	Subnet        *Reference  `json:"subnet,omitempty"`
	VLAN          *int        `json:"vlan,omitempty"`
}

// FCSettings are the Fibre Channel properties of a network interface.
type FCSettings struct {
	WWN *string `json:"wwn,omitempty"`
}

// NetworkInterface is a network interface (GET /network-interfaces).
type NetworkInterface struct {
	Name          *string      `json:"name,omitempty"`
	Enabled       *bool        `json:"enabled,omitempty"`
	InterfaceType *string      `json:"interface_type,omitempty"`
	Services      []string     `json:"services,omitempty"`
	Speed         *int64       `json:"speed,omitempty"`
	Eth           *EthSettings `json:"eth,omitempty"`
	FC            *FCSettings  `json:"fc,omitempty"`
}

// PortReading is one transceiver measurement.
type PortReading struct {
	Channel     *int    `json:"channel,omitempty"`
	Status      string  `json:"status"`
	Measurement float64 `json:"measurement"`
}

// PortFlag is one transceiver fault flag.
type PortFlag struct {
	Channel *int `json:"channel,omitempty"`
	Flag    bool `json:"flag"`
}

// PortDetails are the transceiver readings of a port
// (GET /network-interfaces/port-details).
type PortDetails struct {
	Name          *string       `json:"name,omitempty"`
	InterfaceType *string       `json:"interface_type,omitempty"`
	Temperature   []PortReading `json:"temperature"`
	Voltage       []PortReading `json:"voltage"`
	TxBias        []PortReading `json:"tx_bias"`
	TxPower       []PortReading `json:"tx_power"`
	RxPower       []PortReading `json:"rx_power"`
	TxFault       []PortFlag    `json:"tx_fault"`
	RxLOS         []PortFlag    `json:"rx_los"`
}

// NamedReadings is a reading list together with its attribute name.
type NamedReadings struct {
	Name     string
	Readings []PortReading
}

// Readings returns the reading lists in a fixed order.
func (p PortDetails) Readings() []NamedReadings {
	return []NamedReadings{
		{Name: "temperature", Readings: p.Temperature},
		{Name: "voltage", Readings: p.Voltage},
		{Name: "tx_bias", Readings: p.TxBias},
		{Name: "tx_power", Readings: p.TxPower},
		{Name: "rx_power", Readings: p.RxPower},
	}
}

// NamedFlags is a flag list together with its attribute name.
type NamedFlags struct {
	Name  string
	Flags []PortFlag
}

// Flags returns the flag lists in a fixed order.
func (p PortDetails) Flags() []NamedFlags {
	return []NamedFlags{
		{Name: "tx_fault", Flags: p.TxFault},
		{Name: "rx_los", Flags: p.RxLOS},
	}
}

// Host is a host object (GET /hosts).
type Host struct {
	Name            *string  `json:"name,omitempty"`
	ConnectionCount *int     `json:"connection_count,omitempty"`
	IQNs            []string `json:"iqns,omitempty"`
	NQNs            []string `json:"nqns,omitempty"`
	WWNs            []string `json:"wwns,omitempty"`
	Personality     *string  `json:"personality,omitempty"`
}

// Volume is a volume (GET /volumes).
type Volume struct {
	Name            *string `json:"name,omitempty"`
	ID              *string `json:"id,omitempty"`
	ConnectionCount *int    `json:"connection_count,omitempty"`
	Provisioned     *int64  `json:"provisioned,omitempty"`
	Serial          *string `json:"serial,omitempty"`
	Destroyed       *bool   `json:"destroyed,omitempty"`
}

// Support holds the phone-home settings (GET /support).
type Support struct {
	PhonehomeEnabled   *bool   `json:"phonehome_enabled,omitempty"`
	RemoteAssistActive *bool   `json:"remote_assist_active,omitempty"`
	RemoteAssistStatus *string `json:"remote_assist_status,omitempty"`
}

// TokenTimes carries the lifetime of an API token in milliseconds.
type TokenTimes struct {
	CreatedAt *int64 `json:"created_at,omitempty"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`
}

// AdminAPIToken is an administrator's API token (GET /admins/api-tokens).
type AdminAPIToken struct {
	Name     *string     `json:"name,omitempty"`
	APIToken *TokenTimes `json:"api_token,omitempty"`
}
