package purity

// Entities returned by the FlashBlade REST API that differ from their
// FlashArray counterparts. Alerts, certificates, arrays, DNS and SMTP
// relays share the FlashArray models.

// BladeHardware is a FlashBlade hardware component (GET /hardware).
type BladeHardware struct {
	Name        *string  `json:"name,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Status      string   `json:"status"`
	Index       *int     `json:"index,omitempty"`
	Slot        *int     `json:"slot,omitempty"`
	Details     *string  `json:"details,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Serial      *string  `json:"serial,omitempty"`
	Speed       *int64   `json:"speed,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// FlashBlade hardware types.
const (
	BladeHardwareChassis      = "ch"
	BladeHardwareBlade        = "fb"
	BladeHardwareFabricModule = "fm"
	BladeHardwarePowerSupply  = "pwr"
	BladeHardwareFan          = "fan"
	BladeHardwareEthPort      = "eth"
	BladeHardwareMgmtPort     = "mgmt_port"
	BladeInterfaceVIP         = "vip"
)

// Blade is one blade of the chassis (GET /blades).
type Blade struct {
	Name        *string `json:"name,omitempty"`
	ID          *string `json:"id,omitempty"`
	Status      *string `json:"status,omitempty"`
	RawCapacity *int64  `json:"raw_capacity,omitempty"`
}

// BladeInterface is a FlashBlade network interface (GET /network-interfaces).
type BladeInterface struct {
	Name     *string  `json:"name,omitempty"`
	Address  *string  `json:"address,omitempty"`
	Netmask  *string  `json:"netmask,omitempty"`
	Gateway  *string  `json:"gateway,omitempty"`
	Enabled  *bool    `json:"enabled,omitempty"`
	Type     *string  `json:"type,omitempty"`
	VLAN     *int     `json:"vlan,omitempty"`
	MTU      *int     `json:"mtu,omitempty"`
	Services []string `json:"services,omitempty"`
}

// Space scopes accepted by GET /arrays/space.
const (
	SpaceArray       = "array"
	SpaceFileSystem  = "file-system"
	SpaceObjectStore = "object-store"
)

// BladeSpaceDetails is the space accounting of one scope.
type BladeSpaceDetails struct {
	DataReduction *float64 `json:"data_reduction,omitempty"`
	Snapshots     *int64   `json:"snapshots,omitempty"`
	TotalPhysical *int64   `json:"total_physical,omitempty"`
	Unique        *int64   `json:"unique,omitempty"`
	Virtual       *int64   `json:"virtual,omitempty"`
}

// BladeArraySpace is the space of one scope (GET /arrays/space?type=...).
type BladeArraySpace struct {
	Name     *string            `json:"name,omitempty"`
	Type     *string            `json:"type,omitempty"`
	Capacity *int64             `json:"capacity,omitempty"`
	Parity   *float64           `json:"parity,omitempty"`
	Space    *BladeSpaceDetails `json:"space,omitempty"`
}

// BladeAPIToken is an administrator's API token (GET /admins/api-tokens).
// Unlike FlashArray the owner is a reference.
type BladeAPIToken struct {
	Admin    *Reference  `json:"admin,omitempty"`
	APIToken *TokenTimes `json:"api_token,omitempty"`
}

// BladeSupport holds the phone-home settings of a FlashBlade (GET /support).
type BladeSupport struct {
	Name               *string `json:"name,omitempty"`
	ID                 *string `json:"id,omitempty"`
	PhonehomeEnabled   *bool   `json:"phonehome_enabled,omitempty"`
	RemoteAssistActive *bool   `json:"remote_assist_active,omitempty"`
}
