package mockarray

import (
	"fmt"
	"strings"
	"time"

	"github.com/nholik/flash-sentinel/internal/health"
	"github.com/nholik/flash-sentinel/internal/purity"
)

// DriveBays is the number of drive bays in the default chassis.
const DriveBays = 15

// DefaultDriveCapacity is the capacity of drives added without one.
const DefaultDriveCapacity = int64(17592186044416)

func ptr[T any](v T) *T {
	return &v
}

// fixture holds the mutable array state. Every collection is owned by one
// Server instance.
type fixture struct {
	controllers      []purity.Controller
	drives           []purity.Drive
	ports            []purity.PortDetails
	hardware         []purity.Hardware
	arrays           []purity.Array
	alerts           []purity.Alert
	certificates     []purity.Certificate
	adminSettings    []purity.AdminSettings
	apiTokens        []purity.AdminAPIToken
	smtpServers      []purity.SMTPServer
	dns              []purity.DNS
	arrayConnections []purity.ArrayConnection
	interfaces       []purity.NetworkInterface
	hosts            []purity.Host
	volumes          []purity.Volume
	support          []purity.Support
}

func newFixture(now time.Time) *fixture {
	f := &fixture{}

	f.controllers = []purity.Controller{
		{Name: ptr("CT0"), Status: ptr("ready"), Mode: ptr("primary"), Model: ptr("FA-X70R3"), Type: ptr("array_controller"), Version: ptr("6.4.5")},
		{Name: ptr("CT1"), Status: ptr("ready"), Mode: ptr("secondary"), Model: ptr("FA-X70R3"), Type: ptr("array_controller"), Version: ptr("6.4.5")},
	}

	f.drives = make([]purity.Drive, DriveBays)
	for i := range f.drives {
		f.drives[i] = purity.Drive{
			Name:     ptr(fmt.Sprintf("CH0.BAY%d", i)),
			Status:   "unused",
			Capacity: ptr(int64(0)),
		}
	}

	for _, ct := range f.controllers {
		f.ports = append(f.ports, ethPort(*ct.Name+".ETH10"), fcPort(*ct.Name+".FC1"))
	}

	f.hardware = append(f.hardware, purity.Hardware{
		Index: ptr(0), Name: ptr("CH0"), Type: ptr(purity.HardwareChassis),
		Status: "ok", Model: ptr("M_SERIES"), Serial: ptr("PCHFL1234"),
	})
	for i := 1; i <= 4; i++ {
		f.hardware = append(f.hardware, purity.Hardware{
			Index: ptr(i), Name: ptr(fmt.Sprintf("CT0.FAN%d", i)), Type: ptr(purity.HardwareCooling), Status: "ok",
		})
	}
	for i := 0; i < 2; i++ {
		f.hardware = append(f.hardware, purity.Hardware{
			Index: ptr(i), Name: ptr(fmt.Sprintf("CH0.PWR%d", i)), Type: ptr(purity.HardwarePowerSupply), Status: "ok",
			Model: ptr("DPS-1600AB-13 U"), Serial: ptr(fmt.Sprintf("PSU%04d", i)), Voltage: ptr(236.0),
		})
	}
	f.hardware = append(f.hardware, purity.Hardware{
		Index: ptr(0), Name: ptr("CT0.TMP0"), Type: ptr(purity.HardwareTempSensor), Status: "ok", Temperature: ptr(38.0),
	})
	for i := 5; i < 7; i++ {
		f.hardware = append(f.hardware, purity.Hardware{
			Index: ptr(i), Name: ptr(fmt.Sprintf("CT1.DCA%d", i)), Type: ptr(purity.HardwareDCA), Status: "ok",
			Slot: ptr(fmt.Sprint(i)), Model: ptr("DCA-2"), Serial: ptr(fmt.Sprintf("DCA%04d", i)),
		})
	}

	f.arrays = []purity.Array{{
		Name:     ptr("Array 1"),
		ID:       ptr("c2515cb1-c2ee-4a96-94e1-17795ae102c3"),
		Capacity: ptr(int64(159471088056548)),
		OS:       ptr("Purity//FA"),
		Version:  ptr("6.4.5"),
		Parity:   ptr(1.0),
		NTPServers: []string{
			"time1.purestorage.com",
			"time2.purestorage.com",
		},
		Space: &purity.ArraySpace{
			DataReduction:    ptr(1.9988064002916572),
			TotalReduction:   ptr(2.9814131543241658),
			ThinProvisioning: ptr(0.32957752017943587),
			TotalPhysical:    ptr(int64(20662260402957)),
			TotalProvisioned: ptr(int64(61574798639104)),
			UsedProvisioned:  ptr(int64(0)),
			Shared:           ptr(int64(927816681)),
			Snapshots:        ptr(int64(1672052155168)),
			System:           ptr(int64(0)),
		},
	}}

	f.certificates = []purity.Certificate{{
		Name:    ptr("management"),
		ID:      ptr("4a6b9c8e-0d1f-4e22-9a3b-5c6d7e8f9012"),
		Status:  ptr("self-signed"),
		ValidTo: ptr(now.Add(400 * 24 * time.Hour).UnixMilli()),
	}}

	f.adminSettings = []purity.AdminSettings{{
		SingleSignOnEnabled: ptr(false),
		MinPasswordLength:   ptr(8),
		MaxLoginAttempts:    ptr(5),
		LockoutDuration:     ptr(int64(3600000)),
	}}

	f.apiTokens = []purity.AdminAPIToken{{
		Name: ptr("pureuser"),
		APIToken: &purity.TokenTimes{
			CreatedAt: ptr(now.Add(-30 * 24 * time.Hour).Truncate(time.Second).UnixMilli()),
		},
	}}

	f.smtpServers = []purity.SMTPServer{{Name: ptr("smtp"), RelayHost: ptr("smtp.example.com"), SenderDomain: ptr("example.com")}}

	f.dns = []purity.DNS{{
		Name:        ptr("management"),
		Domain:      ptr("example.com"),
		Nameservers: []string{"192.0.2.53", "192.0.2.54"},
		Services:    []string{"management"},
	}}

	f.interfaces = []purity.NetworkInterface{
		{
			Name: ptr("ct0.eth0"), Enabled: ptr(true), InterfaceType: ptr(purity.InterfaceTypeEth),
			Services: []string{"management"}, Speed: ptr(int64(1000000000)),
			Eth: &purity.EthSettings{
				Address: ptr("192.0.2.10"), Netmask: ptr("255.255.255.0"), Gateway: ptr("192.0.2.1"),
				MACAddress: ptr("24:a9:37:00:00:01"), MTU: ptr(1500), Subtype: ptr("physical"),
			},
		},
		{
			Name: ptr("vir0"), Enabled: ptr(true), InterfaceType: ptr(purity.InterfaceTypeEth),
			Services: []string{"management"}, Speed: ptr(int64(1000000000)),
			Eth: &purity.EthSettings{
				Address: ptr("2001:db8::10"), Netmask: ptr("64"), Gateway: ptr("2001:db8::1"),
				MACAddress: ptr("24:a9:37:00:00:ff"), MTU: ptr(1500), Subtype: ptr(purity.EthSubtypeVirtual),
			},
		},
	}
	for _, ct := range f.controllers {
		lower := strings.ToLower(*ct.Name)
		f.interfaces = append(f.interfaces,
			purity.NetworkInterface{
				Name: ptr(lower + ".eth10"), Enabled: ptr(true), InterfaceType: ptr(purity.InterfaceTypeEth),
				Services: []string{"replication"}, Speed: ptr(int64(40000000000)),
				Eth: &purity.EthSettings{
					MACAddress: ptr("24:a9:37:00:01:0" + lower[len(lower)-1:]), MTU: ptr(9000), Subtype: ptr("physical"),
					VLAN: ptr(100),
				},
			},
			purity.NetworkInterface{
				Name: ptr(lower + ".fc1"), Enabled: ptr(true), InterfaceType: ptr(purity.InterfaceTypeFC),
				Services: []string{"scsi-fc"}, Speed: ptr(int64(16000000000)),
				FC: &purity.FCSettings{WWN: ptr("52:4a:93:7d:f3:5a:1c:0" + lower[len(lower)-1:])},
			},
		)
	}

	f.hosts = []purity.Host{{Name: ptr("esx01"), ConnectionCount: ptr(2), IQNs: []string{"iqn.1998-01.com.vmware:esx01"}}}
	f.volumes = []purity.Volume{{Name: ptr("datastore01"), ID: ptr("0b9c5a4e-1f2d-4c3b-8a7e-6d5c4b3a2f10"), ConnectionCount: ptr(1)}}
	f.support = []purity.Support{{PhonehomeEnabled: ptr(true), RemoteAssistActive: ptr(false)}}

	return f
}

func ethPort(name string) purity.PortDetails {
	return purity.PortDetails{
		Name:          ptr(name),
		InterfaceType: ptr(purity.InterfaceTypeEth),
		Temperature:   []purity.PortReading{{Status: "ok", Measurement: 36.1}},
		Voltage:       []purity.PortReading{{Status: "ok", Measurement: 3.27}},
		TxBias:        channelReadings(6.96, 7.2, 6.8, 6.82),
		TxPower:       channelReadings(0.9765, 0.8352, 0.888, 0.7926),
		RxPower:       channelReadings(1.07, 1.143, 1.05, 1.03),
		TxFault:       channelFlags(4),
		RxLOS:         channelFlags(4),
	}
}

func fcPort(name string) purity.PortDetails {
	return purity.PortDetails{
		Name:          ptr(name),
		InterfaceType: ptr(purity.InterfaceTypeFC),
		Temperature:   []purity.PortReading{{Status: "ok", Measurement: 44}},
		Voltage:       []purity.PortReading{{Status: "ok", Measurement: 3.3}},
		TxBias:        []purity.PortReading{{Status: "ok", Measurement: 7.25}},
		TxPower:       []purity.PortReading{{Status: "ok", Measurement: 0.5}},
		RxPower:       []purity.PortReading{{Status: "ok", Measurement: 0.45}},
		TxFault:       []purity.PortFlag{{}},
		RxLOS:         []purity.PortFlag{{}},
	}
}

func channelReadings(values ...float64) []purity.PortReading {
	out := make([]purity.PortReading, len(values))
	for i, v := range values {
		out[i] = purity.PortReading{Channel: ptr(i + 1), Status: "ok", Measurement: v}
	}
	return out
}

func channelFlags(n int) []purity.PortFlag {
	out := make([]purity.PortFlag, n)
	for i := range out {
		out[i] = purity.PortFlag{Channel: ptr(i + 1)}
	}
	return out
}

// driveBayStatus maps a drive status onto the status of its bay.
var driveBayStatus = map[string]string{
	"empty":        "healthy",
	"failed":       "critical",
	"healthy":      "ok",
	"identifying":  "identifying",
	"missing":      "critical",
	"recovering":   "unhealthy",
	"unadmitted":   "identifying",
	"unhealthy":    "unhealthy",
	"unrecognized": "unknown",
	"updating":     "healthy",
}

var controllerStatus = map[string]string{
	"not ready": "unhealthy",
	"ready":     "healthy",
	"unknown":   "unknown",
	"updating":  "healthy",
}

// portStatus rolls transceiver readings up into the status of the port's
// hardware entry.
func portStatus(p purity.PortDetails) string {
	var statuses []string
	for _, list := range p.Readings() {
		for _, r := range list.Readings {
			statuses = append(statuses, r.Status)
		}
	}
	var flags []bool
	for _, list := range p.Flags() {
		for _, f := range list.Flags {
			flags = append(flags, f.Flag)
		}
	}
	switch health.FoldReadings(health.PortReadings, statuses, flags) {
	case health.StateOK:
		return "ok"
	case health.StateWarn:
		return "unhealthy"
	default:
		return "critical"
	}
}

// hardwareView derives the /hardware collection from drives, controllers
// and ports plus the static components.
func (f *fixture) hardwareView() []purity.Hardware {
	out := make([]purity.Hardware, 0, len(f.drives)+len(f.controllers)+len(f.ports)+len(f.hardware))

	for i, d := range f.drives {
		bay := purity.Hardware{
			Index:  ptr(i),
			Name:   ptr(fmt.Sprintf("CH0.BAY%d", i)),
			Type:   ptr(purity.HardwareDriveBay),
			Status: "not_installed",
		}
		if status, ok := driveBayStatus[d.Status]; ok {
			bay.Status = status
			bay.Serial = ptr(fmt.Sprintf("PFMD%05d", i))
		}
		out = append(out, bay)
	}

	for i, ct := range f.controllers {
		status := "unknown"
		if ct.Status != nil {
			if mapped, ok := controllerStatus[*ct.Status]; ok {
				status = mapped
			}
		}
		out = append(out, purity.Hardware{
			Index:  ptr(i),
			Name:   ct.Name,
			Type:   ptr(purity.HardwareController),
			Status: status,
			Model:  ct.Model,
			Serial: ptr(fmt.Sprintf("PCTFL%04d", i)),
		})
	}

	for i, p := range f.ports {
		kind := purity.HardwareEthPort
		speed := int64(40000000000)
		if p.InterfaceType != nil && *p.InterfaceType == purity.InterfaceTypeFC {
			kind = purity.HardwareFCPort
			speed = 16000000000
		}
		out = append(out, purity.Hardware{
			Index:  ptr(i),
			Name:   p.Name,
			Type:   ptr(kind),
			Status: portStatus(p),
			Speed:  ptr(speed),
		})
	}

	return append(out, f.hardware...)
}
