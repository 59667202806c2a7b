package mockarray

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/nholik/flash-sentinel/internal/purity"
)

// Blades is the number of blade slots in the default FlashBlade chassis.
// The last slot is empty.
const Blades = 4

// DefaultBladeCapacity is the raw capacity of every installed blade.
const DefaultBladeCapacity = int64(52776558133248)

var (
	// ErrNotBlade is returned by FlashBlade mutators on a FlashArray mock.
	ErrNotBlade = errors.New("mock does not serve a FlashBlade")

	errBadQuery = errors.New("bad query")
)

// WithFlashBlade serves the FlashBlade API instead of the FlashArray one.
// Alerts, certificates, DNS and SMTP relays are shared with the default
// fixture, so their mutators work in both modes.
func WithFlashBlade() Option {
	return func(s *Server) { s.bladeMode = true }
}

// bladeFixture holds the FlashBlade specific state.
type bladeFixture struct {
	hardware   []purity.BladeHardware
	blades     []purity.Blade
	interfaces []purity.BladeInterface
	arrays     []purity.Array
	space      map[string]purity.BladeArraySpace
	support    []purity.BladeSupport
	apiTokens  []purity.BladeAPIToken
}

func newBladeFixture(now time.Time) *bladeFixture {
	f := &bladeFixture{}

	f.hardware = append(f.hardware,
		purity.BladeHardware{
			Name: ptr("CH1"), Type: ptr(purity.BladeHardwareChassis), Status: "healthy", Index: ptr(1),
			Model: ptr("FB-17R"), Serial: ptr("PMPFB17R0001"),
		},
		purity.BladeHardware{
			Name: ptr("CH1.FM1"), Type: ptr(purity.BladeHardwareFabricModule), Status: "healthy", Slot: ptr(1),
			Model: ptr("FM-17R"), Serial: ptr("PFM00001"), Temperature: ptr(42.0),
		},
		purity.BladeHardware{
			Name: ptr("CH1.FM2"), Type: ptr(purity.BladeHardwareFabricModule), Status: "healthy", Slot: ptr(2),
			Model: ptr("FM-17R"), Serial: ptr("PFM00002"), Temperature: ptr(41.0),
		},
		purity.BladeHardware{
			Name: ptr("CH1.FM1.ETH1"), Type: ptr(purity.BladeHardwareEthPort), Status: "healthy", Index: ptr(1),
			Model: ptr("QSFP28"), Serial: ptr("PQSFP0001"), Speed: ptr(int64(100000000000)),
		},
		purity.BladeHardware{
			Name: ptr("CH1.FM1.ETH2"), Type: ptr(purity.BladeHardwareEthPort), Status: "unused", Index: ptr(2),
		},
		purity.BladeHardware{
			Name: ptr("CH1.FM1.MGMT1"), Type: ptr(purity.BladeHardwareMgmtPort), Status: "healthy",
			Model: ptr("RJ45"), Serial: ptr("PMGMT0001"), Speed: ptr(int64(1000000000)),
		},
		purity.BladeHardware{
			Name: ptr("CH1.EFM1"), Type: ptr("xfm"), Status: "healthy", Slot: ptr(1),
			Model: ptr("XFM-8400"), Serial: ptr("PXFM0001"),
		},
	)
	for i := 1; i <= Blades; i++ {
		name := fmt.Sprintf("CH1.FB%d", i)
		item := purity.BladeHardware{Name: ptr(name), Type: ptr(purity.BladeHardwareBlade), Status: "unused", Slot: ptr(i)}
		if i < Blades {
			item.Status = "healthy"
			item.Model = ptr("FB-17TB")
			item.Serial = ptr(fmt.Sprintf("PFB%05d", i))
			f.blades = append(f.blades, purity.Blade{
				Name:        ptr(name),
				ID:          ptr(fmt.Sprintf("blade-%d", i)),
				Status:      ptr("healthy"),
				RawCapacity: ptr(DefaultBladeCapacity),
			})
		}
		f.hardware = append(f.hardware, item)
	}
	for i := 0; i < 2; i++ {
		f.hardware = append(f.hardware,
			purity.BladeHardware{
				Name: ptr(fmt.Sprintf("CH1.PWR%d", i)), Type: ptr(purity.BladeHardwarePowerSupply), Status: "healthy", Slot: ptr(i),
				Model: ptr("PWS-2K02A"), Serial: ptr(fmt.Sprintf("PPWR%04d", i)),
			},
			purity.BladeHardware{
				Name: ptr(fmt.Sprintf("CH1.FAN%d", i)), Type: ptr(purity.BladeHardwareFan), Status: "healthy", Slot: ptr(i),
				Speed: ptr(int64(7200)),
			},
		)
	}

	f.interfaces = []purity.BladeInterface{
		{
			Name: ptr("vir0"), Type: ptr(purity.BladeInterfaceVIP), Enabled: ptr(true),
			Address: ptr("192.0.2.20"), Netmask: ptr("255.255.255.0"), Gateway: ptr("192.0.2.1"),
			MTU: ptr(1500), Services: []string{"management"},
		},
		{
			Name: ptr("data1"), Type: ptr(purity.BladeInterfaceVIP), Enabled: ptr(true),
			Address: ptr("2001:db8::20"), Netmask: ptr("64"), VLAN: ptr(2020),
			MTU: ptr(9000), Services: []string{"data"},
		},
		{
			Name: ptr("repl0"), Type: ptr(purity.BladeInterfaceVIP), Enabled: ptr(false),
			MTU: ptr(1500), Services: []string{"replication"},
		},
	}

	f.arrays = []purity.Array{{
		Name:       ptr("flashblade-01"),
		ID:         ptr("5f7c4d2e-8a1b-4c3d-9e0f-1a2b3c4d5e6f"),
		OS:         ptr("Purity//FB"),
		Version:    ptr("4.1.2"),
		NTPServers: []string{"time1.purestorage.com"},
	}}

	capacity := int64(150000000000000)
	f.space = map[string]purity.BladeArraySpace{
		purity.SpaceArray:       bladeSpace(purity.SpaceArray, capacity, 30000000000000),
		purity.SpaceFileSystem:  bladeSpace(purity.SpaceFileSystem, capacity, 20000000000000),
		purity.SpaceObjectStore: bladeSpace(purity.SpaceObjectStore, capacity, 10000000000000),
	}

	f.support = []purity.BladeSupport{{
		Name:               ptr("flashblade-01"),
		ID:                 ptr("5f7c4d2e-8a1b-4c3d-9e0f-1a2b3c4d5e6f"),
		PhonehomeEnabled:   ptr(true),
		RemoteAssistActive: ptr(false),
	}}

	f.apiTokens = []purity.BladeAPIToken{
		{
			Admin: &purity.Reference{Name: ptr("pureuser")},
			APIToken: &purity.TokenTimes{
				CreatedAt: ptr(now.Add(-30 * 24 * time.Hour).Truncate(time.Second).UnixMilli()),
			},
		},
		{APIToken: &purity.TokenTimes{}},
	}

	return f
}

func bladeSpace(scope string, capacity, physical int64) purity.BladeArraySpace {
	return purity.BladeArraySpace{
		Name:     ptr("flashblade-01"),
		Type:     ptr(scope),
		Capacity: ptr(capacity),
		Parity:   ptr(0.8),
		Space: &purity.BladeSpaceDetails{
			DataReduction: ptr(1.5),
			Snapshots:     ptr(physical / 10),
			TotalPhysical: ptr(physical),
			Unique:        ptr(physical - physical/10),
			Virtual:       ptr(physical * 3 / 2),
		},
	}
}

// bladeCollection snapshots a FlashBlade resource. Callers hold mu.
func (s *Server) bladeCollection(resource string, query url.Values) ([]json.RawMessage, error) {
	f := s.blade
	switch resource {
	case purity.ResourceHardware:
		return encodeAll(f.hardware)
	case purity.ResourceBlades:
		return encodeAll(f.blades)
	case purity.ResourceInterfaces:
		return encodeAll(f.interfaces)
	case purity.ResourceArrays:
		return encodeAll(f.arrays)
	case purity.ResourceArraysSpace:
		scope := query.Get("type")
		if scope == "" {
			scope = purity.SpaceArray
		}
		space, ok := f.space[scope]
		if !ok {
			return nil, fmt.Errorf("%w: unknown space type %q", errBadQuery, scope)
		}
		return encodeAll([]purity.BladeArraySpace{space})
	case purity.ResourceSupport:
		return encodeAll(f.support)
	case purity.ResourceAPITokens:
		return encodeAll(f.apiTokens)
	case purity.ResourceAlerts:
		return encodeAll(s.data.alerts)
	case purity.ResourceCertificates:
		return encodeAll(s.data.certificates)
	case purity.ResourceDNS:
		return encodeAll(s.data.dns)
	case purity.ResourceSMTPServers:
		return encodeAll(s.data.smtpServers)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownResource, resource)
	}
}

// SetBladeComponentStatus changes the status of a FlashBlade hardware
// component.
func (s *Server) SetBladeComponentStatus(name, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blade == nil {
		return ErrNotBlade
	}
	for i := range s.blade.hardware {
		hw := &s.blade.hardware[i]
		if hw.Name != nil && *hw.Name == name {
			hw.Status = status
			return nil
		}
	}
	return fmt.Errorf("no hardware component %q", name)
}

// SetSpace replaces the space reported for scope.
func (s *Server) SetSpace(scope string, space purity.BladeArraySpace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blade == nil {
		return ErrNotBlade
	}
	if _, ok := s.blade.space[scope]; !ok {
		return fmt.Errorf("unknown space type %q", scope)
	}
	s.blade.space[scope] = space
	return nil
}
