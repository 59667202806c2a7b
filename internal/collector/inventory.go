package collector

import (
	"context"
	"strings"
	"time"

	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/result"
)

func installed(status string) bool {
	return status != purity.StatusUnused && status != purity.StatusNotInstalled
}

// portStatus derives interface oper/admin status from a port's hardware
// status. Oper status is nil for ports that are not installed.
func portStatus(status string) (oper, admin *result.InterfaceStatus) {
	if !installed(status) {
		dormant := result.InterfaceDormant
		return nil, &dormant
	}
	up := result.InterfaceUp
	var o result.InterfaceStatus
	switch status {
	case "healthy", "ok":
		o = result.InterfaceUp
	case "unhealthy", "critical":
		o = result.InterfaceDown
	default:
		o = result.InterfaceUnknown
	}
	return &o, &up
}

func (c *Collector) hardwareInventory(ctx context.Context) (*result.InventorySet, error) {
	items, err := c.src.Hardware.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewInventorySet()
	for _, item := range items {
		if item.Name == nil {
			continue
		}
		name := *item.Name
		switch deref(item.Type) {
		case purity.HardwareController:
			if item.Status != purity.StatusUnused {
				set.AddTableRow(result.DriveControllerRow(name, item.Model, item.Serial, item.Type))
			}
		case purity.HardwareTempSensor:
			set.AddTableRow(result.SensorRow(item.Index, name, item.Type, item.Temperature))
		case purity.HardwareCooling:
			set.AddTableRow(result.FanRow(item.Index, name, nil, nil, item.Type))
		case purity.HardwareDriveBay:
			serial := item.Serial
			if item.Status == purity.StatusNotInstalled {
				serial = nil
			}
			set.AddTableRow(result.BackplaneRow(item.Index, name, nil, serial, item.Type))
		case purity.HardwareNVRAMBay:
			set.AddTableRow(result.BackplaneRow(item.Index, name, nil, nil, item.Type))
		case purity.HardwareChassis:
			set.AddTableRow(result.ChassisRow(name, nil, item.Model, item.Serial, nil))
		case purity.HardwareDCA:
			set.AddTableRow(result.OtherHardwareRow(name, nil, nil, nil))
		case purity.HardwareEthPort:
			// network_interfaces covers Ethernet ports.
		case purity.HardwareFCPort:
			oper, admin := portStatus(item.Status)
			set.AddTableRow(result.NetworkInterfaceRow(result.Interface{
				Description: name,
				Alias:       name,
				PortType:    result.PortTypeFibreChannel,
				Speed:       item.Speed,
				AdminStatus: admin,
				OperStatus:  oper,
			}))
		case purity.HardwarePowerSupply:
			set.AddTableRow(result.PSURow(item.Index, name, item.Model, item.Serial, item.Voltage))
		default:
			if installed(item.Status) {
				set.AddTableRow(result.OtherHardwareRow(name, item.Model, item.Serial, item.Type))
			}
		}
	}
	return set, nil
}

func (c *Collector) softwareInventory(ctx context.Context) (*result.InventorySet, error) {
	settings, err := c.src.AdminSettings.Query(ctx)
	if err != nil {
		return nil, err
	}
	arrays, err := c.src.Arrays.Query(ctx)
	if err != nil {
		return nil, err
	}
	relays, err := c.src.SMTPServers.Query(ctx)
	if err != nil {
		return nil, err
	}

	sw := result.Software{NTPServers: []string{}, SMTPRelayHosts: []string{}}
	for _, s := range settings {
		if s.SingleSignOnEnabled != nil {
			sw.SingleSignOn = *s.SingleSignOnEnabled
		}
		if s.MinPasswordLength != nil {
			sw.MinPasswordLength = s.MinPasswordLength
		}
		if s.MaxLoginAttempts != nil {
			sw.MaxLoginAttempts = s.MaxLoginAttempts
		}
		if s.LockoutDuration != nil {
			sw.LockoutDuration = s.LockoutDuration
		}
	}
	for _, a := range arrays {
		if a.OS != nil {
			sw.OS = a.OS
		}
		if a.Version != nil {
			sw.Version = a.Version
		}
		if a.NTPServers != nil {
			sw.NTPServers = a.NTPServers
		}
	}
	for _, r := range relays {
		if r.RelayHost != nil {
			sw.SMTPRelayHosts = append(sw.SMTPRelayHosts, *r.RelayHost)
		}
	}

	return result.NewInventorySet().AddAttributes(result.SoftwareAttributes(sw)), nil
}

func (c *Collector) dnsInventory(ctx context.Context) (*result.InventorySet, error) {
	entries, err := c.src.DNS.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewInventorySet()
	for _, dns := range entries {
		set.AddTableRow(result.DNSRow(deref(dns.Name), dns.Domain, dns.Nameservers, dns.Services))
	}
	return set, nil
}

func millis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}

func (c *Collector) apiTokenInventory(ctx context.Context) (*result.InventorySet, error) {
	tokens, err := c.src.APITokens.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewInventorySet()
	for _, token := range tokens {
		if token.Name == nil {
			continue
		}
		var created, expires *time.Time
		if token.APIToken != nil {
			created = millis(token.APIToken.CreatedAt)
			expires = millis(token.APIToken.ExpiresAt)
		}
		set.AddTableRow(result.APITokenRow(*token.Name, created, expires))
	}
	return set, nil
}

func (c *Collector) networkInterfaceInventory(ctx context.Context) (*result.InventorySet, error) {
	ifaces, err := c.src.Interfaces.Query(ctx)
	if err != nil {
		return nil, err
	}
	hardware, err := c.src.Hardware.Query(ctx)
	if err != nil {
		return nil, err
	}

	ports := make(map[string]purity.Hardware)
	for _, item := range hardware {
		kind := deref(item.Type)
		if item.Name == nil || (kind != purity.HardwareEthPort && kind != purity.HardwareFCPort) {
			continue
		}
		ports[strings.ToLower(*item.Name)] = item
	}

	set := result.NewInventorySet()
	for _, iface := range ifaces {
		if iface.Name == nil {
			continue
		}
		name := *iface.Name
		eth := iface.Eth
		if eth == nil {
			eth = &purity.EthSettings{}
		}

		row := result.Interface{
			Description: name,
			Alias:       name,
			PortType:    result.PortTypeFibreChannel,
			MAC:         eth.MACAddress,
			VLANs:       []int{},
		}
		if deref(iface.InterfaceType) == purity.InterfaceTypeEth {
			row.PortType = result.PortTypeEthernet
			if deref(eth.Subtype) == purity.EthSubtypeVirtual {
				row.PortType = result.PortTypeVirtual
			}
		}
		if eth.VLAN != nil {
			row.VLANs = append(row.VLANs, *eth.VLAN)
		}
		if hw, ok := ports[strings.ToLower(name)]; ok {
			row.Speed = hw.Speed
			row.OperStatus, row.AdminStatus = portStatus(hw.Status)
		}
		set.AddTableRow(result.NetworkInterfaceRow(row))

		if eth.Address != nil {
			set.AddTableRow(result.NetworkAddressRow(*eth.Address, name, eth.Netmask))
		}
		if eth.Gateway != nil {
			device := name
			set.AddTableRow(result.NetworkRouteRow(result.DefaultRouteTarget(*eth.Gateway), *eth.Gateway, nil, &device))
		}
	}
	return set, nil
}

func (c *Collector) hostInventory(ctx context.Context) (*result.InventorySet, error) {
	hosts, err := c.src.Hosts.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewInventorySet()
	for _, host := range hosts {
		if host.Name == nil {
			continue
		}
		iqns := host.IQNs
		if iqns == nil {
			iqns = []string{}
		}
		set.AddTableRow(result.HostRow(*host.Name, host.ConnectionCount, iqns))
	}
	return set, nil
}

func (c *Collector) volumeInventory(ctx context.Context) (*result.InventorySet, error) {
	volumes, err := c.src.Volumes.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewInventorySet()
	for _, vol := range volumes {
		if vol.Name == nil {
			continue
		}
		set.AddTableRow(result.VolumeRow(*vol.Name, vol.ID, vol.ConnectionCount))
	}
	return set, nil
}

func (c *Collector) supportInventory(ctx context.Context) (*result.InventorySet, error) {
	support, err := c.src.Support.Query(ctx)
	if err != nil {
		return nil, err
	}
	set := result.NewInventorySet()
	if len(support) == 0 {
		return set, nil
	}
	arrays, err := c.src.Arrays.Query(ctx)
	if err != nil {
		return nil, err
	}

	var name, id *string
	if len(arrays) > 0 {
		name, id = arrays[0].Name, arrays[0].ID
	}
	for _, s := range support {
		set.AddAttributes(result.SupportAttributes(name, id, s.PhonehomeEnabled, s.RemoteAssistActive))
	}
	return set, nil
}

func (c *Collector) nicInventory(ctx context.Context) (*result.InventorySet, error) {
	ifaces, err := c.src.Interfaces.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewInventorySet()
	for _, iface := range ifaces {
		if iface.Name == nil {
			continue
		}
		nic := result.NIC{
			Name:          *iface.Name,
			InterfaceType: iface.InterfaceType,
			Speed:         iface.Speed,
			Services:      iface.Services,
			Enabled:       iface.Enabled,
		}
		switch deref(iface.InterfaceType) {
		case purity.InterfaceTypeEth:
			if eth := iface.Eth; eth != nil {
				nic.Address = eth.Address
				nic.Netmask = eth.Netmask
				nic.Gateway = eth.Gateway
				nic.MACAddress = eth.MACAddress
				nic.Subtype = eth.Subtype
				nic.VLAN = eth.VLAN
				nic.MTU = eth.MTU
				for _, sub := range eth.Subinterfaces {
					if sub.Name != nil {
						nic.Subinterfaces = append(nic.Subinterfaces, *sub.Name)
					}
				}
				if eth.Subnet != nil {
					nic.Subnet = eth.Subnet.Name
				}
			}
		case purity.InterfaceTypeFC:
			if iface.FC != nil {
				nic.WWN = iface.FC.WWN
			}
		}
		set.AddTableRow(result.NICRow(nic))
	}
	return set, nil
}

func (c *Collector) arrayConnectionInventory(ctx context.Context) (*result.InventorySet, error) {
	conns, err := c.src.ArrayConnections.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewInventorySet()
	for _, conn := range conns {
		if conn.Name == nil {
			continue
		}
		set.AddTableRow(result.ArrayConnectionRow(*conn.Name, conn.ManagementAddress, conn.Type))
	}
	return set, nil
}
