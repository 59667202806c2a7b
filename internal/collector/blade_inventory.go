package collector

import (
	"context"
	"time"

	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/nholik/flash-sentinel/internal/result"
)

func (c *BladeCollector) hardwareInventory(ctx context.Context) (*result.InventorySet, error) {
	items, err := c.src.Hardware.Query(ctx)
	if err != nil {
		return nil, err
	}

	manufacturer := "Pure Storage"
	var blades map[string]*int64
	set := result.NewInventorySet()
	for _, item := range items {
		if item.Name == nil {
			continue
		}
		name := *item.Name
		used := item.Status != purity.StatusUnused
		switch deref(item.Type) {
		case purity.BladeHardwareChassis:
			set.AddAttributes(result.ChassisAttributes(&manufacturer, item.Model, item.Serial))
		case purity.BladeHardwarePowerSupply:
			set.AddTableRow(result.PSURow(item.Slot, name, item.Model, item.Serial, nil))
		case purity.BladeHardwareFan:
			set.AddTableRow(result.FanRow(item.Slot, name, item.Model, item.Serial, item.Type))
		case purity.BladeHardwareMgmtPort:
			set.AddTableRow(result.ManagementPortRow(name, item.Model, item.Serial, item.Type))
		case purity.BladeHardwareEthPort:
			oper, admin := portStatus(item.Status)
			set.AddTableRow(result.NetworkInterfaceRow(result.Interface{
				Description: name,
				Alias:       name,
				PortType:    result.PortTypeEthernet,
				Speed:       item.Speed,
				AdminStatus: admin,
				OperStatus:  oper,
				Model:       item.Model,
				Serial:      item.Serial,
			}))
		case purity.BladeHardwareBlade:
			if !used {
				continue
			}
			if blades == nil {
				if blades, err = c.rawCapacities(ctx); err != nil {
					return nil, err
				}
			}
			set.AddTableRow(result.HardwareModuleRow(item.Slot, name, item.Model, item.Serial, item.Type, blades[name]))
		case purity.BladeHardwareFabricModule:
			if used {
				set.AddTableRow(result.DriveControllerRow(name, item.Model, item.Serial, item.Type))
			}
		default:
			if used {
				set.AddTableRow(result.OtherHardwareRow(name, item.Model, item.Serial, item.Type))
			}
		}
	}
	return set, nil
}

// rawCapacities maps blade names to their raw capacity.
func (c *BladeCollector) rawCapacities(ctx context.Context) (map[string]*int64, error) {
	blades, err := c.src.Blades.Query(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*int64, len(blades))
	for _, blade := range blades {
		if blade.Name != nil {
			out[*blade.Name] = blade.RawCapacity
		}
	}
	return out, nil
}

func (c *BladeCollector) interfaceInventory(ctx context.Context) (*result.InventorySet, error) {
	ifaces, err := c.src.Interfaces.Query(ctx)
	if err != nil {
		return nil, err
	}

	set := result.NewInventorySet()
	for _, iface := range ifaces {
		if iface.Name == nil {
			continue
		}
		name := *iface.Name
		enabled := deref(iface.Enabled)
		if enabled && iface.Address != nil {
			set.AddTableRow(result.NetworkAddressRow(*iface.Address, name, iface.Netmask))
		}

		admin := result.InterfaceDormant
		if enabled {
			admin = result.InterfaceUp
		}
		row := result.Interface{
			Description: name,
			Alias:       name,
			AdminStatus: &admin,
			VLANs:       []int{},
		}
		if iface.VLAN != nil {
			row.VLANs = append(row.VLANs, *iface.VLAN)
		}
		if deref(iface.Type) == purity.BladeInterfaceVIP {
			row.PortType = result.PortTypeVirtualIP
		}
		set.AddTableRow(result.NetworkInterfaceRow(row))

		if iface.Gateway != nil {
			device := name
			set.AddTableRow(result.NetworkRouteRow(result.DefaultRouteTarget(*iface.Gateway), *iface.Gateway, nil, &device))
		}
	}
	return set, nil
}

func (c *BladeCollector) arrayInventory(ctx context.Context) (*result.InventorySet, error) {
	arrays, err := c.src.Arrays.Query(ctx)
	if err != nil {
		return nil, err
	}
	set := result.NewInventorySet()
	if len(arrays) == 0 {
		return set, nil
	}
	array := arrays[0]
	return set.AddAttributes(result.BladeSoftwareAttributes(array.OS, array.Version, array.NTPServers)), nil
}

func (c *BladeCollector) supportInventory(ctx context.Context) (*result.InventorySet, error) {
	support, err := c.src.Support.Query(ctx)
	if err != nil {
		return nil, err
	}
	set := result.NewInventorySet()
	for _, s := range support {
		if s.Name == nil {
			continue
		}
		set.AddAttributes(result.SupportAttributes(s.Name, s.ID, s.PhonehomeEnabled, s.RemoteAssistActive))
	}
	return set, nil
}

func (c *BladeCollector) apiTokenInventory(ctx context.Context) (*result.InventorySet, error) {
	tokens, err := c.src.APITokens.Query(ctx)
	if err != nil {
		return nil, err
	}
	set := result.NewInventorySet()
	for _, token := range tokens {
		if token.Admin == nil || token.Admin.Name == nil {
			continue
		}
		var created, expires *time.Time
		if token.APIToken != nil {
			created = millis(token.APIToken.CreatedAt)
			expires = millis(token.APIToken.ExpiresAt)
		}
		set.AddTableRow(result.APITokenRow(*token.Admin.Name, created, expires))
	}
	return set, nil
}

func (c *BladeCollector) smtpInventory(ctx context.Context) (*result.InventorySet, error) {
	relays, err := c.src.SMTPServers.Query(ctx)
	if err != nil {
		return nil, err
	}
	set := result.NewInventorySet()
	for _, r := range relays {
		set.AddAttributes(result.SMTPAttributes(r.Name, r.RelayHost, r.SenderDomain))
	}
	return set, nil
}

func (c *BladeCollector) dnsInventory(ctx context.Context) (*result.InventorySet, error) {
	entries, err := c.src.DNS.Query(ctx)
	if err != nil {
		return nil, err
	}
	set := result.NewInventorySet()
	for _, dns := range entries {
		if dns.Name == nil {
			continue
		}
		set.AddAttributes(result.DNSAttributes(*dns.Name, dns.Domain, dns.Nameservers))
	}
	return set, nil
}
