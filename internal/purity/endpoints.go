package purity

// Collection resources under /api/<version>/.
const (
	ResourceHardware         = "hardware"
	ResourceDrives           = "drives"
	ResourceControllers      = "controllers"
	ResourceArrays           = "arrays"
	ResourceAlerts           = "alerts"
	ResourceCertificates     = "certificates"
	ResourceAdminSettings    = "admins/settings"
	ResourceAPITokens        = "admins/api-tokens"
	ResourceSMTPServers      = "smtp-servers"
	ResourceDNS              = "dns"
	ResourceArrayConnections = "array-connections"
	ResourceInterfaces       = "network-interfaces"
	ResourcePortDetails      = "network-interfaces/port-details"
	ResourceHosts            = "hosts"
	ResourceVolumes          = "volumes"
	ResourceSupport          = "support"
	ResourceBlades           = "blades"
	ResourceArraysSpace      = "arrays/space"
)

// Resources lists every resource the FlashArray collector reads.
var Resources = []string{
	ResourceHardware,
	ResourceDrives,
	ResourceControllers,
	ResourceArrays,
	ResourceAlerts,
	ResourceCertificates,
	ResourceAdminSettings,
	ResourceAPITokens,
	ResourceSMTPServers,
	ResourceDNS,
	ResourceArrayConnections,
	ResourceInterfaces,
	ResourcePortDetails,
	ResourceHosts,
	ResourceVolumes,
	ResourceSupport,
}

// BladeResources lists every resource the FlashBlade collector reads.
var BladeResources = []string{
	ResourceHardware,
	ResourceBlades,
	ResourceInterfaces,
	ResourceCertificates,
	ResourceArrays,
	ResourceArraysSpace,
	ResourceAlerts,
	ResourceSupport,
	ResourceDNS,
	ResourceSMTPServers,
	ResourceAPITokens,
}
