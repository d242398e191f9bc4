package provider

import "github.com/dojoware/collect/internal/org"

// Registry selects the charge strategy for a tenant's provider mode.
type Registry struct {
	manual      Manual
	gateway     Gateway
	marketplace Marketplace
}

func NewRegistry(manual Manual, gateway Gateway, marketplace Marketplace) Registry {
	return Registry{
		manual:      manual,
		gateway:     gateway,
		marketplace: marketplace,
	}
}

func (r Registry) ForOrg(o *org.Org) Strategy {
	switch o.ProviderMode {
	case org.ProviderModeGateway:
		return r.gateway
	case org.ProviderModeMarketplace:
		return r.marketplace
	default:
		return r.manual
	}
}
