package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ProviderResolver = (*ProviderDirectory)(nil)
	_ AuthorityCapsule = StaticAuthority{}
	_ AuthorityCapsule = AuthorityFunc(nil)
	_ ConfigProvider   = (*CfgxConfigProvider)(nil)
	_ RawConfigLoader  = StaticRawConfigLoader{}
	_ OptionsResolver  = GoOptionsResolver{}

	_ CapabilityContract = CapabilityContractFunc(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
