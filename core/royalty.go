package core

// royalty.go – per-package and per-component royalty accumulation on method
// entry (spec §4.3 Royalty, §C.3 two-vault split). Grounded on
// original_source/radix-engine/src/system/system_modules/costing/royalty_costing_module.rs,
// which keeps the package-author royalty and the component-owner royalty in
// two separate vaults rather than one pooled total —
// spec.md's prose collapses this into one sentence but the original's
// two-vault behavior is preserved here as the supplemented detail recorded
// in SPEC_FULL.md §C.3.

// RoyaltyConfig maps a (blueprint, fn) or (method) pair to a flat royalty
// charge, declared by a package or component respectively (spec §4.3
// "look up the package's royalty config for (blueprint, fn) and the
// component's royalty config for (method)").
type RoyaltyConfig map[string]uint64

// RoyaltyModule accumulates charges into the package-author vault and the
// component-owner vault separately, crediting both on method entry (spec
// §C.3). It is a field of the session, never a package-level singleton.
type RoyaltyModule struct {
	packageConfigs   map[NodeId]RoyaltyConfig
	componentConfigs map[NodeId]RoyaltyConfig

	packageVault   map[NodeId]uint64 // package NodeId -> accrued author royalty
	componentVault map[NodeId]uint64 // component NodeId -> accrued owner royalty
}

// NewRoyaltyModule constructs an empty royalty module.
func NewRoyaltyModule() *RoyaltyModule {
	return &RoyaltyModule{
		packageConfigs:   make(map[NodeId]RoyaltyConfig),
		componentConfigs: make(map[NodeId]RoyaltyConfig),
		packageVault:     make(map[NodeId]uint64),
		componentVault:   make(map[NodeId]uint64),
	}
}

// DeclarePackageRoyalty registers a package's (blueprint, fn) -> amount
// table, read from the package's info substate at deployment.
func (r *RoyaltyModule) DeclarePackageRoyalty(pkg NodeId, cfg RoyaltyConfig) {
	r.packageConfigs[pkg] = cfg
}

// DeclareComponentRoyalty registers a component's (method) -> amount table.
func (r *RoyaltyModule) DeclareComponentRoyalty(component NodeId, cfg RoyaltyConfig) {
	r.componentConfigs[component] = cfg
}

// ChargeOnMethodEntry looks up and accrues royalty for one method invocation
// (spec §4.3 "on method entry... charge them, and credit the respective
// royalty vaults"). Returns the (package, component) amounts charged; the
// receipt's fee summary takes the running total from TotalAccrued instead
// (see txproc.go Finalize).
func (r *RoyaltyModule) ChargeOnMethodEntry(pkg NodeId, blueprint, fn string, component NodeId, method string) (packageAmount, componentAmount uint64) {
	if cfg, ok := r.packageConfigs[pkg]; ok {
		if amt, ok := cfg[blueprint+"::"+fn]; ok {
			packageAmount = amt
			r.packageVault[pkg] += amt
		}
	}
	if cfg, ok := r.componentConfigs[component]; ok {
		if amt, ok := cfg[method]; ok {
			componentAmount = amt
			r.componentVault[component] += amt
		}
	}
	return packageAmount, componentAmount
}

// PackageVaultBalance reports the accrued author royalty for a package.
func (r *RoyaltyModule) PackageVaultBalance(pkg NodeId) uint64 { return r.packageVault[pkg] }

// ComponentVaultBalance reports the accrued owner royalty for a component.
func (r *RoyaltyModule) ComponentVaultBalance(component NodeId) uint64 {
	return r.componentVault[component]
}

// TotalAccrued sums every package and component vault, used for the
// receipt's fee summary royalty total.
func (r *RoyaltyModule) TotalAccrued() uint64 {
	var total uint64
	for _, v := range r.packageVault {
		total += v
	}
	for _, v := range r.componentVault {
		total += v
	}
	return total
}
