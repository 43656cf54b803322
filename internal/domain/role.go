package domain

// Capability names an operation guarded at the API boundary.
type Capability string

const (
	CapManageRoster  Capability = "roster:manage"
	CapViewRoster    Capability = "roster:view"
	CapManageCatalog Capability = "catalog:manage"
	CapViewCatalog   Capability = "catalog:view"
	CapManageAlloc   Capability = "allocation:manage"
	CapViewAlloc     Capability = "allocation:view"
	CapSubmitSample  Capability = "sample:submit"
	CapVerifySample  Capability = "sample:verify"
	CapViewSamples   Capability = "sample:view"
	CapViewProgress  Capability = "progress:view"
	CapExportReports Capability = "report:export"
)

// capabilities is the single source of truth for what each role may do.
var capabilities = map[Role][]Capability{
	RoleAdmin: {
		CapManageRoster, CapViewRoster,
		CapManageCatalog, CapViewCatalog,
		CapManageAlloc, CapViewAlloc,
		CapViewSamples, CapViewProgress, CapExportReports,
	},
	RoleSupervisor: {
		CapViewRoster, CapViewCatalog, CapViewAlloc,
		CapVerifySample, CapViewSamples, CapViewProgress, CapExportReports,
	},
	RoleOfficer: {
		CapViewCatalog, CapSubmitSample, CapViewSamples, CapViewProgress,
	},
	RoleViewer: {
		CapViewCatalog, CapViewAlloc, CapViewProgress,
	},
}

// Can reports whether role r is allowed to perform c.
func (r Role) Can(c Capability) bool {
	for _, allowed := range capabilities[r] {
		if allowed == c {
			return true
		}
	}
	return false
}

// Capabilities returns a copy of the operations allowed for r.
func (r Role) Capabilities() []Capability {
	out := make([]Capability, len(capabilities[r]))
	copy(out, capabilities[r])
	return out
}
