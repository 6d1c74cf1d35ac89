package domain

// Capability is a named permission checked against a principal's role.
type Capability string

const (
	CapManageUsers          Capability = "manage_users"
	CapManageMedicalRecords Capability = "manage_medical_records"
	CapDeleteRecords        Capability = "delete_records"
	CapViewAll              Capability = "view_all"
	CapCreateBasic          Capability = "create_basic"
)

// capabilityRoles maps each capability to the roles allowed to exercise it.
// Roles outside the closed set resolve to no permissions at all.
var capabilityRoles = map[Capability][]Role{
	CapManageUsers:          {RoleAdmin},
	CapManageMedicalRecords: {RoleAdmin, RoleVet},
	CapDeleteRecords:        {RoleAdmin, RoleVet},
	CapViewAll:              {RoleAdmin, RoleVet, RoleAssistant},
	CapCreateBasic:          {RoleAdmin, RoleVet, RoleAssistant},
}

// Can reports whether the role holds the given capability. It is a total,
// side-effect-free function over the closed role enumeration.
func (r Role) Can(cap Capability) bool {
	if !r.Valid() {
		return false
	}
	for _, allowed := range capabilityRoles[cap] {
		if allowed == r {
			return true
		}
	}
	return false
}
