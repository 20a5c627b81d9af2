package constants

// Role permissions carried in JWT claims
const (
	// Admin permissions
	PermAdminFull = "agrirent.admin.full-permit"

	// Marketplace roles
	PermFarmerFull = "agrirent.farmer.full-permit"
	PermOwnerFull  = "agrirent.owner.full-permit"

	// Special permissions
	PermAny = "any"
)

// RolePermissions maps a registration role to its permission set
var RolePermissions = map[string][]string{
	"farmer": {PermFarmerFull},
	"owner":  {PermOwnerFull},
	"admin":  {PermAdminFull},
}
