package shared

// Role enumerates account roles.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleGuru      Role = "GURU"
	RoleBendahara Role = "BENDAHARA"
	RoleSiswa     Role = "SISWA"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleGuru, RoleBendahara, RoleSiswa:
		return true
	}
	return false
}
