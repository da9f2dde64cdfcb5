package domain

// Filiale is a legal entity of the group. One of them acts as the internal
// software provider.
type Filiale struct {
	ID                 string
	Name               string
	IsSoftwareProvider bool
}

// Department represents an organizational unit within a filiale.
type Department struct {
	ID             string
	Name           string
	IsITDepartment bool
	Filiale        Filiale
}

// IsResolverDepartment reports whether members of this department may
// estimate tickets and submit them for validation.
func (d *Department) IsResolverDepartment() bool {
	return d != nil && d.IsITDepartment && d.Filiale.IsSoftwareProvider
}

// Member is a user listed in the directory.
type Member struct {
	UserID       string
	Name         string
	DepartmentID string
}
