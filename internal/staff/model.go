package staff

import (
	"strings"

	"github.com/sigmatax/console/internal/util"
)

// Roles a staff member can hold.
const (
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
	RoleKeuangan = "KEUANGAN"
)

// Roles is the closed set, in form order.
var Roles = []string{RoleStaff, RoleAdmin, RoleKeuangan}

// ValidRole reports membership in Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Staff is a firm employee. The password is never part of it.
type Staff struct {
	ID    util.ID `json:"staff_id,omitempty"`
	Name  string  `json:"nama"`
	Email string  `json:"email"`
	Role  string  `json:"role"`
}

// NewStaff is the create payload.
type NewStaff struct {
	Staff
	Password string `json:"password"`
}

// Validate checks the profile fields.
func (s Staff) Validate() util.FieldErrors {
	errs := util.FieldErrors{}
	errs.Check("nama", util.RequireString(s.Name, "name"))
	errs.Check("email", util.ValidateEmail(s.Email))
	if !ValidRole(s.Role) {
		errs.Add("role", "role must be one of "+strings.Join(Roles, ", "))
	}
	return errs
}

// Validate checks profile fields and the initial password.
func (n NewStaff) Validate() util.FieldErrors {
	errs := n.Staff.Validate()
	errs.Check("password", util.ValidatePassword(n.Password))
	return errs
}
