package users

type Role string

const (
	RoleSubscriber    Role = "subscriber"
	RoleContributor   Role = "contributor"
	RoleAuthor        Role = "author"
	RoleEditor        Role = "editor"
	RoleAdministrator Role = "administrator"
)

type Capability string

const (
	CapUploadFiles Capability = "upload_files"
)

var roleRank = map[Role]int{
	RoleSubscriber:    1,
	RoleContributor:   2,
	RoleAuthor:        3,
	RoleEditor:        4,
	RoleAdministrator: 5,
}

// capabilityFloor is the lowest role granted each capability.
var capabilityFloor = map[Capability]Role{
	CapUploadFiles: RoleAuthor,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above other. Unknown roles rank
// below every known role.
func (r Role) AtLeast(other Role) bool {
	rank, ok := roleRank[r]
	return ok && rank >= roleRank[other]
}

// Can reports whether the role holds the capability. Unknown roles hold none.
func (r Role) Can(c Capability) bool {
	floor, ok := capabilityFloor[c]
	if !ok {
		return false
	}
	rank, ok := roleRank[r]
	return ok && rank >= roleRank[floor]
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at"`
}
