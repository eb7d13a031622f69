package domain

// AppRole mirrors the application's tenant role enum; values are persisted as
// integers inside the membership roles JSON array.
type AppRole int

const (
	RoleEmployee AppRole = iota
	RoleViewOnly
	RoleTeamLead
	RoleProjectManager
	RoleResourceManager
	RoleOfficeManager
	RoleTenantAdmin
	RoleExecutive
	RoleOverrideApprover
)

var (
	EmployeeRoles = []AppRole{RoleEmployee}
	AdminRoles    = []AppRole{
		RoleEmployee,
		RoleTenantAdmin,
		RoleResourceManager,
		RoleOfficeManager,
		RoleProjectManager,
		RoleExecutive,
		RoleOverrideApprover,
	}
)

type TenantStatus int

const TenantActive TenantStatus = 0

type UserType int

const UserTypeEmployee UserType = 0

type UserStatus int

const (
	UserActive   UserStatus = 0
	UserInactive UserStatus = 1
)

type ProjectStatus int

const ProjectActive ProjectStatus = 1

type WBSType int

const WBSBillable WBSType = 0

type WBSStatus int

const WBSActive WBSStatus = 1

type WBSApprovalStatus int

const WBSApproved WBSApprovalStatus = 2

type AssignmentStatus int

const AssignmentActive AssignmentStatus = 3

const DefaultAllocationPct = 100
