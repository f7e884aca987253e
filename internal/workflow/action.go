package workflow

import (
	"github.com/printcraft/order-workflow-api/internal/models"
)

// Role is the department role an actor holds. Admin satisfies every
// role gate.
type Role string

const (
	RoleSales      Role = "sales"
	RoleDesign     Role = "design"
	RolePrepress   Role = "prepress"
	RoleProduction Role = "production"
	RoleAdmin      Role = "admin"
)

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	switch r {
	case RoleSales, RoleDesign, RolePrepress, RoleProduction, RoleAdmin:
		return true
	}
	return false
}

// RoleForDepartment maps a department stage to the role that works it
func RoleForDepartment(dept models.Stage) Role {
	switch dept {
	case models.StageSales:
		return RoleSales
	case models.StageDesign:
		return RoleDesign
	case models.StagePrepress:
		return RolePrepress
	case models.StageProduction:
		return RoleProduction
	}
	return ""
}

// Actor identifies who is performing a workflow action
type Actor struct {
	ID   string
	Name string
	Role Role
}

// ActionID identifies one workflow action
type ActionID string

const (
	ActionAssignDesign          ActionID = "assign_design"
	ActionMarkDesignNotRequired ActionID = "mark_design_not_required"
	ActionApprove               ActionID = "approve"
	ActionRequestRevision       ActionID = "request_revision"
	ActionUploadDesign          ActionID = "upload_design"
	ActionSendForApproval       ActionID = "send_for_approval"
	ActionSubmitRevision        ActionID = "submit_revision"
	ActionAssignPrepress        ActionID = "assign_prepress"
	ActionSendToProduction      ActionID = "send_to_production"
	ActionMarkComplete          ActionID = "mark_complete"
	ActionSendForRevision       ActionID = "send_for_revision"
	ActionAssignOutsource       ActionID = "assign_outsource"
	ActionStartSubstage         ActionID = "start_substage"
	ActionCompleteSubstage      ActionID = "complete_substage"
	ActionMarkCompleted         ActionID = "mark_completed"
	ActionUpdateBrief           ActionID = "update_brief"
	ActionAdminOverride         ActionID = "admin_override"
)

// Action is one legal workflow action for an item state. Public
// actions produce timeline entries visible on the customer-facing
// tracking surface.
type Action struct {
	ID     ActionID `json:"id"`
	Label  string   `json:"label"`
	Role   Role     `json:"role"`
	Public bool     `json:"public"`
}

type actionSpec struct {
	label  string
	public bool
}

// Stage moves are public-safe; uploads, briefs, vendor details and
// admin corrections stay internal.
var actionSpecs = map[ActionID]actionSpec{
	ActionAssignDesign:          {label: "Assign to Design", public: true},
	ActionMarkDesignNotRequired: {label: "Design Not Required", public: true},
	ActionApprove:               {label: "Customer Approved", public: true},
	ActionRequestRevision:       {label: "Request Revision", public: true},
	ActionUploadDesign:          {label: "Upload Design", public: false},
	ActionSendForApproval:       {label: "Send for Customer Approval", public: true},
	ActionSubmitRevision:        {label: "Submit Revision", public: true},
	ActionAssignPrepress:        {label: "Assign to Prepress", public: true},
	ActionSendToProduction:      {label: "Send to Production", public: true},
	ActionMarkComplete:          {label: "Mark Complete", public: true},
	ActionSendForRevision:       {label: "Send Back for Revision", public: true},
	ActionAssignOutsource:       {label: "Assign to Outsource Vendor", public: false},
	ActionStartSubstage:         {label: "Start Production Step", public: true},
	ActionCompleteSubstage:      {label: "Complete Production Step", public: true},
	ActionMarkCompleted:         {label: "Mark Production Completed", public: true},
	ActionUpdateBrief:           {label: "Update Department Brief", public: false},
	ActionAdminOverride:         {label: "Admin Override", public: false},
}

// Label returns the human-readable label for an action id
func (id ActionID) Label() string {
	if spec, ok := actionSpecs[id]; ok {
		return spec.label
	}
	return string(id)
}

// IsPublic reports whether the action's timeline entry is customer-visible
func (id ActionID) IsPublic() bool {
	if spec, ok := actionSpecs[id]; ok {
		return spec.public
	}
	return false
}

// Payload carries action-specific data supplied by the caller
type Payload struct {
	AssignTo        string             `json:"assign_to,omitempty"`
	AssignToName    string             `json:"assign_to_name,omitempty"`
	Sequence        []string           `json:"sequence,omitempty"`
	Vendor          string             `json:"vendor,omitempty"`
	JobDetails      string             `json:"job_details,omitempty"`
	MoveToOutsource bool               `json:"move_to_outsource,omitempty"`
	BriefKey        string             `json:"brief_key,omitempty"`
	Brief           string             `json:"brief,omitempty"`
	Material        string             `json:"material,omitempty"`
	MaterialQty     int                `json:"material_qty,omitempty"`
	Override        *OverridePatch     `json:"override,omitempty"`
}
