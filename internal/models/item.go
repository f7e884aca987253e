package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Stage is the coarse physical location of an item in the pipeline.
// It is the single source of truth for where an item is; status and
// assigned department only refine it.
type Stage string

const (
	StageSales      Stage = "sales"
	StageDesign     Stage = "design"
	StagePrepress   Stage = "prepress"
	StageProduction Stage = "production"
	StageOutsource  Stage = "outsource"
	StageDispatch   Stage = "dispatch"
	StageCompleted  Stage = "completed"
)

// ValidStage reports whether s is one of the known pipeline stages
func ValidStage(s Stage) bool {
	switch s {
	case StageSales, StageDesign, StagePrepress, StageProduction,
		StageOutsource, StageDispatch, StageCompleted:
		return true
	}
	return false
}

// Status expresses why an item is where it is, orthogonal to Stage
type Status string

const (
	StatusNewOrder        Status = "new_order"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusPendingApproval Status = "pending_for_customer_approval"
	StatusInProduction    Status = "in_production"
	StatusOutsourced      Status = "outsourced"
	StatusCompleted       Status = "completed"
)

// SubstageStatus tracks progress of the active production substage
type SubstageStatus string

const (
	SubstageNotStarted SubstageStatus = "not_started"
	SubstageInProgress SubstageStatus = "in_progress"
	SubstageCompleted  SubstageStatus = "completed"
)

// Specification keys for department briefs
const (
	SpecDesignBrief      = "design_brief"
	SpecPrepressBrief    = "prepress_brief"
	SpecProductionBrief  = "production_brief"
	SpecOriginalRequirem = "original_requirement"
)

// StringList is a JSON-encoded list of strings stored in a single column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// IndexOf returns the position of key in the list, or -1
func (l StringList) IndexOf(key string) int {
	for i, k := range l {
		if k == key {
			return i
		}
	}
	return -1
}

// SpecMap is a JSON-encoded keyed text blob stored in a single column
type SpecMap map[string]string

// Value implements driver.Valuer
func (m SpecMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *SpecMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into SpecMap", src)
	}
}

// OrderItem is one product line within an order
type OrderItem struct {
	ID                 string         `db:"id" json:"id"`
	OrderID            string         `db:"order_id" json:"order_id"`
	Name               string         `db:"name" json:"name"`
	CurrentStage       Stage          `db:"current_stage" json:"current_stage"`
	Status             Status         `db:"status" json:"status"`
	AssignedDepartment string         `db:"assigned_department" json:"assigned_department,omitempty"`
	AssignedTo         string         `db:"assigned_to" json:"assigned_to,omitempty"`
	AssignedToName     string         `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	PreviousDepartment string         `db:"previous_department" json:"previous_department,omitempty"`
	PreviousAssignedTo string         `db:"previous_assigned_to" json:"previous_assigned_to,omitempty"`
	CurrentSubstage    string         `db:"current_substage" json:"current_substage,omitempty"`
	SubstageStatus     SubstageStatus `db:"substage_status" json:"substage_status,omitempty"`
	SubstageStartedAt  *time.Time     `db:"substage_started_at" json:"substage_started_at,omitempty"`
	StageSequence      StringList     `db:"stage_sequence" json:"production_stage_sequence"`
	NeedDesign         bool           `db:"need_design" json:"need_design"`
	DesignOnly         bool           `db:"design_only" json:"design_only"`
	DeliveryDate       *time.Time     `db:"delivery_date" json:"delivery_date,omitempty"`
	OutsourceVendor    string         `db:"outsource_vendor" json:"outsource_vendor,omitempty"`
	OutsourceDetails   string         `db:"outsource_details" json:"outsource_details,omitempty"`
	Specifications     SpecMap        `db:"specifications" json:"specifications"`
	LastWorkflowNote   string         `db:"last_workflow_note" json:"last_workflow_note,omitempty"`
	Version            int64          `db:"version" json:"version"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`

	// Derived on read, never authoritative
	PriorityComputed Priority `db:"-" json:"priority_computed,omitempty"`
}

// NewOrderItem creates a new item in the sales stage
func NewOrderItem(orderID, name string, needDesign, designOnly bool, deliveryDate *time.Time) *OrderItem {
	now := GetCurrentTime()

	return &OrderItem{
		ID:             GenerateID("itm"),
		OrderID:        orderID,
		Name:           name,
		CurrentStage:   StageSales,
		Status:         StatusNewOrder,
		NeedDesign:     needDesign,
		DesignOnly:     designOnly,
		DeliveryDate:   deliveryDate,
		StageSequence:  StringList{},
		Specifications: SpecMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// EffectiveDepartment is the department implied by the item's current
// stage. When it disagrees with the assigned department override, the
// stage wins; this is the department whose action set applies.
func (i *OrderItem) EffectiveDepartment() Stage {
	switch i.CurrentStage {
	case StageSales, StageDesign, StagePrepress, StageProduction:
		return i.CurrentStage
	case StageOutsource:
		// Outsourced jobs remain the prepress department's responsibility
		return StagePrepress
	default:
		// dispatch and completed items take no department actions
		return ""
	}
}

// HasActiveSubstage reports whether the item is in production with a
// substage cursor set
func (i *OrderItem) HasActiveSubstage() bool {
	return i.CurrentStage == StageProduction && i.CurrentSubstage != ""
}

// RecomputePriority refreshes the cached priority tier from the
// item's delivery date
func (i *OrderItem) RecomputePriority(now time.Time) {
	i.PriorityComputed = ComputePriority(i.DeliveryDate, now)
}
