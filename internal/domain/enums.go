package domain

type Role string

const (
	RolePMO        Role = "PMO"
	RolePM         Role = "PM"
	RoleTeamMember Role = "TEAM_MEMBER"
	RoleClient     Role = "CLIENT"
)

// ValidRoles is the canonical set of accepted role strings.
var ValidRoles = map[string]bool{
	"PMO": true, "PM": true, "TEAM_MEMBER": true, "CLIENT": true,
}

// CanVerify reports whether the role may verify completed work or send
// verified work back for rework.
func (r Role) CanVerify() bool {
	return r == RolePM || r == RolePMO
}

type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusCompleted  Status = "COMPLETED"
	StatusVerified   Status = "VERIFIED"
)

// ValidStatuses is the canonical set of accepted item status strings.
var ValidStatuses = map[string]bool{
	"NOT_STARTED": true, "IN_PROGRESS": true, "ON_HOLD": true,
	"COMPLETED": true, "VERIFIED": true,
}

type TrackingStatus string

const (
	TrackingOnTrack  TrackingStatus = "ON_TRACK"
	TrackingAtRisk   TrackingStatus = "AT_RISK"
	TrackingOffTrack TrackingStatus = "OFF_TRACK"
)

// ItemType distinguishes the two schedulable item kinds. Dependency edges and
// date constraints are scoped to a single kind; cross-kind edges are not
// representable.
type ItemType string

const (
	ItemActivity ItemType = "activity"
	ItemTask     ItemType = "task"
)

type DependencyType string

const (
	DepFinishToStart  DependencyType = "FS"
	DepStartToStart   DependencyType = "SS"
	DepFinishToFinish DependencyType = "FF"
	DepStartToFinish  DependencyType = "SF"
)

// ValidDependencyTypes is the canonical set of accepted dependency type strings.
var ValidDependencyTypes = map[string]bool{
	"FS": true, "SS": true, "FF": true, "SF": true,
}

// LagKind records the unit of a dependency lag. Only calendar days are
// supported today; the field exists so working-day lag can be added without
// reinterpreting stored rows.
type LagKind string

const (
	LagCalendarDays LagKind = "calendar_days"
)

type ConstraintType string

const (
	ConstraintASAP           ConstraintType = "ASAP"
	ConstraintALAP           ConstraintType = "ALAP"
	ConstraintMustStartOn    ConstraintType = "MUST_START_ON"
	ConstraintMustFinishOn   ConstraintType = "MUST_FINISH_ON"
	ConstraintStartNoEarlier ConstraintType = "START_NO_EARLIER"
	ConstraintStartNoLater   ConstraintType = "START_NO_LATER"
	ConstraintFinishNoEarlier ConstraintType = "FINISH_NO_EARLIER"
	ConstraintFinishNoLater   ConstraintType = "FINISH_NO_LATER"
)

// ValidConstraintTypes is the canonical set of accepted constraint type strings.
var ValidConstraintTypes = map[string]bool{
	"ASAP": true, "ALAP": true,
	"MUST_START_ON": true, "MUST_FINISH_ON": true,
	"START_NO_EARLIER": true, "START_NO_LATER": true,
	"FINISH_NO_EARLIER": true, "FINISH_NO_LATER": true,
}

// RequiresDate reports whether the constraint kind carries a constraint date.
// ASAP and ALAP are soft scheduling hints and have none.
func (c ConstraintType) RequiresDate() bool {
	return c != ConstraintASAP && c != ConstraintALAP
}
