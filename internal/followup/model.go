// Package followup implements pastoral follow-up tracking: the record model,
// lifecycle rules, filtered queries and dashboard statistics.
package followup

import "time"

// Reason is why a member needs to be followed up with.
type Reason string

const (
	ReasonNewVisitor    Reason = "NEW_VISITOR"
	ReasonNewConvert    Reason = "NEW_CONVERT"
	ReasonAbsent        Reason = "ABSENT"
	ReasonSick          Reason = "SICK"
	ReasonPrayerRequest Reason = "PRAYER_REQUEST"
	ReasonCounseling    Reason = "COUNSELING"
	ReasonMembership    Reason = "MEMBERSHIP"
	ReasonBaptism       Reason = "BAPTISM"
	ReasonOther         Reason = "OTHER"
)

// AllReasons lists every reason in declaration order.
var AllReasons = []Reason{
	ReasonNewVisitor, ReasonNewConvert, ReasonAbsent, ReasonSick, ReasonPrayerRequest,
	ReasonCounseling, ReasonMembership, ReasonBaptism, ReasonOther,
}

var reasonLabels = map[Reason]string{
	ReasonNewVisitor:    "New Visitor",
	ReasonNewConvert:    "New Convert",
	ReasonAbsent:        "Absent",
	ReasonSick:          "Sick",
	ReasonPrayerRequest: "Prayer Request",
	ReasonCounseling:    "Counseling",
	ReasonMembership:    "Membership",
	ReasonBaptism:       "Baptism",
	ReasonOther:         "Other",
}

// IsValid checks if a reason is recognized.
func (r Reason) IsValid() bool {
	_, ok := reasonLabels[r]
	return ok
}

// Label returns a human-readable label for the reason.
func (r Reason) Label() string {
	return label(reasonLabels, r)
}

// Priority orders how urgently a follow-up should be handled.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// AllPriorities lists every priority in declaration order.
var AllPriorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

var priorityLabels = map[Priority]string{
	PriorityLow:    "Low",
	PriorityNormal: "Normal",
	PriorityHigh:   "High",
	PriorityUrgent: "Urgent",
}

// IsValid checks if a priority is recognized.
func (p Priority) IsValid() bool {
	_, ok := priorityLabels[p]
	return ok
}

// Label returns a human-readable label for the priority.
func (p Priority) Label() string {
	return label(priorityLabels, p)
}

// Method is the channel used to reach the member.
type Method string

const (
	MethodPhoneCall   Method = "PHONE_CALL"
	MethodTextMessage Method = "TEXT_MESSAGE"
	MethodWhatsApp    Method = "WHATSAPP"
	MethodEmail       Method = "EMAIL"
	MethodHomeVisit   Method = "HOME_VISIT"
	MethodChurchVisit Method = "CHURCH_VISIT"
)

// AllMethods lists every contact method in declaration order.
var AllMethods = []Method{
	MethodPhoneCall, MethodTextMessage, MethodWhatsApp, MethodEmail, MethodHomeVisit, MethodChurchVisit,
}

var methodLabels = map[Method]string{
	MethodPhoneCall:   "Phone Call",
	MethodTextMessage: "Text Message",
	MethodWhatsApp:    "WhatsApp",
	MethodEmail:       "Email",
	MethodHomeVisit:   "Home Visit",
	MethodChurchVisit: "Church Visit",
}

// IsValid checks if a method is recognized. The empty method is valid (unset).
func (m Method) IsValid() bool {
	if m == "" {
		return true
	}
	_, ok := methodLabels[m]
	return ok
}

// Label returns a human-readable label for the method, or "" when unset.
func (m Method) Label() string {
	return label(methodLabels, m)
}

// Status is where a follow-up is in its lifecycle.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusNoResponse Status = "NO_RESPONSE"
)

// AllStatuses lists every status in declaration order, which is also list sort order.
var AllStatuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoResponse}

// OpenStatuses are the statuses that can become overdue.
var OpenStatuses = []Status{StatusPending, StatusInProgress}

var statusLabels = map[Status]string{
	StatusPending:    "Pending",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
	StatusNoResponse: "No Response",
}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	return label(statusLabels, s)
}

// IsOpen reports whether work on the follow-up is still outstanding.
func (s Status) IsOpen() bool {
	for _, o := range OpenStatuses {
		if s == o {
			return true
		}
	}
	return false
}

func label[K ~string](labels map[K]string, k K) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// FollowUp is a pastoral care task for one member, owned by one assignee.
type FollowUp struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	// MemberName is read from the members table; it is not stored on the follow-up.
	MemberName string `json:"member_name,omitempty"`
	// AssignedToName is a snapshot taken when the follow-up was written.
	// It is not updated when the assignee's name changes elsewhere.
	AssignedToID     string     `json:"assigned_to_id"`
	AssignedToName   string     `json:"assigned_to_name"`
	Reason           Reason     `json:"reason"`
	ReasonOther      string     `json:"reason_other,omitempty"`
	Priority         Priority   `json:"priority"`
	Method           Method     `json:"method,omitempty"`
	Status           Status     `json:"status"`
	DueDate          time.Time  `json:"due_date"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	InitialNotes     string     `json:"initial_notes,omitempty"`
	FollowUpNotes    string     `json:"follow_up_notes,omitempty"`
	Outcome          string     `json:"outcome,omitempty"`
	RequiresFollowUp bool       `json:"requires_follow_up"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date,omitempty"`
	PreviousID       string     `json:"previous_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsOverdue reports whether f is past due at now and still open.
// It is derived on every read and never stored.
func IsOverdue(f *FollowUp, now time.Time) bool {
	return f.DueDate.Before(now) && f.Status.IsOpen()
}

// View is the read projection of a follow-up with derived fields filled in.
type View struct {
	*FollowUp
	IsOverdue bool `json:"is_overdue"`
}

// NewView derives the read-time fields of f at now.
func NewView(f *FollowUp, now time.Time) View {
	return View{FollowUp: f, IsOverdue: IsOverdue(f, now)}
}
