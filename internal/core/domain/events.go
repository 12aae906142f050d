package domain

import "time"

// EventName identifies a domain event type.
type EventName string

const (
	EventTransactionCreated EventName = "TransactionCreated"
	EventTransactionPosted  EventName = "TransactionPosted"
	EventTransactionVoided  EventName = "TransactionVoided"
	EventApprovalRequested  EventName = "ApprovalRequested"
	EventApprovalGranted    EventName = "ApprovalGranted"
	EventApprovalRejected   EventName = "ApprovalRejected"
	EventApprovalCancelled  EventName = "ApprovalCancelled"
	EventApprovalExpired    EventName = "ApprovalExpired"
)

// Payload keys shared by every event.
const (
	PayloadCompanyID  = "companyId"
	PayloadActorID    = "actorId"
	PayloadEntityType = "entityType"
	PayloadEntityID   = "entityId"
)

// DomainEvent is a plain serializable record of something that happened.
type DomainEvent struct {
	Name       EventName      `json:"name"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload"`
}

// NewDomainEvent builds an event carrying the common identity fields plus extra.
func NewDomainEvent(name EventName, at time.Time, companyID, actorID, entityType, entityID string, extra map[string]any) DomainEvent {
	payload := map[string]any{
		PayloadCompanyID:  companyID,
		PayloadActorID:    actorID,
		PayloadEntityType: entityType,
		PayloadEntityID:   entityID,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return DomainEvent{Name: name, OccurredAt: at.UTC(), Payload: payload}
}

func (e DomainEvent) stringField(key string) string {
	v, _ := e.Payload[key].(string)
	return v
}

func (e DomainEvent) CompanyID() string  { return e.stringField(PayloadCompanyID) }
func (e DomainEvent) ActorID() string    { return e.stringField(PayloadActorID) }
func (e DomainEvent) EntityType() string { return e.stringField(PayloadEntityType) }
func (e DomainEvent) EntityID() string   { return e.stringField(PayloadEntityID) }

// eventRecorder collects events raised by an aggregate until they are pulled for publishing.
type eventRecorder struct {
	pending []DomainEvent
}

func (r *eventRecorder) record(e DomainEvent) {
	r.pending = append(r.pending, e)
}

// PendingEvents returns a copy of the events not yet pulled.
func (r *eventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

// PullEvents returns and clears the pending events.
func (r *eventRecorder) PullEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
