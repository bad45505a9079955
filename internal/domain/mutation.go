package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of write a mutation record carries.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Entity is the domain object a mutation applies to.
type Entity string

const (
	EntityProduct  Entity = "product"
	EntityBill     Entity = "bill"
	EntityCustomer Entity = "customer"
	EntityExpense  Entity = "expense"
)

// Entities lists every known entity, in a stable order.
var Entities = []Entity{EntityProduct, EntityBill, EntityCustomer, EntityExpense}

func (e Entity) IsValid() bool {
	switch e {
	case EntityProduct, EntityBill, EntityCustomer, EntityExpense:
		return true
	}
	return false
}

// Outcome is the result of offering one record to the acceptor.
// A timeout is handled exactly like a rejection: the record stays pending.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeTimeout  Outcome = "timeout"
)

// MutationRecord is one queued create/update/delete intent awaiting remote
// persistence. ID and EnqueuedAt never change after creation; Synced only
// ever moves from false to true.
type MutationRecord struct {
	ID         string          `json:"id"`
	Action     Action          `json:"action"`
	Entity     Entity          `json:"entity"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt int64           `json:"enqueued_at"` // ms since epoch
	Synced     bool            `json:"synced"`
}

// Age returns how long ago the record was enqueued relative to now.
func (r MutationRecord) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(r.EnqueuedAt))
}

// Clone returns a copy that shares no memory with r.
func (r MutationRecord) Clone() MutationRecord {
	c := r
	if r.Payload != nil {
		c.Payload = append(json.RawMessage(nil), r.Payload...)
	}
	return c
}

// EnqueueRequest is the inbound producer payload.
type EnqueueRequest struct {
	Action  Action          `json:"action"`
	Entity  Entity          `json:"entity"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the closed action and entity sets. The payload shape is
// owned by the caller; only JSON well-formedness is checked.
func (r *EnqueueRequest) Validate() error {
	if !r.Action.IsValid() {
		return ErrInvalidAction
	}
	if !r.Entity.IsValid() {
		return ErrInvalidEntity
	}
	if len(r.Payload) > 0 && !json.Valid(r.Payload) {
		return ErrInvalidPayload
	}
	return nil
}

// NewRecord builds a fresh, unsynced record stamped at now.
func NewRecord(req EnqueueRequest, now time.Time) MutationRecord {
	return MutationRecord{
		ID:         NewRecordID(),
		Action:     req.Action,
		Entity:     req.Entity,
		Payload:    append(json.RawMessage(nil), req.Payload...),
		EnqueuedAt: now.UnixMilli(),
	}
}

// NewRecordID returns a UUIDv7: a millisecond timestamp prefix followed by
// random bits, so IDs stay unique under rapid bursts and sort by creation.
func NewRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
