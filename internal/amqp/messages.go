package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

type Entity string

const (
	EntityCategory    Entity = "category"
	EntityTransaction Entity = "transaction"
	EntityBudget      Entity = "budget"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// LedgerEvent announces one successful mutation. Created and updated events
// carry the record as stored; deleted events carry only the ID.
type LedgerEvent struct {
	Entity      Entity            `json:"entity"`
	Action      Action            `json:"action"`
	ID          core.ID           `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Category    *core.Category    `json:"category,omitempty"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Budget      *core.Budget      `json:"budget,omitempty"`
}

// Type is the event name, e.g. "transaction.created".
func (e *LedgerEvent) Type() string {
	return string(e.Entity) + "." + string(e.Action)
}

func NewCategoryEvent(action Action, c core.Category) *LedgerEvent {
	e := &LedgerEvent{Entity: EntityCategory, Action: action, ID: c.ID, Timestamp: time.Now()}
	if action != ActionDeleted {
		e.Category = &c
	}
	return e
}

func NewTransactionEvent(action Action, t core.Transaction) *LedgerEvent {
	e := &LedgerEvent{Entity: EntityTransaction, Action: action, ID: t.ID, Timestamp: time.Now()}
	if action != ActionDeleted {
		e.Transaction = &t
	}
	return e
}

func NewBudgetEvent(action Action, b core.Budget) *LedgerEvent {
	e := &LedgerEvent{Entity: EntityBudget, Action: action, ID: b.ID, Timestamp: time.Now()}
	if action != ActionDeleted {
		e.Budget = &b
	}
	return e
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Entity {
	case EntityCategory, EntityTransaction, EntityBudget:
	default:
		return nil, fmt.Errorf("unknown entity %q", e.Entity)
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", e.Action)
	}
	if e.ID.IsZero() {
		return nil, fmt.Errorf("event %s has no id", e.Type())
	}
	return &e, nil
}
