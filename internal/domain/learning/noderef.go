package learning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeRef identifies an authoring node. It is either Persisted, carrying the
// durable id, or Pending, carrying a key that is only meaningful inside one
// editing session. The two forms never overlap.
type NodeRef struct {
	id      uuid.UUID
	tempKey string
}

func Persisted(id uuid.UUID) NodeRef { return NodeRef{id: id} }

func Pending(tempKey string) NodeRef { return NodeRef{tempKey: strings.TrimSpace(tempKey)} }

// NewPending returns a pending ref with a fresh random key.
func NewPending() NodeRef { return Pending(uuid.NewString()) }

func (r NodeRef) IsPending() bool { return r.id == uuid.Nil }

// ID returns the durable id; ok is false for pending refs.
func (r NodeRef) ID() (id uuid.UUID, ok bool) {
	return r.id, r.id != uuid.Nil
}

func (r NodeRef) TempKey() string { return r.tempKey }

// Valid reports whether the ref carries either a durable id or a temp key.
func (r NodeRef) Valid() bool { return r.id != uuid.Nil || r.tempKey != "" }

func (r NodeRef) String() string {
	if r.id != uuid.Nil {
		return r.id.String()
	}
	return "pending:" + r.tempKey
}

type nodeRefJSON struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	TempKey string     `json:"temp_key,omitempty"`
}

func (r NodeRef) MarshalJSON() ([]byte, error) {
	if id, ok := r.ID(); ok {
		return json.Marshal(nodeRefJSON{ID: &id})
	}
	return json.Marshal(nodeRefJSON{TempKey: r.tempKey})
}

func (r *NodeRef) UnmarshalJSON(b []byte) error {
	var raw nodeRefJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch {
	case raw.ID != nil && *raw.ID != uuid.Nil && raw.TempKey != "":
		return fmt.Errorf("node ref has both id and temp_key")
	case raw.ID != nil && *raw.ID != uuid.Nil:
		*r = Persisted(*raw.ID)
	default:
		*r = Pending(raw.TempKey)
	}
	return nil
}
