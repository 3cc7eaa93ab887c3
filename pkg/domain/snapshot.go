package domain

import "time"

// Snapshot is the persistable form of a conversation.
type Snapshot struct {
	ID            string    `json:"id" msgpack:"id"`
	InstanceID    string    `json:"instance_id,omitempty" msgpack:"instance_id"`
	Capacity      int       `json:"capacity" msgpack:"capacity"`
	Dimension     int       `json:"dimension" msgpack:"dimension"`
	History       []string  `json:"history" msgpack:"history"`
	ContextVector []float32 `json:"context_vector" msgpack:"context_vector"`
	UpdatedAt     time.Time `json:"updated_at" msgpack:"updated_at"`

	// Sealed holds the encrypted form of the snapshot when a store
	// middleware seals it. History and ContextVector are empty then.
	Sealed []byte `json:"sealed,omitempty" msgpack:"sealed,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.History = append([]string(nil), s.History...)
	out.ContextVector = append([]float32(nil), s.ContextVector...)
	out.Sealed = append([]byte(nil), s.Sealed...)
	return &out
}
