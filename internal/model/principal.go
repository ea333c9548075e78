package model

import "github.com/google/uuid"

// Principal is the caller identified by the bearer token, if any.
type Principal struct {
	AgentID uuid.UUID
	Name    string
	Email   string
}

func (p Principal) IsAnonymous() bool {
	return p.AgentID == uuid.Nil
}
