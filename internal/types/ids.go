// internal/types/ids.go
package types

import (
	"github.com/google/uuid"
)

type TurnID string
type SessionID string
type ArtifactID string

func NewTurnID() TurnID {
	return TurnID(uuid.New().String())
}

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func NewArtifactID() ArtifactID {
	return ArtifactID(uuid.New().String())
}
