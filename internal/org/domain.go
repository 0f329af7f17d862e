// Package org manages the factory organizational hierarchy: services
// contain lines, lines contain teams, teams contain posts. The hierarchy is
// the source of the placement identifiers carried by users and actions.
package org

import (
	"time"

	"github.com/google/uuid"
)

// Service is the top level of the hierarchy.
type Service struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Line belongs to a service.
type Line struct {
	ID        uuid.UUID
	ServiceID uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Team belongs to a line.
type Team struct {
	ID        uuid.UUID
	LineID    uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Post belongs to a team.
type Post struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Tree is the fully expanded hierarchy returned to the admin screens.
type Tree struct {
	Services []TreeService `json:"services"`
}

// TreeService is a service with its nested lines.
type TreeService struct {
	Service
	Lines []TreeLine `json:"lines"`
}

// TreeLine is a line with its nested teams.
type TreeLine struct {
	Line
	Teams []TreeTeam `json:"teams"`
}

// TreeTeam is a team with its posts.
type TreeTeam struct {
	Team
	Posts []Post `json:"posts"`
}
