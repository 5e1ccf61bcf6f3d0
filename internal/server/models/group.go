package models

import "time"

// Group is a named collection used for access delegation: users become
// members of a group, and items are categorized into groups. A user reaches
// an item transitively when both belong to the same group. The share-token
// discriminant refers to a group as a "category".
type Group struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// PublicGroup is the externally visible view of a Group.
type PublicGroup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (g *Group) Public() PublicGroup {
	return PublicGroup{ID: g.ID, Name: g.Name, CreatedAt: g.CreatedAt}
}
