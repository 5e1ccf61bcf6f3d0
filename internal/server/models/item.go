package models

import "time"

// Item is the protected unit of organization: a named container of services
// owned by its author. Access is granted per item, never per service.
type Item struct {
	ID          string
	Name        string
	Description string
	Tags        string
	AuthorID    string
	CreatedAt   time.Time
}

// PublicItem is the externally visible view of an Item.
type PublicItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        string    `json:"tags,omitempty"`
	AuthorID    string    `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (i *Item) Public() PublicItem {
	return PublicItem{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Tags:        i.Tags,
		AuthorID:    i.AuthorID,
		CreatedAt:   i.CreatedAt,
	}
}
