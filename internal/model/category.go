package model

// Category groups events by topic.  Names are unique.
type Category struct {
	ID   uint64 `json:"id"`   // categories.id
	Name string `json:"name"` // categories.name
}
