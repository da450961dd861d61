package models

import "time"

type Category struct {
	ID          string
	Name        string
	Slug        string
	Description *string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CategoryView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	SortOrder   int     `json:"sortOrder"`
}

func (c Category) ToView() CategoryView {
	return CategoryView{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}
