package repository

import "gorm.io/gorm"

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Page is a 1-based offset pagination request
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
}

// Normalized clamps the page into a valid range
func (p Page) Normalized() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Scope(db *gorm.DB) *gorm.DB {
	n := p.Normalized()
	return db.Offset((n.Number - 1) * n.Size).Limit(n.Size)
}
