package pagination

import "gorm.io/gorm"

const (
	// DefaultTake is the standard page size when take is not provided.
	DefaultTake = 100
	// MaxTake caps how many rows any listing can request.
	MaxTake = 300
)

// Params holds skip/take pagination inputs from controllers or services.
type Params struct {
	Skip int `json:"skip"`
	Take int `json:"take"`
}

// Normalize clamps skip to zero or more and take to (0, max], falling back to def.
func Normalize(skip, take, def, max int) Params {
	if def <= 0 {
		def = DefaultTake
	}
	if max <= 0 {
		max = MaxTake
	}
	if def > max {
		def = max
	}
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = def
	}
	if take > max {
		take = max
	}
	return Params{Skip: skip, Take: take}
}

// Scope applies the offset and limit to a GORM query.
func (p Params) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Skip).Limit(p.Take)
	}
}

// Page is the envelope returned by list endpoints.
type Page[T any] struct {
	Items []T   `json:"items"`
	Skip  int   `json:"skip"`
	Take  int   `json:"take"`
	Total int64 `json:"total"`
}

// NewPage builds a Page, replacing a nil slice with an empty one so it encodes as [].
func NewPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Skip: p.Skip, Take: p.Take, Total: total}
}
