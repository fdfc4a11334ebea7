// Package record defines what every module entity carries, converts
// entities to and from JSON documents, and persists them.
package record

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrImmutable = errors.New("field cannot be changed")
)

// Record is the part of an entity the generic layers rely on.
type Record interface {
	RecordID() string
	CreatedTime() time.Time
	UpdatedTime() time.Time
}

// Meta is embedded by every module entity.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m Meta) RecordID() string       { return m.ID }
func (m Meta) CreatedTime() time.Time { return m.CreatedAt }
func (m Meta) UpdatedTime() time.Time { return m.UpdatedAt }
