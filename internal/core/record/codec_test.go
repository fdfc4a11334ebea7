package record

import (
	"errors"
	"testing"
	"time"

	"github.com/baseplate/backoffice/internal/core/schema"
	"github.com/baseplate/backoffice/internal/core/validation"
)

type widget struct {
	Meta
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newWidgetCodec(t *testing.T) *Codec[widget] {
	t.Helper()
	s, err := validation.NewValidator().Compile("widgets", schema.New("Widget", map[string]*schema.Property{
		"name": schema.String(),
		"qty":  schema.Integer(0),
	}, "name"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	c := NewCodec[widget](s)
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestCodecCreate(t *testing.T) {
	c := newWidgetCodec(t)

	w, err := c.Create(map[string]interface{}{"name": "bolt", "qty": 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.ID == "" {
		t.Error("expected generated id")
	}
	if !w.CreatedAt.Equal(fixedNow) || !w.UpdatedAt.Equal(fixedNow) {
		t.Errorf("timestamps = %v / %v, want %v", w.CreatedAt, w.UpdatedAt, fixedNow)
	}
	if w.Name != "bolt" || w.Qty != 3 {
		t.Errorf("unexpected widget %+v", w)
	}

	kept, err := c.Create(map[string]interface{}{"id": "w-1", "name": "nut"})
	if err != nil {
		t.Fatalf("Create with id: %v", err)
	}
	if kept.ID != "w-1" {
		t.Errorf("id = %q, want w-1", kept.ID)
	}
}

func TestCodecCreateInvalid(t *testing.T) {
	c := newWidgetCodec(t)

	_, err := c.Create(map[string]interface{}{"qty": -1})
	ve := validation.GetValidationErrors(err)
	if ve == nil {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if len(ve.Errors) != 2 {
		t.Errorf("expected missing name and negative qty, got %v", ve)
	}
}

func TestCodecPatch(t *testing.T) {
	c := newWidgetCodec(t)
	created := fixedNow.Add(-time.Hour)
	existing := widget{Meta: Meta{ID: "w-1", CreatedAt: created, UpdatedAt: created}, Name: "bolt", Qty: 1}

	got, err := c.Patch(existing, map[string]interface{}{"qty": 9, "createdAt": "2000-01-01T00:00:00Z"})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if got.Qty != 9 || got.Name != "bolt" {
		t.Errorf("unexpected widget %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("createdAt changed to %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(fixedNow) {
		t.Errorf("updatedAt = %v, want %v", got.UpdatedAt, fixedNow)
	}
	if existing.Qty != 1 {
		t.Error("existing record modified")
	}
}

func TestCodecPatchRejects(t *testing.T) {
	c := newWidgetCodec(t)
	existing := widget{Meta: Meta{ID: "w-1", CreatedAt: fixedNow, UpdatedAt: fixedNow}, Name: "bolt"}

	if _, err := c.Patch(existing, map[string]interface{}{"id": "w-2"}); !errors.Is(err, ErrImmutable) {
		t.Errorf("changing id: got %v, want ErrImmutable", err)
	}
	if _, err := c.Patch(existing, map[string]interface{}{"qty": "many"}); !validation.IsValidationError(err) {
		t.Errorf("bad qty type: got %v, want validation error", err)
	}
	if _, err := c.Patch(existing, map[string]interface{}{"name": ""}); !validation.IsValidationError(err) {
		t.Errorf("empty name: got %v, want validation error", err)
	}
}

func TestCodecWithoutSchema(t *testing.T) {
	c := NewCodec[widget](nil)
	w, err := c.Create(map[string]interface{}{"qty": 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.Qty != 2 {
		t.Errorf("qty = %d", w.Qty)
	}
}
