package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/baseplate/backoffice/internal/core/validation"
)

// Codec turns JSON payloads into typed records of one module, checking them
// against the module schema on the way.
type Codec[T Record] struct {
	schema *validation.Schema
	now    func() time.Time
}

func NewCodec[T Record](schema *validation.Schema) *Codec[T] {
	return &Codec[T]{schema: schema, now: time.Now}
}

// Create builds a new record from payload. A missing id is generated; the
// timestamps are always set to now.
func (c *Codec[T]) Create(payload map[string]interface{}) (T, error) {
	doc := make(map[string]interface{}, len(payload)+3)
	for k, v := range payload {
		doc[k] = v
	}
	if id, _ := doc["id"].(string); id == "" {
		doc["id"] = uuid.New().String()
	}
	now := c.stamp()
	doc["createdAt"] = now
	doc["updatedAt"] = now

	return c.decodeDocument(doc)
}

// Patch applies a shallow merge of patch onto existing. The id and createdAt
// of the record cannot be changed.
func (c *Codec[T]) Patch(existing T, patch map[string]interface{}) (T, error) {
	var zero T

	if id, ok := patch["id"]; ok && id != existing.RecordID() {
		return zero, fmt.Errorf("%w: id", ErrImmutable)
	}
	if c.schema != nil {
		if err := c.schema.ValidatePatch(patch); err != nil {
			return zero, err
		}
	}

	doc, err := c.Document(existing)
	if err != nil {
		return zero, err
	}
	for k, v := range patch {
		if k == "id" || k == "createdAt" || k == "updatedAt" {
			continue
		}
		doc[k] = v
	}
	doc["updatedAt"] = c.stamp()

	return c.decodeDocument(doc)
}

// Document returns rec as a generic JSON object.
func (c *Codec[T]) Document(rec T) (map[string]interface{}, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Codec[T]) Decode(data []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

func (c *Codec[T]) DecodeAll(docs []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		rec, err := c.Decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Codec[T]) decodeDocument(doc map[string]interface{}) (T, error) {
	var zero T
	if c.schema != nil {
		if err := c.schema.Validate(doc); err != nil {
			return zero, err
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return zero, err
	}
	return c.Decode(data)
}

func (c *Codec[T]) stamp() string {
	return c.now().UTC().Format(time.RFC3339Nano)
}
