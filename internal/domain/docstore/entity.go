package docstore

import (
	"encoding/json"
	"time"
)

// Fields is the schemaless body of a document.
type Fields map[string]any

// Document is one record of a named collection. Data is stored as a JSON
// column so every collection shares a single table.
type Document struct {
	Collection string    `gorm:"column:collection;primaryKey;size:64"`
	ID         string    `gorm:"column:id;primaryKey;size:64"`
	Data       Fields    `gorm:"column:data;serializer:json"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Document) TableName() string { return "documents" }

// String returns the value of a string field, or "" when absent or not a string.
func (d *Document) String(key string) string {
	s, _ := d.Data[key].(string)
	return s
}

// Strings returns a string-slice field. JSON decoding yields []any, so both
// shapes are accepted.
func (d *Document) Strings(key string) []string {
	switch v := d.Data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// MarshalJSON flattens the document into its fields plus $-prefixed system
// attributes, the shape clients of the hosted store expect.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Data)+4)
	for k, v := range d.Data {
		out[k] = v
	}
	out["$id"] = d.ID
	out["$collection"] = d.Collection
	out["$createdAt"] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	out["$updatedAt"] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// UnmarshalJSON reads the shape written by MarshalJSON back into a Document.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Document{Data: make(Fields, len(raw))}
	for k, v := range raw {
		switch k {
		case "$id":
			out.ID, _ = v.(string)
		case "$collection":
			out.Collection, _ = v.(string)
		case "$createdAt":
			out.CreatedAt = parseTime(v)
		case "$updatedAt":
			out.UpdatedAt = parseTime(v)
		default:
			out.Data[k] = v
		}
	}
	*d = out
	return nil
}

func parseTime(v any) time.Time {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
