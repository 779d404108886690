package document

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata keys as written by the ingestion process.
const (
	KeyFileID   = "file_id"
	KeyFileName = "file_name"
	KeyType     = "type"
)

// Field is a metadata value that may be absent. A missing field is not an error:
// projection keeps going and reports the field as not present.
type Field struct {
	value   string
	present bool
}

// Present creates a field holding v.
func Present(v string) Field { return Field{value: v, present: true} }

// Missing is the absent field.
func Missing() Field { return Field{} }

// Value returns the field value ("" when missing).
func (f Field) Value() string { return f.value }

// IsPresent reports whether the field was set in the source metadata.
func (f Field) IsPresent() bool { return f.present }

// Or returns the value, or fallback when the field is missing or empty.
func (f Field) Or(fallback string) string {
	if !f.present || f.value == "" {
		return fallback
	}
	return f.value
}

// Metadata is the typed view over a document's metadata mapping.
type Metadata struct {
	FileID   Field
	FileName Field
	Type     Field
}

// MetadataFromMap extracts typed metadata from a decoded JSON object.
// Non-string scalars are formatted; nested values are treated as missing.
func MetadataFromMap(m map[string]any) Metadata {
	return Metadata{
		FileID:   fieldFrom(m, KeyFileID),
		FileName: fieldFrom(m, KeyFileName),
		Type:     fieldFrom(m, KeyType),
	}
}

// MetadataFromStrings extracts typed metadata from flat string fields (hash storage).
func MetadataFromStrings(m map[string]string) Metadata {
	get := func(k string) Field {
		if v, ok := m[k]; ok {
			return Present(v)
		}
		return Missing()
	}
	return Metadata{
		FileID:   get(KeyFileID),
		FileName: get(KeyFileName),
		Type:     get(KeyType),
	}
}

// ParseMetadata decodes a raw JSON metadata column. Empty input and JSON null
// yield all-missing metadata; malformed JSON is reported to the caller.
func ParseMetadata(raw []byte) (Metadata, error) {
	if len(raw) == 0 {
		return Metadata{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return MetadataFromMap(m), nil
}

func fieldFrom(m map[string]any, key string) Field {
	v, ok := m[key]
	if !ok || v == nil {
		return Missing()
	}
	switch t := v.(type) {
	case string:
		return Present(t)
	case float64, bool, json.Number:
		return Present(fmt.Sprint(t))
	default:
		return Missing()
	}
}

// Document is a stored document as seen by the retrieval path (read-only).
type Document struct {
	id            string
	content       string
	embedding     []float32
	metadata      Metadata
	ingestionDate time.Time
}

// Reconstruct creates a Document from storage without validation.
// embedding may be nil for documents that were never vectorized.
func Reconstruct(id, content string, embedding []float32, md Metadata, ingestedAt time.Time) Document {
	return Document{
		id:            id,
		content:       content,
		embedding:     embedding,
		metadata:      md,
		ingestionDate: ingestedAt,
	}
}

// ID returns the store identifier.
func (d *Document) ID() string { return d.id }

// Content returns the opaque content payload.
func (d *Document) Content() string { return d.content }

// Embedding returns the embedding vector (nil if absent).
func (d *Document) Embedding() []float32 { return d.embedding }

// HasEmbedding reports whether the document carries a vector.
func (d *Document) HasEmbedding() bool { return len(d.embedding) > 0 }

// Metadata returns the typed metadata.
func (d *Document) Metadata() Metadata { return d.metadata }

// IngestionDate returns when the document was ingested.
func (d *Document) IngestionDate() time.Time { return d.ingestionDate }

// Scored pairs a document with a similarity score.
type Scored struct {
	Document   Document
	Similarity float64
}
