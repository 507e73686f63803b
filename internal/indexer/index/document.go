// Package index holds the data model of the search index: documents, the
// concurrent term map used while building, and the dense term dictionary
// with its roaring-bitmap postings.
package index

import "maps"

// DocID identifies a document within one index generation.
type DocID = uint32

// Document is an id plus a field-name to text mapping.
type Document struct {
	ID     DocID             `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Clone returns a copy of d that shares no maps with it.
func (d Document) Clone() Document {
	return Document{
		ID:     d.ID,
		Fields: maps.Clone(d.Fields),
	}
}
