package domain

import (
	"bytes"
	"encoding/json"
)

// Cell is one named value of a tabular row.
type Cell struct {
	Name  string
	Value string
}

// Row keeps the column order of the source header.
type Row []Cell

// Get returns the value stored under name.
func (r Row) Get(name string) (string, bool) {
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// MarshalJSON writes the row as an object whose keys follow column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Preview is the bounded view of an upload handed to the summarizer.
// Exactly one of Rows or Text is meaningful, selected by Tabular.
type Preview struct {
	Tabular  bool   `json:"tabular"`
	Rows     []Row  `json:"rows,omitempty"`
	Text     string `json:"text,omitempty"`
	Fallback bool   `json:"fallback,omitempty"` // tabular type that failed to parse
}

// Empty reports whether the preview carries no content at all.
func (p Preview) Empty() bool {
	return len(p.Rows) == 0 && p.Text == ""
}
