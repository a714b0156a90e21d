// Package board models the construction board drawn onto photos: its
// editable fields, the pure layout computation and the renderer that paints
// a layout onto a raster surface.
package board

import (
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/Skryldev/boardstamp/errors"
)

// Field is an extra key/value row of the board.
type Field struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Fields is an ordered list of extra fields.  Insertion order is render
// order.  Keys are unique, compared trimmed and case-insensitively.
// The zero value is ready to use; Fields is not safe for concurrent use.
type Fields struct {
	items []Field
}

// Add appends a field.  Both key and value must be non-blank; they are
// stored trimmed.
func (f *Fields) Add(key, value string) (Field, error) {
	const op = "board.fields.add"
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" || value == "" {
		return Field{}, apperrors.Wrapf(apperrors.CategoryBoard, op, apperrors.ErrEmptyInput, "key and value are required")
	}
	if IsDuplicateKey(f.items, key, "") {
		return Field{}, apperrors.Wrapf(apperrors.CategoryBoard, op, apperrors.ErrDuplicateKey, "%q", key)
	}
	field := Field{ID: uuid.NewString(), Key: key, Value: value}
	f.items = append(f.items, field)
	return field, nil
}

// Update replaces the key and value of the field with the given id.  Blank
// values are allowed (such rows are simply not drawn), but the key may not
// collide with another field's key.
func (f *Fields) Update(id, key, value string) error {
	const op = "board.fields.update"
	i := f.index(id)
	if i < 0 {
		return apperrors.Wrapf(apperrors.CategoryBoard, op, apperrors.ErrFieldNotFound, "%s", id)
	}
	if strings.TrimSpace(key) != "" && IsDuplicateKey(f.items, key, id) {
		return apperrors.Wrapf(apperrors.CategoryBoard, op, apperrors.ErrDuplicateKey, "%q", key)
	}
	f.items[i].Key = key
	f.items[i].Value = value
	return nil
}

// Remove deletes the field with the given id.
func (f *Fields) Remove(id string) error {
	i := f.index(id)
	if i < 0 {
		return apperrors.Wrapf(apperrors.CategoryBoard, "board.fields.remove", apperrors.ErrFieldNotFound, "%s", id)
	}
	f.items = slices.Delete(f.items, i, i+1)
	return nil
}

// Get returns the field with the given id.
func (f *Fields) Get(id string) (Field, bool) {
	if i := f.index(id); i >= 0 {
		return f.items[i], true
	}
	return Field{}, false
}

// All returns a copy of the fields in order.
func (f *Fields) All() []Field { return slices.Clone(f.items) }

// Len returns the number of fields.
func (f *Fields) Len() int { return len(f.items) }

// Reset removes every field.
func (f *Fields) Reset() { f.items = nil }

func (f *Fields) index(id string) int {
	return slices.IndexFunc(f.items, func(x Field) bool { return x.ID == id })
}

// IsDuplicateKey reports whether key matches the key of any field other than
// the one with id excludeID.
func IsDuplicateKey(fields []Field, key, excludeID string) bool {
	k := foldKey(key)
	for _, f := range fields {
		if f.ID != excludeID && foldKey(f.Key) == k {
			return true
		}
	}
	return false
}

func foldKey(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
