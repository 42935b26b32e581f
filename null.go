package shortwave

import (
	"sourcery.dny.nu/shortwave/internal/json"
)

// null tracks a term definition entry so we can differentiate between the
// entry being absent, being set to JSON null, or being set to a value.
//
//   - Set is true when the entry was present.
//   - Valid is false when the entry was the JSON null.
type null[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (n *null[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if json.IsNull(data) {
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = v
	n.Valid = true
	return nil
}

// array accepts either a single JSON value or an array of them.
type array[T any] []T

func (a *array[T]) UnmarshalJSON(data []byte) error {
	if json.IsNull(data) || json.IsEmptyArray(data) {
		return nil
	}

	var v []T
	if err := json.Unmarshal(json.MakeArray(data), &v); err != nil {
		return err
	}

	*a = v
	return nil
}
