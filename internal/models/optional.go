// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package models

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Optional holds a value that may be absent. The zero value is absent.
//
// It encodes to JSON as the bare value or null.
type Optional[T comparable] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v.
func Some[T comparable](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional.
func None[T comparable]() Optional[T] {
	return Optional[T]{}
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// OrElse returns the value if present, otherwise fallback.
func (o Optional[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// String renders absent values as "None".
func (o Optional[T]) String() string {
	if !o.set {
		return "None"
	}
	return fmt.Sprint(o.value)
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler. null decodes to absent.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
