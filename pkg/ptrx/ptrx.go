// Package ptrx holds pointer helpers used by partial-update DTOs, where a nil
// field means "leave unchanged".
package ptrx

import "time"

// Bool returns a pointer value for the bool value passed in.
func Bool(v bool) *bool {
	return &v
}

// String returns a pointer value for the string value passed in.
func String(v string) *string {
	return &v
}

// Int returns a pointer value for the int value passed in.
func Int(v int) *int {
	return &v
}

// Int64 returns a pointer value for the int64 value passed in.
func Int64(v int64) *int64 {
	return &v
}

// Time returns a pointer value for the time.Time value passed in.
func Time(v time.Time) *time.Time {
	return &v
}

// BoolValueOr returns the value of the bool pointer passed in or the default value if the pointer is nil.
func BoolValueOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

// StringValue returns the value of the string pointer passed in or empty string if the pointer is nil.
func StringValue(v *string) string {
	if v != nil {
		return *v
	}
	return ""
}

// Value returns the value of the pointer passed in or the zero value if the pointer is nil.
func Value[T any](v *T) T {
	if v != nil {
		return *v
	}
	var zero T
	return zero
}

// ValueOr returns the value of the pointer passed in or the default value if the pointer is nil.
func ValueOr[T any](v *T, def T) T {
	if v != nil {
		return *v
	}
	return def
}

// IsNil checks if a pointer is nil.
func IsNil[T any](v *T) bool {
	return v == nil
}
