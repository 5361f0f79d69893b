package helpers

import (
	"database/sql"
	"time"
)

// DateLayout is the storage format of calendar dates in text columns.
const DateLayout = "2006-01-02"

// GetNullString converts a string pointer to sql.NullString.
// If the pointer is nil, returns an empty NullString.
func GetNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converts a sql.NullString back to a string pointer.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// GetNullDate converts a date pointer to its text form for storage.
func GetNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(DateLayout), Valid: true}
}

// ParseNullDate parses a stored date; an invalid or empty value yields nil.
func ParseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, ns.String, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ToMillis converts a timestamp to unix milliseconds (UTC).
func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis converts unix milliseconds back to a UTC timestamp.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
