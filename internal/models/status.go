package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Status is the lifecycle state shared by stories and chapters.
// The zero value is not a valid status.
type Status uint8

const (
	StatusDraft Status = iota + 1
	StatusPublished
	StatusDeleted
)

var statusNames = map[Status]string{
	StatusDraft:     "DRAFT",
	StatusPublished: "PUBLISHED",
	StatusDeleted:   "DELETED",
}

// ErrUnknownStatus is returned when a value does not name a Status.
var ErrUnknownStatus = fmt.Errorf("unknown status")

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(raw string) (Status, error) {
	needle := strings.ToUpper(strings.TrimSpace(raw))
	for s, name := range statusNames {
		if name == needle {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the status in lower case, matching the CHECK constraint.
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return strings.ToLower(s.String()), nil
}

// Scan reads either casing so rows written before the lower-case migration still load.
func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", src)
	}
}
