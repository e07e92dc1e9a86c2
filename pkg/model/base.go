package model

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-json"
)

var ErrInvalidValue = errors.New("invalid value")

type Base struct {
	ID        int       `gorm:"primaryKey"             json:"id"`
	CreatedAt Timestamp `gorm:"autoCreateTime:false"   json:"created_at"`
	UpdatedAt Timestamp `gorm:"autoUpdateTime:false"   json:"updated_at"`
}

func (b *Base) GetBase() *Base {
	return b
}

// Timestamp is an ISO-8601 UTC instant. Older files carry naive timestamps
// without a zone, those are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func ParseTimestamp(value string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return NewTimestamp(parsed), nil
		}
	}

	return Timestamp{}, fmt.Errorf("%w: timestamp %q", ErrInvalidValue, value)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}

		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	if value == "" {
		*t = Timestamp{}

		return nil
	}

	parsed, err := ParseTimestamp(value)
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

func (Timestamp) GormDataType() string {
	return "time"
}

func (t Timestamp) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}

	return t.UTC(), nil
}

func (t *Timestamp) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*t = Timestamp{}
	case time.Time:
		*t = NewTimestamp(v)
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}

		*t = parsed
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("%w: cannot scan %T into Timestamp", ErrInvalidValue, value)
	}

	return nil
}

// IDList holds multi-valued lookup references. Records written by older
// versions may store a bare number instead of an array.
type IDList []int

func (l IDList) Contains(id int) bool {
	return slices.Contains(l, id)
}

func (l IDList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]int(l))
}

func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*l = IDList{}
	case len(data) > 0 && data[0] == '[':
		var ids []int
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}

		*l = ids
	default:
		var id int
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("%w: id list %s", ErrInvalidValue, data)
		}

		if id == 0 {
			*l = IDList{}
		} else {
			*l = IDList{id}
		}
	}

	return nil
}

func (IDList) GormDataType() string {
	return "text"
}

func (l IDList) Value() (driver.Value, error) {
	data, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return string(data), nil
}

func (l *IDList) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*l = IDList{}

		return nil
	case string:
		return l.UnmarshalJSON([]byte(v))
	case []byte:
		return l.UnmarshalJSON(v)
	default:
		return fmt.Errorf("%w: cannot scan %T into IDList", ErrInvalidValue, value)
	}
}
