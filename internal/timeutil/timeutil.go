package timeutil

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	dateTimeFormat = "2006-01-02T15:04:05Z"
	dateFormat     = "2006-01-02"
)

func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC().Truncate(time.Second)}
}

func DateTimeNow() DateTime {
	return NewDateTime(Now())
}

func (d DateTime) String() string {
	return d.Time.Format(dateTimeFormat)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	var dateStr string
	if err := json.Unmarshal(data, &dateStr); err != nil {
		return err
	}

	parsed, err := time.Parse(dateTimeFormat, dateStr)
	if err != nil {
		return err
	}

	d.Time = parsed.UTC()
	return nil
}

func (d DateTime) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *DateTime) Scan(value any) error {
	t, ok := value.(time.Time)
	if !ok {
		return fmt.Errorf("cannot scan %T into DateTime", value)
	}
	d.Time = t.UTC()
	return nil
}

func (DateTime) GormDataType() string {
	return "timestamptz"
}

// ToDate drops the time component, keeping the UTC calendar day.
func (d DateTime) ToDate() Date {
	return NewDate(d.Time)
}

type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	t = t.UTC()
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func DateNow() Date {
	return NewDate(Now())
}

func ParseDate(s string) (Date, error) {
	parsed, err := time.Parse(dateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(parsed), nil
}

func (d Date) String() string {
	return d.Time.Format(dateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var dateStr string
	if err := json.Unmarshal(data, &dateStr); err != nil {
		return err
	}

	parsed, err := time.Parse(dateFormat, dateStr)
	if err != nil {
		return err
	}

	d.Time = parsed.UTC()
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *Date) Scan(value any) error {
	t, ok := value.(time.Time)
	if !ok {
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	*d = NewDate(t)
	return nil
}

func (Date) GormDataType() string {
	return "date"
}
