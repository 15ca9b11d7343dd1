package model

import (
	"fmt"
	"time"
)

// LocalTime 以 "YYYY-MM-DD HH:MM:SS" 格式序列化时间。
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	if time.Time(t).IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", time.Time(t).Format(timeFormat))), nil
}

// LocalDate 以 "YYYY-MM-DD" 格式序列化日期，用于周期的起止日期。
type LocalDate time.Time

const dateFormat = "2006-01-02"

// MarshalJSON implements the json.Marshaler interface.
func (d LocalDate) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", time.Time(d).Format(dateFormat))), nil
}

// ParseDate 解析 "YYYY-MM-DD" 格式的日期。
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateFormat, s, time.Local)
}
