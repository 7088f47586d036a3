package service

import "time"

// Clock — источник текущего времени (подменяется в тестах).
type Clock func() time.Time

// today возвращает текущую календарную дату без времени.
func (c Clock) today() time.Time {
	now := time.Now
	if c != nil {
		now = c
	}
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
