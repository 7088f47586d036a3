package model

import "time"

// Incident — сообщение о происшествии.
// Хранится в таблице incidents.
type Incident struct {
	ID          int64
	Description string
	ReportedBy  string
	Date        time.Time
}
