package model

import "time"

// GearDistribution — запись о выдаче средств индивидуальной защиты.
// Хранится в таблице gear_distributions.
type GearDistribution struct {
	ID           int64
	EmployeeName string
	GearItem     string
	Date         time.Time
}
