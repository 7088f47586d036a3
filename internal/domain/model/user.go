package model

// User — учётная запись для входа в портал.
type User struct {
	ID       int64
	Username string
	// PasswordHash — bcrypt-хэш пароля
	PasswordHash string
}

// Stats — агрегированные счётчики для dashboard.
type Stats struct {
	Trainings int64
	Gear      int64
	Incidents int64
}
