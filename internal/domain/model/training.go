// Пакет model — доменные сущности Safety Portal.
package model

import "time"

// Training — запись об обучении по технике безопасности.
// Хранится в таблице trainings.
type Training struct {
	// ID — идентификатор, назначается БД
	ID int64
	// Title — название обучения (непустое)
	Title string
	// Date — календарная дата создания записи
	Date time.Time
	// File — имя сохранённого документа (nil, если документ не прикреплён)
	File *string
	// Downloads — число скачиваний документа
	Downloads int64
}

// HasFile сообщает, прикреплён ли к обучению документ.
func (t *Training) HasFile() bool {
	return t.File != nil && *t.File != ""
}

// FileName возвращает имя сохранённого документа или пустую строку.
func (t *Training) FileName() string {
	if t.File == nil {
		return ""
	}
	return *t.File
}
