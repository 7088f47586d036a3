package pages

import (
	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/ui/flash"
)

// Page — общие данные всех страниц.
type Page struct {
	// Title — ключ перевода заголовка страницы
	Title string
	// Username — пустой для анонимных страниц (навигация скрыта)
	Username string
	Flash    *flash.Message
}

type LoginData struct {
	Page
	FormUsername string
}

type DashboardData struct {
	Page
	Search    string
	Stats     model.Stats
	Trainings []*model.Training
	Gear      []*model.GearDistribution
	Incidents []*model.Incident
}

// TrainingFormData — Training == nil для формы добавления.
type TrainingFormData struct {
	Page
	Action    string
	Training  *model.Training
	FormTitle string
}

// GearFormData — Gear == nil для формы добавления.
type GearFormData struct {
	Page
	Action   string
	Gear     *model.GearDistribution
	Employee string
	Item     string
}

type IncidentsData struct {
	Page
	Incidents   []*model.Incident
	Description string
	ReportedBy  string
}

type IncidentFormData struct {
	Page
	Action      string
	Incident    *model.Incident
	Description string
	ReportedBy  string
}

type NotFoundData struct {
	Page
}
