// Пакет memory — реализации репозиториев в памяти процесса.
// Только для тестов сервисов и UI-обработчиков вместо PostgreSQL:
// production-код пакет не импортирует (проверяется TestNotImportedByProduction).
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/repository"
)

// contains — регистронезависимый поиск подстроки (аналог ILIKE '%term%').
func contains(s, term string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

// byDateDesc — порядок date DESC, id DESC.
func byDateDesc(aDate, bDate time.Time, aID, bID int64) int {
	if c := bDate.Compare(aDate); c != 0 {
		return c
	}
	return cmp.Compare(bID, aID)
}

// --- Обучения ---

// Trainings — TrainingRepository в памяти.
type Trainings struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Training
	// FailCreate — ошибка, возвращаемая Create (для тестов отката).
	FailCreate error
	// FailUpdate — ошибка, возвращаемая Update.
	FailUpdate error
}

// NewTrainings создаёт пустой репозиторий обучений.
func NewTrainings() *Trainings {
	return &Trainings{rows: make(map[int64]model.Training)}
}

var _ repository.TrainingRepository = (*Trainings)(nil)

func cloneTraining(t model.Training) *model.Training {
	if t.File != nil {
		f := *t.File
		t.File = &f
	}
	return &t
}

func (r *Trainings) fileTaken(file *string, exceptID int64) bool {
	if file == nil {
		return false
	}
	for id, row := range r.rows {
		if id != exceptID && row.File != nil && *row.File == *file {
			return true
		}
	}
	return false
}

func (r *Trainings) Create(_ context.Context, t *model.Training) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		return r.FailCreate
	}
	if r.fileTaken(t.File, 0) {
		return fmt.Errorf("%w: документ уже принадлежит другому обучению", repository.ErrConflict)
	}
	r.nextID++
	t.ID = r.nextID
	t.Downloads = 0
	r.rows[t.ID] = *cloneTraining(*t)
	return nil
}

func (r *Trainings) GetByID(_ context.Context, id int64) (*model.Training, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTraining(row), nil
}

func (r *Trainings) Update(_ context.Context, t *model.Training) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpdate != nil {
		return r.FailUpdate
	}
	row, ok := r.rows[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.fileTaken(t.File, t.ID) {
		return fmt.Errorf("%w: документ уже принадлежит другому обучению", repository.ErrConflict)
	}
	row.Title = t.Title
	row.File = t.File
	r.rows[t.ID] = *cloneTraining(row)
	t.Date = row.Date
	t.Downloads = row.Downloads
	return nil
}

func (r *Trainings) Delete(_ context.Context, id int64) (*model.Training, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.rows, id)
	return cloneTraining(row), nil
}

func (r *Trainings) Search(_ context.Context, term string) ([]*model.Training, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term = strings.TrimSpace(term)
	result := make([]*model.Training, 0, len(r.rows))
	for _, row := range r.rows {
		if term == "" || contains(row.Title, term) {
			result = append(result, cloneTraining(row))
		}
	}
	slices.SortFunc(result, func(a, b *model.Training) int {
		return byDateDesc(a.Date, b.Date, a.ID, b.ID)
	})
	return result, nil
}

func (r *Trainings) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *Trainings) IncrementDownloads(_ context.Context, file string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.File != nil && *row.File == file {
			row.Downloads++
			r.rows[id] = row
			return true, nil
		}
	}
	return false, nil
}

func (r *Trainings) ListFiles(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var files []string
	for _, row := range r.rows {
		if row.File != nil {
			files = append(files, *row.File)
		}
	}
	return files, nil
}

// --- Выдача СИЗ ---

// Gear — GearRepository в памяти.
type Gear struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.GearDistribution
}

// NewGear создаёт пустой репозиторий выдачи СИЗ.
func NewGear() *Gear {
	return &Gear{rows: make(map[int64]model.GearDistribution)}
}

var _ repository.GearRepository = (*Gear)(nil)

func (r *Gear) Create(_ context.Context, g *model.GearDistribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	g.ID = r.nextID
	r.rows[g.ID] = *g
	return nil
}

func (r *Gear) GetByID(_ context.Context, id int64) (*model.GearDistribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *Gear) Update(_ context.Context, g *model.GearDistribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[g.ID]
	if !ok {
		return repository.ErrNotFound
	}
	row.EmployeeName = g.EmployeeName
	row.GearItem = g.GearItem
	r.rows[g.ID] = row
	g.Date = row.Date
	return nil
}

func (r *Gear) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Gear) Search(_ context.Context, term string) ([]*model.GearDistribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term = strings.TrimSpace(term)
	result := make([]*model.GearDistribution, 0, len(r.rows))
	for _, row := range r.rows {
		if term == "" || contains(row.EmployeeName, term) || contains(row.GearItem, term) {
			result = append(result, &row)
		}
	}
	slices.SortFunc(result, func(a, b *model.GearDistribution) int {
		return byDateDesc(a.Date, b.Date, a.ID, b.ID)
	})
	return result, nil
}

func (r *Gear) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

// --- Происшествия ---

// Incidents — IncidentRepository в памяти.
type Incidents struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Incident
}

// NewIncidents создаёт пустой репозиторий происшествий.
func NewIncidents() *Incidents {
	return &Incidents{rows: make(map[int64]model.Incident)}
}

var _ repository.IncidentRepository = (*Incidents)(nil)

func (r *Incidents) Create(_ context.Context, i *model.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	i.ID = r.nextID
	r.rows[i.ID] = *i
	return nil
}

func (r *Incidents) GetByID(_ context.Context, id int64) (*model.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *Incidents) Update(_ context.Context, i *model.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[i.ID]
	if !ok {
		return repository.ErrNotFound
	}
	row.Description = i.Description
	row.ReportedBy = i.ReportedBy
	r.rows[i.ID] = row
	i.Date = row.Date
	return nil
}

func (r *Incidents) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Incidents) Search(_ context.Context, term string) ([]*model.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	term = strings.TrimSpace(term)
	result := make([]*model.Incident, 0, len(r.rows))
	for _, row := range r.rows {
		if term == "" || contains(row.Description, term) || contains(row.ReportedBy, term) {
			result = append(result, &row)
		}
	}
	slices.SortFunc(result, func(a, b *model.Incident) int {
		return byDateDesc(a.Date, b.Date, a.ID, b.ID)
	})
	return result, nil
}

func (r *Incidents) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

// --- Пользователи ---

// Users — UserRepository в памяти.
type Users struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]model.User
}

// NewUsers создаёт пустой репозиторий пользователей.
func NewUsers() *Users {
	return &Users{rows: make(map[string]model.User)}
}

var _ repository.UserRepository = (*Users)(nil)

func (r *Users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.Username]; ok {
		return fmt.Errorf("%w: пользователь %s уже существует", repository.ErrConflict, u.Username)
	}
	r.nextID++
	u.ID = r.nextID
	r.rows[u.Username] = *u
	return nil
}

func (r *Users) UpdatePassword(_ context.Context, username, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[username]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	r.rows[username] = u
	return nil
}
