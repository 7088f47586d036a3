// stats.go — счётчики dashboard с кэшированием.
// Обёртка над hashicorp/golang-lru/v2/expirable: одна запись с TTL,
// сбрасывается при каждой мутации обучений, выдачи СИЗ и происшествий.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/safety-portal/internal/domain/model"
	"github.com/bigkaa/safety-portal/internal/repository"
)

// Prometheus-метрики кэша статистики.
var (
	statsCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safety_stats_cache_hits_total",
		Help: "Общее количество попаданий в кэш статистики dashboard.",
	})
	statsCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safety_stats_cache_misses_total",
		Help: "Общее количество промахов кэша статистики dashboard.",
	})
)

const statsKey = "dashboard"

// StatsInvalidator сбрасывает кэш статистики после мутаций.
type StatsInvalidator interface {
	Invalidate()
}

// StatsService — агрегированные счётчики записей.
type StatsService struct {
	trainings repository.TrainingRepository
	gear      repository.GearRepository
	incidents repository.IncidentRepository
	cache     *expirable.LRU[string, model.Stats]

	// mu защищает generation; поколение растёт при каждом Invalidate
	mu         sync.Mutex
	generation uint64
}

// NewStatsService создаёт сервис статистики с кэшем на ttl.
func NewStatsService(
	trainings repository.TrainingRepository,
	gear repository.GearRepository,
	incidents repository.IncidentRepository,
	ttl time.Duration,
) *StatsService {
	return &StatsService{
		trainings: trainings,
		gear:      gear,
		incidents: incidents,
		cache:     expirable.NewLRU[string, model.Stats](1, nil, ttl),
	}
}

// Get возвращает счётчики записей всех трёх типов.
func (s *StatsService) Get(ctx context.Context) (model.Stats, error) {
	if st, ok := s.cache.Get(statsKey); ok {
		statsCacheHitsTotal.Inc()
		return st, nil
	}
	statsCacheMissesTotal.Inc()

	s.mu.Lock()
	start := s.generation
	s.mu.Unlock()

	var st model.Stats
	var err error
	if st.Trainings, err = s.trainings.Count(ctx); err != nil {
		return model.Stats{}, fmt.Errorf("подсчёт обучений: %w", err)
	}
	if st.Gear, err = s.gear.Count(ctx); err != nil {
		return model.Stats{}, fmt.Errorf("подсчёт выдачи СИЗ: %w", err)
	}
	if st.Incidents, err = s.incidents.Count(ctx); err != nil {
		return model.Stats{}, fmt.Errorf("подсчёт происшествий: %w", err)
	}

	// Мутация во время подсчёта: результат не кэшируется
	s.mu.Lock()
	if s.generation == start {
		s.cache.Add(statsKey, st)
	}
	s.mu.Unlock()
	return st, nil
}

// Invalidate сбрасывает закэшированные счётчики.
func (s *StatsService) Invalidate() {
	s.mu.Lock()
	s.generation++
	s.cache.Remove(statsKey)
	s.mu.Unlock()
}

// invalidate вызывает Invalidate, если инвалидатор задан.
func invalidate(inv StatsInvalidator) {
	if inv != nil {
		inv.Invalidate()
	}
}
