package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
)

// CreateGoalInput são os campos aceitos na criação de uma meta.
type CreateGoalInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TargetValue float64   `json:"target_value"`
	Metric      string    `json:"metric"`
	Platform    string    `json:"platform"`
	EndDate     time.Time `json:"end_date"`
}

// GoalCheckResult resume uma passada de verificação de metas.
type GoalCheckResult struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
}

type GoalUseCase interface {
	Create(userID string, input CreateGoalInput) (*entities.Goal, error)
	List(userID string) ([]entities.Goal, error)
	Update(userID, goalID string, fields map[string]interface{}) error
	Delete(userID, goalID string) error
	// Check recalcula o valor atual de cada meta ativa a partir das
	// métricas das plataformas e dispara a notificação de conclusão.
	Check(ctx context.Context, userID string) (*GoalCheckResult, error)
}

type goalUseCase struct {
	goalRepo         repositories.GoalRepository
	notificationRepo repositories.NotificationRepository
	whatsapp         WhatsAppMetricsUseCase
	hotmart          HotmartMetricsUseCase
	meta             MetaMetricsUseCase
	logger           *zap.Logger
}

func NewGoalUseCase(
	goalRepo repositories.GoalRepository,
	notificationRepo repositories.NotificationRepository,
	whatsapp WhatsAppMetricsUseCase,
	hotmart HotmartMetricsUseCase,
	metaMetrics MetaMetricsUseCase,
	logger *zap.Logger,
) GoalUseCase {
	return &goalUseCase{goalRepo, notificationRepo, whatsapp, hotmart, metaMetrics, logger}
}

var validGoalMetrics = map[string]bool{
	entities.GoalMetricSales:       true,
	entities.GoalMetricRevenue:     true,
	entities.GoalMetricLeads:       true,
	entities.GoalMetricConversions: true,
	entities.GoalMetricClicks:      true,
}

func (uc *goalUseCase) Create(userID string, input CreateGoalInput) (*entities.Goal, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("título da meta é obrigatório")
	}
	if input.TargetValue <= 0 {
		return nil, fmt.Errorf("valor alvo deve ser positivo")
	}
	if !validGoalMetrics[input.Metric] {
		return nil, fmt.Errorf("métrica inválida: %s", input.Metric)
	}

	goal := &entities.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		TargetValue: input.TargetValue,
		Metric:      input.Metric,
		Platform:    input.Platform,
		EndDate:     input.EndDate,
	}
	if goal.Platform == "" {
		goal.Platform = "ALL"
	}
	if err := uc.goalRepo.Create(goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (uc *goalUseCase) List(userID string) ([]entities.Goal, error) {
	return uc.goalRepo.ListByUser(userID)
}

func (uc *goalUseCase) Update(userID, goalID string, fields map[string]interface{}) error {
	affected, err := uc.goalRepo.Update(goalID, userID, fields)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("meta não encontrada")
	}
	return nil
}

func (uc *goalUseCase) Delete(userID, goalID string) error {
	affected, err := uc.goalRepo.Delete(goalID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("meta não encontrada")
	}
	return nil
}

// metricSnapshot junta os números atuais das três plataformas.
type metricSnapshot struct {
	sales   float64
	revenue float64
	leads   float64
	clicks  float64
}

// Check busca as métricas das três plataformas em paralelo e aplica o
// snapshot a cada meta ativa. Conclusão é one-shot: o flag notified
// impede uma segunda notificação para a mesma meta.
func (uc *goalUseCase) Check(ctx context.Context, userID string) (*GoalCheckResult, error) {
	goals, err := uc.goalRepo.ListActive(userID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return &GoalCheckResult{}, nil
	}

	var snapshot metricSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := uc.hotmart.GetMetrics(userID)
		if err != nil {
			return err
		}
		snapshot.sales = float64(m.Raw.TotalSales)
		snapshot.revenue = m.Raw.TotalRevenue
		return nil
	})
	g.Go(func() error {
		m, err := uc.whatsapp.GetMetrics(userID)
		if err != nil {
			return err
		}
		snapshot.leads = float64(m.ConversasIniciadas)
		return nil
	})
	g.Go(func() error {
		m, err := uc.meta.GetMetrics(gctx, userID, "30d", "")
		if err != nil {
			return err
		}
		snapshot.clicks = float64(m.Raw.Clicks)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &GoalCheckResult{Checked: len(goals)}
	now := time.Now()
	for i := range goals {
		goal := &goals[i]
		goal.CurrentValue = currentValueFor(goal.Metric, snapshot)

		if goal.CurrentValue >= goal.TargetValue && !goal.IsCompleted {
			goal.IsCompleted = true
			goal.CompletedAt = &now
			result.Completed++
		}

		if goal.IsCompleted && !goal.Notified {
			if err := uc.notifyCompletion(goal); err != nil {
				uc.logger.Error("❌ falha ao notificar conclusão de meta",
					zap.String("goalId", goal.ID),
					zap.Error(err))
			} else {
				goal.Notified = true
			}
		}

		if err := uc.goalRepo.Save(goal); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func currentValueFor(metric string, s metricSnapshot) float64 {
	switch metric {
	case entities.GoalMetricSales, entities.GoalMetricConversions:
		return s.sales
	case entities.GoalMetricRevenue:
		return s.revenue
	case entities.GoalMetricLeads:
		return s.leads
	case entities.GoalMetricClicks:
		return s.clicks
	default:
		return 0
	}
}

func (uc *goalUseCase) notifyCompletion(goal *entities.Goal) error {
	return uc.notificationRepo.Create(&entities.Notification{
		ID:      uuid.New().String(),
		UserID:  goal.UserID,
		Type:    "goal_completed",
		Title:   "🎉 Meta atingida!",
		Message: fmt.Sprintf("Sua meta \"%s\" foi atingida.", goal.Title),
		Link:    "/goals",
	})
}
