package usecases

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
)

// Fakes em memória dos repositórios, usados pelos testes de usecase no
// lugar do Postgres.

type fakeFunnelRepo struct {
	funnels []entities.Funnel
}

func (r *fakeFunnelRepo) FindFirstByUser(userID string) (*entities.Funnel, error) {
	for i := len(r.funnels) - 1; i >= 0; i-- {
		if r.funnels[i].UserID == userID {
			funnel := r.funnels[i]
			sort.SliceStable(funnel.Stages, func(a, b int) bool {
				return funnel.Stages[a].Order < funnel.Stages[b].Order
			})
			return &funnel, nil
		}
	}
	return nil, nil
}

func (r *fakeFunnelRepo) FindOrCreateDefault(userID string, template []entities.StageTemplate) (*entities.Funnel, error) {
	if funnel, _ := r.FindFirstByUser(userID); funnel != nil {
		return funnel, nil
	}
	funnel := entities.Funnel{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   "Funil Principal",
	}
	for _, stage := range template {
		funnel.Stages = append(funnel.Stages, entities.Stage{
			ID:       uuid.NewString(),
			FunnelID: funnel.ID,
			Name:     stage.Name,
			Order:    stage.Order,
		})
	}
	r.funnels = append(r.funnels, funnel)
	return &funnel, nil
}

func (r *fakeFunnelRepo) Create(funnel *entities.Funnel, template []entities.StageTemplate) error {
	if funnel.ID == "" {
		funnel.ID = uuid.NewString()
	}
	for _, stage := range template {
		funnel.Stages = append(funnel.Stages, entities.Stage{
			ID:       uuid.NewString(),
			FunnelID: funnel.ID,
			Name:     stage.Name,
			Order:    stage.Order,
		})
	}
	r.funnels = append(r.funnels, *funnel)
	return nil
}

func (r *fakeFunnelRepo) ListByUser(userID string) ([]entities.Funnel, error) {
	var out []entities.Funnel
	for _, funnel := range r.funnels {
		if funnel.UserID == userID {
			out = append(out, funnel)
		}
	}
	return out, nil
}

func (r *fakeFunnelRepo) CountEvents(funnelID string) (int64, error) {
	return 0, nil
}

type fakeEventRepo struct {
	events []entities.FunnelEvent
}

func (r *fakeEventRepo) Create(event *entities.FunnelEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventRepo) UpdateMetadata(event *entities.FunnelEvent) error {
	for i := range r.events {
		if r.events[i].ID == event.ID && r.events[i].FunnelID == event.FunnelID {
			r.events[i].Metadata = event.Metadata
			r.events[i].Version++
			r.events[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (r *fakeEventRepo) FindLatestConversation(funnelID, whatsappNumber string) (*entities.FunnelEvent, error) {
	var latest *entities.FunnelEvent
	for i := range r.events {
		e := &r.events[i]
		if e.FunnelID != funnelID || e.Type != entities.EventConversationStarted || e.WhatsappNumber != whatsappNumber {
			continue
		}
		if latest == nil || e.Timestamp.After(latest.Timestamp) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeEventRepo) FindByTransaction(funnelID string, eventType entities.EventType, transactionID string) (*entities.FunnelEvent, error) {
	if transactionID == "" {
		return nil, nil
	}
	for i := range r.events {
		e := r.events[i]
		if e.FunnelID == funnelID && e.Type == eventType && e.TransactionID == transactionID {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *fakeEventRepo) FindByID(funnelID, id string) (*entities.FunnelEvent, error) {
	for i := range r.events {
		e := r.events[i]
		if e.FunnelID == funnelID && e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *fakeEventRepo) CountByType(funnelID string, eventType entities.EventType, since time.Time) (int64, error) {
	var total int64
	for _, e := range r.events {
		if e.FunnelID == funnelID && e.Type == eventType && !e.Timestamp.Before(since) {
			total++
		}
	}
	return total, nil
}

func (r *fakeEventRepo) FindByType(funnelID string, eventType entities.EventType, since time.Time) ([]entities.FunnelEvent, error) {
	var out []entities.FunnelEvent
	for _, e := range r.events {
		if e.FunnelID == funnelID && e.Type == eventType && !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) ListConversations(funnelID string, limit, offset int) ([]entities.FunnelEvent, int64, error) {
	var out []entities.FunnelEvent
	for _, e := range r.events {
		if e.FunnelID == funnelID && e.Type == entities.EventConversationStarted {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Timestamp.After(out[b].Timestamp)
	})
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

type fakeIntegrationRepo struct {
	integrations []entities.Integration
}

func (r *fakeIntegrationRepo) FindActive(userID string, platform entities.Platform) (*entities.Integration, error) {
	for i := range r.integrations {
		in := r.integrations[i]
		if in.UserID == userID && in.Platform == platform && in.IsActive {
			return &in, nil
		}
	}
	return nil, nil
}

func (r *fakeIntegrationRepo) ListActiveByPlatform(platform entities.Platform) ([]entities.Integration, error) {
	var out []entities.Integration
	for _, in := range r.integrations {
		if in.Platform == platform && in.IsActive {
			out = append(out, in)
		}
	}
	return out, nil
}

func (r *fakeIntegrationRepo) Upsert(integration *entities.Integration) (bool, error) {
	for i := range r.integrations {
		existing := &r.integrations[i]
		if existing.UserID == integration.UserID && existing.Platform == integration.Platform && existing.IsActive {
			existing.AccessToken = integration.AccessToken
			existing.Config = integration.Config
			integration.ID = existing.ID
			return false, nil
		}
	}
	if integration.ID == "" {
		integration.ID = uuid.NewString()
	}
	r.integrations = append(r.integrations, *integration)
	return true, nil
}

func (r *fakeIntegrationRepo) Deactivate(userID string, platform entities.Platform) error {
	for i := range r.integrations {
		in := &r.integrations[i]
		if in.UserID == userID && in.Platform == platform {
			in.IsActive = false
		}
	}
	return nil
}

type fakeGoalRepo struct {
	goals []entities.Goal
}

func (r *fakeGoalRepo) Create(goal *entities.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	goal.IsActive = true
	r.goals = append(r.goals, *goal)
	return nil
}

func (r *fakeGoalRepo) ListByUser(userID string) ([]entities.Goal, error) {
	var out []entities.Goal
	for _, goal := range r.goals {
		if goal.UserID == userID {
			out = append(out, goal)
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) ListActive(userID string) ([]entities.Goal, error) {
	var out []entities.Goal
	for _, goal := range r.goals {
		if goal.UserID == userID && goal.IsActive {
			out = append(out, goal)
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) Save(goal *entities.Goal) error {
	for i := range r.goals {
		if r.goals[i].ID == goal.ID {
			r.goals[i] = *goal
			return nil
		}
	}
	return nil
}

func (r *fakeGoalRepo) Update(id, userID string, fields map[string]interface{}) (int64, error) {
	for i := range r.goals {
		if r.goals[i].ID == id && r.goals[i].UserID == userID {
			if title, ok := fields["title"].(string); ok {
				r.goals[i].Title = title
			}
			if target, ok := fields["target_value"].(float64); ok {
				r.goals[i].TargetValue = target
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeGoalRepo) Delete(id, userID string) (int64, error) {
	for i := range r.goals {
		if r.goals[i].ID == id && r.goals[i].UserID == userID {
			r.goals = append(r.goals[:i], r.goals[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeNotificationRepo struct {
	notifications []entities.Notification
}

func (r *fakeNotificationRepo) Create(notification *entities.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(userID string) ([]entities.Notification, error) {
	var out []entities.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(userID string) (int64, error) {
	var total int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			total++
		}
	}
	return total, nil
}

func (r *fakeNotificationRepo) MarkRead(id, userID string) (int64, error) {
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications[i].IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeNotificationRepo) Delete(id, userID string) (int64, error) {
	for i := range r.notifications {
		if r.notifications[i].ID == id && r.notifications[i].UserID == userID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}
