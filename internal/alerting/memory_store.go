package alerting

import (
	"context"
	"sort"
	"sync"

	"github.com/tgberrios/datasync/internal/alerting/channel"
)

// now is a package-level var so tests can freeze the clock.
var now = timeNow

// MemoryStore is an in-process Store for tests and the stub/sandbox
// command paths, mirroring internal/catalog.MemoryStore's shape.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	alerts   map[int64]Alert
	rules    map[string]AlertRule
	webhooks map[string]channel.Config
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		alerts:   make(map[int64]Alert),
		rules:    make(map[string]AlertRule),
		webhooks: make(map[string]channel.Config),
	}
}

func (s *MemoryStore) CreateAlert(ctx context.Context, alert Alert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	alert.ID = s.nextID
	alert.Status = Open
	alert.CreatedAt = now()
	alert.UpdatedAt = alert.CreatedAt
	s.alerts[alert.ID] = alert
	return alert.ID, nil
}

func (s *MemoryStore) UpdateAlertStatus(ctx context.Context, id int64, status Status, assignedTo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return errAlertNotFound(id)
	}
	a.Status = status
	if assignedTo != "" {
		a.AssignedTo = assignedTo
	}
	a.UpdatedAt = now()
	s.alerts[id] = a
	return nil
}

func (s *MemoryStore) ResolveAlert(ctx context.Context, id int64, resolvedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return errAlertNotFound(id)
	}
	a.Status = Resolved
	a.ResolvedAt = now()
	if resolvedBy != "" {
		a.AssignedTo = resolvedBy
	}
	a.UpdatedAt = a.ResolvedAt
	s.alerts[id] = a
	return nil
}

func (s *MemoryStore) ListActive(ctx context.Context, severity Severity, limit int) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Alert
	for _, a := range s.alerts {
		if a.Status != Open {
			continue
		}
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListByType(ctx context.Context, typ Type, days int) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now().AddDate(0, 0, -days)
	var out []Alert
	for _, a := range s.alerts {
		if a.Type == typ && !a.CreatedAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListForTable(ctx context.Context, schema, table string) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Alert
	for _, a := range s.alerts {
		if a.Schema == schema && a.Table == table {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpsertRule(ctx context.Context, rule AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rules[rule.Name]
	if ok {
		rule.CreatedAt = existing.CreatedAt
	} else {
		rule.CreatedAt = now()
	}
	rule.UpdatedAt = now()
	s.rules[rule.Name] = rule
	return nil
}

func (s *MemoryStore) ListRules(ctx context.Context) ([]AlertRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AlertRule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ListActiveRules(ctx context.Context) ([]AlertRule, error) {
	all, _ := s.ListRules(ctx)
	out := all[:0:0]
	for _, r := range all {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetRuleEnabled(ctx context.Context, name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[name]
	if !ok {
		return errRuleNotFound(name)
	}
	r.Enabled = enabled
	r.UpdatedAt = now()
	s.rules[name] = r
	return nil
}

func (s *MemoryStore) DeleteRule(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rules, name)
	return nil
}

func (s *MemoryStore) UpsertWebhook(ctx context.Context, cfg channel.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.webhooks[cfg.Name] = cfg
	return nil
}

func (s *MemoryStore) ListWebhooks(ctx context.Context) ([]channel.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]channel.Config, 0, len(s.webhooks))
	for _, cfg := range s.webhooks {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) DeleteWebhook(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.webhooks, name)
	return nil
}
