package service

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/allocator"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/rs/zerolog"
)

var (
	testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	nopLog  = zerolog.Nop()
)

const (
	studentID   identity.ID = 100
	tutorID     identity.ID = 200
	strangerID  identity.ID = 300
	adminID     identity.ID = 400
	otherStudID identity.ID = 500
)

var (
	student  = Actor{ID: studentID, Roles: []model.Role{model.RoleStudent}}
	tutor    = Actor{ID: tutorID, Roles: []model.Role{model.RoleTutor}}
	stranger = Actor{ID: strangerID, Roles: []model.Role{model.RoleStudent}}
	admin    = Actor{ID: adminID, Roles: []model.Role{model.RoleAdmin}}
)

// memStore keeps plans and executions in memory. Mutate works on a copy and
// only commits it when fn succeeds, like the transactional repository.
type memStore struct {
	mu         sync.Mutex
	nextID     identity.ID
	plans      map[identity.ID]*model.TestPlan
	executions map[identity.ID]*model.TestExecution
	stale      []identity.ID
}

func newMemStore() *memStore {
	return &memStore{
		nextID:     1000,
		plans:      map[identity.ID]*model.TestPlan{},
		executions: map[identity.ID]*model.TestExecution{},
	}
}

func cloneExecution(e *model.TestExecution) *model.TestExecution {
	c := *e
	c.Snapshot.Questions = slices.Clone(e.Snapshot.Questions)
	c.Snapshot.Responses = slices.Clone(e.Snapshot.Responses)
	return &c
}

func (m *memStore) id() identity.ID {
	m.nextID++
	return m.nextID
}

func (m *memStore) addPlan(p *model.TestPlan) *model.TestPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.id()
	}
	m.plans[p.ID] = p
	return p
}

func (m *memStore) addExecution(e *model.TestExecution) *model.TestExecution {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	e.CreatedAt = testNow.Add(time.Duration(e.ID) * time.Second)
	m.executions[e.ID] = e
	return e
}

func (m *memStore) execution(id identity.ID) *model.TestExecution {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneExecution(m.executions[id])
}

// ─── PlanStore ───────────────────────────────────────────────────────

func (m *memStore) CreateWithExecution(_ context.Context, p *model.TestPlan, e *model.TestExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt, p.UpdatedAt = testNow, testNow
	m.plans[p.ID] = p
	e.ID = m.id()
	e.TestPlanID = p.ID
	e.CreatedAt = testNow
	m.executions[e.ID] = e
	return nil
}

func (m *memStore) GetByID(_ context.Context, id identity.ID) (*model.TestPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, apperror.NotFound("test plan", id.String())
	}
	c := *p
	return &c, nil
}

func (m *memStore) ListForUser(_ context.Context, userID identity.ID, limit, page int) ([]model.TestPlan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TestPlan
	for _, p := range m.plans {
		if p.StudentID == userID || p.PlannedBy == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memStore) UpdateMetadata(_ context.Context, p *model.TestPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.plans[p.ID] = &c
	return nil
}

func (m *memStore) Delete(_ context.Context, id identity.ID, guard func(latest *model.TestExecution) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return apperror.NotFound("test plan", id.String())
	}
	var latest *model.TestExecution
	if list := m.byPlan(id); len(list) > 0 {
		latest = &list[0]
	}
	if err := guard(latest); err != nil {
		return err
	}
	delete(m.plans, id)
	for eid, e := range m.executions {
		if e.TestPlanID == id {
			delete(m.executions, eid)
		}
	}
	return nil
}

// ─── ExecutionStore ──────────────────────────────────────────────────

func (m *memStore) GetWithPlan(_ context.Context, id identity.ID) (*model.TestExecution, *model.TestPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.executions[id]
	if !ok {
		return nil, nil, apperror.NotFound("test execution", id.String())
	}
	p := *m.plans[e.TestPlanID]
	return cloneExecution(e), &p, nil
}

func (m *memStore) byPlan(planID identity.ID) []model.TestExecution {
	var out []model.TestExecution
	for _, e := range m.executions {
		if e.TestPlanID == planID {
			out = append(out, *cloneExecution(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memStore) LatestByPlan(_ context.Context, planID identity.ID) (*model.TestExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byPlan(planID)
	if len(list) == 0 {
		return nil, apperror.NotFound("test execution", "")
	}
	return &list[0], nil
}

func (m *memStore) ListByPlan(_ context.Context, planID identity.ID) ([]model.TestExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byPlan(planID), nil
}

func (m *memStore) CreateForPlan(
	_ context.Context,
	planID identity.ID,
	build func(plan *model.TestPlan, latest *model.TestExecution) (*model.TestExecution, error),
) (*model.TestExecution, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return nil, false, apperror.NotFound("test plan", planID.String())
	}
	var latest *model.TestExecution
	if list := m.byPlan(planID); len(list) > 0 {
		latest = &list[0]
		if latest.Status == model.ExecutionNotStarted {
			return latest, false, nil
		}
	}
	plan := *p
	e, err := build(&plan, latest)
	if err != nil {
		return nil, false, err
	}
	e.ID = m.id()
	e.TestPlanID = planID
	m.executions[e.ID] = e
	return cloneExecution(e), true, nil
}

func (m *memStore) Mutate(
	_ context.Context,
	id identity.ID,
	fn func(e *model.TestExecution, plan *model.TestPlan) error,
) (*model.TestExecution, *model.TestPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.executions[id]
	if !ok {
		return nil, nil, apperror.NotFound("test execution", id.String())
	}
	e := cloneExecution(stored)
	plan := *m.plans[e.TestPlanID]
	if err := fn(e, &plan); err != nil {
		return nil, nil, err
	}
	m.executions[id] = cloneExecution(e)
	return e, &plan, nil
}

func (m *memStore) ListStale(_ context.Context, _ time.Time, limit int) ([]identity.ID, error) {
	if len(m.stale) > limit {
		return m.stale[:limit], nil
	}
	return m.stale, nil
}

// ─── Other fakes ─────────────────────────────────────────────────────

type recordingBus struct {
	mu     sync.Mutex
	events []model.ExecutionEvent
	err    error
}

func (b *recordingBus) Publish(_ context.Context, ev model.ExecutionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return b.err
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, ev := range b.events {
		out[i] = ev.Type
	}
	return out
}

type fakeCatalog struct {
	topics    identity.Set
	subtopics map[identity.ID]identity.ID
}

func (c fakeCatalog) CountExistingTopics(_ context.Context, ids []identity.ID) (int, error) {
	n := 0
	for _, id := range ids {
		if c.topics.Contains(id) {
			n++
		}
	}
	return n, nil
}

func (c fakeCatalog) SubtopicTopics(_ context.Context, ids []identity.ID) (map[identity.ID]identity.ID, error) {
	out := map[identity.ID]identity.ID{}
	for _, id := range ids {
		if t, ok := c.subtopics[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

type fakeUsers map[identity.ID]*model.User

func (u fakeUsers) GetByID(_ context.Context, id identity.ID) (*model.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, apperror.NotFound("user", id.String())
	}
	return user, nil
}

// fakePool serves questions from a fixed slice, honouring the filter fields
// the allocator sets.
type fakePool []model.Question

func (p fakePool) FindQuestions(_ context.Context, f model.QuestionFilter) ([]model.Question, error) {
	var out []model.Question
	for _, q := range p {
		if f.ActiveOnly && !q.Active {
			continue
		}
		if f.Difficulty != nil && q.Difficulty != *f.Difficulty {
			continue
		}
		if len(f.TopicIDs) > 0 && !slices.Contains(f.TopicIDs, q.TopicID) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

var _ allocator.Pool = fakePool(nil)
