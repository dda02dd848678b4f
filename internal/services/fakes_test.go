package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"clientx/internal/models"
	"clientx/internal/repositories"
)

// In-memory fakes for the repository interfaces. WithTx returns the fake
// itself so transactional code paths run against the same state.

type fakeTransactor struct{}

func (fakeTransactor) RunInTransaction(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx, nil)
}

// ---- users ----

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int64]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if r.nextID == 0 {
		r.nextID = 1
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return r.sorted(), nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.sorted() {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, role models.Role) (int, error) {
	users, _ := r.ListByRole(ctx, role)
	return len(users), nil
}

func (r *fakeUserRepo) Search(ctx context.Context, keyword string, role models.Role, limit int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.sorted() {
		if u.Role != role {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(keyword)) {
			out = append(out, u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.RefreshToken = &token
	u.RefreshExpiresAt = &expiresAt
	u.RefreshRevoked = false
	return nil
}

func (r *fakeUserRepo) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token && !u.RefreshRevoked {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) ClearRefresh(ctx context.Context, userID int64) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.RefreshToken = nil
	u.RefreshRevoked = true
	return nil
}

func (r *fakeUserRepo) GetTelegramSettings(ctx context.Context, userID int64) (int64, bool, error) {
	u, ok := r.users[userID]
	if !ok {
		return 0, false, repositories.ErrNotFound
	}
	return u.TelegramChatID, u.NotifyTelegram, nil
}

func (r *fakeUserRepo) WithTx(tx *sql.Tx) repositories.UserRepository { return r }

func (r *fakeUserRepo) sorted() []*models.User {
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- groups ----

type fakeGroupRepo struct {
	groups map[int64]*models.TaskGroup
	nextID int64
}

func newFakeGroupRepo(groups ...*models.TaskGroup) *fakeGroupRepo {
	r := &fakeGroupRepo{groups: make(map[int64]*models.TaskGroup)}
	for _, g := range groups {
		r.groups[g.ID] = g
		if g.ID >= r.nextID {
			r.nextID = g.ID + 1
		}
	}
	return r
}

func (r *fakeGroupRepo) Store(ctx context.Context, group *models.TaskGroup) error {
	for _, g := range r.groups {
		if g.Name == group.Name {
			return repositories.ErrDuplicate
		}
	}
	if r.nextID == 0 {
		r.nextID = 1
	}
	group.ID = r.nextID
	r.nextID++
	r.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) FindByID(ctx context.Context, id int64) (*models.TaskGroup, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return g, nil
}

func (r *fakeGroupRepo) FindAll(ctx context.Context) ([]models.TaskGroup, error) {
	var out []models.TaskGroup
	for _, g := range r.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeGroupRepo) Update(ctx context.Context, group *models.TaskGroup) error {
	if _, ok := r.groups[group.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.groups[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.groups, id)
	return nil
}

func (r *fakeGroupRepo) SetMembers(ctx context.Context, groupID int64, userIDs []int64) error {
	g, ok := r.groups[groupID]
	if !ok {
		return repositories.ErrNotFound
	}
	g.Members = append([]int64(nil), userIDs...)
	return nil
}

func (r *fakeGroupRepo) ListMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	g, ok := r.groups[groupID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return g.Members, nil
}

func (r *fakeGroupRepo) WithTx(tx *sql.Tx) repositories.GroupRepository { return r }

// ---- tasks ----

type fakeTaskRepo struct {
	tasks   map[int64]*models.Task
	nextID  int64
	dueSoon []models.Task
	overdue []models.Task
}

func newFakeTaskRepo(tasks ...*models.Task) *fakeTaskRepo {
	r := &fakeTaskRepo{tasks: make(map[int64]*models.Task)}
	for _, t := range tasks {
		r.tasks[t.ID] = t
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

func (r *fakeTaskRepo) Store(ctx context.Context, task *models.Task) error {
	if r.nextID == 0 {
		r.nextID = 1
	}
	task.ID = r.nextID
	r.nextID++
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	cp.AssignedTo = append([]int64(nil), t.AssignedTo...)
	return &cp, nil
}

func (r *fakeTaskRepo) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	for _, t := range r.tasks {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AssigneeID != nil && !containsID(t.AssignedTo, *filter.AssigneeID) {
			continue
		}
		if filter.CreatorID != nil && (t.CreatedBy == nil || *t.CreatedBy != *filter.CreatorID) {
			continue
		}
		if filter.CreatedOrAssignedID != nil {
			id := *filter.CreatedOrAssignedID
			if !((t.CreatedBy != nil && *t.CreatedBy == id) || containsID(t.AssignedTo, id)) {
				continue
			}
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(filter.Keyword)) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	stored, ok := r.tasks[task.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	assignees := stored.AssignedTo
	cp := *task
	cp.AssignedTo = assignees
	r.tasks[task.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error {
	t, ok := r.tasks[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = to
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) SetAssignees(ctx context.Context, taskID int64, userIDs []int64) error {
	t, ok := r.tasks[taskID]
	if !ok {
		return repositories.ErrNotFound
	}
	t.AssignedTo = append([]int64(nil), userIDs...)
	return nil
}

func (r *fakeTaskRepo) ListAssigneeIDs(ctx context.Context, taskID int64) ([]int64, error) {
	t, ok := r.tasks[taskID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return t.AssignedTo, nil
}

func (r *fakeTaskRepo) ListDueOn(ctx context.Context, day time.Time) ([]models.Task, error) {
	return r.dueSoon, nil
}

func (r *fakeTaskRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]models.Task, error) {
	return r.overdue, nil
}

func (r *fakeTaskRepo) WithTx(tx *sql.Tx) repositories.TaskRepository { return r }

// ---- notifications ----

type fakeNotifRepo struct {
	items  []models.Notification
	nextID int64
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{nextID: 1}
}

func (r *fakeNotifRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	r.items = append(r.items, *n)
	return nil
}

func (r *fakeNotifRepo) CreateUnique(ctx context.Context, n *models.Notification) (bool, error) {
	if models.IsIdempotentNotifType(n.NotifType) {
		key := r.key(n)
		for i := range r.items {
			if r.key(&r.items[i]) == key {
				return false, nil
			}
		}
	}
	return true, r.Create(ctx, n)
}

func (r *fakeNotifRepo) key(n *models.Notification) string {
	taskID := int64(0)
	if n.TaskID != nil {
		taskID = *n.TaskID
	}
	return fmt.Sprintf("%d|%d|%s", n.UserID, taskID, n.NotifType)
}

func (r *fakeNotifRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].UserID == userID {
			out = append(out, r.items[i])
		}
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotifRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for i := range r.items {
		if r.items[i].UserID == userID && !r.items[i].IsRead {
			r.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotifRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	n := 0
	for i := range r.items {
		if r.items[i].UserID == userID && !r.items[i].IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotifRepo) WithTx(tx *sql.Tx) repositories.NotificationRepository { return r }

// forUser filters recorded notifications by recipient and type.
func (r *fakeNotifRepo) forUser(userID int64, notifType models.NotifType) []models.Notification {
	var out []models.Notification
	for _, n := range r.items {
		if n.UserID == userID && n.NotifType == notifType {
			out = append(out, n)
		}
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
