package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"intranet/api/internal/codegen"
	"intranet/api/internal/policy"
	"intranet/api/internal/progress"
	"intranet/api/internal/session"
	"intranet/api/internal/store"
)

// memStore is an in-memory dataStore and policy.Lookup. Transactions are
// serialized but not rolled back.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users     map[string]store.User
	projects  map[string]store.Project
	members   map[string]map[string]store.ProjectMember
	tasks     map[string]store.Task
	checklist map[string]store.ChecklistItem
	meetings  map[string]store.Meeting
	bookings  map[string]store.Booking
	posts     map[string]store.ForumPost
	articles  map[string]store.NewsArticle
	rooms     map[string]store.ChatRoom
	roomUsers map[string]map[string]bool
	messages  []store.ChatMessage
	sequences map[string]string
	locked    []string

	pingErr      error
	lookupErr    error
	sequenceErrs []error
	order        int
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]store.User{},
		projects:  map[string]store.Project{},
		members:   map[string]map[string]store.ProjectMember{},
		tasks:     map[string]store.Task{},
		checklist: map[string]store.ChecklistItem{},
		meetings:  map[string]store.Meeting{},
		bookings:  map[string]store.Booking{},
		posts:     map[string]store.ForumPost{},
		articles:  map[string]store.NewsArticle{},
		rooms:     map[string]store.ChatRoom{},
		roomUsers: map[string]map[string]bool{},
		sequences: map[string]string{},
	}
}

func (m *memStore) addUser(id, role string) store.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := store.User{ID: id, Email: id + "@example.com", DisplayName: strings.ToUpper(id[:1]) + id[1:], Role: role, IsActive: true}
	m.users[id] = u
	return u
}

func (m *memStore) WithTx(ctx context.Context, fn func(repo) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(m)
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) tick() time.Time {
	m.order++
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.order) * time.Second)
}

// Sequences

func (m *memStore) LockSequence(_ context.Context, prefix string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.sequences[prefix]
	return code, ok, nil
}

func (m *memStore) CreateSequence(_ context.Context, prefix, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sequenceErrs) > 0 {
		err := m.sequenceErrs[0]
		m.sequenceErrs = m.sequenceErrs[1:]
		return err
	}
	m.sequences[prefix] = code
	return nil
}

func (m *memStore) SaveSequence(_ context.Context, prefix, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[prefix] = code
	return nil
}

func (m *memStore) LatestProjectCode(_ context.Context, prefix string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest store.Project
	found := false
	for _, p := range m.projects {
		if !strings.HasPrefix(p.Code, prefix+"-") {
			continue
		}
		if !found || p.CreatedAt.After(latest.CreatedAt) {
			latest, found = p, true
		}
	}
	return latest.Code, found, nil
}

// Users

func (m *memStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (m *memStore) ListUsersByIDs(_ context.Context, ids []string) ([]store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// Projects

func (m *memStore) InsertProject(_ context.Context, p store.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.projects {
		if existing.Code == p.Code {
			return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	p.CreatedAt = m.tick()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = p
	return nil
}

func (m *memStore) liveProject(id string) (store.Project, bool) {
	p, ok := m.projects[id]
	if !ok || p.DeletedAt != nil {
		return store.Project{}, false
	}
	return p, true
}

func (m *memStore) GetProject(_ context.Context, id string) (store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.liveProject(id)
	if !ok {
		return store.Project{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) ListProjects(_ context.Context, userID string, all bool) ([]store.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Project
	for _, p := range m.projects {
		if p.DeletedAt != nil {
			continue
		}
		_, member := m.members[p.ID][userID]
		if all || p.ManagerID == userID || member {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memStore) ListActiveProjectIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, p := range m.projects {
		if p.DeletedAt == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memStore) UpdateProject(_ context.Context, p store.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.liveProject(p.ID)
	if !ok {
		return nil
	}
	cur.Name, cur.Description, cur.Priority = p.Name, p.Description, p.Priority
	m.projects[p.ID] = cur
	return nil
}

func (m *memStore) SetProjectStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.liveProject(id); ok {
		p.Status = status
		m.projects[id] = p
	}
	return nil
}

func (m *memStore) SetProjectProgress(_ context.Context, id string, pct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.projects[id]; ok {
		p.Progress = pct
		m.projects[id] = p
	}
	return nil
}

func (m *memStore) SoftDeleteProject(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.liveProject(id); ok {
		p.DeletedAt = &at
		m.projects[id] = p
	}
	return nil
}

func (m *memStore) PutProjectMember(_ context.Context, pm store.ProjectMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[pm.ProjectID] == nil {
		m.members[pm.ProjectID] = map[string]store.ProjectMember{}
	}
	m.members[pm.ProjectID][pm.UserID] = pm
	return nil
}

func (m *memStore) RemoveProjectMember(_ context.Context, projectID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[projectID], userID)
	return nil
}

func (m *memStore) ListProjectMembers(_ context.Context, projectID string) ([]store.ProjectMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.ProjectMember
	for _, pm := range m.members[projectID] {
		out = append(out, pm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memStore) ProjectCounts(_ context.Context, projectID string) (progress.Counts, progress.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tasks, items progress.Counts
	for _, t := range m.tasks {
		if t.ProjectID != projectID {
			continue
		}
		tasks.Total++
		if strings.EqualFold(t.Status, "done") {
			tasks.Completed++
		}
		for _, it := range m.checklist {
			if it.TaskID != t.ID {
				continue
			}
			items.Total++
			if it.IsCompleted {
				items.Completed++
			}
		}
	}
	return tasks, items, nil
}

// Tasks

func (m *memStore) InsertTask(_ context.Context, t store.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = m.tick()
	t.Assignees = append([]string{}, t.Assignees...)
	t.Checklist = nil
	m.tasks[t.ID] = t
	return nil
}

func (m *memStore) GetTask(_ context.Context, id string) (store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return store.Task{}, store.ErrNotFound
	}
	if _, live := m.liveProject(t.ProjectID); !live {
		return store.Task{}, store.ErrNotFound
	}
	t.Checklist = m.itemsOf(id)
	return t, nil
}

func (m *memStore) itemsOf(taskID string) []store.ChecklistItem {
	items := []store.ChecklistItem{}
	for _, it := range m.checklist {
		if it.TaskID == taskID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	return items
}

func (m *memStore) ListTasks(_ context.Context, projectID string) ([]store.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateTask(_ context.Context, t store.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.tasks[t.ID]
	cur.Title, cur.Description, cur.Priority, cur.DueDate = t.Title, t.Description, t.Priority, t.DueDate
	m.tasks[t.ID] = cur
	return nil
}

func (m *memStore) SetTaskStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[id]
	t.Status = status
	m.tasks[id] = t
	return nil
}

func (m *memStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	for itemID, it := range m.checklist {
		if it.TaskID == id {
			delete(m.checklist, itemID)
		}
	}
	return nil
}

func (m *memStore) SetTaskAssignees(_ context.Context, taskID string, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tasks[taskID]
	t.Assignees = append([]string{}, userIDs...)
	m.tasks[taskID] = t
	return nil
}

func (m *memStore) InsertChecklistItem(_ context.Context, item store.ChecklistItem) (store.ChecklistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.SortOrder = len(m.itemsOf(item.TaskID))
	item.CreatedAt = m.tick()
	m.checklist[item.ID] = item
	return item, nil
}

func (m *memStore) GetChecklistItem(_ context.Context, id string) (store.ChecklistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.checklist[id]
	if !ok {
		return store.ChecklistItem{}, store.ErrNotFound
	}
	return it, nil
}

func (m *memStore) ToggleChecklistItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.checklist[id]
	it.IsCompleted = !it.IsCompleted
	m.checklist[id] = it
	return nil
}

func (m *memStore) DeleteChecklistItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.checklist, id)
	return nil
}

// Meetings

func (m *memStore) InsertMeeting(_ context.Context, mt store.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt.CreatedAt = m.tick()
	mt.Participants = append([]string{}, mt.Participants...)
	m.meetings[mt.ID] = mt
	return nil
}

func (m *memStore) GetMeeting(_ context.Context, id string) (store.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt, ok := m.meetings[id]
	if !ok {
		return store.Meeting{}, store.ErrNotFound
	}
	return mt, nil
}

func (m *memStore) ListMeetings(_ context.Context, userID string, all bool, from time.Time) ([]store.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Meeting
	for _, mt := range m.meetings {
		if mt.EndsAt.Before(from) {
			continue
		}
		visible := all || mt.CreatorID == userID || strings.EqualFold(mt.AccessMode, "public")
		for _, p := range mt.Participants {
			visible = visible || p == userID
		}
		if visible {
			out = append(out, mt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *memStore) UpdateMeeting(_ context.Context, mt store.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.meetings[mt.ID]
	mt.Participants = cur.Participants
	m.meetings[mt.ID] = mt
	return nil
}

func (m *memStore) DeleteMeeting(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.meetings, id)
	return nil
}

func (m *memStore) SetMeetingParticipants(_ context.Context, meetingID string, userIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mt := m.meetings[meetingID]
	mt.Participants = append([]string{}, userIDs...)
	m.meetings[meetingID] = mt
	return nil
}

// Bookings

func (m *memStore) InsertBooking(_ context.Context, b store.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.CreatedAt = m.tick()
	m.bookings[b.ID] = b
	return nil
}

func (m *memStore) GetBooking(_ context.Context, id string) (store.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return store.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (m *memStore) ListBookings(_ context.Context, creatorID string) ([]store.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Booking
	for _, b := range m.bookings {
		if creatorID == "" || b.CreatorID == creatorID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return out, nil
}

func (m *memStore) UpdateBooking(_ context.Context, b store.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.bookings[b.ID]
	cur.Resource, cur.Purpose, cur.StartsAt, cur.EndsAt = b.Resource, b.Purpose, b.StartsAt, b.EndsAt
	m.bookings[b.ID] = cur
	return nil
}

func (m *memStore) SetBookingStatus(_ context.Context, id, status string, decidedBy *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bookings[id]
	b.Status = status
	b.ApprovedBy = decidedBy
	m.bookings[id] = b
	return nil
}

func (m *memStore) DeleteBooking(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookings, id)
	return nil
}

func (m *memStore) CountApprovedOverlaps(_ context.Context, resource string, start, end time.Time, excludeID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.ID == excludeID || b.Resource != resource || !strings.EqualFold(b.Status, store.BookingApproved) {
			continue
		}
		if b.StartsAt.Before(end) && start.Before(b.EndsAt) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) LockBookingResource(_ context.Context, resource string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = append(m.locked, resource)
	return nil
}

// Forum and news

func (m *memStore) InsertPost(_ context.Context, p store.ForumPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = m.tick()
	m.posts[p.ID] = p
	return nil
}

func (m *memStore) GetPost(_ context.Context, id string) (store.ForumPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return store.ForumPost{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memStore) UpdatePost(_ context.Context, p store.ForumPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.posts[p.ID]
	cur.Title, cur.Body, cur.Status = p.Title, p.Body, p.Status
	m.posts[p.ID] = cur
	return nil
}

func (m *memStore) SetPostHidden(_ context.Context, id string, hidden bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.posts[id]
	p.Hidden = hidden
	m.posts[id] = p
	return nil
}

func (m *memStore) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	return nil
}

func (m *memStore) InsertArticle(_ context.Context, a store.NewsArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.CreatedAt = m.tick()
	m.articles[a.ID] = a
	return nil
}

func (m *memStore) GetArticle(_ context.Context, id string) (store.NewsArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return store.NewsArticle{}, store.ErrNotFound
	}
	return a, nil
}

func (m *memStore) UpdateArticle(_ context.Context, a store.NewsArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.articles[a.ID]
	cur.Title, cur.Body, cur.Status = a.Title, a.Body, a.Status
	m.articles[a.ID] = cur
	return nil
}

func (m *memStore) DeleteArticle(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.articles, id)
	return nil
}

// Chat

func (m *memStore) InsertChatRoom(_ context.Context, room store.ChatRoom, memberIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room.CreatedAt = m.tick()
	m.rooms[room.ID] = room
	m.roomUsers[room.ID] = map[string]bool{room.CreatedBy: true}
	for _, id := range memberIDs {
		m.roomUsers[room.ID][id] = true
	}
	return nil
}

func (m *memStore) GetChatRoom(_ context.Context, id string) (store.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return store.ChatRoom{}, store.ErrNotFound
	}
	return room, nil
}

func (m *memStore) IsChatRoomMember(_ context.Context, roomID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomUsers[roomID][userID], nil
}

func (m *memStore) InsertChatMessage(_ context.Context, msg store.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memStore) ListChatMessages(_ context.Context, roomID string, limit int) ([]store.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []store.ChatMessage{}
	for _, msg := range m.messages {
		if msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// policy.Lookup

func (m *memStore) ProjectAccess(_ context.Context, projectID, userID string) (policy.ProjectAccess, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return policy.ProjectAccess{}, false, m.lookupErr
	}
	return m.projectAccess(projectID, userID)
}

func (m *memStore) projectAccess(projectID, userID string) (policy.ProjectAccess, bool, error) {
	p, ok := m.liveProject(projectID)
	if !ok {
		return policy.ProjectAccess{}, false, nil
	}
	access := policy.ProjectAccess{ManagerID: p.ManagerID}
	if pm, member := m.members[projectID][userID]; member {
		access.IsMember = true
		access.MemberRole = pm.Role
	}
	return access, true, nil
}

func (m *memStore) TaskAccess(_ context.Context, taskID, userID string) (policy.TaskAccess, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return policy.TaskAccess{}, false, m.lookupErr
	}
	t, ok := m.tasks[taskID]
	if !ok {
		return policy.TaskAccess{}, false, nil
	}
	project, found, _ := m.projectAccess(t.ProjectID, userID)
	if !found {
		return policy.TaskAccess{}, false, nil
	}
	assigned := false
	for _, id := range t.Assignees {
		assigned = assigned || id == userID
	}
	return policy.TaskAccess{ProjectID: t.ProjectID, Project: project, IsAssignee: assigned}, true, nil
}

func (m *memStore) MeetingAccess(_ context.Context, meetingID, userID string) (policy.MeetingAccess, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return policy.MeetingAccess{}, false, m.lookupErr
	}
	mt, ok := m.meetings[meetingID]
	if !ok {
		return policy.MeetingAccess{}, false, nil
	}
	invited := false
	for _, id := range mt.Participants {
		invited = invited || id == userID
	}
	return policy.MeetingAccess{CreatorID: mt.CreatorID, AccessMode: mt.AccessMode, IsParticipant: invited}, true, nil
}

func (m *memStore) BookingAccess(_ context.Context, bookingID string) (policy.BookingAccess, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return policy.BookingAccess{}, false, m.lookupErr
	}
	b, ok := m.bookings[bookingID]
	if !ok {
		return policy.BookingAccess{}, false, nil
	}
	return policy.BookingAccess{CreatorID: b.CreatorID, Status: b.Status}, true, nil
}

func (m *memStore) ForumPostAuthor(_ context.Context, postID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return "", false, m.lookupErr
	}
	p, ok := m.posts[postID]
	return p.AuthorID, ok, nil
}

func (m *memStore) NewsArticleAuthor(_ context.Context, articleID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return "", false, m.lookupErr
	}
	a, ok := m.articles[articleID]
	return a.AuthorID, ok, nil
}

func (m *memStore) WithinSequenceTx(ctx context.Context, fn func(codegen.Sequences) error) error {
	return m.WithTx(ctx, func(r repo) error { return fn(r) })
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]store.User
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]store.User{}}
}

func (s *memSessions) SaveRefreshSession(_ context.Context, tokenHash string, user store.User, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenHash] = user
	return nil
}

func (s *memSessions) LookupRefreshSession(_ context.Context, tokenHash string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.sessions[tokenHash]
	if !ok {
		return store.User{}, session.ErrNotFound
	}
	return user, nil
}

func (s *memSessions) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}
