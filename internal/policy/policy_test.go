package policy

import (
	"context"
	"errors"
	"testing"
)

type fakeLookup struct {
	projects map[string]ProjectAccess
	members  map[string]map[string]string // project -> user -> role
	tasks    map[string]struct {
		projectID string
		assignees []string
	}
	meetings map[string]MeetingAccess
	invited  map[string][]string
	bookings map[string]BookingAccess
	posts    map[string]string
	articles map[string]string
	err      error
	calls    int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		projects: map[string]ProjectAccess{},
		members:  map[string]map[string]string{},
		tasks: map[string]struct {
			projectID string
			assignees []string
		}{},
		meetings: map[string]MeetingAccess{},
		invited:  map[string][]string{},
		bookings: map[string]BookingAccess{},
		posts:    map[string]string{},
		articles: map[string]string{},
	}
}

func (f *fakeLookup) ProjectAccess(_ context.Context, projectID, userID string) (ProjectAccess, bool, error) {
	f.calls++
	if f.err != nil {
		return ProjectAccess{}, false, f.err
	}
	access, ok := f.projects[projectID]
	if !ok {
		return ProjectAccess{}, false, nil
	}
	if role, member := f.members[projectID][userID]; member {
		access.IsMember = true
		access.MemberRole = role
	}
	return access, true, nil
}

func (f *fakeLookup) TaskAccess(ctx context.Context, taskID, userID string) (TaskAccess, bool, error) {
	f.calls++
	if f.err != nil {
		return TaskAccess{}, false, f.err
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return TaskAccess{}, false, nil
	}
	project, found, err := f.ProjectAccess(ctx, task.projectID, userID)
	if err != nil || !found {
		return TaskAccess{}, false, err
	}
	access := TaskAccess{ProjectID: task.projectID, Project: project}
	for _, id := range task.assignees {
		if id == userID {
			access.IsAssignee = true
		}
	}
	return access, true, nil
}

func (f *fakeLookup) MeetingAccess(_ context.Context, meetingID, userID string) (MeetingAccess, bool, error) {
	f.calls++
	if f.err != nil {
		return MeetingAccess{}, false, f.err
	}
	access, ok := f.meetings[meetingID]
	if !ok {
		return MeetingAccess{}, false, nil
	}
	for _, id := range f.invited[meetingID] {
		if id == userID {
			access.IsParticipant = true
		}
	}
	return access, true, nil
}

func (f *fakeLookup) BookingAccess(_ context.Context, bookingID string) (BookingAccess, bool, error) {
	f.calls++
	if f.err != nil {
		return BookingAccess{}, false, f.err
	}
	access, ok := f.bookings[bookingID]
	return access, ok, nil
}

func (f *fakeLookup) ForumPostAuthor(_ context.Context, postID string) (string, bool, error) {
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	author, ok := f.posts[postID]
	return author, ok, nil
}

func (f *fakeLookup) NewsArticleAuthor(_ context.Context, articleID string) (string, bool, error) {
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	author, ok := f.articles[articleID]
	return author, ok, nil
}

func seededLookup() *fakeLookup {
	f := newFakeLookup()
	f.projects["p1"] = ProjectAccess{ManagerID: "mgr"}
	f.members["p1"] = map[string]string{"co": "MANAGER", "mem": "Member", "asg": "Member"}
	f.tasks["t1"] = struct {
		projectID string
		assignees []string
	}{projectID: "p1", assignees: []string{"asg"}}
	f.meetings["m-private"] = MeetingAccess{CreatorID: "host", AccessMode: "private"}
	f.meetings["m-public"] = MeetingAccess{CreatorID: "host", AccessMode: "Public"}
	f.invited["m-private"] = []string{"guest"}
	f.bookings["b-pending"] = BookingAccess{CreatorID: "owner", Status: "PENDING"}
	f.bookings["b-approved"] = BookingAccess{CreatorID: "owner", Status: "approved"}
	f.posts["post1"] = "author"
	f.articles["a1"] = "writer"
	return f
}

func TestEngineDecisionTable(t *testing.T) {
	engine := NewEngine(seededLookup())
	ctx := context.Background()

	tests := []struct {
		name string
		kind Kind
		cap  Capability
		user string
		role string
		id   string
		want bool
	}{
		{"admin views any project", KindProject, View, "root", "Admin", "p1", true},
		{"member views project", KindProject, View, "mem", "employee", "p1", true},
		{"outsider cannot view project", KindProject, View, "stranger", "employee", "p1", false},
		{"global manager role is not project manager", KindProject, Edit, "stranger", "manager", "p1", false},
		{"manager_id edits project", KindProject, Edit, "mgr", "employee", "p1", true},
		{"manager membership row edits project", KindProject, Edit, "co", "employee", "p1", true},
		{"plain member cannot edit project", KindProject, Edit, "mem", "employee", "p1", false},
		{"plain member cannot delete project", KindProject, Delete, "mem", "employee", "p1", false},
		{"project manager manages members", KindProject, Manage, "mgr", "employee", "p1", true},

		{"member views task", KindTask, View, "mem", "employee", "t1", true},
		{"outsider cannot view task", KindTask, View, "stranger", "employee", "t1", false},
		{"assignee edits task", KindTask, Edit, "asg", "employee", "t1", true},
		{"member cannot edit task", KindTask, Edit, "mem", "employee", "t1", false},
		{"assignee cannot delete task", KindTask, Delete, "asg", "employee", "t1", false},
		{"project manager deletes task", KindTask, Delete, "co", "employee", "t1", true},
		{"project manager creates task", KindTask, Create, "mgr", "employee", "p1", true},
		{"member cannot create task", KindTask, Create, "mem", "employee", "p1", false},

		{"creator views private meeting", KindMeeting, View, "host", "employee", "m-private", true},
		{"invited views private meeting", KindMeeting, View, "guest", "employee", "m-private", true},
		{"outsider cannot view private meeting", KindMeeting, View, "stranger", "employee", "m-private", false},
		{"anyone views public meeting", KindMeeting, View, "stranger", "employee", "m-public", true},
		{"invited cannot edit meeting", KindMeeting, Edit, "guest", "employee", "m-private", false},
		{"creator manages participants", KindMeeting, Manage, "host", "employee", "m-private", true},

		{"manager views any booking", KindBooking, View, "boss", "manager", "b-pending", true},
		{"creator views booking", KindBooking, View, "owner", "employee", "b-approved", true},
		{"other employee cannot view booking", KindBooking, View, "stranger", "employee", "b-pending", false},
		{"creator edits pending booking regardless of case", KindBooking, Edit, "owner", "employee", "b-pending", true},
		{"creator cannot edit approved booking", KindBooking, Edit, "owner", "employee", "b-approved", false},
		{"manager cannot edit booking", KindBooking, Edit, "boss", "manager", "b-pending", false},
		{"creator deletes approved booking", KindBooking, Delete, "owner", "employee", "b-approved", true},
		{"manager approves booking", KindBooking, Approve, "boss", "MANAGER", "b-pending", true},
		{"employee cannot approve booking", KindBooking, Approve, "owner", "employee", "b-pending", false},

		{"author edits post", KindForumPost, Edit, "author", "employee", "post1", true},
		{"manager cannot edit post", KindForumPost, Edit, "boss", "manager", "post1", false},
		{"manager deletes post", KindForumPost, Delete, "boss", "manager", "post1", true},
		{"author deletes post", KindForumPost, Delete, "author", "employee", "post1", true},
		{"employee cannot moderate", KindForumPost, Moderate, "author", "employee", "post1", false},
		{"manager moderates", KindForumPost, Moderate, "boss", "manager", "post1", true},

		{"author edits article", KindNewsArticle, Edit, "writer", "employee", "a1", true},
		{"other cannot delete article", KindNewsArticle, Delete, "stranger", "manager", "a1", false},
		{"manager creates article", KindNewsArticle, Create, "boss", "manager", "dept-1", true},
		{"employee cannot create article", KindNewsArticle, Create, "writer", "employee", "dept-1", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.Check(ctx, tc.kind, tc.cap, NewActor(tc.user, tc.role), tc.id)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Check() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdminBypassesOwnership(t *testing.T) {
	engine := NewEngine(seededLookup())
	admin := NewActor("root", "ADMIN")
	checks := []struct {
		kind Kind
		cap  Capability
		id   string
	}{
		{KindProject, Edit, "p1"},
		{KindProject, Delete, "p1"},
		{KindTask, Delete, "t1"},
		{KindMeeting, Edit, "m-private"},
		{KindBooking, Edit, "b-approved"},
		{KindForumPost, Edit, "post1"},
		{KindNewsArticle, Delete, "a1"},
	}
	for _, c := range checks {
		if err := engine.Require(context.Background(), c.kind, c.cap, admin, c.id); err != nil {
			t.Fatalf("admin %s %s: %v", c.cap, c.kind, err)
		}
	}
}

func TestMissingResourceDenies(t *testing.T) {
	engine := NewEngine(seededLookup())
	actor := NewActor("mgr", "employee")
	for _, kind := range []Kind{KindProject, KindTask, KindMeeting, KindBooking} {
		got, err := engine.Check(context.Background(), kind, View, actor, "missing")
		if err != nil || got {
			t.Fatalf("%s view missing = %v, %v; want false, nil", kind, got, err)
		}
	}
	for _, kind := range []Kind{KindForumPost, KindNewsArticle} {
		got, err := engine.Check(context.Background(), kind, Edit, actor, "missing")
		if err != nil || got {
			t.Fatalf("%s edit missing = %v, %v; want false, nil", kind, got, err)
		}
	}
}

func TestLookupFailureNeverAllows(t *testing.T) {
	lookup := seededLookup()
	lookup.err = errors.New("connection reset")
	engine := NewEngine(lookup)

	got, err := engine.Check(context.Background(), KindProject, View, NewActor("mgr", "employee"), "p1")
	if got {
		t.Fatal("expected deny on lookup failure")
	}
	if !errors.Is(err, ErrLookupFailure) {
		t.Fatalf("expected ErrLookupFailure, got %v", err)
	}

	err = engine.Require(context.Background(), KindBooking, Edit, NewActor("owner", "employee"), "b-pending")
	if !errors.Is(err, ErrLookupFailure) || errors.Is(err, ErrDenied) {
		t.Fatalf("expected lookup failure distinct from deny, got %v", err)
	}
}

func TestInvalidInputRejectedBeforeLookup(t *testing.T) {
	lookup := seededLookup()
	engine := NewEngine(lookup)

	if _, err := engine.Check(context.Background(), KindProject, View, NewActor("", "admin"), "p1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty actor: got %v", err)
	}
	if _, err := engine.Check(context.Background(), KindTask, Edit, NewActor("mem", "employee"), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty resource: got %v", err)
	}
	if lookup.calls != 0 {
		t.Fatalf("lookup called %d times", lookup.calls)
	}
}

func TestUnsupportedPair(t *testing.T) {
	engine := NewEngine(seededLookup())
	_, err := engine.Check(context.Background(), KindForumPost, View, NewActor("author", "employee"), "post1")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestRequireDeniesGenerically(t *testing.T) {
	engine := NewEngine(seededLookup())
	err := engine.Require(context.Background(), KindProject, Edit, NewActor("mem", "employee"), "p1")
	if err != ErrDenied {
		t.Fatalf("expected bare ErrDenied, got %v", err)
	}
}

func TestObserverSeesDecisions(t *testing.T) {
	var seen []bool
	engine := NewEngine(seededLookup()).WithObserver(func(_ Kind, _ Capability, allowed bool, _ error) {
		seen = append(seen, allowed)
	})
	_, _ = engine.Check(context.Background(), KindProject, View, NewActor("mem", "employee"), "p1")
	_, _ = engine.Check(context.Background(), KindProject, View, NewActor("x", "employee"), "p1")
	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Fatalf("unexpected observations %v", seen)
	}
}
