package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"intranet/api/internal/auth"
	"intranet/api/internal/authpw"
	"intranet/api/internal/codegen"
	"intranet/api/internal/config"
	"intranet/api/internal/email"
	"intranet/api/internal/metrics"
	"intranet/api/internal/policy"
	"intranet/api/internal/progress"
	"intranet/api/internal/search"
	"intranet/api/internal/session"
	"intranet/api/internal/store"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

func (s Session) Actor() policy.Actor {
	return policy.NewActor(s.UserID, s.Role)
}

// repo is the persistence surface shared by the pooled store and an open
// transaction.
type repo interface {
	codegen.Sequences

	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	ListUsersByIDs(context.Context, []string) ([]store.User, error)

	InsertProject(context.Context, store.Project) error
	GetProject(context.Context, string) (store.Project, error)
	ListProjects(context.Context, string, bool) ([]store.Project, error)
	ListActiveProjectIDs(context.Context) ([]string, error)
	UpdateProject(context.Context, store.Project) error
	SetProjectStatus(context.Context, string, string) error
	SetProjectProgress(context.Context, string, int) error
	SoftDeleteProject(context.Context, string, time.Time) error
	PutProjectMember(context.Context, store.ProjectMember) error
	RemoveProjectMember(context.Context, string, string) error
	ListProjectMembers(context.Context, string) ([]store.ProjectMember, error)
	ProjectCounts(context.Context, string) (progress.Counts, progress.Counts, error)

	InsertTask(context.Context, store.Task) error
	GetTask(context.Context, string) (store.Task, error)
	ListTasks(context.Context, string) ([]store.Task, error)
	UpdateTask(context.Context, store.Task) error
	SetTaskStatus(context.Context, string, string) error
	DeleteTask(context.Context, string) error
	SetTaskAssignees(context.Context, string, []string) error
	InsertChecklistItem(context.Context, store.ChecklistItem) (store.ChecklistItem, error)
	GetChecklistItem(context.Context, string) (store.ChecklistItem, error)
	ToggleChecklistItem(context.Context, string) error
	DeleteChecklistItem(context.Context, string) error

	InsertMeeting(context.Context, store.Meeting) error
	GetMeeting(context.Context, string) (store.Meeting, error)
	ListMeetings(context.Context, string, bool, time.Time) ([]store.Meeting, error)
	UpdateMeeting(context.Context, store.Meeting) error
	DeleteMeeting(context.Context, string) error
	SetMeetingParticipants(context.Context, string, []string) error

	InsertBooking(context.Context, store.Booking) error
	GetBooking(context.Context, string) (store.Booking, error)
	ListBookings(context.Context, string) ([]store.Booking, error)
	UpdateBooking(context.Context, store.Booking) error
	SetBookingStatus(context.Context, string, string, *string) error
	DeleteBooking(context.Context, string) error
	CountApprovedOverlaps(context.Context, string, time.Time, time.Time, string) (int, error)
	LockBookingResource(context.Context, string) error

	InsertPost(context.Context, store.ForumPost) error
	GetPost(context.Context, string) (store.ForumPost, error)
	UpdatePost(context.Context, store.ForumPost) error
	SetPostHidden(context.Context, string, bool) error
	DeletePost(context.Context, string) error
	InsertArticle(context.Context, store.NewsArticle) error
	GetArticle(context.Context, string) (store.NewsArticle, error)
	UpdateArticle(context.Context, store.NewsArticle) error
	DeleteArticle(context.Context, string) error

	InsertChatRoom(context.Context, store.ChatRoom, []string) error
	GetChatRoom(context.Context, string) (store.ChatRoom, error)
	IsChatRoomMember(context.Context, string, string) (bool, error)
	InsertChatMessage(context.Context, store.ChatMessage) error
	ListChatMessages(context.Context, string, int) ([]store.ChatMessage, error)
}

type dataStore interface {
	repo
	WithTx(ctx context.Context, fn func(repo) error) error
	Ping(ctx context.Context) error
}

// SQLStore adapts *store.Store so transactions are handed out as repo.
type SQLStore struct {
	*store.Store
}

func NewSQLStore(s *store.Store) SQLStore {
	return SQLStore{Store: s}
}

func (s SQLStore) WithTx(ctx context.Context, fn func(repo) error) error {
	return s.Store.WithTx(ctx, func(tx *store.Tx) error { return fn(tx) })
}

type indexer interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexPost(search.PostRecord)
	IndexArticle(search.ArticleRecord)
	DeletePost(id string)
	DeleteArticle(id string)
}

type mailer interface {
	IsConfigured() bool
	SendMeetingInvite(to []string, data email.MeetingInviteData) error
	SendBookingDecision(to string, data email.BookingDecisionData) error
}

type chatPublisher interface {
	PublishChatMessage(ctx context.Context, msg store.ChatMessage) error
}

type rateLimiter interface {
	Allow(actorID string) bool
}

// Deps are the collaborators New wires together. Search, Mailer, Chat,
// ChatLimit and Metrics are optional.
type Deps struct {
	Store     dataStore
	Policy    *policy.Engine
	Allocator *codegen.Allocator
	Sessions  session.Store
	Search    indexer
	Mailer    mailer
	Chat      chatPublisher
	ChatLimit rateLimiter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

type Service struct {
	cfg       config.Config
	store     dataStore
	policy    *policy.Engine
	allocator *codegen.Allocator
	sessions  session.Store
	passwords *authpw.Service
	search    indexer
	mailer    mailer
	chat      chatPublisher
	chatLimit rateLimiter
	metrics   *metrics.Metrics
	logger    *zap.Logger

	// background runs notification side effects off the request path.
	background func(func())
	now        func() time.Time
}

func New(cfg config.Config, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg,
		store:      deps.Store,
		policy:     deps.Policy,
		allocator:  deps.Allocator,
		sessions:   deps.Sessions,
		passwords:  authpw.NewService(deps.Store),
		search:     deps.Search,
		mailer:     deps.Mailer,
		chat:       deps.Chat,
		chatLimit:  deps.ChatLimit,
		metrics:    deps.Metrics,
		logger:     logger,
		background: func(fn func()) { go fn() },
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, error) {
	user, err := s.passwords.SignIn(ctx, authpw.SignInRequest{Email: emailAddr, Password: password})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates the refresh token: the presented one is revoked before a
// new pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, auth.ErrInvalidToken
	}
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if errors.Is(err, session.ErrNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	current, err := s.store.GetUserByID(ctx, user.ID)
	if err != nil || !current.IsActive {
		return Session{}, auth.ErrInvalidToken
	}
	return s.issueSession(ctx, current)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	claims := auth.NewClaims(user.ID, user.DisplayName, user.Role, s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), claims)
	if err != nil {
		return Session{}, err
	}

	refresh, err := auth.NewRefreshToken()
	if err != nil {
		return Session{}, err
	}
	refreshExpires := s.now().Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		JTI:          claims.ID,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}

// SessionFromToken validates the bearer token and reloads the user so that
// deactivations and role changes apply before the token expires.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

// require runs a policy check and hides lookup failures behind a logged
// server error.
func (s *Service) require(ctx context.Context, kind policy.Kind, capability policy.Capability, actor policy.Actor, id string) error {
	err := s.policy.Require(ctx, kind, capability, actor, id)
	if errors.Is(err, policy.ErrLookupFailure) {
		s.logger.Error("authorization lookup failed",
			zap.String("kind", string(kind)),
			zap.String("capability", string(capability)),
			zap.String("resource_id", id),
			zap.Error(err),
		)
	}
	return err
}

// missing maps ErrNotFound to a 404 naming the resource.
func missing(resource string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(resource)
	}
	return err
}

func (s *Service) notify(op string, fn func() error) {
	s.background(func() {
		if err := fn(); err != nil {
			s.logger.Warn(op, zap.Error(err))
		}
	})
}
