package store

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	Role         string    `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DepartmentID string    `db:"department_id" json:"departmentId,omitempty"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type Project struct {
	ID          string     `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	Priority    string     `db:"priority" json:"priority"`
	ManagerID   string     `db:"manager_id" json:"managerId"`
	Progress    int        `db:"progress" json:"progress"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

const (
	MemberRoleManager = "Manager"
	MemberRoleMember  = "Member"
)

type ProjectMember struct {
	ProjectID string    `db:"project_id" json:"projectId"`
	UserID    string    `db:"user_id" json:"userId"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Task struct {
	ID          string          `db:"id" json:"id"`
	ProjectID   string          `db:"project_id" json:"projectId"`
	CreatorID   string          `db:"creator_id" json:"creatorId"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Status      string          `db:"status" json:"status"`
	Priority    string          `db:"priority" json:"priority"`
	DueDate     *time.Time      `db:"due_date" json:"dueDate,omitempty"`
	Assignees   []string        `db:"-" json:"assignees"`
	Checklist   []ChecklistItem `db:"-" json:"checklist"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

type ChecklistItem struct {
	ID          string    `db:"id" json:"id"`
	TaskID      string    `db:"task_id" json:"taskId"`
	Body        string    `db:"body" json:"text"`
	IsCompleted bool      `db:"is_completed" json:"isCompleted"`
	SortOrder   int       `db:"sort_order" json:"sortOrder"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type Meeting struct {
	ID           string    `db:"id" json:"id"`
	CreatorID    string    `db:"creator_id" json:"creatorId"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	AccessMode   string    `db:"access_mode" json:"accessMode"`
	Status       string    `db:"status" json:"status"`
	StartsAt     time.Time `db:"starts_at" json:"startsAt"`
	EndsAt       time.Time `db:"ends_at" json:"endsAt"`
	Participants []string  `db:"-" json:"participants"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

const (
	BookingPending   = "pending"
	BookingApproved  = "approved"
	BookingRejected  = "rejected"
	BookingCancelled = "cancelled"
)

type Booking struct {
	ID         string    `db:"id" json:"id"`
	CreatorID  string    `db:"creator_id" json:"creatorId"`
	Resource   string    `db:"resource" json:"resource"`
	Purpose    string    `db:"purpose" json:"purpose"`
	Status     string    `db:"status" json:"status"`
	StartsAt   time.Time `db:"starts_at" json:"startsAt"`
	EndsAt     time.Time `db:"ends_at" json:"endsAt"`
	ApprovedBy *string   `db:"approved_by" json:"approvedBy,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type ForumPost struct {
	ID        string    `db:"id" json:"id"`
	AuthorID  string    `db:"author_id" json:"authorId"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Hidden    bool      `db:"hidden" json:"hidden"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

const (
	ArticleDraft     = "draft"
	ArticlePublished = "published"
)

type NewsArticle struct {
	ID           string    `db:"id" json:"id"`
	AuthorID     string    `db:"author_id" json:"authorId"`
	DepartmentID string    `db:"department_id" json:"departmentId,omitempty"`
	Title        string    `db:"title" json:"title"`
	Body         string    `db:"body" json:"body"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type ChatRoom struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"roomId"`
	SenderID  string    `db:"sender_id" json:"senderId"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type RefreshSession struct {
	TokenHash string    `db:"token_hash"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}
