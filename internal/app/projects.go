package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"intranet/api/internal/codegen"
	"intranet/api/internal/policy"
	"intranet/api/internal/progress"
	"intranet/api/internal/store"
	"intranet/api/internal/util"
)

type CreateProjectInput struct {
	Prefix      string   `json:"prefix" validate:"required"`
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=10000"`
	Priority    string   `json:"priority" validate:"omitempty,max=32"`
	ManagerID   string   `json:"managerId" validate:"omitempty,max=64"`
	MemberIDs   []string `json:"memberIds" validate:"omitempty,dive,required,max=64"`
}

type UpdateProjectInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Priority    *string `json:"priority" validate:"omitempty,min=1,max=32"`
}

type ProjectDetail struct {
	store.Project
	Members []store.ProjectMember `json:"members"`
}

const defaultPriority = "Medium"

// CreateProject allocates the next code for the prefix and inserts the
// project with its manager membership in one transaction. Conflicts retry the
// whole transaction.
func (s *Service) CreateProject(ctx context.Context, actor policy.Actor, in CreateProjectInput) (ProjectDetail, error) {
	if actor.ID == "" {
		return ProjectDetail{}, policy.ErrInvalidInput
	}
	if !actor.IsPrivileged() {
		return ProjectDetail{}, policy.ErrDenied
	}
	if err := validateInput(in); err != nil {
		return ProjectDetail{}, err
	}
	if err := codegen.ValidatePrefix(in.Prefix); err != nil {
		return ProjectDetail{}, err
	}

	managerID := strings.TrimSpace(in.ManagerID)
	if managerID == "" {
		managerID = actor.ID
	}
	if managerID != actor.ID {
		if _, err := s.store.GetUserByID(ctx, managerID); errors.Is(err, store.ErrNotFound) {
			return ProjectDetail{}, validationError("Manager does not exist", map[string]string{"managerId": managerID})
		} else if err != nil {
			return ProjectDetail{}, err
		}
	}
	if unknown, err := s.firstUnknownUser(ctx, in.MemberIDs); err != nil {
		return ProjectDetail{}, err
	} else if unknown != "" {
		return ProjectDetail{}, validationError("Member does not exist", map[string]string{"memberIds": unknown})
	}
	priority := strings.TrimSpace(in.Priority)
	if priority == "" {
		priority = defaultPriority
	}

	project := store.Project{
		ID:          util.NewID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Status:      string(progress.StatusPlanning),
		Priority:    priority,
		ManagerID:   managerID,
	}
	err := s.allocator.Retry(ctx, in.Prefix, func(ctx context.Context) error {
		return s.store.WithTx(ctx, func(r repo) error {
			code, err := s.allocator.AllocateTx(ctx, r, in.Prefix)
			if err != nil {
				return err
			}
			project.Code = code
			if err := r.InsertProject(ctx, project); err != nil {
				return err
			}
			if err := r.PutProjectMember(ctx, store.ProjectMember{
				ProjectID: project.ID,
				UserID:    managerID,
				Role:      store.MemberRoleManager,
			}); err != nil {
				return err
			}
			for _, memberID := range in.MemberIDs {
				if memberID == managerID {
					continue
				}
				if err := r.PutProjectMember(ctx, store.ProjectMember{
					ProjectID: project.ID,
					UserID:    memberID,
					Role:      store.MemberRoleMember,
				}); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return ProjectDetail{}, err
	}
	if s.metrics != nil {
		s.metrics.CodeAllocations.WithLabelValues("ok").Inc()
	}
	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("code", project.Code),
		zap.String("actor_id", actor.ID),
	)
	return s.projectDetail(ctx, project.ID)
}

func (s *Service) GetProject(ctx context.Context, actor policy.Actor, projectID string) (ProjectDetail, error) {
	if err := s.require(ctx, policy.KindProject, policy.View, actor, projectID); err != nil {
		return ProjectDetail{}, err
	}
	return s.projectDetail(ctx, projectID)
}

func (s *Service) projectDetail(ctx context.Context, projectID string) (ProjectDetail, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, missing("Project", err)
	}
	members, err := s.store.ListProjectMembers(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}
	if members == nil {
		members = []store.ProjectMember{}
	}
	return ProjectDetail{Project: project, Members: members}, nil
}

// ListProjects returns every live project to admins and only the projects the
// actor manages or belongs to otherwise.
func (s *Service) ListProjects(ctx context.Context, actor policy.Actor) ([]store.Project, error) {
	if actor.ID == "" {
		return nil, policy.ErrInvalidInput
	}
	projects, err := s.store.ListProjects(ctx, actor.ID, actor.IsAdmin())
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []store.Project{}
	}
	return projects, nil
}

func (s *Service) UpdateProject(ctx context.Context, actor policy.Actor, projectID string, in UpdateProjectInput) (ProjectDetail, error) {
	if err := s.require(ctx, policy.KindProject, policy.Edit, actor, projectID); err != nil {
		return ProjectDetail{}, err
	}
	if err := validateInput(in); err != nil {
		return ProjectDetail{}, err
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, missing("Project", err)
	}
	if in.Name != nil {
		project.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.Priority != nil {
		project.Priority = strings.TrimSpace(*in.Priority)
	}
	if err := s.store.UpdateProject(ctx, project); err != nil {
		return ProjectDetail{}, err
	}
	return s.projectDetail(ctx, projectID)
}

// ChangeProjectStatus applies a manual status change along the lifecycle
// graph. The rejection names the rule that was broken.
func (s *Service) ChangeProjectStatus(ctx context.Context, actor policy.Actor, projectID, status string) (ProjectDetail, error) {
	if err := s.require(ctx, policy.KindProject, policy.Edit, actor, projectID); err != nil {
		return ProjectDetail{}, err
	}
	to, err := progress.ParseStatus(status)
	if err != nil {
		return ProjectDetail{}, err
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, missing("Project", err)
	}
	from, err := progress.ParseStatus(project.Status)
	if err != nil {
		return ProjectDetail{}, err
	}
	if err := progress.Transition(from, to); err != nil {
		return ProjectDetail{}, domainError(http.StatusUnprocessableEntity, "INVALID_TRANSITION", err.Error(), map[string]any{
			"from":    from,
			"to":      to,
			"allowed": from.Next(),
		})
	}
	if err := s.store.SetProjectStatus(ctx, projectID, string(to)); err != nil {
		return ProjectDetail{}, err
	}
	return s.projectDetail(ctx, projectID)
}

func (s *Service) DeleteProject(ctx context.Context, actor policy.Actor, projectID string) error {
	if err := s.require(ctx, policy.KindProject, policy.Delete, actor, projectID); err != nil {
		return err
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return missing("Project", err)
	}
	return s.store.SoftDeleteProject(ctx, projectID, s.now())
}

type ProjectMemberInput struct {
	UserID string `json:"userId" validate:"required,max=64"`
	Role   string `json:"role" validate:"omitempty,max=32"`
}

func (s *Service) AddProjectMember(ctx context.Context, actor policy.Actor, projectID string, in ProjectMemberInput) (ProjectDetail, error) {
	if err := s.require(ctx, policy.KindProject, policy.Manage, actor, projectID); err != nil {
		return ProjectDetail{}, err
	}
	if err := validateInput(in); err != nil {
		return ProjectDetail{}, err
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return ProjectDetail{}, missing("Project", err)
	}
	if _, err := s.store.GetUserByID(ctx, in.UserID); errors.Is(err, store.ErrNotFound) {
		return ProjectDetail{}, validationError("User does not exist", map[string]string{"userId": in.UserID})
	} else if err != nil {
		return ProjectDetail{}, err
	}
	role := store.MemberRoleMember
	if strings.EqualFold(strings.TrimSpace(in.Role), store.MemberRoleManager) {
		role = store.MemberRoleManager
	}
	if err := s.store.PutProjectMember(ctx, store.ProjectMember{ProjectID: projectID, UserID: in.UserID, Role: role}); err != nil {
		return ProjectDetail{}, err
	}
	return s.projectDetail(ctx, projectID)
}

// RemoveProjectMember refuses to remove the project's owning manager.
func (s *Service) RemoveProjectMember(ctx context.Context, actor policy.Actor, projectID, userID string) (ProjectDetail, error) {
	if err := s.require(ctx, policy.KindProject, policy.Manage, actor, projectID); err != nil {
		return ProjectDetail{}, err
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, missing("Project", err)
	}
	if project.ManagerID == userID {
		return ProjectDetail{}, validationError("The project manager cannot be removed", nil)
	}
	if err := s.store.RemoveProjectMember(ctx, projectID, userID); err != nil {
		return ProjectDetail{}, err
	}
	return s.projectDetail(ctx, projectID)
}

// RecomputeProjectProgress rebuilds the cached progress from tasks and
// checklists on demand.
func (s *Service) RecomputeProjectProgress(ctx context.Context, actor policy.Actor, projectID string) (ProjectDetail, error) {
	if err := s.require(ctx, policy.KindProject, policy.Edit, actor, projectID); err != nil {
		return ProjectDetail{}, err
	}
	err := s.store.WithTx(ctx, func(r repo) error {
		return s.recomputeProgressTx(ctx, r, projectID, "manual")
	})
	if err != nil {
		return ProjectDetail{}, err
	}
	return s.projectDetail(ctx, projectID)
}

// firstUnknownUser returns the first id with no user row, or "".
func (s *Service) firstUnknownUser(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	users, err := s.store.ListUsersByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return id, nil
		}
	}
	return "", nil
}

// recomputeProgressTx is the single progress write path. It runs inside the
// transaction of the mutation that triggered it, stores the percentage and
// applies the suggested status only when the lifecycle graph allows it.
func (s *Service) recomputeProgressTx(ctx context.Context, r repo, projectID, trigger string) error {
	project, err := r.GetProject(ctx, projectID)
	if err != nil {
		return missing("Project", err)
	}
	tasks, checklist, err := r.ProjectCounts(ctx, projectID)
	if err != nil {
		return err
	}
	current, err := progress.ParseStatus(project.Status)
	if err != nil {
		current = progress.Status(project.Status)
	}
	result := progress.Calculate(tasks, checklist, current)
	if err := r.SetProjectProgress(ctx, projectID, result.Progress); err != nil {
		return err
	}
	if next, ok := applicableStatus(current, result); ok {
		if err := r.SetProjectStatus(ctx, projectID, string(next)); err != nil {
			return err
		}
	}
	if s.metrics != nil {
		s.metrics.ProgressRecomputes.WithLabelValues(trigger).Inc()
	}
	return nil
}

// applicableStatus returns the suggested status when the lifecycle allows
// it. A Planning project that jumps straight to 100% still leaves Planning.
func applicableStatus(current progress.Status, result progress.Result) (progress.Status, bool) {
	if result.Suggestion == nil {
		return "", false
	}
	if progress.CanTransition(current, *result.Suggestion) {
		return *result.Suggestion, true
	}
	if current == progress.StatusPlanning && result.Progress > 0 {
		return progress.StatusInProgress, true
	}
	return "", false
}

// ReconcileProgress recomputes every live project. Failures are logged and
// joined so one broken project does not stop the sweep.
func (s *Service) ReconcileProgress(ctx context.Context) (int, error) {
	ids, err := s.store.ListActiveProjectIDs(ctx)
	if err != nil {
		return 0, err
	}
	var (
		done int
		errs []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		err := s.store.WithTx(ctx, func(r repo) error {
			return s.recomputeProgressTx(ctx, r, id, "reconcile")
		})
		if err != nil {
			s.logger.Warn("reconcile project progress", zap.String("project_id", id), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}
