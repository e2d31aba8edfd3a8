package app

import (
	"context"
	"strings"

	"intranet/api/internal/policy"
	"intranet/api/internal/search"
	"intranet/api/internal/store"
	"intranet/api/internal/util"
)

const postStatusOpen = "open"

type PostInput struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"required,max=50000"`
}

type UpdatePostInput struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=255"`
	Body   *string `json:"body" validate:"omitempty,min=1,max=50000"`
	Status *string `json:"status" validate:"omitempty,oneof=open closed"`
}

func (s *Service) CreatePost(ctx context.Context, actor policy.Actor, in PostInput) (store.ForumPost, error) {
	if actor.ID == "" {
		return store.ForumPost{}, policy.ErrInvalidInput
	}
	if err := validateInput(in); err != nil {
		return store.ForumPost{}, err
	}
	post := store.ForumPost{
		ID:       util.NewID(),
		AuthorID: actor.ID,
		Title:    strings.TrimSpace(in.Title),
		Body:     in.Body,
		Status:   postStatusOpen,
	}
	if err := s.store.InsertPost(ctx, post); err != nil {
		return store.ForumPost{}, err
	}
	return s.reindexPost(ctx, post.ID)
}

func (s *Service) GetPost(ctx context.Context, actor policy.Actor, postID string) (store.ForumPost, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.ForumPost{}, missing("Post", err)
	}
	if post.Hidden && post.AuthorID != actor.ID && !actor.IsPrivileged() {
		return store.ForumPost{}, notFound("Post")
	}
	return post, nil
}

func (s *Service) UpdatePost(ctx context.Context, actor policy.Actor, postID string, in UpdatePostInput) (store.ForumPost, error) {
	if err := s.require(ctx, policy.KindForumPost, policy.Edit, actor, postID); err != nil {
		return store.ForumPost{}, err
	}
	if err := validateInput(in); err != nil {
		return store.ForumPost{}, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.ForumPost{}, missing("Post", err)
	}
	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		post.Body = *in.Body
	}
	if in.Status != nil {
		post.Status = *in.Status
	}
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return store.ForumPost{}, err
	}
	return s.reindexPost(ctx, postID)
}

func (s *Service) DeletePost(ctx context.Context, actor policy.Actor, postID string) error {
	if err := s.require(ctx, policy.KindForumPost, policy.Delete, actor, postID); err != nil {
		return err
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return missing("Post", err)
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeletePost(postID)
	}
	return nil
}

func (s *Service) HidePost(ctx context.Context, actor policy.Actor, postID string) (store.ForumPost, error) {
	return s.setPostHidden(ctx, actor, postID, true)
}

func (s *Service) UnhidePost(ctx context.Context, actor policy.Actor, postID string) (store.ForumPost, error) {
	return s.setPostHidden(ctx, actor, postID, false)
}

func (s *Service) setPostHidden(ctx context.Context, actor policy.Actor, postID string, hidden bool) (store.ForumPost, error) {
	if err := s.require(ctx, policy.KindForumPost, policy.Moderate, actor, postID); err != nil {
		return store.ForumPost{}, err
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return store.ForumPost{}, missing("Post", err)
	}
	if err := s.store.SetPostHidden(ctx, postID, hidden); err != nil {
		return store.ForumPost{}, err
	}
	return s.reindexPost(ctx, postID)
}

func (s *Service) reindexPost(ctx context.Context, postID string) (store.ForumPost, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return store.ForumPost{}, missing("Post", err)
	}
	if s.search != nil {
		s.search.IndexPost(search.PostFromStore(post))
	}
	return post, nil
}

type ArticleInput struct {
	Title        string `json:"title" validate:"required,max=255"`
	Body         string `json:"body" validate:"required,max=100000"`
	DepartmentID string `json:"departmentId" validate:"omitempty,max=64"`
	Status       string `json:"status" validate:"omitempty,oneof=draft published"`
}

type UpdateArticleInput struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=255"`
	Body   *string `json:"body" validate:"omitempty,min=1,max=100000"`
	Status *string `json:"status" validate:"omitempty,oneof=draft published"`
}

func (s *Service) CreateArticle(ctx context.Context, actor policy.Actor, in ArticleInput) (store.NewsArticle, error) {
	if err := s.require(ctx, policy.KindNewsArticle, policy.Create, actor, in.DepartmentID); err != nil {
		return store.NewsArticle{}, err
	}
	if err := validateInput(in); err != nil {
		return store.NewsArticle{}, err
	}
	status := in.Status
	if status == "" {
		status = store.ArticleDraft
	}
	article := store.NewsArticle{
		ID:           util.NewID(),
		AuthorID:     actor.ID,
		DepartmentID: in.DepartmentID,
		Title:        strings.TrimSpace(in.Title),
		Body:         in.Body,
		Status:       status,
	}
	if err := s.store.InsertArticle(ctx, article); err != nil {
		return store.NewsArticle{}, err
	}
	return s.reindexArticle(ctx, article.ID)
}

// GetArticle hides drafts from everyone except their author and admins.
func (s *Service) GetArticle(ctx context.Context, actor policy.Actor, articleID string) (store.NewsArticle, error) {
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return store.NewsArticle{}, missing("Article", err)
	}
	if article.Status != store.ArticlePublished && article.AuthorID != actor.ID && !actor.IsAdmin() {
		return store.NewsArticle{}, notFound("Article")
	}
	return article, nil
}

func (s *Service) UpdateArticle(ctx context.Context, actor policy.Actor, articleID string, in UpdateArticleInput) (store.NewsArticle, error) {
	if err := s.require(ctx, policy.KindNewsArticle, policy.Edit, actor, articleID); err != nil {
		return store.NewsArticle{}, err
	}
	if err := validateInput(in); err != nil {
		return store.NewsArticle{}, err
	}
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return store.NewsArticle{}, missing("Article", err)
	}
	if in.Title != nil {
		article.Title = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		article.Body = *in.Body
	}
	if in.Status != nil {
		article.Status = *in.Status
	}
	if err := s.store.UpdateArticle(ctx, article); err != nil {
		return store.NewsArticle{}, err
	}
	return s.reindexArticle(ctx, articleID)
}

func (s *Service) DeleteArticle(ctx context.Context, actor policy.Actor, articleID string) error {
	if err := s.require(ctx, policy.KindNewsArticle, policy.Delete, actor, articleID); err != nil {
		return err
	}
	if _, err := s.store.GetArticle(ctx, articleID); err != nil {
		return missing("Article", err)
	}
	if err := s.store.DeleteArticle(ctx, articleID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteArticle(articleID)
	}
	return nil
}

func (s *Service) reindexArticle(ctx context.Context, articleID string) (store.NewsArticle, error) {
	article, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return store.NewsArticle{}, missing("Article", err)
	}
	if s.search != nil {
		s.search.IndexArticle(search.ArticleFromStore(article))
	}
	return article, nil
}

type SearchInput struct {
	Text   string
	Type   string
	Limit  int
	Offset int
}

// SearchPosts and SearchArticles scope the shared search to one type.
func (s *Service) SearchPosts(ctx context.Context, actor policy.Actor, in SearchInput) (search.Response, error) {
	in.Type = string(search.ResultPost)
	return s.Search(ctx, actor, in)
}

func (s *Service) SearchArticles(ctx context.Context, actor policy.Actor, in SearchInput) (search.Response, error) {
	in.Type = string(search.ResultArticle)
	return s.Search(ctx, actor, in)
}

// Search covers forum posts and news with the same visibility as GetPost and
// GetArticle: hidden posts for their author and moderators, drafts for their
// author and admins.
func (s *Service) Search(ctx context.Context, actor policy.Actor, in SearchInput) (search.Response, error) {
	if actor.ID == "" {
		return search.Response{}, policy.ErrInvalidInput
	}
	filter := search.ResultType(strings.ToLower(strings.TrimSpace(in.Type)))
	switch filter {
	case "", search.ResultPost, search.ResultArticle:
	default:
		return search.Response{}, validationError("Unknown search type", map[string]string{"type": in.Type})
	}
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: in.Text}, nil
	}
	return s.search.Search(ctx, search.Query{
		Text:          strings.TrimSpace(in.Text),
		FilterType:    filter,
		Limit:         in.Limit,
		Offset:        in.Offset,
		ActorID:       actor.ID,
		IncludeHidden: actor.IsPrivileged(),
		IncludeDrafts: actor.IsAdmin(),
	}), nil
}
