package store

import (
	"context"
	"fmt"
	"strings"
)

const (
	postColumns    = `id, author_id, title, body, hidden, status, created_at, updated_at`
	articleColumns = `id, author_id, department_id, title, body, status, created_at, updated_at`
)

func (c conn) InsertPost(ctx context.Context, p ForumPost) error {
	ts := now()
	err := c.exec(ctx, `
		INSERT INTO forum_posts (id, author_id, title, body, hidden, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, p.ID, p.AuthorID, p.Title, p.Body, p.Hidden, p.Status, ts, ts)
	if err != nil {
		return fmt.Errorf("insert forum post: %w", err)
	}
	return nil
}

func (c conn) GetPost(ctx context.Context, id string) (ForumPost, error) {
	var p ForumPost
	if err := c.get(ctx, &p, `SELECT `+postColumns+` FROM forum_posts WHERE id = ?`, id); err != nil {
		return ForumPost{}, fmt.Errorf("get forum post %s: %w", id, err)
	}
	return p, nil
}

func (c conn) UpdatePost(ctx context.Context, p ForumPost) error {
	err := c.exec(ctx, `UPDATE forum_posts SET title = ?, body = ?, status = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Body, p.Status, now(), p.ID)
	if err != nil {
		return fmt.Errorf("update forum post %s: %w", p.ID, err)
	}
	return nil
}

func (c conn) SetPostHidden(ctx context.Context, id string, hidden bool) error {
	if err := c.exec(ctx, `UPDATE forum_posts SET hidden = ?, updated_at = ? WHERE id = ?`, hidden, now(), id); err != nil {
		return fmt.Errorf("set forum post hidden %s: %w", id, err)
	}
	return nil
}

func (c conn) DeletePost(ctx context.Context, id string) error {
	if err := c.exec(ctx, `DELETE FROM forum_posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete forum post %s: %w", id, err)
	}
	return nil
}

// SearchPosts matches title or body case-insensitively. An empty query lists
// the newest posts.
// SearchScope is what a viewer may see in search. Hidden posts and draft
// articles are always visible to their own author.
type SearchScope struct {
	ViewerID      string
	IncludeHidden bool
	IncludeDrafts bool
}

func (c conn) SearchPosts(ctx context.Context, query string, scope SearchScope, limit int) ([]ForumPost, error) {
	where := []string{"1 = 1"}
	var args []any
	if !scope.IncludeHidden {
		where = append(where, "(hidden = ? OR author_id = ?)")
		args = append(args, false, scope.ViewerID)
	}
	if q := likePattern(query); q != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(body) LIKE ?)")
		args = append(args, q, q)
	}
	args = append(args, clampLimit(limit))
	posts := []ForumPost{}
	err := c.selectAll(ctx, &posts, `
		SELECT `+postColumns+` FROM forum_posts
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("search forum posts: %w", err)
	}
	return posts, nil
}

func (c conn) InsertArticle(ctx context.Context, a NewsArticle) error {
	ts := now()
	err := c.exec(ctx, `
		INSERT INTO news_articles (id, author_id, department_id, title, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, a.ID, a.AuthorID, a.DepartmentID, a.Title, a.Body, a.Status, ts, ts)
	if err != nil {
		return fmt.Errorf("insert news article: %w", err)
	}
	return nil
}

func (c conn) GetArticle(ctx context.Context, id string) (NewsArticle, error) {
	var a NewsArticle
	if err := c.get(ctx, &a, `SELECT `+articleColumns+` FROM news_articles WHERE id = ?`, id); err != nil {
		return NewsArticle{}, fmt.Errorf("get news article %s: %w", id, err)
	}
	return a, nil
}

func (c conn) UpdateArticle(ctx context.Context, a NewsArticle) error {
	err := c.exec(ctx, `UPDATE news_articles SET title = ?, body = ?, status = ?, updated_at = ? WHERE id = ?`,
		a.Title, a.Body, a.Status, now(), a.ID)
	if err != nil {
		return fmt.Errorf("update news article %s: %w", a.ID, err)
	}
	return nil
}

func (c conn) DeleteArticle(ctx context.Context, id string) error {
	if err := c.exec(ctx, `DELETE FROM news_articles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete news article %s: %w", id, err)
	}
	return nil
}

// SearchArticles returns published articles, plus the drafts of authorID.
func (c conn) SearchArticles(ctx context.Context, query string, scope SearchScope, limit int) ([]NewsArticle, error) {
	where := []string{"1 = 1"}
	var args []any
	if !scope.IncludeDrafts {
		where = append(where, "(LOWER(status) = 'published' OR author_id = ?)")
		args = append(args, scope.ViewerID)
	}
	if q := likePattern(query); q != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(body) LIKE ?)")
		args = append(args, q, q)
	}
	args = append(args, clampLimit(limit))
	articles := []NewsArticle{}
	err := c.selectAll(ctx, &articles, `
		SELECT `+articleColumns+` FROM news_articles
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("search news articles: %w", err)
	}
	return articles, nil
}

func likePattern(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ""
	}
	q = strings.NewReplacer("%", "", "_", "").Replace(q)
	return "%" + q + "%"
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

func (c conn) ListAllPosts(ctx context.Context) ([]ForumPost, error) {
	var posts []ForumPost
	if err := c.selectAll(ctx, &posts, `SELECT `+postColumns+` FROM forum_posts ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list forum posts: %w", err)
	}
	return posts, nil
}

func (c conn) ListAllArticles(ctx context.Context) ([]NewsArticle, error) {
	var articles []NewsArticle
	if err := c.selectAll(ctx, &articles, `SELECT `+articleColumns+` FROM news_articles ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list news articles: %w", err)
	}
	return articles, nil
}
