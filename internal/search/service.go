package search

import (
	"context"

	"go.uber.org/zap"
)

// Service tries Meilisearch first and falls back to SQL.
type Service struct {
	meili  *Meili
	sql    *SQLSearch
	logger *zap.Logger
}

// NewService builds the facade. meili may be nil when Meilisearch is not
// configured.
func NewService(meili *Meili, sql *SQLSearch, logger *zap.Logger) *Service {
	return &Service{meili: meili, sql: sql, logger: logger.Named("search")}
}

func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.logger.Warn("meilisearch error, falling back to sql", zap.Error(err))
	}

	results, total, err := s.sql.Search(ctx, q)
	if err != nil {
		s.logger.Error("sql search failed", zap.Error(err))
		return Response{Results: []Result{}, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

func (s *Service) IndexPost(p PostRecord) {
	s.async("index post", p.ID, func(m *Meili) error { return m.IndexPosts(p) })
}

func (s *Service) IndexArticle(a ArticleRecord) {
	s.async("index article", a.ID, func(m *Meili) error { return m.IndexArticles(a) })
}

func (s *Service) DeletePost(id string) {
	s.async("delete post", id, func(m *Meili) error { return m.DeletePost(id) })
}

func (s *Service) DeleteArticle(id string) {
	s.async("delete article", id, func(m *Meili) error { return m.DeleteArticle(id) })
}

// async is fire-and-forget; index drift is repaired by Reindex.
func (s *Service) async(op, id string, fn func(*Meili) error) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := fn(s.meili); err != nil {
			s.logger.Warn(op, zap.String("id", id), zap.Error(err))
		}
	}()
}

// Reindex pushes every post and article from SQL into Meilisearch.
func (s *Service) Reindex(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	posts, articles, err := s.sql.LoadAllRecords(ctx)
	if err != nil {
		s.logger.Error("reindex load failed", zap.Error(err))
		return
	}
	if err := s.meili.IndexPosts(posts...); err != nil {
		s.logger.Error("reindex posts", zap.Error(err))
	}
	if err := s.meili.IndexArticles(articles...); err != nil {
		s.logger.Error("reindex articles", zap.Error(err))
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
