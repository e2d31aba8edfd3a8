package search

import (
	"context"
	"fmt"

	"intranet/api/internal/store"
)

type sqlSource interface {
	SearchPosts(ctx context.Context, query string, scope store.SearchScope, limit int) ([]store.ForumPost, error)
	SearchArticles(ctx context.Context, query string, scope store.SearchScope, limit int) ([]store.NewsArticle, error)
	ListAllPosts(ctx context.Context) ([]store.ForumPost, error)
	ListAllArticles(ctx context.Context) ([]store.NewsArticle, error)
}

// SQLSearch is the LIKE-based fallback used when Meilisearch is absent or
// unhealthy.
type SQLSearch struct {
	db sqlSource
}

func NewSQLSearch(db sqlSource) *SQLSearch {
	return &SQLSearch{db: db}
}

func (s *SQLSearch) Search(ctx context.Context, q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	var results []Result
	if q.FilterType == "" || q.FilterType == ResultPost {
		posts, err := s.db.SearchPosts(ctx, q.Text, q.scope(), limit)
		if err != nil {
			return nil, 0, fmt.Errorf("sql search posts: %w", err)
		}
		for _, p := range posts {
			results = append(results, Result{Type: ResultPost, ID: p.ID, Title: p.Title, Snippet: snippet(p.Body), AuthorID: p.AuthorID, Status: p.Status})
		}
	}
	if q.FilterType == "" || q.FilterType == ResultArticle {
		articles, err := s.db.SearchArticles(ctx, q.Text, q.scope(), limit)
		if err != nil {
			return nil, 0, fmt.Errorf("sql search articles: %w", err)
		}
		for _, a := range articles {
			results = append(results, Result{Type: ResultArticle, ID: a.ID, Title: a.Title, Snippet: snippet(a.Body), AuthorID: a.AuthorID, Status: a.Status})
		}
	}
	return results, len(results), nil
}

func (s *SQLSearch) LoadAllRecords(ctx context.Context) ([]PostRecord, []ArticleRecord, error) {
	posts, err := s.db.ListAllPosts(ctx)
	if err != nil {
		return nil, nil, err
	}
	articles, err := s.db.ListAllArticles(ctx)
	if err != nil {
		return nil, nil, err
	}
	postRecords := make([]PostRecord, 0, len(posts))
	for _, p := range posts {
		postRecords = append(postRecords, PostFromStore(p))
	}
	articleRecords := make([]ArticleRecord, 0, len(articles))
	for _, a := range articles {
		articleRecords = append(articleRecords, ArticleFromStore(a))
	}
	return postRecords, articleRecords, nil
}

func PostFromStore(p store.ForumPost) PostRecord {
	return PostRecord{ID: p.ID, Title: p.Title, Body: p.Body, AuthorID: p.AuthorID, Hidden: p.Hidden, Status: p.Status}
}

func ArticleFromStore(a store.NewsArticle) ArticleRecord {
	return ArticleRecord{ID: a.ID, Title: a.Title, Body: a.Body, AuthorID: a.AuthorID, DepartmentID: a.DepartmentID, Status: a.Status}
}
