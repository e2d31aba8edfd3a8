package search

import "intranet/api/internal/store"

type ResultType string

const (
	ResultPost    ResultType = "post"
	ResultArticle ResultType = "article"
)

type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	AuthorID string     `json:"authorId"`
	Status   string     `json:"status,omitempty"`
}

// Query describes a search request. ActorID always sees their own hidden
// posts and draft articles; IncludeHidden is set for forum moderators and
// IncludeDrafts for admins.
type Query struct {
	Text          string
	FilterType    ResultType // empty = all types
	Limit         int
	Offset        int
	ActorID       string
	IncludeHidden bool
	IncludeDrafts bool
}

func (q Query) scope() store.SearchScope {
	return store.SearchScope{ViewerID: q.ActorID, IncludeHidden: q.IncludeHidden, IncludeDrafts: q.IncludeDrafts}
}

type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

type PostRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	AuthorID string `json:"authorId"`
	Hidden   bool   `json:"hidden"`
	Status   string `json:"status"`
}

type ArticleRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	AuthorID     string `json:"authorId"`
	DepartmentID string `json:"departmentId"`
	Status       string `json:"status"`
}

func snippet(body string) string {
	const max = 160
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "…"
}
