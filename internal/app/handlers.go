package app

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"intranet/api/internal/authpw"
)

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email and password are required", nil)
		return
	}
	session, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if errors.Is(err, authpw.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session))
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decode(w, r, &body) {
		return
	}
	session, err := s.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session))
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = decodeBody(r, &body)
	_ = s.service.Logout(r.Context(), body.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func sessionPayload(session Session) map[string]any {
	return map[string]any{
		"accessToken":  session.Token,
		"refreshToken": session.RefreshToken,
		"userId":       session.UserID,
		"userName":     session.UserName,
		"role":         session.Role,
		"expiresAt":    session.ExpiresAt.Unix(),
	}
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"userId":        session.UserID,
		"userName":      session.UserName,
		"role":          session.Actor().Role,
	})
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.service.Search(r.Context(), sessionFrom(r).Actor(), SearchInput{
		Text:   q.Get("q"),
		Type:   q.Get("type"),
		Limit:  queryInt(r, "limit", 20),
		Offset: queryInt(r, "offset", 0),
	})
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *HTTPServer) routeProjects(pr chi.Router) {
	pr.Route("/api/projects", func(rt chi.Router) {
		rt.Get("/", func(w http.ResponseWriter, r *http.Request) {
			projects, err := s.service.ListProjects(r.Context(), sessionFrom(r).Actor())
			s.respond(w, r, http.StatusOK, map[string]any{"projects": projects}, err)
		})
		rt.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in CreateProjectInput
			if !decode(w, r, &in) {
				return
			}
			project, err := s.service.CreateProject(r.Context(), sessionFrom(r).Actor(), in)
			s.respond(w, r, http.StatusCreated, project, err)
		})
		rt.Route("/{projectID}", func(one chi.Router) {
			one.Get("/", func(w http.ResponseWriter, r *http.Request) {
				project, err := s.service.GetProject(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"))
				s.respond(w, r, http.StatusOK, project, err)
			})
			one.Put("/", func(w http.ResponseWriter, r *http.Request) {
				var in UpdateProjectInput
				if !decode(w, r, &in) {
					return
				}
				project, err := s.service.UpdateProject(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"), in)
				s.respond(w, r, http.StatusOK, project, err)
			})
			one.Delete("/", func(w http.ResponseWriter, r *http.Request) {
				err := s.service.DeleteProject(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"))
				s.respond(w, r, http.StatusNoContent, nil, err)
			})
			one.Put("/status", func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Status string `json:"status"`
				}
				if !decode(w, r, &body) {
					return
				}
				project, err := s.service.ChangeProjectStatus(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"), body.Status)
				s.respond(w, r, http.StatusOK, project, err)
			})
			one.Post("/members", func(w http.ResponseWriter, r *http.Request) {
				var in ProjectMemberInput
				if !decode(w, r, &in) {
					return
				}
				project, err := s.service.AddProjectMember(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"), in)
				s.respond(w, r, http.StatusOK, project, err)
			})
			one.Delete("/members/{userID}", func(w http.ResponseWriter, r *http.Request) {
				project, err := s.service.RemoveProjectMember(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"), chi.URLParam(r, "userID"))
				s.respond(w, r, http.StatusOK, project, err)
			})
			one.Post("/progress/recompute", func(w http.ResponseWriter, r *http.Request) {
				project, err := s.service.RecomputeProjectProgress(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"))
				s.respond(w, r, http.StatusOK, project, err)
			})
			one.Get("/tasks", func(w http.ResponseWriter, r *http.Request) {
				tasks, err := s.service.ListTasks(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"))
				s.respond(w, r, http.StatusOK, map[string]any{"tasks": tasks}, err)
			})
			one.Post("/tasks", func(w http.ResponseWriter, r *http.Request) {
				var in CreateTaskInput
				if !decode(w, r, &in) {
					return
				}
				task, err := s.service.CreateTask(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "projectID"), in)
				s.respond(w, r, http.StatusCreated, task, err)
			})
		})
	})
}

func (s *HTTPServer) routeTasks(pr chi.Router) {
	pr.Route("/api/tasks/{taskID}", func(rt chi.Router) {
		rt.Get("/", func(w http.ResponseWriter, r *http.Request) {
			task, err := s.service.GetTask(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "taskID"))
			s.respond(w, r, http.StatusOK, task, err)
		})
		rt.Put("/", func(w http.ResponseWriter, r *http.Request) {
			var in UpdateTaskInput
			if !decode(w, r, &in) {
				return
			}
			task, err := s.service.UpdateTask(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "taskID"), in)
			s.respond(w, r, http.StatusOK, task, err)
		})
		rt.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			err := s.service.DeleteTask(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "taskID"))
			s.respond(w, r, http.StatusNoContent, nil, err)
		})
		rt.Put("/status", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Status string `json:"status"`
			}
			if !decode(w, r, &body) {
				return
			}
			task, err := s.service.ChangeTaskStatus(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "taskID"), body.Status)
			s.respond(w, r, http.StatusOK, task, err)
		})
		rt.Post("/checklist", func(w http.ResponseWriter, r *http.Request) {
			var in ChecklistItemInput
			if !decode(w, r, &in) {
				return
			}
			item, err := s.service.AddChecklistItem(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "taskID"), in)
			s.respond(w, r, http.StatusCreated, item, err)
		})
		rt.Post("/checklist/{itemID}/toggle", func(w http.ResponseWriter, r *http.Request) {
			item, err := s.service.ToggleChecklistItem(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "taskID"), chi.URLParam(r, "itemID"))
			s.respond(w, r, http.StatusOK, item, err)
		})
		rt.Delete("/checklist/{itemID}", func(w http.ResponseWriter, r *http.Request) {
			err := s.service.DeleteChecklistItem(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "taskID"), chi.URLParam(r, "itemID"))
			s.respond(w, r, http.StatusNoContent, nil, err)
		})
	})
}

func (s *HTTPServer) routeCommunity(pr chi.Router) {
	pr.Route("/api/forum/posts", func(rt chi.Router) {
		rt.Get("/", func(w http.ResponseWriter, r *http.Request) {
			res, err := s.service.SearchPosts(r.Context(), sessionFrom(r).Actor(), SearchInput{
				Text:   r.URL.Query().Get("q"),
				Limit:  queryInt(r, "limit", 20),
				Offset: queryInt(r, "offset", 0),
			})
			s.respond(w, r, http.StatusOK, res, err)
		})
		rt.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in PostInput
			if !decode(w, r, &in) {
				return
			}
			post, err := s.service.CreatePost(r.Context(), sessionFrom(r).Actor(), in)
			s.respond(w, r, http.StatusCreated, post, err)
		})
		rt.Get("/{postID}", func(w http.ResponseWriter, r *http.Request) {
			post, err := s.service.GetPost(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "postID"))
			s.respond(w, r, http.StatusOK, post, err)
		})
		rt.Put("/{postID}", func(w http.ResponseWriter, r *http.Request) {
			var in UpdatePostInput
			if !decode(w, r, &in) {
				return
			}
			post, err := s.service.UpdatePost(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "postID"), in)
			s.respond(w, r, http.StatusOK, post, err)
		})
		rt.Delete("/{postID}", func(w http.ResponseWriter, r *http.Request) {
			err := s.service.DeletePost(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "postID"))
			s.respond(w, r, http.StatusNoContent, nil, err)
		})
		rt.Post("/{postID}/hide", func(w http.ResponseWriter, r *http.Request) {
			post, err := s.service.HidePost(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "postID"))
			s.respond(w, r, http.StatusOK, post, err)
		})
		rt.Post("/{postID}/unhide", func(w http.ResponseWriter, r *http.Request) {
			post, err := s.service.UnhidePost(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "postID"))
			s.respond(w, r, http.StatusOK, post, err)
		})
	})

	pr.Route("/api/news/articles", func(rt chi.Router) {
		rt.Get("/", func(w http.ResponseWriter, r *http.Request) {
			res, err := s.service.SearchArticles(r.Context(), sessionFrom(r).Actor(), SearchInput{
				Text:   r.URL.Query().Get("q"),
				Limit:  queryInt(r, "limit", 20),
				Offset: queryInt(r, "offset", 0),
			})
			s.respond(w, r, http.StatusOK, res, err)
		})
		rt.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in ArticleInput
			if !decode(w, r, &in) {
				return
			}
			article, err := s.service.CreateArticle(r.Context(), sessionFrom(r).Actor(), in)
			s.respond(w, r, http.StatusCreated, article, err)
		})
		rt.Get("/{articleID}", func(w http.ResponseWriter, r *http.Request) {
			article, err := s.service.GetArticle(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "articleID"))
			s.respond(w, r, http.StatusOK, article, err)
		})
		rt.Put("/{articleID}", func(w http.ResponseWriter, r *http.Request) {
			var in UpdateArticleInput
			if !decode(w, r, &in) {
				return
			}
			article, err := s.service.UpdateArticle(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "articleID"), in)
			s.respond(w, r, http.StatusOK, article, err)
		})
		rt.Delete("/{articleID}", func(w http.ResponseWriter, r *http.Request) {
			err := s.service.DeleteArticle(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "articleID"))
			s.respond(w, r, http.StatusNoContent, nil, err)
		})
	})
}

func (s *HTTPServer) routeMeetings(pr chi.Router) {
	pr.Route("/api/meetings", func(rt chi.Router) {
		rt.Get("/", func(w http.ResponseWriter, r *http.Request) {
			var from time.Time
			if raw := r.URL.Query().Get("from"); raw != "" {
				parsed, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "from must be an RFC3339 timestamp", nil)
					return
				}
				from = parsed
			}
			meetings, err := s.service.ListMeetings(r.Context(), sessionFrom(r).Actor(), from)
			s.respond(w, r, http.StatusOK, map[string]any{"meetings": meetings}, err)
		})
		rt.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in MeetingInput
			if !decode(w, r, &in) {
				return
			}
			meeting, err := s.service.CreateMeeting(r.Context(), sessionFrom(r).Actor(), in)
			s.respond(w, r, http.StatusCreated, meeting, err)
		})
		rt.Get("/{meetingID}", func(w http.ResponseWriter, r *http.Request) {
			meeting, err := s.service.GetMeeting(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "meetingID"))
			s.respond(w, r, http.StatusOK, meeting, err)
		})
		rt.Put("/{meetingID}", func(w http.ResponseWriter, r *http.Request) {
			var in UpdateMeetingInput
			if !decode(w, r, &in) {
				return
			}
			meeting, err := s.service.UpdateMeeting(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "meetingID"), in)
			s.respond(w, r, http.StatusOK, meeting, err)
		})
		rt.Delete("/{meetingID}", func(w http.ResponseWriter, r *http.Request) {
			err := s.service.DeleteMeeting(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "meetingID"))
			s.respond(w, r, http.StatusNoContent, nil, err)
		})
		rt.Put("/{meetingID}/participants", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Participants []string `json:"participants"`
			}
			if !decode(w, r, &body) {
				return
			}
			meeting, err := s.service.SetParticipants(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "meetingID"), body.Participants)
			s.respond(w, r, http.StatusOK, meeting, err)
		})
	})
}

func (s *HTTPServer) routeBookings(pr chi.Router) {
	pr.Route("/api/bookings", func(rt chi.Router) {
		rt.Get("/", func(w http.ResponseWriter, r *http.Request) {
			bookings, err := s.service.ListBookings(r.Context(), sessionFrom(r).Actor())
			s.respond(w, r, http.StatusOK, map[string]any{"bookings": bookings}, err)
		})
		rt.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in BookingInput
			if !decode(w, r, &in) {
				return
			}
			booking, err := s.service.CreateBooking(r.Context(), sessionFrom(r).Actor(), in)
			s.respond(w, r, http.StatusCreated, booking, err)
		})
		rt.Get("/{bookingID}", func(w http.ResponseWriter, r *http.Request) {
			booking, err := s.service.GetBooking(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "bookingID"))
			s.respond(w, r, http.StatusOK, booking, err)
		})
		rt.Put("/{bookingID}", func(w http.ResponseWriter, r *http.Request) {
			var in UpdateBookingInput
			if !decode(w, r, &in) {
				return
			}
			booking, err := s.service.UpdateBooking(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "bookingID"), in)
			s.respond(w, r, http.StatusOK, booking, err)
		})
		rt.Delete("/{bookingID}", func(w http.ResponseWriter, r *http.Request) {
			err := s.service.CancelBooking(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "bookingID"))
			s.respond(w, r, http.StatusNoContent, nil, err)
		})
		rt.Post("/{bookingID}/approve", func(w http.ResponseWriter, r *http.Request) {
			booking, err := s.service.ApproveBooking(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "bookingID"))
			s.respond(w, r, http.StatusOK, booking, err)
		})
		rt.Post("/{bookingID}/reject", func(w http.ResponseWriter, r *http.Request) {
			booking, err := s.service.RejectBooking(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "bookingID"))
			s.respond(w, r, http.StatusOK, booking, err)
		})
	})
}

func (s *HTTPServer) routeChat(pr chi.Router) {
	pr.Route("/api/chat/rooms", func(rt chi.Router) {
		rt.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in ChatRoomInput
			if !decode(w, r, &in) {
				return
			}
			room, err := s.service.CreateChatRoom(r.Context(), sessionFrom(r).Actor(), in)
			s.respond(w, r, http.StatusCreated, room, err)
		})
		rt.Get("/{roomID}/messages", func(w http.ResponseWriter, r *http.Request) {
			messages, err := s.service.ListChatMessages(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "roomID"), queryInt(r, "limit", 50))
			s.respond(w, r, http.StatusOK, map[string]any{"messages": messages}, err)
		})
		rt.Post("/{roomID}/messages", func(w http.ResponseWriter, r *http.Request) {
			var in ChatMessageInput
			if !decode(w, r, &in) {
				return
			}
			msg, err := s.service.PostChatMessage(r.Context(), sessionFrom(r).Actor(), chi.URLParam(r, "roomID"), in)
			s.respond(w, r, http.StatusCreated, msg, err)
		})
	})
}
