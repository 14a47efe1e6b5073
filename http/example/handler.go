package main

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/xy-planning-network/trailhead/http/req"
	"github.com/xy-planning-network/trailhead/http/resp"
	"github.com/xy-planning-network/trailhead/http/router"
)

type user struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type newUser struct {
	Name  string `json:"name" schema:"name" validate:"required,max=64"`
	Email string `json:"email" schema:"email" validate:"required,email"`
}

// A userStore is an in-memory stand-in for persistence.
type userStore struct {
	mu    sync.Mutex
	next  int64
	users map[int64]user
}

func newUserStore(seed ...user) *userStore {
	s := &userStore{users: make(map[int64]user)}
	for _, u := range seed {
		s.users[u.ID] = u
		s.next = max(s.next, u.ID)
	}

	return s
}

func (s *userStore) find(id int64) (user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	return u, ok
}

func (s *userStore) add(name, email string) user {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	u := user{ID: s.next, Name: name, Email: email}
	s.users[u.ID] = u
	return u
}

type handler struct {
	parser *req.Parser
	users  *userStore
}

func (h *handler) root(r *req.Request, _ router.Params) (resp.Envelope, error) {
	return resp.Text(http.StatusOK, "welcome to the trailhead")
}

func (h *handler) getUser(r *req.Request, p router.Params) (resp.Envelope, error) {
	id, err := p.Values().Int("id", 0)
	if err != nil {
		return resp.Envelope{}, err
	}

	u, ok := h.users.find(id)
	if !ok {
		return resp.NotFound(), nil
	}

	return resp.JSON(http.StatusOK, u)
}

func (h *handler) createUser(r *req.Request, _ router.Params) (resp.Envelope, error) {
	var in newUser
	if err := h.parser.ParseValues(r.Body(), &in); err != nil {
		return resp.Envelope{}, err
	}

	u := h.users.add(in.Name, in.Email)
	return resp.JSON(
		http.StatusCreated,
		u,
		resp.Header("Location", fmt.Sprintf("/?route=/users/%d", u.ID)),
	)
}

func (h *handler) upload(r *req.Request, _ router.Params) (resp.Envelope, error) {
	field, ok := r.File("doc")
	if !ok {
		return resp.Error(http.StatusBadRequest, `missing file "doc"`)
	}

	up, ok := field.Upload()
	if !ok {
		return resp.Error(http.StatusBadRequest, `missing file "doc"`)
	}

	if !up.IsValid() {
		return resp.Error(http.StatusBadRequest, up.Err().String())
	}

	return resp.JSON(http.StatusOK, map[string]any{
		"name":      up.Name(),
		"size":      up.Size(),
		"extension": up.Extension(),
	})
}

func (h *handler) file(r *req.Request, p router.Params) (resp.Envelope, error) {
	return resp.JSON(http.StatusOK, p.Map())
}

func (h *handler) old(r *req.Request, _ router.Params) (resp.Envelope, error) {
	return resp.Redirect("/?route=/", http.StatusMovedPermanently)
}
