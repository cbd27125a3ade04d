package server

import (
	"net/http"

	"github.com/techieRahul17/intervuex/internal/server/middleware"
	"github.com/techieRahul17/intervuex/internal/session"
	"github.com/techieRahul17/intervuex/internal/types"
)

// handleLogin opens a session and stores the user record in it.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.openSession(w, r, http.StatusOK, (*session.Manager).Login)
}

// handleRegister is login with a 201. Existing users are not checked.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.openSession(w, r, http.StatusCreated, (*session.Manager).Register)
}

type sessionWriter func(m *session.Manager, user types.User, userType types.UserType) (*types.User, error)

func (s *Server) openSession(w http.ResponseWriter, r *http.Request, status int, write sessionWriter) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, m := s.sessions.Open()
	user, err := write(m, types.User{Email: req.Email, Name: req.Name}, req.UserType)
	if err != nil {
		_ = s.sessions.Close(id)
		s.writeError(w, r, err)
		return
	}

	token, err := s.jwtService.GenerateToken(id, user.UserType)
	if err != nil {
		_ = s.sessions.Close(id)
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, status, types.LoginResponse{User: user, Token: token})
}

// handleSession returns the stored user record.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

// handleLogout removes the record and forgets the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.GetSessionID(r)
	if err != nil {
		s.writeError(w, r, &session.ErrNoSession{})
		return
	}
	if err := s.sessions.Close(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// currentUser resolves the session record behind an authenticated request.
func (s *Server) currentUser(r *http.Request) (*types.User, error) {
	id, err := middleware.GetSessionID(r)
	if err != nil {
		return nil, &session.ErrNoSession{}
	}
	m, ok := s.sessions.Get(id)
	if !ok {
		return nil, &session.ErrNoSession{}
	}
	return m.Current()
}

// requireRole only lets sessions of the given role through. It must run after the
// auth middleware.
func (s *Server) requireRole(role types.UserType, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.currentUser(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if user.UserType != role {
			s.writeError(w, r, &ErrForbidden{Action: "requires " + string(role) + " role"})
			return
		}
		next(w, r)
	})
}
