package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/storkych/ccj-frontend-sub000/auth"
	"github.com/storkych/ccj-frontend-sub000/internal/utils"
	"github.com/storkych/ccj-frontend-sub000/resources"
	"github.com/storkych/ccj-frontend-sub000/server/loginsession"
	"github.com/storkych/ccj-frontend-sub000/token/refresh"
)

// Object is the stub's copy of a construction site.
type Object = resources.Object

type detailBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("writeJSON: encode failed")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailBody{Detail: detail})
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeDetail(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := s.users.Authenticate(req.Email, req.Password)
		if err != nil {
			// Don't reveal if user exists or not
			writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
			return
		}

		sessionID := uuid.NewString()
		if err := s.loginSessions.Upsert(loginsession.Session{
			ID:        sessionID,
			UserID:    user.ID,
			CreatedAt: NowTimeFunc(),
		}); err != nil {
			log.Err(err).Msg("LoginHandler: failed to create login session")
			writeDetail(w, http.StatusInternalServerError, "failed to create session")
			return
		}

		access, err := s.tokens.Issue(user, sessionID)
		if err != nil {
			log.Err(err).Msg("LoginHandler: failed to issue access token")
			writeDetail(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		refreshToken, err := s.refreshTokens.Create(user.ID, sessionID)
		if err != nil {
			log.Err(err).Msg("LoginHandler: failed to issue refresh token")
			writeDetail(w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		log.Info().Str("email", user.Email).Str("session_id", sessionID).Msg("stub login")
		writeJSON(w, http.StatusOK, auth.LoginResponse{
			Access:  utils.Ptr(access),
			Refresh: utils.Ptr(refreshToken),
			User:    user.SessionUser(),
		})
	}
}

// RefreshHandler exchanges a refresh token for a new access token. When
// rotation is enabled the old refresh token is replaced.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)

		var req refresh.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
			writeDetail(w, http.StatusBadRequest, "refresh is required")
			return
		}

		stored, err := s.refreshTokens.Validate(req.Refresh)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}
		session, err := s.loginSessions.Get(stored.SessionID)
		if err != nil || session.Revoked {
			writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}
		user, ok := s.users.Get(stored.UserID)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
			return
		}

		access, err := s.tokens.Issue(user, stored.SessionID)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		resp := refresh.Response{Access: utils.Ptr(access)}
		if s.rotateRefresh.Load() {
			next, err := s.refreshTokens.Rotate(req.Refresh)
			if err != nil {
				writeDetail(w, http.StatusInternalServerError, "failed to issue token")
				return
			}
			resp.Refresh = utils.Ptr(next)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// LogoutHandler revokes the refresh token and its login session. Unknown
// tokens are accepted silently.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refresh.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if stored, err := s.refreshTokens.Get(req.Refresh); err == nil {
			_ = s.refreshTokens.Delete(stored.Token)
			_ = s.loginSessions.Delete(stored.SessionID)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		user, ok := s.users.Get(claims.Subject)
		if !ok {
			writeDetail(w, http.StatusNotFound, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, user.SessionUser())
	}
}

func (s *Server) ListObjectsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := strings.ToLower(r.URL.Query().Get("search"))

		s.objectsLock.RLock()
		out := make([]Object, 0, len(s.objects))
		for _, obj := range s.objects {
			if search != "" && !strings.Contains(strings.ToLower(obj.Name), search) {
				continue
			}
			out = append(out, obj)
		}
		s.objectsLock.RUnlock()

		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) CreateObjectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var obj Object
		if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(obj.Name) == "" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field is required."}})
			return
		}

		s.objectsLock.Lock()
		obj.ID = s.nextObjectID
		s.nextObjectID++
		if obj.Status == "" {
			obj.Status = "planned"
		}
		s.objects[obj.ID] = obj
		s.objectsLock.Unlock()

		writeJSON(w, http.StatusCreated, obj)
	}
}

func (s *Server) GetObjectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := objectID(w, r)
		if !ok {
			return
		}

		s.objectsLock.RLock()
		obj, found := s.objects[id]
		s.objectsLock.RUnlock()

		if !found {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		writeJSON(w, http.StatusOK, obj)
	}
}

func (s *Server) DeleteObjectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := objectID(w, r)
		if !ok {
			return
		}

		s.objectsLock.Lock()
		_, found := s.objects[id]
		delete(s.objects, id)
		s.objectsLock.Unlock()

		if !found {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func objectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

func (s *Server) ListNotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		now := NowTimeFunc().UTC()
		writeJSON(w, http.StatusOK, []resources.Notification{
			{
				ID:        1,
				Title:     "Welcome",
				Text:      fmt.Sprintf("Signed in as %s", claims.Email),
				CreatedAt: now.Format("2006-01-02T15:04:05Z"),
			},
		})
	}
}

// ExpireSessionHandler revokes the caller's login session so the next
// authenticated request is answered with the "Token expired" 403.
func (s *Server) ExpireSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		if err := s.ExpireSession(claims.SessionID); err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ExpireSession revokes a login session.
func (s *Server) ExpireSession(sessionID string) error {
	return s.loginSessions.Revoke(sessionID, NowTimeFunc())
}
