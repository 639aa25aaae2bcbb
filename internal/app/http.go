package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"draftbook/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.service.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// Account routes, no session required
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/create" {
		s.handleAuthCreate(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/authenticate" {
		s.handleAuthAuthenticate(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/exists" {
		var body struct {
			Username string `json:"username"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		exists, err := s.service.UsernameExists(r.Context(), body.Username)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/works") {
		s.handleWorks(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleAuthCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.Username) == "" || body.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "username and password are required", nil)
		return
	}
	account, token, err := s.service.Register(r.Context(), body.Username, body.Password)
	if err != nil {
		writeMapped(w, err)
		return
	}
	s.writeSession(w, account, token)
}

func (s *HTTPServer) handleAuthAuthenticate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	account, token, err := s.service.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeMapped(w, err)
		return
	}
	s.writeSession(w, account, token)
}

// writeSession sets the token cookie and echoes the token so non-browser
// clients can hold it themselves.
func (s *HTTPServer) writeSession(w http.ResponseWriter, account store.Account, token store.AuthToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token.Value,
		Path:     "/",
		MaxAge:   s.service.TokenTTL(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"username":      account.Username,
		"token":         token.Value,
	})
}

// workRequest is the shared body shape of the work-scoped routes. Unused
// fields simply stay empty.
type workRequest struct {
	Token            string `json:"token"`
	Title            string `json:"title"`
	NewName          string `json:"newName"`
	ChapterName      string `json:"chaptername"`
	ChapterNumber    int    `json:"chapternumber"`
	Content          string `json:"content"`
	Notes            string `json:"notes"`
	NoteCategoryName string `json:"noteCategoryName"`
	NoteName         string `json:"noteName"`
	NewNoteName      string `json:"newNoteName"`
}

func (s *HTTPServer) handleWorks(w http.ResponseWriter, r *http.Request) {
	var body workRequest
	if r.Method == http.MethodPost {
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
	}

	account, err := s.service.AccountByToken(r.Context(), requestToken(r, body.Token))
	if err != nil {
		writeMapped(w, err)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/works" {
		works, err := s.service.Works(r.Context(), account)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"works": workPayloads(works)})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/works/create" {
		work, err := s.service.CreateWork(r.Context(), account, body.Title)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"work": workPayload(work)})
		return
	}

	// Everything below addresses one existing work by its resource id.
	target := r.URL.Query().Get("target")
	work, err := s.service.WorkByResource(r.Context(), account, target)
	if err != nil {
		writeMapped(w, err)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/works/work":
		writeJSON(w, http.StatusOK, map[string]any{"work": workPayload(work)})

	case r.Method == http.MethodGet && r.URL.Path == "/api/works/chapters":
		chapters, err := s.service.Chapters(r.Context(), work)
		if err != nil {
			writeMapped(w, err)
			return
		}
		payload := make([]map[string]any, 0, len(chapters))
		for _, chapter := range chapters {
			payload = append(payload, map[string]any{"title": chapter.Title, "number": chapter.Number})
		}
		writeJSON(w, http.StatusOK, map[string]any{"chapters": payload})

	case r.Method == http.MethodGet && r.URL.Path == "/api/works/notecategories":
		categories, err := s.service.NoteCategories(r.Context(), work)
		if err != nil {
			writeMapped(w, err)
			return
		}
		payload := make([]map[string]any, 0, len(categories))
		for _, category := range categories {
			payload = append(payload, map[string]any{"name": category.Name, "notes": category.Notes})
		}
		writeJSON(w, http.StatusOK, map[string]any{"notecategories": payload})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/rename":
		renamed, err := s.service.RenameWork(r.Context(), account, work, body.NewName)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"work": workPayload(renamed)})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/delete":
		if err := s.service.DeleteWork(r.Context(), work); err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/chapters/create":
		chapter, err := s.service.CreateChapter(r.Context(), work, body.ChapterName, body.ChapterNumber)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"chapter": map[string]any{"title": chapter.Title, "number": chapter.Number}})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/chapters/select":
		selected, err := s.service.SelectChapter(r.Context(), work, body.ChapterName)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"title":   selected.Chapter.Title,
			"content": selected.Content,
			"notes":   selected.Notes,
		})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/chapters/save":
		if err := s.service.SaveChapter(r.Context(), work, body.ChapterName, body.Content, body.Notes); err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/chapters/rename":
		chapter, err := s.service.RenameChapter(r.Context(), work, body.ChapterName, body.NewName)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"chapter": map[string]any{"title": chapter.Title, "number": chapter.Number}})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/chapters/delete":
		if err := s.service.DeleteChapter(r.Context(), work, body.ChapterName); err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/notecategories/create":
		category, err := s.service.CreateNoteCategory(r.Context(), work, body.NoteCategoryName)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notecategory": map[string]any{"name": category.Name, "notes": category.Notes}})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/notecategories/delete":
		if err := s.service.DeleteNoteCategory(r.Context(), work, body.NoteCategoryName); err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/notes/create":
		category, err := s.service.AddNote(r.Context(), work, body.NoteCategoryName, body.NoteName, body.Content)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notecategory": map[string]any{"name": category.Name, "notes": category.Notes}})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/notes/select":
		text, err := s.service.SelectNote(r.Context(), work, body.NoteCategoryName, body.NoteName)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"content": text})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/notes/save":
		if err := s.service.SaveNote(r.Context(), work, body.NoteCategoryName, body.NoteName, body.Content); err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/notes/rename":
		category, err := s.service.RenameNote(r.Context(), work, body.NoteCategoryName, body.NoteName, body.NewNoteName)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notecategory": map[string]any{"name": category.Name, "notes": category.Notes}})

	case r.Method == http.MethodPost && r.URL.Path == "/api/works/notes/delete":
		if err := s.service.DeleteNote(r.Context(), work, body.NoteCategoryName, body.NoteName); err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func workPayload(work store.Work) map[string]any {
	return map[string]any{
		"title":     work.Title,
		"createdAt": work.CreatedAt,
	}
}

func workPayloads(works []store.Work) []map[string]any {
	payload := make([]map[string]any, 0, len(works))
	for _, work := range works {
		payload = append(payload, workPayload(work))
	}
	return payload
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeMapped(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// requestToken prefers an explicit body token, then the session cookie, then
// a bearer header.
func requestToken(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
