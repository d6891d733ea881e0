package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/readify/logging"
	"github.com/kevinaaaquil/readify/middleware"
	"github.com/kevinaaaquil/readify/narration"
	"github.com/kevinaaaquil/readify/store"
)

// Deps are the services the API is built from. Blobs and Assistant may be
// nil; their routes then answer 503.
type Deps struct {
	DB          *store.DB
	Sessions    *middleware.Sessions
	Blobs       BlobStore
	Narrator    *narration.Narrator
	Assistant   Assistant
	Log         logging.Logger
	AdminEmail  string
	MaxUpload   int64 // bytes
	CORSOrigins []string
	// RequestLog enables chi's access log.
	RequestLog bool
}

func NewRouter(d Deps) http.Handler {
	auth := &AuthHandler{DB: d.DB, Sessions: d.Sessions, AdminEmail: d.AdminEmail, Log: d.Log}
	upload := &UploadHandler{Blobs: d.Blobs, MaxBytes: d.MaxUpload, Log: d.Log}
	docs := &DocumentsHandler{DB: d.DB, Blobs: d.Blobs, Narrator: d.Narrator, Log: d.Log}
	speech := &SpeechHandler{Narrator: d.Narrator, Log: d.Log}
	assistant := &AIHandler{DB: d.DB, Assistant: d.Assistant, Log: d.Log}
	users := &UsersHandler{DB: d.DB, Blobs: d.Blobs, Log: d.Log}

	r := chi.NewRouter()
	r.Use(middleware.CORS(d.CORSOrigins))
	if d.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(d.Sessions.Session)

		r.Post("/auth/login", auth.Login)
		r.Post("/auth/signup", auth.Signup)
		r.Post("/auth/logout", auth.Logout)
		r.Get("/auth/session", auth.Session)
		r.Get("/documents", docs.List)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Post("/upload", upload.Upload)
			r.Post("/generate-speech", speech.GenerateSpeech)

			r.Post("/documents", docs.Save)
			r.Get("/documents/{id}", docs.Get)
			r.Delete("/documents/{id}", docs.Delete)
			r.Get("/documents/{id}/download", docs.Download)
			r.Get("/documents/{id}/audio", docs.Audio)
			r.Post("/documents/{id}/narration", docs.Narrate)
			r.Get("/documents/{id}/highlight", docs.Highlight)

			r.Post("/ai/summary", assistant.Summary)
			r.Post("/ai/glossary", assistant.Glossary)
			r.Post("/ai/quiz", assistant.Quiz)
			r.Post("/ai/chat", assistant.Chat)

			r.Put("/users/me/username", users.SetUsername)
			r.Put("/users/me/voice", users.SetVoice)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/admin/users", users.ListUsers)
			r.Delete("/admin/users/{id}", users.DeleteUser)
		})
	})
	return r
}
