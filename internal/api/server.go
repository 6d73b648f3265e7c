package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docq/internal/ports"
	"docq/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type addTaskReq struct {
	Bucket   string `json:"bucket"`
	Filename string `json:"filename"`
	FilePath string `json:"file_path"` // optional, defaults to filename
}

func NewServer(q ports.Queue) *Server {
	enq := usecase.Enqueuer{Q: q}

	r := chi.NewRouter()
	r.Post("/tasks", func(w http.ResponseWriter, r *http.Request) {
		var req addTaskReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := enq.Enqueue(r.Context(), req.Bucket, req.Filename, req.FilePath)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if id == "" {
			// same document is already being processed
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": nil})
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
	})

	r.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		view, ok := q.GetTaskStatus(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(view)
	})

	r.Delete("/tasks/completed", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(q.ClearCompletedTasks())
	})

	r.Get("/queue/status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(q.GetQueueStatus())
	})

	r.Post("/queue/start", func(w http.ResponseWriter, r *http.Request) {
		q.StartProcessing()
		_ = json.NewEncoder(w).Encode(q.GetQueueStatus())
	})

	r.Post("/queue/stop", func(w http.ResponseWriter, r *http.Request) {
		q.StopProcessing()
		_ = json.NewEncoder(w).Encode(q.GetQueueStatus())
	})

	return &Server{router: r}
}

type Server struct {
	router *chi.Mux
}

// Run method of the Server struct runs the HTTP server on the specified port. It initializes
// a new HTTP server instance with the specified port and the server's router.
func (s *Server) Run(port int) {
	addr := fmt.Sprintf(":%d", port)

	h := chainMiddleware(
		s.router,
		recoverHandler,
		loggerHandler(func(w http.ResponseWriter, r *http.Request) bool { return r.URL.Path == "/" }),
		realIPHandler,
		requestIDHandler,
		corsHandler,
	)

	httpServer := http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Fatal().Err(err).Msg("Server forced to shutdown")
		}

		close(done)
	}()

	log.Info().Msgf("server serving on port %d", port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Failed to listen and serve")
	}

	<-done
	log.Info().Msg("Server stopped")
}
