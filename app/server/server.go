package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"ingexai/app/api"
	"ingexai/app/middleware"
	"ingexai/chunker"
	"ingexai/external"
	"ingexai/model"
	"ingexai/service"
	"ingexai/store"
	"ingexai/vectorstore"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
	app        *fiber.App
	pool       *store.PostgresStore
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

// Stop drains in-flight requests before releasing the connection pool.
func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.logger.Error("error during server shutdown", "error", err.Error())
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
	pool, err := store.NewPostgresStore(ctx, connStr)
	if err != nil {
		log.Fatal("error to connect to Postgres database", err)
		return
	}

	s.pool = pool

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables", err)
		return
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
		return
	}

	chunkSize, _ := strconv.Atoi(os.Getenv("CHUNK_SIZE"))
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}

	var (
		index    = vectorstore.NewIndex()
		embedder = model.NewMockEmbedder()
		svc      = service.New(pool, embedder, index, external.NewStubClient(), chunkSize)
	)

	// The index is a derived cache; repopulate it from the chunk rows so
	// restarts do not leave it empty while the store has data.
	count, err := svc.RebuildIndex(ctx)
	if err != nil {
		log.Fatal("error to rebuild vector index", err)
		return
	}
	s.logger.Info("vector index rebuilt", "entries", count)

	var (
		app          = fiber.New(config)
		checkHandler = api.NewCheckHandler()
		userHandler  = api.NewUserHandler(pool, jwtSecret)
		docHandler   = api.NewDocumentHandler(pool, svc)
		check        = app.Group("/check")
		apiv1        = app.Group("/api/v1")
		users        = apiv1.Group("/users")
		documents    = apiv1.Group("/documents", middleware.Auth(pool, jwtSecret))
	)

	check.Get("/healthy", checkHandler.HandleHealthy)

	users.Post("/", userHandler.HandleRegister)
	users.Post("/login", userHandler.HandleLogin)

	documents.Get("/", docHandler.HandleList)
	documents.Post("/upload", docHandler.HandleUpload)
	documents.Post("/search", docHandler.HandleSearch)
	documents.Get("/:id", docHandler.HandleGet)
	documents.Get("/:id/chunks", docHandler.HandleGetChunks)
	documents.Put("/:id", docHandler.HandleUpdate)
	documents.Delete("/:id", docHandler.HandleDelete)

	s.app = app
	err = app.Listen(s.listenAddr)
	if err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}
