package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/chandab/vansales-backend/internal/modules/auth"
	"github.com/chandab/vansales-backend/internal/modules/cashsession"
	"github.com/chandab/vansales-backend/internal/modules/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	currency := os.Getenv("DEFAULT_CURRENCY")
	if currency == "" {
		currency = "ZMW"
	}

	// ── Stores ──────────────────────────────────────────────
	var (
		userRepo       user.Repository
		sessionRepo    cashsession.SessionRepository
		collectionRepo cashsession.CollectionRepository
		depositRepo    cashsession.DepositRepository
	)
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Successfully connected to the database!")

		userRepo = user.NewPostgresRepository(db)
		sessionRepo = cashsession.NewSessionPostgresRepository(db)
		collectionRepo = cashsession.NewCollectionPostgresRepository(db)
		depositRepo = cashsession.NewDepositPostgresRepository(db)
	} else {
		log.Println("DATABASE_URL not set, running with in-memory stores (dev mode)")
		store := cashsession.NewMemoryStore()
		userRepo = user.NewMemoryRepository()
		sessionRepo = store
		collectionRepo = store
		depositRepo = store.Deposits()
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Identity ────────────────────────────────────────────
	userService := user.NewService(userRepo)
	user.NewHandler(userService).RegisterRoutes(router)

	authService := auth.NewService(userRepo, []byte(secret))
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Cash reconciliation ─────────────────────────────────
	sessionService := cashsession.NewService(sessionRepo, collectionRepo, depositRepo, userRepo)
	managerOnly := []func(http.Handler) http.Handler{
		auth.Middleware([]byte(secret)),
		auth.RequireRole(user.RoleManager),
	}
	cashsession.NewHandler(sessionService, currency, managerOnly...).RegisterRoutes(router)

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Van sales API server starting on :%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
