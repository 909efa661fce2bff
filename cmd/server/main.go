package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prepbank/backend/internal/auth"
	"github.com/prepbank/backend/internal/bank"
	"github.com/prepbank/backend/internal/curriculum"
	"github.com/prepbank/backend/internal/database"
	"github.com/prepbank/backend/internal/generator"
	"github.com/prepbank/backend/internal/middleware"
	"github.com/prepbank/backend/internal/orchestrator"
	"github.com/rs/cors"
)

func main() {
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store := bank.NewStore(db)
	resolver := curriculum.NewResolver()
	gen := generator.NewGenerator()
	verifier := generator.NewVerifier()
	orch := orchestrator.New(store, gen, verifier, orchestrator.OptionsFromEnv())
	service := bank.NewService(store, resolver, orch)

	authHandler := auth.NewHandler(db)
	bankHandler := bank.NewHandler(service)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/curriculum/{testType}", bankHandler.GetCurriculum).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/inventory", bankHandler.GetInventory).Methods("GET")
	protected.HandleFunc("/admin/runs", bankHandler.RunGapFill).Methods("POST")
	protected.HandleFunc("/admin/runs", bankHandler.ListRuns).Methods("GET")
	protected.HandleFunc("/admin/runs/{runID}", bankHandler.GetRun).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
