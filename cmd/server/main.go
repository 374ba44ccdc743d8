/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the vending machine engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite store
  3. Load the catalog (file or built-in default)
  4. Build the authenticator and machine controller
  5. Start the payment sweeper and HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: vending.db)
             Use ":memory:" for an in-memory database
  -catalog   Catalog JSON file (default: built-in five-slot layout)
  -timeout   Payment window before auto-cancel (default: 90s)

ENVIRONMENT:
  JWT_SECRET        Token signing secret (required outside dev)
  SERVICE_EMAIL     Service-mode login (default: email)
  SERVICE_PASSWORD  Service-mode password (default: password)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper and close the database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - machine/controller.go: The engine
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/vending-engine/api"
	"github.com/warp/vending-engine/auth"
	"github.com/warp/vending-engine/factory"
	"github.com/warp/vending-engine/machine"
	"github.com/warp/vending-engine/store/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "vending.db", "SQLite database path")
	catalogPath := flag.String("catalog", "", "Catalog JSON file (default: built-in layout)")
	timeout := flag.Duration("timeout", machine.DefaultPaymentTimeout, "Payment window before auto-cancel")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Load catalog
	catalogJSON := factory.DefaultCatalogJSON()
	if *catalogPath != "" {
		data, err := os.ReadFile(*catalogPath)
		if err != nil {
			log.Fatalf("Failed to read catalog: %v", err)
		}
		catalogJSON = string(data)
	}
	catalog, err := factory.ParseCatalog(catalogJSON)
	if err != nil {
		log.Fatalf("Failed to parse catalog: %v", err)
	}

	// Authenticator
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-secret"
		log.Println("Warning: JWT_SECRET not set, using dev secret")
	}
	authenticator := auth.New([]byte(secret), 24*time.Hour)

	email := envOr("SERVICE_EMAIL", "email")
	password := envOr("SERVICE_PASSWORD", "password")
	if err := authenticator.AddUser(email, password); err != nil {
		log.Fatalf("Failed to register service credential: %v", err)
	}

	// Machine controller
	ctx := context.Background()
	controller, err := machine.NewController(ctx, machine.Config{
		Catalog:        catalog,
		Store:          store,
		Authorizer:     authenticator,
		PaymentTimeout: *timeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize machine: %v", err)
	}

	// Payment sweeper
	sweeper := api.NewPaymentSweeper(controller)
	sweeper.Start()
	defer sweeper.Stop()

	// Router and server
	handler := api.NewHandler(controller, authenticator)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Vending engine listening on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
