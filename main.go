package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "homeledger/docs"
	"homeledger/internal/bills"
	"homeledger/internal/store/postgres"
)

// svc is the bill engine every handler drives.
var svc *bills.Service

// @title Homeledger API
// @version 1.0
// @description Household bill tracking: recurring templates, occurrences, payments, budget allocations, and autopay.
// @BasePath /
func main() {
	// Database connection with defaults
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "password")
	dbName := getEnv("DB_NAME", "homeledger")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	// Connect to database with retry logic
	maxRetries := 30
	retryInterval := time.Second * 2

	var pool *pgxpool.Pool
	var err error
	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(context.Background(), connStr)
		if err != nil {
			log.Printf("Attempt %d: Error opening database: %v", i+1, err)
			time.Sleep(retryInterval)
			continue
		}

		if err = pool.Ping(context.Background()); err != nil {
			log.Printf("Attempt %d: Error connecting to database: %v", i+1, err)
			pool.Close()
			time.Sleep(retryInterval)
			continue
		}

		log.Println("Successfully connected to database")
		break
	}
	if err != nil {
		log.Fatal("Failed to connect to database after retries: ", err)
	}
	defer pool.Close()

	// Run database migrations over a separate database/sql connection
	migrationsPath := filepath.Join(".", "db", "migrations")
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		log.Printf("Migrations directory not found at %s, skipping migrations", migrationsPath)
	} else {
		log.Println("Running database migrations...")
		migrateDB, err := sql.Open("postgres", connStr)
		if err != nil {
			log.Fatal("Error opening migration connection: ", err)
		}
		if err := runMigrations(migrateDB, migrationsPath); err != nil {
			log.Fatal("Error running migrations: ", err)
		}
		if version, dirty, err := getMigrationVersion(migrateDB, migrationsPath); err == nil {
			if dirty {
				log.Printf("Current migration version: %d (DIRTY - migration failed)", version)
			} else {
				log.Printf("Current migration version: %d", version)
			}
		}
		migrateDB.Close()
		log.Println("Database migrations completed successfully")
	}

	svc = bills.NewService(postgres.NewStore(pool), bills.ServiceOptions{})
	startAutopayScheduler()

	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{getEnv("CORS_ORIGIN", "http://localhost:3001")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", householdHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	registerRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := getEnv("PORT", "8080")
	log.Printf("Server starting on port %s", port)
	r.Run(":" + port)
}

// registerRoutes wires every API route; the test router reuses it.
func registerRoutes(r *gin.Engine) {
	r.GET("/api/templates", getTemplates)
	r.POST("/api/templates", createTemplate)
	r.GET("/api/templates/:id", getTemplate)
	r.PUT("/api/templates/:id", updateTemplate)
	r.DELETE("/api/templates/:id", deleteTemplate)
	r.GET("/api/templates/:id/autopay", getAutopayRule)
	r.PUT("/api/templates/:id/autopay", putAutopayRule)
	r.DELETE("/api/templates/:id/autopay", deleteAutopayRule)

	r.GET("/api/occurrences", getOccurrences)
	r.GET("/api/occurrences/:id", getOccurrence)
	r.PUT("/api/occurrences/:id", updateOccurrence)
	r.POST("/api/occurrences/:id/pay", payOccurrence)
	r.POST("/api/occurrences/:id/skip", skipOccurrence)
	r.POST("/api/occurrences/:id/reset", resetOccurrence)
	r.PUT("/api/occurrences/:id/allocations", updateAllocations)
	r.GET("/api/occurrences/:id/payments", getOccurrencePayments)

	r.GET("/api/accounts", getAccounts)
	r.POST("/api/accounts", createAccount)
	r.GET("/api/accounts/:id", getAccount)
	r.POST("/api/accounts/:id/adjust", adjustAccount)
	r.GET("/api/accounts/:id/transactions", getAccountTransactions)

	r.GET("/api/autopay/rules", getAutopayRules)
	r.POST("/api/autopay/run", runAutopay)
	r.GET("/api/autopay/runs", getAutopayRuns)

	r.GET("/api/dashboard", getDashboard)
	r.GET("/api/settings", getSettings)
	r.PUT("/api/settings", putSettings)
	r.GET("/api/payoff-plan", getPayoffPlan)
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
