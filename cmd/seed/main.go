package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"tenantchat/internal/company"
	"tenantchat/internal/config"
	"tenantchat/internal/repository/postgres"
	"tenantchat/internal/seed"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema and sync companies")
	companyName := flag.String("company", "", "Company short name to seed a user or API key for")
	email := flag.String("email", "", "Local user email")
	password := flag.String("password", "", "Local user password")
	firstName := flag.String("first-name", "", "Local user first name")
	lastName := flag.String("last-name", "", "Local user last name")
	apiKey := flag.String("api-key", "", "API key to store (empty with -new-api-key generates one)")
	newAPIKey := flag.Bool("new-api-key", false, "Create an API key for the company")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: Cannot run --drop-tables in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("seeding database", "environment", cfg.Environment, "table_prefix", cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	seeder := seed.NewTenantSeeder(pool, repoConfig.Tables, logger)

	// Drop tables if requested
	if *dropTables {
		if err := seeder.DropAllTables(ctx); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	// Run schema to ensure tables exist
	if err := postgres.EnsureSchema(ctx, repoConfig); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}

	// Companies come from YAML; make sure every configured tenant has a row
	configs, err := company.LoadConfigs(cfg.CompaniesDir)
	if err != nil {
		log.Fatalf("Failed to load company configurations: %v", err)
	}
	if err := company.NewDirectory(postgres.NewCompanyRepository(repoConfig), configs, logger).Sync(ctx); err != nil {
		log.Fatalf("Failed to sync companies: %v", err)
	}
	logger.Info("schema ready", "companies", len(configs))

	if *schemaOnly {
		return
	}
	if *companyName == "" {
		log.Fatal("-company is required to seed users or API keys")
	}

	if *email != "" {
		userID, err := seeder.SeedUser(ctx, *companyName, seed.LocalUser{
			Email:     *email,
			Password:  *password,
			FirstName: *firstName,
			LastName:  *lastName,
		})
		if err != nil {
			log.Fatalf("Failed to seed user: %v", err)
		}
		log.Printf("Seeded user %s for %s (identifier User_%d)", *email, *companyName, userID)
	}

	if *newAPIKey || *apiKey != "" {
		key, err := seeder.SeedAPIKey(ctx, *companyName, *apiKey)
		if err != nil {
			log.Fatalf("Failed to seed API key: %v", err)
		}
		log.Printf("API key for %s: %s", *companyName, key)
	}
}
