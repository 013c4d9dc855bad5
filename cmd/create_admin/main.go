package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamelilea/agrowtify-web/internal/config"
	"github.com/mamelilea/agrowtify-web/internal/database"
	"github.com/mamelilea/agrowtify-web/internal/services"
)

// Creates an ADMIN account, or promotes an existing one and resets its
// password, signing it out everywhere.
//
//	go run ./cmd/create_admin -email admin@agrowtify.id -password '...' -name Admin
func main() {
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password, at least 8 characters (required)")
	name := flag.String("name", "Admin", "display name")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		log.Fatal("email and password are required")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, created, err := services.NewUserService(db).EnsureAdmin(ctx, services.RegisterInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		log.Fatal("Failed to create admin:", err)
	}
	if created {
		log.Printf("✅ Admin %s created (id %s)", user.Email, user.ID)
		return
	}
	log.Printf("✅ %s promoted to admin", user.Email)

	// The password was reset, so tokens issued under the old one must stop working.
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		log.Printf("⚠️  WARNING: Redis unavailable, existing sessions of %s were not revoked: %v", user.Email, err)
		return
	}
	defer rdb.Close()
	if err := services.NewSessionService(rdb, cfg.JWTSecret).RevokeAll(ctx, user.ID); err != nil {
		log.Printf("⚠️  WARNING: failed to revoke sessions of %s: %v", user.Email, err)
		return
	}
	log.Printf("✅ Existing sessions of %s revoked", user.Email)
}
