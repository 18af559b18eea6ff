// Seeds an admin account. Admins cannot self-register, so the first one has
// to come from here:
//
//	ADMIN_USERNAME=root ADMIN_EMAIL=root@campus.edu ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campus-rickshaw/internal/shared/config"
	"campus-rickshaw/internal/shared/db"
	"campus-rickshaw/internal/shared/util"
	"campus-rickshaw/internal/shared/validation"
)

func main() {
	logger := util.New()
	cfg := config.Load()

	username := os.Getenv("ADMIN_USERNAME")
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if err := validation.ValidateRequired(map[string]string{
		"ADMIN_USERNAME": username,
		"ADMIN_PASSWORD": password,
	}); err != nil {
		logger.Fatal("SeedAdmin", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		logger.Fatal("SeedAdmin", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal("SeedAdmin", err)
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("SeedAdmin", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO admins (admin_id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`, uuid.NewString(), username, email, string(hash))
	if err != nil {
		logger.Fatal("SeedAdmin", err)
	}

	logger.OK("SeedAdmin", "admin account ready: "+email)
}
