package main

import (
	"log"
	"os"

	"go-catalog-api/internal/repository"
	"go-catalog-api/pkg/database"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	userRepo := repository.NewUserRepo(db)

	// 3. Find Admin
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	user, err := userRepo.FindByEmail(email)
	if err != nil {
		log.Fatalf("User %s not found in database: %v", email, err)
	}

	// 4. Hash new password
	newPassword := os.Getenv("ADMIN_PASSWORD")
	if newPassword == "" {
		newPassword = "admin123"
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	// 5. Update
	if err := userRepo.UpdatePassword(user.ID, string(hashedPassword)); err != nil {
		log.Fatalf("Failed to update password in DB: %v", err)
	}

	log.Printf("Success! Password for %s has been reset", email)
}
