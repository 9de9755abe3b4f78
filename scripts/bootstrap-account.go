// Command bootstrap-account creates an account directly in the credential
// store and prints its API key. Useful for provisioning a first account
// without going through the HTTP surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/visiongate/visiongate/internal/auth"
	"github.com/visiongate/visiongate/internal/model"
	"github.com/visiongate/visiongate/internal/repository"
)

type output struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	APIKey   string `json:"api_key"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("SUPABASE_DB_URL"), "PostgreSQL connection string")
		username    = flag.String("username", "system", "Account username")
		password    = flag.String("password", "", "Account password (required)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "SUPABASE_DB_URL is required")
		os.Exit(1)
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect db: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     *username,
		PasswordHash: hash,
		APIKey:       auth.GenerateAPIKey(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		fmt.Fprintf(os.Stderr, "create user: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		out := output{UserID: user.ID, Username: user.Username, APIKey: user.APIKey}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("user_id:  %s\n", user.ID)
	fmt.Printf("username: %s\n", user.Username)
	fmt.Printf("api_key:  %s\n", user.APIKey)
}
