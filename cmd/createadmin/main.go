// Command createadmin bootstraps a staff/superuser account directly in
// the database. Meant for initial setup; regular accounts register over
// the HTTP API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/couplestools/accounts/internal/config"
	"github.com/couplestools/accounts/internal/crypto"
	"github.com/couplestools/accounts/internal/models"
	"github.com/couplestools/accounts/internal/server/storage/sqlite"
	"github.com/couplestools/accounts/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	dbPath := os.Getenv("ACCOUNTS_DB_PATH")
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}

	username, err := readInput("Username: ")
	if err != nil {
		return err
	}
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}

	email, err := readInput("Email: ")
	if err != nil {
		return err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	confirm, err := readPassword("Password (again): ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords didn't match")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	ctx := context.Background()

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	admin := &models.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
		CreatedAt:    time.Now(),
	}

	if err := store.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	fmt.Printf("Superuser %s created successfully\n", username)

	return nil
}

func readInput(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	pwBytes, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}
