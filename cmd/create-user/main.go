package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/config"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/database"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/logger"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/repository"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/validator"
	"golang.org/x/term"
)

// create-user creates an account, or resets the name, password and roles
// of the account that already holds the email.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	userService := service.NewUserService(repository.NewUserRepository(pool), cfg.BcryptCost, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create User ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}

	fmt.Print("Enter Roles, comma separated (default ADMIN): ")
	rolesLine, _ := reader.ReadString('\n')

	req := model.CreateUserRequest{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: string(bytePassword),
		Roles:    parseRoles(rolesLine),
	}

	if fields := validator.Struct(&req); fields != nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("Error: %s\n", fields[k])
		}
		os.Exit(1)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := userService.Upsert(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User '%s' (%s) saved with ID %s and roles %v\n", user.Name, user.Email, user.ID, user.Roles)
}

func parseRoles(line string) []string {
	var roles []string
	for _, r := range strings.Split(line, ",") {
		if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return []string{string(model.RoleAdmin)}
	}
	return roles
}
