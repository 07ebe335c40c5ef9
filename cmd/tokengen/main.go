// Package main provides a CLI tool for generating local test credentials for
// the Termyx API: bearer tokens standing in for the identity provider, and
// admin tokens with their ADMIN_TOKEN_HASH.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "termyx/internal/jwt_token"
	id "termyx/pkg/domain"
	"termyx/pkg/secrets"
)

const (
	// Dev signing key - matches config.go when AUTH_JWT_SECRET is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultAudience = "authenticated"
	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)

	accessUserID := accessCmd.String("user-id", "", "User ID (UUID). Generated if empty.")
	accessEmail := accessCmd.String("email", "dev@termyx.local", "Email claim")
	accessIssuer := accessCmd.String("issuer", os.Getenv("AUTH_JWT_ISSUER"), "Issuer claim")
	accessAudience := accessCmd.String("audience", defaultAudience, "Audience claim")
	accessTTL := accessCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	accessJSON := accessCmd.Bool("json", false, "Output as JSON")

	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "access":
		_ = accessCmd.Parse(os.Args[2:])
		generateAccessToken(*accessUserID, *accessEmail, *accessIssuer, *accessAudience, *accessTTL, *accessJSON)
	case "admin":
		_ = adminCmd.Parse(os.Args[2:])
		generateAdminToken(*adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate local credentials for the Termyx API

WARNING: access tokens are signed with AUTH_JWT_SECRET, or the dev key when it
         is unset. Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  access    Generate a bearer token as the identity provider would
  admin     Generate an admin token and its ADMIN_TOKEN_HASH

Examples:
  # Generate access token with defaults
  tokengen access

  # Generate access token for a known user
  tokengen access -user-id "550e8400-e29b-41d4-a716-446655440000" -email ana@padaria.com.br

  # Create an operator token; put the hash in ADMIN_TOKEN_HASH
  tokengen admin

  # Output as JSON
  tokengen access -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateAccessToken(userID, email, issuer, audience string, ttl time.Duration, jsonOutput bool) {
	signingKey := os.Getenv("AUTH_JWT_SECRET")
	keyType := "AUTH_JWT_SECRET"
	if signingKey == "" {
		signingKey = devSigningKey
		keyType = "dev"
	}

	uid := parseOrGenerateUserID(userID)
	svc := jwttoken.NewJWTService(signingKey, issuer, audience, ttl)

	token, err := svc.GenerateAccessToken(context.Background(), uid, email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "access_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub":   uid.String(),
				"email": email,
				"aud":   audience,
			},
			Usage: map[string]string{
				"header":      "Authorization: Bearer <token>",
				"signing_key": keyType,
			},
		})
		return
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Signing Key: %s\n", keyType)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("User ID:     %s\n", uid)
	fmt.Printf("Email:       %s\n", email)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/me/credits")
}

func generateAdminToken(jsonOutput bool) {
	token, err := secrets.Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token: token,
			Type:  "admin_token",
			Usage: map[string]string{
				"header":           "X-Admin-Token: <token>",
				"ADMIN_TOKEN_HASH": hash,
			},
		})
		return
	}

	fmt.Println("Admin API Token")
	fmt.Println("===============")
	fmt.Printf("Token:            %s\n", token)
	fmt.Printf("ADMIN_TOKEN_HASH: %s\n", hash)
	fmt.Println()
	fmt.Println("The token is shown once; only the hash belongs in the server environment.")
}

func parseOrGenerateUserID(input string) id.UserID {
	if input == "" {
		return id.UserID(uuid.New())
	}
	parsed, err := id.ParseUserID(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user-id UUID: %s\n", input)
		os.Exit(1)
	}
	return parsed
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
