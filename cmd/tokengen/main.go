// Package main provides a CLI for generating leadgate operator credentials,
// signing keys and mode tokens for local testing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"leadgate/internal/opmode"
	"leadgate/pkg/secrets"
)

type output struct {
	Value string            `json:"value"`
	Type  string            `json:"type"`
	Extra map[string]string `json:"extra,omitempty"`
	Usage map[string]string `json:"usage"`
}

func main() {
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
	keyCmd := flag.NewFlagSet("signing-key", flag.ExitOnError)
	modeCmd := flag.NewFlagSet("mode", flag.ExitOnError)

	adminToken := adminCmd.String("token", "", "Operator token to hash. Generated if empty.")
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	keyBytes := keyCmd.Int("bytes", 32, "Random bytes before encoding")
	keyJSON := keyCmd.Bool("json", false, "Output as JSON")

	modeKey := modeCmd.String("key", os.Getenv("OPMODE_SIGNING_KEY"), "HS256 signing key (defaults to OPMODE_SIGNING_KEY)")
	modeName := modeCmd.String("mode", string(opmode.ModePrimary), "primary or reserve")
	modeAge := modeCmd.Duration("age", 0, "Backdate the token by this much, e.g. 6m to get a stale token")
	modeJSON := modeCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "admin":
		adminCmd.Parse(os.Args[2:])
		generateAdmin(*adminToken, *adminJSON)
	case "signing-key":
		keyCmd.Parse(os.Args[2:])
		generateSigningKey(*keyBytes, *keyJSON)
	case "mode":
		modeCmd.Parse(os.Args[2:])
		mintModeToken(*modeKey, opmode.Mode(*modeName), *modeAge, *modeJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate leadgate credentials and test tokens

Usage:
  tokengen <command> [flags]

Commands:
  admin         Generate an operator token and its ADMIN_TOKEN_HASH
  signing-key   Generate a random OPMODE_SIGNING_KEY
  mode          Mint an X-Mode-Token

Examples:
  # New operator credential
  tokengen admin

  # Hash an existing operator token
  tokengen admin -token "s3cret"

  # A stale reserve token, to force a fresh probe
  tokengen mode -key "$OPMODE_SIGNING_KEY" -mode reserve -age 6m

Use "tokengen <command> -h" for more information about a command.`)
}

func generateAdmin(token string, jsonOutput bool) {
	if token == "" {
		generated, err := secrets.Generate(32)
		if err != nil {
			fail("generating token", err)
		}
		token = generated
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		fail("hashing token", err)
	}

	if jsonOutput {
		printJSON(output{
			Value: token,
			Type:  "operator_token",
			Extra: map[string]string{"hash": hash},
			Usage: map[string]string{
				"header": "X-Admin-Token: " + token,
				"env":    "ADMIN_TOKEN_HASH=" + hash,
			},
		})
		return
	}
	fmt.Println("Operator Token")
	fmt.Println("==============")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Server env:")
	fmt.Printf("  ADMIN_TOKEN_HASH='%s'\n", hash)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -X PUT -H \"X-Admin-Token: %s\" -d '{\"enabled\":false}' http://localhost:8080/admin/forms/enabled\n", token)
}

func generateSigningKey(n int, jsonOutput bool) {
	key, err := secrets.Generate(n)
	if err != nil {
		fail("generating key", err)
	}
	if jsonOutput {
		printJSON(output{
			Value: key,
			Type:  "signing_key",
			Usage: map[string]string{"env": "OPMODE_SIGNING_KEY=" + key},
		})
		return
	}
	fmt.Printf("OPMODE_SIGNING_KEY=%s\n", key)
}

func mintModeToken(key string, mode opmode.Mode, age time.Duration, jsonOutput bool) {
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: -key or OPMODE_SIGNING_KEY is required")
		os.Exit(1)
	}
	signer, err := opmode.NewSigner(key, opmode.DefaultCacheTTL)
	if err != nil {
		fail("creating signer", err)
	}
	issuedAt := time.Now().Add(-age)
	token, err := signer.Mint(mode, issuedAt)
	if err != nil {
		fail("minting token", err)
	}

	if jsonOutput {
		printJSON(output{
			Value: token,
			Type:  "mode_token",
			Extra: map[string]string{
				"mode":      string(mode),
				"issued_at": issuedAt.UTC().Format(time.RFC3339),
			},
			Usage: map[string]string{"header": opmode.HeaderModeToken + ": " + token},
		})
		return
	}
	fmt.Println("Mode Token")
	fmt.Println("==========")
	fmt.Printf("Mode:      %s\n", mode)
	fmt.Printf("Issued At: %s\n", issuedAt.UTC().Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H \"%s: <token>\" http://localhost:8080/api/calls/mode\n", opmode.HeaderModeToken)
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", what, err)
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("encoding output", err)
	}
}
