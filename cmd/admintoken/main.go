// Command admintoken signs a bearer token for the admin API.
//
//	ADMIN_JWT_SECRET=... go run ./cmd/admintoken -email admin@example.de
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/CTNMjm/dsgvo-llm-sub000/internal/auth"
)

func main() {
	_ = godotenv.Load(".env")

	email := flag.String("email", "", "admin email to embed in the token")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: admintoken -email <address>")
		os.Exit(2)
	}

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	token, err := auth.NewAdminTokenService(secret).Sign(*email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
