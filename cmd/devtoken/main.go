// Command devtoken mints a bearer token for local development against the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"expenses/internal/auth"
	"expenses/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	owner := flag.String("owner", "dev-user", "owner id placed in the sub claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "devtoken: JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := auth.Issue(auth.Config{
		Secret:   []byte(secret),
		Issuer:   os.Getenv("JWT_ISSUER"),
		Audience: os.Getenv("JWT_AUDIENCE"),
	}, *owner, *ttl, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
