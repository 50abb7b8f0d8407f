// Command mint-token signs an access token for an existing user.  It is an
// operator tool for environments without an identity provider.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oceanview/resort-booking/internal/model"
	"github.com/oceanview/resort-booking/internal/utils"
)

func main() {
	userID := flag.Uint64("user", 0, "user id (sub claim)")
	role := flag.String("role", "GUEST", "GUEST, STAFF or ADMIN")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" || *userID == 0 {
		fmt.Fprintln(os.Stderr, "JWT_SECRET and -user are required")
		os.Exit(2)
	}
	r, err := model.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	tok, err := utils.NewAccessToken(secret, *userID, string(r), *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
