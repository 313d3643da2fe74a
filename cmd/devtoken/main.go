// Command devtoken mints an ES256 access token for local testing.
//
//	devtoken -uid 0b0e... -role admin -key ./keys/private.pem
//
// Without -key the private key is read from JWT_PRIVATE_KEY.
package main

import (
	"flag"
	"fmt"
	"os"

	uuid "github.com/gofrs/uuid"
	"github.com/joho/godotenv"
	"github.com/qolzam/imagehost/internal/types"
	"github.com/qolzam/imagehost/internal/utils"
)

func main() {
	uid := flag.String("uid", "", "user id (random when empty)")
	role := flag.String("role", types.UserRole, "system role: user or admin")
	username := flag.String("username", "dev", "username claim")
	keyFile := flag.String("key", "", "path to an EC private key PEM")
	hours := flag.Int64("hours", 24, "token lifetime in hours")
	flag.Parse()

	if err := run(*uid, *role, *username, *keyFile, *hours); err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
}

func run(uid, role, username, keyFile string, hours int64) error {
	userID := uuid.Must(uuid.NewV4())
	if uid != "" {
		parsed, err := uuid.FromString(uid)
		if err != nil {
			return fmt.Errorf("invalid -uid: %w", err)
		}
		userID = parsed
	}
	if role != types.UserRole && role != types.AdminRole {
		return fmt.Errorf("invalid -role %q", role)
	}

	key, err := privateKey(keyFile)
	if err != nil {
		return err
	}

	token, err := utils.GenerateJWTToken(key, utils.TokenClaims{
		Claim: map[string]interface{}{
			types.HeaderUID: userID.String(),
			"username":      username,
			"displayName":   username,
			"role":          role,
		},
	}, hours)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "uid=%s role=%s\n", userID, role)
	fmt.Println(token)
	return nil
}

func privateKey(keyFile string) ([]byte, error) {
	if keyFile != "" {
		files, err := utils.ReadFiles(keyFile)
		if err != nil {
			return nil, err
		}
		return files[keyFile], nil
	}

	// .env never overrides the real environment
	_ = godotenv.Load()
	key := os.Getenv("JWT_PRIVATE_KEY")
	if key == "" {
		return nil, fmt.Errorf("set JWT_PRIVATE_KEY or pass -key")
	}
	return []byte(key), nil
}
