// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package postgres

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
)

// NewTestClient connects to the database named by the POSTGRES_* environment
// variables inside a fresh schema that is dropped when the test ends.
// The test is skipped unless RUN_DB_TESTS=1.
func NewTestClient(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("RUN_DB_TESTS") != "1" {
		t.Skip("Skipping database test; set RUN_DB_TESTS=1 to run")
	}

	port, err := strconv.Atoi(envOr("POSTGRES_PORT", "5432"))
	if err != nil {
		t.Fatalf("invalid POSTGRES_PORT: %v", err)
	}
	schema := fmt.Sprintf("test_%s_%d", sanitize(t.Name()), time.Now().UnixNano()%1_000_000)

	ctx := context.Background()
	client, err := NewClient(ctx, &platformconfig.PostgreSQLConfig{
		Host:     envOr("POSTGRES_HOST", "localhost"),
		Port:     port,
		Username: envOr("POSTGRES_USERNAME", "postgres"),
		Password: envOr("POSTGRES_PASSWORD", "postgres"),
		Database: envOr("POSTGRES_DATABASE", "imagehost_test"),
		Schema:   schema,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		client.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		client.DB().ExecContext(context.Background(), fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, schema))
		client.Close()
	})
	return client
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func sanitize(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	s := b.String()
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
