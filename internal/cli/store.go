package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/shaiso/Chorus/internal/store"
)

// OpenStore подключается к document store по переменным окружения.
//
// STORE_BACKEND выбирает backend:
//   - "redis" (по умолчанию) — REDIS_URL
//   - "postgres"             — DB_URL
func OpenStore(ctx context.Context) (store.Client, error) {
	backend := os.Getenv("STORE_BACKEND")

	switch backend {
	case "", "redis":
		return store.NewRedis(ctx)
	case "postgres":
		return store.NewPostgres(ctx)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
