package testhelpers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ImageEnv overrides the Postgres image the suites run against.
const ImageEnv = "STOREFRONT_TEST_POSTGRES_IMAGE"

const (
	defaultImage = "postgres:16-alpine"
	dbUser       = "storefront"
	dbPassword   = "storefront-test"
	dbName       = "storefront_test"
)

// storeTables are truncated between tests, children first.
var storeTables = []string{"webhook_logs", "order_items", "orders", "products"}

// TestDatabase is a migrated Postgres container shared by one test suite.
type TestDatabase struct {
	Container testcontainers.Container
	DB        *postgres.DB
	Config    *config.DatabaseConfig
}

// SetupTestDatabase starts Postgres, connects through the production pool setup and
// applies the embedded schema.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image(),
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     dbUser,
				"POSTGRES_PASSWORD": dbPassword,
				"POSTGRES_DB":       dbName,
			},
			// The entrypoint restarts the server once after init.
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start postgres container")

	cfg, err := databaseConfig(ctx, container)
	if err != nil {
		_ = container.Terminate(context.Background())
		require.NoError(t, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	db, err := postgres.Connect(ctx, cfg, logger)
	if err != nil {
		_ = container.Terminate(context.Background())
		require.NoError(t, err, "connect to test database")
	}
	require.NoError(t, db.RunMigrations(ctx), "migrate test database")

	return &TestDatabase{Container: container, DB: db, Config: cfg}
}

func image() string {
	if img := strings.TrimSpace(os.Getenv(ImageEnv)); img != "" {
		return img
	}
	return defaultImage
}

func databaseConfig(ctx context.Context, container testcontainers.Container) (*config.DatabaseConfig, error) {
	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, fmt.Errorf("container port: %w", err)
	}
	return &config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            dbUser,
		Password:        dbPassword,
		Name:            dbName,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 5 * time.Minute,
	}, nil
}

func (td *TestDatabase) Cleanup(t *testing.T) {
	t.Helper()
	td.DB.Close()
	require.NoError(t, td.Container.Terminate(context.Background()))
}

// CleanTables empties every store table.
func (td *TestDatabase) CleanTables(t *testing.T) {
	t.Helper()
	_, err := td.DB.Pool.Exec(context.Background(),
		"TRUNCATE TABLE "+strings.Join(storeTables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

// AgeOrder moves an order's creation time back by d, as if it had been waiting that long.
func (td *TestDatabase) AgeOrder(t *testing.T, orderID string, d time.Duration) {
	t.Helper()
	tag, err := td.DB.Pool.Exec(context.Background(),
		"UPDATE orders SET created_at = created_at - make_interval(secs => $2), updated_at = updated_at - make_interval(secs => $2) WHERE id = $1",
		orderID, d.Seconds())
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected(), "order %s not found", orderID)
}
