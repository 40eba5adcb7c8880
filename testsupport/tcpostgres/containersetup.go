package tcpostgres

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultImage = "postgres:16"

// PostgresContainer is a running postgres test container.
type PostgresContainer struct {
	testcontainers.Container
}

type PostgresContainerOption func(req *testcontainers.GenericContainerRequest)

func WithWaitStrategy(strategies ...wait.Strategy) PostgresContainerOption {
	return func(req *testcontainers.GenericContainerRequest) {
		req.WaitingFor = wait.ForAll(strategies...).WithDeadline(1 * time.Minute)
	}
}

func WithPort(port string) PostgresContainerOption {
	return func(req *testcontainers.GenericContainerRequest) {
		req.ExposedPorts = append(req.ExposedPorts, port)
	}
}

// WithName names the container. Named containers are reused across test packages.
func WithName(containerName string) PostgresContainerOption {
	return func(req *testcontainers.GenericContainerRequest) {
		req.Name = containerName
		req.Reuse = containerName != ""
	}
}

func WithImage(image string) PostgresContainerOption {
	return func(req *testcontainers.GenericContainerRequest) {
		req.Image = image
	}
}

func WithInitialDatabase(user, password, dbName string) PostgresContainerOption {
	return func(req *testcontainers.GenericContainerRequest) {
		req.Env["POSTGRES_USER"] = user
		req.Env["POSTGRES_PASSWORD"] = password
		req.Env["POSTGRES_DB"] = dbName
	}
}

// SetupPostgres starts a postgres container with fsync disabled.
func SetupPostgres(ctx context.Context, opts ...PostgresContainerOption) (
	*PostgresContainer, error,
) {
	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        defaultImage,
			Env:          map[string]string{},
			ExposedPorts: []string{},
			Cmd:          []string{"postgres", "-c", "fsync=off"},
		},
		Started: true,
	}
	for _, opt := range opts {
		opt(&req)
	}

	container, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		return nil, err
	}
	return &PostgresContainer{Container: container}, nil
}
