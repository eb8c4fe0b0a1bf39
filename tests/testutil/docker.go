// Package testutil starts the backing services the store integration tests
// run against.
package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// Container ports of the services in tests/integration/docker-compose.yml.
var servicePorts = map[string]int{
	"postgres":   5432,
	"mysql":      3306,
	"localstack": 4566,
}

// DockerTestEnv manages Docker Compose lifecycle for integration tests
type DockerTestEnv struct {
	t           *testing.T
	composePath string
	services    []string
	started     bool
	projectName string
	ports       map[string]int // service -> host port
}

// StartDockerEnv starts Docker Compose services for integration testing
func StartDockerEnv(t *testing.T, services []string) *DockerTestEnv {
	t.Helper()

	SkipIfDockerUnavailable(t)

	// Endpoint overrides in the environment would point the stores elsewhere.
	for _, key := range []string{"AWS_ENDPOINT_URL", "AWS_ENDPOINT_URL_SECRETSMANAGER", "PGHOST", "PGPORT"} {
		t.Setenv(key, "")
	}

	composePath := findDockerComposePath()
	if composePath == "" {
		t.Fatal("docker-compose.yml not found in tests/integration/")
	}

	env := &DockerTestEnv{
		t:           t,
		composePath: composePath,
		services:    services,
		projectName: fmt.Sprintf("keyring-test-%d", time.Now().UnixNano()),
	}

	env.start()
	t.Cleanup(env.Stop)

	if err := env.WaitForHealthy(90 * time.Second); err != nil {
		t.Fatalf("Docker services failed to become healthy: %v", err)
	}
	if err := env.discoverPorts(); err != nil {
		t.Fatalf("Failed to discover ports: %v", err)
	}

	return env
}

// SkipIfDockerUnavailable skips the test if Docker is not available
func SkipIfDockerUnavailable(t *testing.T) {
	t.Helper()

	if !IsDockerAvailable() {
		t.Skip("Docker not available, skipping integration test")
	}
}

// IsDockerAvailable checks if Docker and the compose plugin are usable
func IsDockerAvailable() bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	if err := exec.Command("docker", "ps").Run(); err != nil {
		return false
	}
	return exec.Command("docker", "compose", "version").Run() == nil
}

func findDockerComposePath() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	path := filepath.Join(filepath.Dir(file), "..", "integration", "docker-compose.yml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (e *DockerTestEnv) compose(args ...string) *exec.Cmd {
	cmd := exec.Command("docker", append([]string{"compose", "-f", e.composePath, "-p", e.projectName}, args...)...)
	cmd.Dir = filepath.Dir(e.composePath)
	return cmd
}

func (e *DockerTestEnv) start() {
	e.t.Helper()

	cmd := e.compose(append([]string{"up", "-d"}, e.services...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	e.t.Logf("Starting Docker services: %v", e.services)
	if err := cmd.Run(); err != nil {
		e.t.Fatalf("Failed to start Docker services: %v", err)
	}
	e.started = true
}

// Stop stops and removes Docker Compose services
func (e *DockerTestEnv) Stop() {
	if !e.started {
		return
	}

	cmd := e.compose("down", "-v")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		e.t.Logf("Warning: Failed to stop Docker services: %v", err)
	}
	e.started = false
}

// WaitForHealthy waits for all services to report healthy
func (e *DockerTestEnv) WaitForHealthy(timeout time.Duration) error {
	e.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for services to be healthy")
		case <-ticker.C:
			if e.checkHealth() {
				e.t.Logf("All services are healthy")
				return nil
			}
		}
	}
}

func (e *DockerTestEnv) checkHealth() bool {
	for _, service := range e.services {
		// {project_name}-{service}-{replica}
		containerName := fmt.Sprintf("%s-%s-1", e.projectName, service)

		output, err := exec.Command("docker", "inspect", "--format", "{{.State.Health.Status}}", containerName).Output()
		if err != nil {
			return false
		}
		if status := strings.TrimSpace(string(output)); status != "healthy" {
			return false
		}
	}
	return true
}

func (e *DockerTestEnv) discoverPorts() error {
	e.ports = make(map[string]int)

	for _, service := range e.services {
		containerPort, ok := servicePorts[service]
		if !ok {
			continue
		}

		output, err := e.compose("port", service, fmt.Sprintf("%d", containerPort)).Output()
		if err != nil {
			return fmt.Errorf("failed to get port for %s:%d: %w", service, containerPort, err)
		}

		// "0.0.0.0:32768" -> 32768
		portStr := strings.TrimSpace(string(output))
		idx := strings.LastIndex(portStr, ":")
		if idx < 0 {
			return fmt.Errorf("unexpected port output format: %s", portStr)
		}
		hostPort := 0
		if _, err := fmt.Sscanf(portStr[idx+1:], "%d", &hostPort); err != nil {
			return fmt.Errorf("failed to parse host port from %s: %w", portStr, err)
		}

		e.ports[service] = hostPort
		e.t.Logf("Discovered port mapping: %s:%d -> localhost:%d", service, containerPort, hostPort)
	}
	return nil
}

// Port returns the host port published for service.
func (e *DockerTestEnv) Port(service string) int {
	if port, ok := e.ports[service]; ok {
		return port
	}
	return servicePorts[service]
}

// PostgresDSN returns the connection string of the postgres service
func (e *DockerTestEnv) PostgresDSN() string {
	return fmt.Sprintf("host=127.0.0.1 port=%d user=test password=test-password dbname=testdb sslmode=disable", e.Port("postgres"))
}

// MySQLDSN returns the connection string of the mysql service
func (e *DockerTestEnv) MySQLDSN() string {
	return fmt.Sprintf("test:test-password@tcp(127.0.0.1:%d)/testdb", e.Port("mysql"))
}

// LocalStackEndpoint returns the LocalStack endpoint with dynamic port
func (e *DockerTestEnv) LocalStackEndpoint() string {
	return fmt.Sprintf("http://127.0.0.1:%d", e.Port("localstack"))
}
