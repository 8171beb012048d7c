// Package docker shells out to the local Docker CLI for the image
// pulls and pushes the refresh sweep needs.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Runner abstracts the Docker operations used by sweeps.
type Runner interface {
	Pull(ctx context.Context, image string) error
	Push(ctx context.Context, image string) error
	Login(ctx context.Context, registry, username, password string) error
}

// CLI runs the docker binary on the local host.
type CLI struct {
	bin    string
	logger zerolog.Logger
}

// NewCLI creates a runner for the docker binary on PATH.
func NewCLI(logger zerolog.Logger) *CLI {
	return &CLI{bin: "docker", logger: logger}
}

func (c *CLI) Pull(ctx context.Context, image string) error {
	return c.run(ctx, "", "pull", image)
}

func (c *CLI) Push(ctx context.Context, image string) error {
	return c.run(ctx, "", "push", image)
}

// Login passes the password over stdin so it never appears in the
// process arguments.
func (c *CLI) Login(ctx context.Context, registry, username, password string) error {
	return c.run(ctx, password, "login", "--username", username, "--password-stdin", registry)
}

func (c *CLI) run(ctx context.Context, stdin string, args ...string) error {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker %s: %w: %s", args[0], err, lastLine(out))
	}
	c.logger.Debug().Str("command", "docker "+strings.Join(args, " ")).Msg("docker command succeeded")
	return nil
}

// lastLine extracts the final non-empty output line, which is where
// the docker CLI puts its error message.
func lastLine(out []byte) string {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(lines[len(lines)-1])
}
