package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

// missingEntry is what pass prints when a key has never been inserted.
const missingEntry = "is not in the password store"

type command struct {
	args  []string
	input string
	env   []string
}

type runFunc func(ctx context.Context, cmd command) (stdout string, stderr string, err error)

type Option func(*Store)

// WithStoreDir points pass at a password store other than the user's default.
func WithStoreDir(dir string) Option {
	return func(s *Store) {
		if strings.TrimSpace(dir) != "" {
			s.env = append(s.env, "PASSWORD_STORE_DIR="+dir)
		}
	}
}

type Store struct {
	run runFunc
	env []string
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(opts ...Option) *Store {
	store := &Store{run: runPassCommand}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, s.command(value+"\n", "insert", "--multiline", "--force", key))
	if err != nil {
		return commandError("insert", key, err, stderr)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, s.command("", "show", key))
	if err != nil {
		return "", commandError("show", key, err, stderr)
	}

	// pass show prints the whole entry; the credential is the first line.
	value, _, _ := strings.Cut(stdout, "\n")
	return strings.TrimSuffix(value, "\r"), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, s.command("", "rm", "--force", key))
	if err != nil {
		return commandError("rm", key, err, stderr)
	}
	return nil
}

func (s *Store) command(input string, args ...string) command {
	return command{args: args, input: input, env: s.env}
}

func runPassCommand(ctx context.Context, c command) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, c.args...)
	if c.input != "" {
		cmd.Stdin = strings.NewReader(c.input)
	}
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func commandError(op string, key string, err error, stderr string) error {
	if strings.Contains(stderr, missingEntry) {
		return fmt.Errorf("pass %s %q: %w", op, key, domain.ErrCredentialNotFound)
	}
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, key, err)
	}
	return fmt.Errorf("pass %s %q: %w: %s", op, key, err, stderr)
}
