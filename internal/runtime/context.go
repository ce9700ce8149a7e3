// Package runtime provides the per-invocation context shared by commands:
// the open repository store, configuration, and output sinks.
package runtime

import (
	"context"
	"fmt"
	"os"

	"stax.dev/stax/internal/config"
	"stax.dev/stax/internal/git"
	"stax.dev/stax/internal/output"
)

// Context provides access to the store and output for commands
type Context struct {
	Store    *git.Store
	Splog    *output.Splog
	Config   *config.RepoConfig
	RepoRoot string
}

type contextKey struct{}

// NewContext opens the repository containing the working directory and
// assembles the command context.
func NewContext() (*Context, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	store, err := git.OpenStore(wd)
	if err != nil {
		return nil, err
	}

	splog := output.NewSplog()

	repoCfg, err := config.GetRepoConfig(store.GitDir())
	if err != nil {
		return nil, err
	}
	userCfg, err := config.GetUserConfig()
	if err != nil {
		return nil, err
	}
	if userCfg.Author.Name != "" || userCfg.Author.Email != "" {
		store.SetIdentity(userCfg.Author.Name, userCfg.Author.Email)
	}
	if userCfg.Log.Enabled {
		splog.EnableDebugLog(store.GitDir(), userCfg.Log.MaxSizeMB, userCfg.Log.MaxBackups, userCfg.Log.MaxAgeDays)
		splog.Debug("opened repository at %s", store.Root())
	}

	return &Context{
		Store:    store,
		Splog:    splog,
		Config:   repoCfg,
		RepoRoot: store.Root(),
	}, nil
}

// WithContext attaches a runtime context to a context.Context
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// GetContext retrieves the runtime context installed by the root command
func GetContext(ctx context.Context) (*Context, error) {
	rc, ok := ctx.Value(contextKey{}).(*Context)
	if !ok {
		return nil, fmt.Errorf("no runtime context; command was not run through the stax root command")
	}
	return rc, nil
}

// CurrentBranch resolves the branch stack operations target: the checked
// out branch, or the configured default when HEAD is detached.
func (c *Context) CurrentBranch() (string, error) {
	branch, err := c.Store.CurrentBranch()
	if err == nil {
		return branch, nil
	}
	if c.Config.DefaultBranch != nil && *c.Config.DefaultBranch != "" {
		return *c.Config.DefaultBranch, nil
	}
	return "", err
}
