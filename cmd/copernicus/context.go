package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/garywelz/copernicus-web-sub000/internal/api"
	"github.com/garywelz/copernicus-web-sub000/internal/config"
	"github.com/garywelz/copernicus-web-sub000/internal/jobaccess"
	"github.com/garywelz/copernicus-web-sub000/internal/queue"
)

type commandContext struct {
	addressFlag *string
	configFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiAddress() string {
	if c.addressFlag != nil {
		if address := strings.TrimSpace(*c.addressFlag); address != "" {
			return address
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.Paths.APIBind
	}
	return ""
}

func (c *commandContext) apiToken() string {
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.Paths.APIToken
	}
	return ""
}

// dialDaemon returns a client when a daemon answers at the configured address.
func (c *commandContext) dialDaemon() (*api.Client, error) {
	address := c.apiAddress()
	if address == "" {
		return nil, fmt.Errorf("no daemon address configured")
	}
	client := api.NewClient(address, c.apiToken())
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("connect to daemon at %s: %w", address, err)
	}
	return client, nil
}

// withAccess runs fn against daemon-backed access when reachable, otherwise
// against the job store directly.
func (c *commandContext) withAccess(fn func(jobaccess.Access) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	session, err := jobaccess.OpenWithFallback(
		c.dialDaemon,
		func() (*queue.Store, error) { return queue.Open(cfg) },
	)
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session.Access)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
