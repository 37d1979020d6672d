package main

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/jessevdk/go-flags"

	"github.com/petasbytes/mcp-bridge/internal/config"
	"github.com/petasbytes/mcp-bridge/internal/mcpserver"
	"github.com/petasbytes/mcp-bridge/internal/orchestrator"
	"github.com/petasbytes/mcp-bridge/internal/provider"
	"github.com/petasbytes/mcp-bridge/internal/session"
)

type options struct {
	Args struct {
		Script string `positional-arg-name:"server-script" description:"Path to the MCP server script (.py or .js)"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		ancli.PrintErr(fmt.Sprintf("parse arguments: %v\n", err))
		os.Exit(1)
	}
	if opts.Args.Script == "" {
		fmt.Println("Usage: bridge <path to server script (.py or .js)>")
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		ancli.PrintErr(fmt.Sprintf("configuration: %v\n", err))
		os.Exit(1)
	}

	if err := run(cfg, opts.Args.Script); err != nil {
		ancli.PrintErr(fmt.Sprintf("%v\n", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, script string) error {
	ctx := context.Background()

	srv, err := mcpserver.Connect(ctx, cfg, script)
	if err != nil {
		return err
	}
	// Channel teardown happens here exactly once, on every exit path.
	defer func() {
		if cerr := srv.Close(); cerr != nil {
			ancli.PrintWarn(fmt.Sprintf("close server channel: %v\n", cerr))
		}
	}()

	client := provider.NewAnthropicClient(cfg.APIKey)
	orch := orchestrator.New(client, anthropic.Model(cfg.Model), srv, srv.Catalog())

	return session.Run(ctx, os.Stdin, os.Stdout, orch)
}
