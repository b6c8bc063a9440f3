// Package run implements the objpath command line tool.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/srerickson/objpath"
	"github.com/srerickson/objpath/logging"
	"github.com/srerickson/objpath/store/metrics"
)

const description = `command line tool for working with files and directories in object stores.

Paths have the form "container/key" or "s3://bucket/key". Containers named in
the config file's "containers" section are opened with their gocloud URL;
all other containers are S3 buckets.`

type globals struct {
	Config       string `name:"config" short:"c" env:"OBJPATH_CONFIG" type:"path" help:"YAML config file with S3 settings and container URLs."`
	Endpoint     string `name:"endpoint" env:"OBJPATH_ENDPOINT" help:"S3 endpoint URL, for S3-compatible services."`
	Region       string `name:"region" env:"AWS_REGION" help:"S3 region."`
	PathStyle    bool   `name:"path-style" help:"Use path-style S3 requests."`
	CopyAttempts int    `name:"copy-attempts" default:"0" help:"Maximum attempts for a copy with a matching integrity tag (default 3)."`
	Debug        bool   `name:"debug" help:"Enable debug logging."`
	MetricsFile  string `name:"metrics-file" type:"path" help:"Write store metrics in Prometheus text format to this file when the command finishes."`
}

type cliArgs struct {
	Globals globals `embed:""`

	LS     lsCmd     `cmd:"ls" help:"List files at or under a path."`
	Stat   statCmd   `cmd:"stat" help:"Show whether a path is a file or directory."`
	ETag   etagCmd   `cmd:"etag" name:"etag" help:"Print the integrity tag of a file."`
	Cp     cpCmd     `cmd:"cp" help:"Copy files, possibly between containers."`
	Mkdir  mkdirCmd  `cmd:"mkdir" help:"Create a directory marker."`
	Rm     rmCmd     `cmd:"rm" help:"Remove a file or directory tree."`
	Cat    catCmd    `cmd:"cat" help:"Write a file's contents to stdout."`
	Put    putCmd    `cmd:"put" help:"Upload a local file."`
	Config configCmd `cmd:"config" help:"Print the effective configuration."`
}

type runner interface {
	Run(ctx context.Context, fsys *objpath.FS, stdout, stderr io.Writer) error
}

func CLI(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli cliArgs
	parser, err := kong.New(&cli, kong.Name("objpath"),
		kong.Writers(stdout, stderr),
		kong.Description(description),
	)
	if err != nil {
		fmt.Fprintln(stderr, "in kong configuration:", err.Error())
		return err
	}
	kongCtx, err := parser.Parse(args[1:])
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Context.PrintUsage(true)
		}
		return err
	}
	logger := logging.DefaultLogger()
	if cli.Globals.Debug {
		logging.SetDefaultLevel(slog.LevelDebug)
	}
	cfg, err := loadConfig(cli.Globals.Config)
	if err != nil {
		fmt.Fprintln(stderr, "error in configuration:", err.Error())
		return err
	}
	cfg.applyFlags(&cli.Globals)
	if kongCtx.Command() == "config" {
		if err := cli.Config.Run(cfg, stdout); err != nil {
			fmt.Fprintln(stderr, err.Error())
			return err
		}
		return nil
	}
	var cmd runner
	switch kongCtx.Command() {
	case "ls <path>":
		cmd = &cli.LS
	case "stat <path>":
		cmd = &cli.Stat
	case "etag <path>":
		cmd = &cli.ETag
	case "cp <src> <dst>":
		cmd = &cli.Cp
	case "mkdir <path>":
		cmd = &cli.Mkdir
	case "rm <path>":
		cmd = &cli.Rm
	case "cat <path>":
		cmd = &cli.Cat
	case "put <file> <path>":
		cmd = &cli.Put
	default:
		kongCtx.PrintUsage(true)
		err = fmt.Errorf("unknown command: %s", kongCtx.Command())
		fmt.Fprintln(stderr, err.Error())
		return err
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error opening containers:", err.Error())
		return err
	}
	defer store.Close()
	var reg *prometheus.Registry
	fsys := &objpath.FS{
		Store:        store,
		Logger:       logger,
		CopyAttempts: cfg.CopyAttempts,
	}
	if cli.Globals.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		fsys.Store = metrics.New(store, reg)
	}
	runErr := cmd.Run(ctx, fsys, stdout, stderr)
	if runErr != nil {
		fmt.Fprintln(stderr, runErr.Error())
	}
	if reg != nil {
		if err := prometheus.WriteToTextfile(cli.Globals.MetricsFile, reg); err != nil {
			fmt.Fprintln(stderr, "writing metrics:", err.Error())
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}
