// Command voucherctl is the accounts desk front end of the voucher service.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/config"
	"github.com/medcenter/hms-vouchers/internal/desk"
	"github.com/medcenter/hms-vouchers/internal/hmsclient"
	"github.com/medcenter/hms-vouchers/pkg/utils"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `Usage: voucherctl [flags] <command> [args]

Commands:
  list      [-type T] [-status S] [-doctor ID] [-from YYYY-MM-DD]
  summary
  show      <id|number>
  history   <id|number>
  create    -type T -amount N [-date D] [-desc TEXT] [-doctor ID] [-period-start D] [-period-end D]
  submit    <id|number>
  approve   <id|number>
  reject    <id|number>
  pay       <id|number>
  delete    <id|number>
  doctors
  export    [-o FILE] [list filters]

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app is one voucherctl invocation
type app struct {
	client *hmsclient.Client
	desk   *desk.Desk
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("voucherctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "path to a YAML config file")
	baseURL := fs.String("url", "", "voucher service URL (overrides client.base_url)")
	token := fs.String("token", "", "API token (or HMS_API_TOKEN)")
	actor := fs.String("actor", "", "name recorded in voucher history")
	yes := fs.Bool("yes", false, "acknowledge standard confirmation prompts")
	yesPaid := fs.Bool("yes-paid", false, "also acknowledge deleting paid vouchers")
	verbose := fs.Bool("verbose", false, "log requests to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	if *token != "" {
		cfg.Client.Token = *token
	}
	if *actor != "" {
		cfg.Client.Actor = *actor
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{Level: level, OutputPath: "stderr", Format: "console"})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitError
	}
	defer logger.Sync()

	client, err := hmsclient.NewClient(cfg.Client.BaseURL,
		hmsclient.WithToken(cfg.Client.Token),
		hmsclient.WithActor(cfg.Client.Actor),
		hmsclient.WithTimeout(cfg.Client.Timeout),
		hmsclient.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "Invalid service URL: %v\n", err)
		return exitError
	}

	confirmer := &promptConfirmer{
		in:      bufio.NewReader(stdin),
		out:     stdout,
		yes:     *yes || *yesPaid,
		yesPaid: *yesPaid,
	}

	a := &app{
		client: client,
		desk:   desk.New(client, desk.NewStore(client, logger), confirmer, logger),
		logger: logger,
		out:    stdout,
		errOut: stderr,
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		fs.Usage()
		return exitUsage
	}
	return cmd(ctx, a, rest)
}
