package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/conorfennell/leitner/internal/config"
	"github.com/conorfennell/leitner/internal/deck"
	"github.com/conorfennell/leitner/internal/storage"
	"github.com/spf13/pflag"
)

const usage = `Usage: leitner [flags] <command> [command flags]

Commands:
  add       Create a card (--front, --back, --note)
  edit      Change the text of a card: edit <id> [--front] [--back] [--note]
  delete    Remove a card: delete <id>
  list      List cards, optionally in one box (--box N)
  due       List cards due for review
  stats     Show the dashboard overview
  review    Review due cards interactively
  import    Import markdown decks from a directory or git URL: import <path|url>
  history   Show recent answers (--limit N)
  serve     Serve the JSON API

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app bundles what every command needs.
type app struct {
	cfg  *config.Config
	db   *storage.DB
	deck *deck.Service
	in   io.Reader
	out  io.Writer
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	flags := pflag.NewFlagSet("leitner", pflag.ContinueOnError)
	flags.SetOutput(errOut)
	flags.SetInterspersed(false)
	flags.Usage = func() {
		fmt.Fprint(errOut, usage)
		flags.PrintDefaults()
	}
	config.RegisterFlags(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: cfg.Level()})))

	name, cmdArgs := flags.Arg(0), flags.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n\n", name)
		flags.Usage()
		return 2
	}

	db, err := storage.Open(cfg.DB)
	if err != nil {
		slog.Error("Failed to open database", "path", cfg.DB, "error", err)
		return 1
	}
	defer db.Close()
	slog.Debug("Database opened", "path", cfg.DB)

	repo := deck.NewRepository(db, cfg.Key).WithSeed(cfg.Seed)
	a := &app{
		cfg:  cfg,
		db:   db,
		deck: deck.NewService(repo, db),
		in:   in,
		out:  out,
	}

	if err := cmd(ctx, a, cmdArgs); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", userMessage(err))
		return 1
	}
	return 0
}

// userMessage turns service errors into text fit for the terminal.
func userMessage(err error) string {
	switch {
	case errors.Is(err, deck.ErrMissingFields):
		return "please enter both the front and the back of the card"
	case errors.Is(err, deck.ErrCardNotFound):
		return "no card with that id"
	case errors.Is(err, deck.ErrSaveFailed):
		return "could not save the deck, see the log for details"
	default:
		return err.Error()
	}
}
