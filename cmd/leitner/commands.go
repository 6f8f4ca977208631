package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/conorfennell/leitner/internal/deck"
	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/gitsource"
	"github.com/conorfennell/leitner/internal/importer"
	"github.com/conorfennell/leitner/internal/web"
	"github.com/spf13/pflag"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"add":     cmdAdd,
	"edit":    cmdEdit,
	"delete":  cmdDelete,
	"list":    cmdList,
	"due":     cmdDue,
	"stats":   cmdStats,
	"review":  cmdReview,
	"import":  cmdImport,
	"history": cmdHistory,
	"serve":   cmdServe,
}

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("add")
	front := fs.String("front", "", "Front of the card (the question)")
	back := fs.String("back", "", "Back of the card (the answer)")
	note := fs.String("note", "", "Optional note shown with the answer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	card, err := a.deck.Create(ctx, deck.CardInput{Front: *front, Back: *back, Note: *note})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added card %s\n", card.ID)
	return nil
}

func cmdEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("edit")
	front := fs.String("front", "", "New front")
	back := fs.String("back", "", "New back")
	note := fs.String("note", "", "New note")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("edit needs exactly one card id")
	}

	id := fs.Arg(0)
	card, err := a.deck.Get(ctx, id)
	if err != nil {
		return err
	}
	in := deck.CardInput{Front: card.Front, Back: card.Back, Note: card.Note}
	if fs.Changed("front") {
		in.Front = *front
	}
	if fs.Changed("back") {
		in.Back = *back
	}
	if fs.Changed("note") {
		in.Note = *note
	}
	if _, err := a.deck.Update(ctx, id, in); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated card %s\n", id)
	return nil
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("delete needs exactly one card id")
	}
	if err := a.deck.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted card %s\n", args[0])
	return nil
}

func cmdList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("list")
	box := fs.Int("box", 0, "Only list cards in this box (1-5)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cards, err := a.deck.ByBox(ctx, *box)
	if err != nil {
		return err
	}
	printCards(a, cards)
	return nil
}

func cmdDue(ctx context.Context, a *app, _ []string) error {
	due := a.deck.Due(ctx)
	if len(due) == 0 {
		fmt.Fprintln(a.out, "Nothing due. Come back tomorrow.")
		return nil
	}
	printCards(a, due)
	return nil
}

func printCards(a *app, cards []domain.Card) {
	if len(cards) == 0 {
		fmt.Fprintln(a.out, "No cards.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBOX\tNEXT REVIEW\tFRONT\tBACK")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			c.ID, c.Box, c.NextReview.Local().Format(time.DateTime), oneLine(c.Front), oneLine(c.Back))
	}
	tw.Flush()
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " / ")
}

func cmdStats(ctx context.Context, a *app, _ []string) error {
	sum := a.deck.Summary(ctx)
	fmt.Fprintf(a.out, "Total: %d  Due: %d  Mastered: %d  In box 1: %d\n\n", sum.Total, sum.Due, sum.Mastered, sum.Box1)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOX\tINTERVAL\tCARDS\tDUE")
	for _, b := range sum.Boxes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", b.Box, b.Label, b.Total, b.Due)
	}
	tw.Flush()

	if len(sum.DueCards) > 0 {
		fmt.Fprintln(a.out, "\nUp next:")
		for _, c := range sum.DueCards {
			fmt.Fprintf(a.out, "  [%d] %s\n", c.Box, oneLine(c.Front))
		}
	}
	return nil
}

// cmdReview runs a session on the terminal. Quitting early discards it.
func cmdReview(ctx context.Context, a *app, _ []string) error {
	sess := a.deck.StartReview(ctx)
	if sess.Done() {
		fmt.Fprintln(a.out, "Nothing due. Come back tomorrow.")
		return nil
	}

	scanner := bufio.NewScanner(a.in)
	for !sess.Done() {
		card, _ := sess.Current()
		fmt.Fprintf(a.out, "\n[%d/%d] box %d\n  %s\n", sess.Number(), sess.Total(), card.Box, card.Front)
		if sess.Flipped() {
			fmt.Fprintf(a.out, "  -> %s\n", card.Back)
			if card.Note != "" {
				fmt.Fprintf(a.out, "     (%s)\n", card.Note)
			}
		}
		fmt.Fprint(a.out, "(f)lip (c)orrect (w)rong (s)kip (q)uit > ")

		if !scanner.Scan() {
			fmt.Fprintln(a.out, "\nSession abandoned, nothing saved.")
			return scanner.Err()
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "f", "flip", "":
			err = sess.Flip()
		case "c", "y", "correct":
			err = sess.AnswerCorrect()
		case "w", "n", "wrong":
			err = sess.AnswerWrong()
		case "s", "skip":
			err = sess.Skip()
		case "q", "quit":
			fmt.Fprintln(a.out, "Session abandoned, nothing saved.")
			return nil
		default:
			fmt.Fprintln(a.out, "Unknown choice.")
		}
		if err != nil {
			return err
		}
	}

	stats, err := a.deck.FinishReview(ctx, sess)
	fmt.Fprintf(a.out, "\nDone! Correct: %d  Wrong: %d  Score: %d%%\n", stats.Correct, stats.Wrong, stats.Percentage)
	return err
}

func cmdImport(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("import needs a directory or git URL")
	}
	source := args[0]

	dir := source
	if gitsource.IsGitURL(source) {
		local, err := gitsource.LocalPath(a.cfg.Repos, source)
		if err != nil {
			return err
		}
		if err := gitsource.Sync(ctx, source, local, nil); err != nil {
			return err
		}
		dir = local
	}

	res, err := importer.New(a.deck).ImportDir(ctx, dir)
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		fmt.Fprintf(a.out, "warning: %v\n", e)
	}
	for _, at := range res.DuplicateAt {
		fmt.Fprintf(a.out, "skipped duplicate at %s\n", at)
	}
	fmt.Fprintf(a.out, "Imported %d new cards from %d files (%d already in the deck).\n", res.Added, res.Files, res.Duplicates)
	return nil
}

func cmdHistory(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("history")
	limit := fs.Int("limit", 20, "Number of answers to show; 0 shows all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logs, err := a.deck.History(ctx, *limit)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		fmt.Fprintln(a.out, "No reviews yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tCARD\tRESULT\tBOX")
	for _, l := range logs {
		result := "wrong"
		if l.Correct {
			result = "correct"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d -> %d\n", l.Timestamp.Local().Format(time.DateTime), l.CardID, result, l.FromBox, l.ToBox)
	}
	tw.Flush()
	return nil
}

func cmdServe(ctx context.Context, a *app, _ []string) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           web.NewServer(a.deck),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", a.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

