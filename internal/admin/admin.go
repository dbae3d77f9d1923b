package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/filex"
	"github.com/dmitrijs2005/admissions/internal/server/export"
	"github.com/dmitrijs2005/admissions/internal/server/models"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// stdinFd is the descriptor passwords are read from.
var stdinFd = func() int { return int(os.Stdin.Fd()) }

type Exporter interface {
	ExportTo(ctx context.Context, w io.Writer) (export.Summary, error)
}

type Reviewer interface {
	SetReviewStatus(ctx context.Context, appID int64, status models.ReviewStatus) error
}

type PasswordSetter interface {
	SetPassword(ctx context.Context, email, password string) error
}

// Commands holds the services the subcommands operate on.
type Commands struct {
	Exporter  Exporter
	Reviewer  Reviewer
	Passwords PasswordSetter
	Out       io.Writer
}

var errUsage = errors.New("usage: admin <export|review|passwd> [flags]")

// Run dispatches args (without the program name) to a subcommand.
func (c *Commands) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "export":
		return c.export(ctx, args[1:])
	case "review":
		return c.review(ctx, args[1:])
	case "passwd":
		return c.passwd(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func (c *Commands) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(c.Out)
	out := fs.String("o", "applications.zip", "output ZIP file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if dir := filepath.Dir(*out); dir != "." {
		if _, err := filex.EnsureDir(dir); err != nil {
			return err
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", *out, err)
	}

	sum, err := c.Exporter.ExportTo(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(*out)
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Fprintf(c.Out, "Exported %d application(s) to %s", sum.Exported, *out)
	if sum.Skipped > 0 {
		fmt.Fprintf(c.Out, ", skipped %d", sum.Skipped)
	}
	fmt.Fprintln(c.Out)
	return nil
}

func (c *Commands) review(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	fs.SetOutput(c.Out)
	id := fs.Int64("id", 0, "application id")
	status := fs.String("status", "", "review status: none, accepted, rejected, waitlisted, on_hold")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("review: -id is required")
	}

	if err := c.Reviewer.SetReviewStatus(ctx, *id, models.ReviewStatus(*status)); err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "Application %d marked %s\n", *id, *status)
	return nil
}

func (c *Commands) passwd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	fs.SetOutput(c.Out)
	email := fs.String("email", "", "account e-mail")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("passwd: -email is required")
	}

	pw, err := c.prompt("New password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	again, err := c.prompt("Repeat password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if string(pw) != string(again) {
		return errors.New("passwords do not match")
	}

	if err := c.Passwords.SetPassword(ctx, *email, string(pw)); err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "Password updated for %s\n", *email)
	return nil
}

func (c *Commands) prompt(label string) ([]byte, error) {
	if _, err := fmt.Fprint(c.Out, label); err != nil {
		return nil, err
	}
	pw, err := readPassword(stdinFd())
	fmt.Fprintln(c.Out)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
