package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/banghwa/staffboard/internal/committee"
	"github.com/banghwa/staffboard/internal/export"
	"github.com/banghwa/staffboard/internal/password"
	"github.com/banghwa/staffboard/internal/schedule"
	"github.com/banghwa/staffboard/internal/store"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	stdin        io.Reader
	stdout       io.Writer
	readPassword func() ([]byte, error)
	openStore    func(ctx context.Context) (store.Store, func(), error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.stdout, "Usage:")
	fmt.Fprintln(cli.stdout, "  hash-password                                        - print an Argon2id hash for ADMIN_PASSWORD_HASH")
	fmt.Fprintln(cli.stdout, "  generate -title T -start D -end D -weekday N         - add one event per matching weekday")
	fmt.Fprintln(cli.stdout, "  bulk-delete -title T -start D -end D [-yes]          - delete matching events")
	fmt.Fprintln(cli.stdout, "  bulk-move -title T -start D -end D -to D [-yes]      - move matching events to one date")
	fmt.Fprintln(cli.stdout, "  seed-committees                                      - create the committee table if empty")
	fmt.Fprintln(cli.stdout, "  export-ics [-out FILE]                               - write the schedule as iCalendar")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	switch args[1] {
	case "hash-password":
		return cli.hashPassword()
	case "generate":
		return cli.generate(ctx, args[2:])
	case "bulk-delete":
		return cli.bulkDelete(ctx, args[2:])
	case "bulk-move":
		return cli.bulkMove(ctx, args[2:])
	case "seed-committees":
		return cli.seedCommittees(ctx)
	case "export-ics":
		return cli.exportICS(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) hashPassword() error {
	fmt.Fprint(cli.stdout, "Enter password:   ")
	pwd, err := cli.readPassword()
	fmt.Fprintln(cli.stdout)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(cli.stdout, "Confirm password: ")
	confirm, err := cli.readPassword()
	fmt.Fprintln(cli.stdout)
	if err != nil {
		return fmt.Errorf("read password confirmation: %w", err)
	}
	if len(pwd) == 0 {
		return errors.New("password cannot be empty")
	}
	if string(pwd) != string(confirm) {
		return errors.New("passwords do not match")
	}
	hash, err := password.Hash(string(pwd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "ADMIN_PASSWORD_HASH='%s'\n", hash)
	return nil
}

// withSchedules opens the store for the duration of fn.
func (cli *commandLine) withSchedules(ctx context.Context, fn func(*schedule.Service) error) error {
	st, closeFn, err := cli.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(schedule.NewService(st))
}

func (cli *commandLine) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(cli.stdout)
	var r schedule.Recurrence
	fs.StringVar(&r.Title, "title", "", "Instructor or class title")
	fs.StringVar(&r.Start, "start", "", "First date, YYYY-MM-DD")
	fs.StringVar(&r.End, "end", "", "Last date, YYYY-MM-DD")
	fs.IntVar(&r.Weekday, "weekday", -1, "Day of week, 0=Sunday .. 6=Saturday")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return cli.withSchedules(ctx, func(svc *schedule.Service) error {
		n, err := svc.Generate(ctx, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.stdout, "generated %d events\n", n)
		return nil
	})
}

func selectorFlags(fs *flag.FlagSet, sel *schedule.Selector) *bool {
	fs.StringVar(&sel.Title, "title", "", "Exact event title")
	fs.StringVar(&sel.Start, "start", "", "First date, YYYY-MM-DD")
	fs.StringVar(&sel.End, "end", "", "Last date, YYYY-MM-DD")
	return fs.Bool("yes", false, "Skip the confirmation prompt")
}

// confirmer asks on stdin unless yes is set. Anything but y/yes declines.
func (cli *commandLine) confirmer(yes bool) schedule.Confirmer {
	if yes {
		return schedule.Confirmed(true)
	}
	in := bufio.NewReader(cli.stdin)
	return schedule.ConfirmFunc(func(prompt string) bool {
		fmt.Fprintf(cli.stdout, "%s [y/N]: ", prompt)
		line, _ := in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

func (cli *commandLine) bulkDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bulk-delete", flag.ContinueOnError)
	fs.SetOutput(cli.stdout)
	var sel schedule.Selector
	yes := selectorFlags(fs, &sel)
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return cli.withSchedules(ctx, func(svc *schedule.Service) error {
		n, err := svc.BulkDelete(ctx, sel, cli.confirmer(*yes))
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.stdout, "deleted %d events\n", n)
		return nil
	})
}

func (cli *commandLine) bulkMove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bulk-move", flag.ContinueOnError)
	fs.SetOutput(cli.stdout)
	var sel schedule.Selector
	yes := selectorFlags(fs, &sel)
	to := fs.String("to", "", "Target date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return cli.withSchedules(ctx, func(svc *schedule.Service) error {
		n, err := svc.BulkMove(ctx, sel, *to, cli.confirmer(*yes))
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.stdout, "moved %d events to %s\n", n, *to)
		return nil
	})
}

func (cli *commandLine) seedCommittees(ctx context.Context) error {
	st, closeFn, err := cli.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	rows, err := committee.NewService(st).Load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "committee table has %d rows\n", len(rows))
	return nil
}

func (cli *commandLine) exportICS(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export-ics", flag.ContinueOnError)
	fs.SetOutput(cli.stdout)
	out := fs.String("out", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return cli.withSchedules(ctx, func(svc *schedule.Service) error {
		w := cli.stdout
		if *out != "" {
			f, err := os.Create(*out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		_, err := export.NewPublisher(svc, nil, "", 0).Render(ctx, w)
		return err
	})
}
