// Rerun runs the tasks defined in a tasks.toml file, dependencies first, and
// runs them again whenever the files they watch change.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/amonks/rerun/internal/styles"
	"github.com/amonks/rerun/printer"
	"github.com/amonks/rerun/runner"
	"github.com/amonks/rerun/taskfile"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	dir   string
	list  bool
	once  bool
	color string
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, styles.Failure.Render("Error: "+err.Error()))
	}
	return exitCode(err)
}

func newCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "rerun [flags] [task]",
		Short: "Run tasks from tasks.toml, and rerun them when files change.",
		Long: "Rerun executes tasks defined in tasks.toml (or tasks.yaml) files.\n\n" +
			"The named task, or 'default', runs after its dependencies. If it or\n" +
			"anything it depends on watches files, rerun keeps running, rerunning\n" +
			"tasks as those files change, until interrupted.",
		Version:       version(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", ".", "Look for a root taskfile in the given directory.")
	f.BoolVar(&opts.list, "list", false, "Display the task list and exit. With a task ID, display that task and everything it runs.")
	f.BoolVar(&opts.once, "once", false, "Run the task once and exit, even if it watches files.")
	f.StringVar(&opts.color, "color", "auto", "Colorize output: 'auto', 'always', or 'never'.")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	stdout := cmd.OutOrStdout()
	if err := setColorProfile(opts.color, stdout); err != nil {
		return err
	}

	tf, err := taskfile.Load(opts.dir)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	lib, err := tf.ToLibrary()
	if err != nil {
		return err
	}

	id := "default"
	if len(args) == 1 {
		id = args[0]
	}

	if opts.list {
		if len(args) == 0 {
			fmt.Fprint(stdout, tasklistText(lib))
			return nil
		}
		if _, err := lib.Plan(id); err != nil {
			return err
		}
		fmt.Fprint(stdout, tasklistText(lib.Subtree(id)))
		return nil
	}

	mode := runner.RunnerModeKeepalive
	if opts.once {
		mode = runner.RunnerModeExit
	}
	r := runner.New(mode, lib, opts.dir, printer.New(lib.LongestID(), stdout))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// An interrupt is the reason for exit even if the run then fails as
	// it's canceled.
	exitReason := &first[error]{}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			exitReason.set(context.Canceled)
			cancel()
		case <-ctx.Done():
		}
	}()

	exitReason.set(r.Start(ctx, id))
	return exitReason.get()
}

// exitCode is 0 for success or interruption, the failed subprocess's status
// for a task failure, and 1 for anything else.
func exitCode(err error) int {
	var taskErr *runner.TaskError
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.As(err, &taskErr):
		return taskErr.ExitCode()
	default:
		return 1
	}
}
