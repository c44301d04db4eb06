package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/julien6387/supvisors/internal/cli"
	pkgstrings "github.com/julien6387/supvisors/pkg/strings"
)

// Shell is an interactive REPL wrapping one cli.Client.
type Shell struct {
	client *cli.Client
	out    io.Writer
	rl     *readline.Instance
}

var commandNames = []string{"status", "start", "stop", "conciliate", "help", "exit"}

// NewShell builds a Shell writing to stdout and reading from a readline
// instance with command completion and a persistent history file.
func NewShell(client *cli.Client) (*Shell, error) {
	completer := readline.NewPrefixCompleter()
	for _, name := range commandNames {
		completer.Children = append(completer.Children, readline.PcItem(name))
	}

	historyFile := filepath.Join(os.TempDir(), ".supvisors_shell_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "supvisors> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline instance: %w", err)
	}

	return &Shell{client: client, out: os.Stdout, rl: rl}, nil
}

// Run drives the read-eval-print loop until ctx is canceled, the user types
// "exit", or EOF (Ctrl+D) is read.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	fmt.Fprintln(s.out, "supvisors interactive shell. Type 'help' for commands, 'exit' to quit.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := s.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("readline: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if input == "exit" {
			return nil
		}

		if err := s.dispatch(ctx, input); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, input string) error {
	fields := strings.Fields(input)
	switch fields[0] {
	case "help":
		s.printHelp()
		return nil
	case "status":
		return s.cmdStatus(ctx)
	case "start":
		if len(fields) != 2 {
			return fmt.Errorf("usage: start <application>")
		}
		return s.client.StartApplication(ctx, fields[1])
	case "stop":
		if len(fields) != 2 {
			return fmt.Errorf("usage: stop <application>")
		}
		return s.client.StopApplication(ctx, fields[1])
	case "conciliate":
		if len(fields) != 3 {
			return fmt.Errorf("usage: conciliate <application:process> <keep-address>")
		}
		return s.client.Conciliate(ctx, fields[1], fields[2])
	default:
		return fmt.Errorf("unknown command %q, type 'help' for the command list", fields[0])
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "commands:")
	fmt.Fprintln(s.out, "  status                                    show fleet and application status")
	fmt.Fprintln(s.out, "  start <application>                       start an application")
	fmt.Fprintln(s.out, "  stop <application>                        stop an application")
	fmt.Fprintln(s.out, "  conciliate <app:process> <keep-address>   resolve a USER-strategy conflict")
	fmt.Fprintln(s.out, "  exit                                      leave the shell")
}

func (s *Shell) cmdStatus(ctx context.Context) error {
	snapshot, err := s.client.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "fleet state: %s   master: %s\n", snapshot.FleetState, snapshot.Master)

	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.AppendHeader(table.Row{"ADDRESS", "STATE", "LOADING"})
	for _, a := range snapshot.Addresses {
		t.AppendRow(table.Row{a.Name, a.State, a.Loading})
	}
	t.Render()

	if len(snapshot.Applications) == 0 {
		return nil
	}
	fmt.Fprintln(s.out)

	pt := table.NewWriter()
	pt.SetOutputMirror(s.out)
	pt.AppendHeader(table.Row{"APPLICATION", "STATE", "PROCESS", "PROC STATE", "ADDRESSES", "DESCRIPTION"})
	for _, app := range snapshot.Applications {
		if len(app.Processes) == 0 {
			pt.AppendRow(table.Row{app.Name, app.State, "", "", "", ""})
			continue
		}
		for i, p := range app.Processes {
			appName, appState := "", ""
			if i == 0 {
				appName, appState = app.Name, app.State
			}
			desc := pkgstrings.TruncateDescription(p.Description, pkgstrings.DefaultDescriptionMaxLen)
			pt.AppendRow(table.Row{appName, appState, p.Namespec, p.State, p.Addresses, desc})
		}
	}
	pt.Render()
	return nil
}
