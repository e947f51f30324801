package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"taskdeck/app"
	"taskdeck/config"
	"taskdeck/logutils"
	"taskdeck/model"
	"taskdeck/quote"
	"taskdeck/store"
	"taskdeck/tui"
)

// Populated at build-time via -ldflags.
var version = "dev"

type flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
}

// session is everything the commands share once Before has run.
type session struct {
	cfg       *config.Config
	adapter   *store.Adapter
	svc       *app.Service
	status    string
	statusErr bool
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		f         = &flags{}
		s         = &session{}
	)

	cmd := &cli.Command{
		Name:    "taskdeck",
		Usage:   "Track tasks with deadlines, priorities and categories",
		Version: version,
		Description: `taskdeck keeps a prioritized task list in your terminal.

Run 'taskdeck' with no arguments to open the interactive view. When stdout is
not a terminal a plain snapshot of the list is printed instead.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error, fatal)",
				Sources:     cli.EnvVars("TASKDECK_LOG_LEVEL"),
				Value:       "info",
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/taskdeck.log)",
				Sources:     cli.EnvVars("TASKDECK_LOG_FILE"),
				Destination: &f.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKDECK_CONFIG"),
				Value:       config.DefaultPath(),
				Destination: &f.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKDECK_DATA_DIR"),
				Value:       config.DefaultDataDir(),
				Destination: &f.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logFile := f.LogFile
			if logFile == "" {
				logFile = filepath.Join(f.DataDir, "taskdeck.log")
			}
			logger, closer, err := logutils.New(f.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(f.ConfigPath, f.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			backend, err := openBackend(ctx, cfg)
			if err != nil {
				return ctx, fmt.Errorf("open storage: %w", err)
			}

			s.cfg = cfg
			s.adapter = store.NewAdapter(backend, log.With().Str("component", "store").Logger())
			s.load(ctx)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if s.adapter != nil {
				if err := s.adapter.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close storage")
					return err
				}
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unknown command %q. Run 'taskdeck --help' for usage", c.Args().First())
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.RenderPlain(os.Stdout, s.svc, time.Now())
			}
			return s.runTUI(ctx)
		},
		Commands: []*cli.Command{
			newListCmd(s),
			newAddCmd(s),
		},
	}

	exitCode := 0
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}
	os.Exit(exitCode)
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return store.OpenSQLite(ctx, cfg.DatabasePath())
	default:
		return store.NewFileBackend(cfg.SlotsDir(), cfg.Storage.Backups), nil
	}
}

// load reads both slots and builds the service. Load failures are logged and
// surfaced in the status line; the app then starts with whatever was readable.
func (s *session) load(ctx context.Context) {
	tasks, note, err := s.adapter.LoadTasks(ctx)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("load tasks failed, starting empty")
		s.status = "Could not load saved tasks: " + err.Error()
		s.statusErr = true
	case note != "":
		log.Warn().Str("note", note).Msg("recovered task storage")
		s.status = note
	}

	prefs, err := s.adapter.LoadPreferences(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("load preferences failed, using defaults")
	}

	s.svc = app.NewService(tasks, s.adapter,
		app.WithLogger(log.With().Str("component", "app").Logger()),
		app.WithPreferences(prefs),
	)
	log.Debug().Int("tasks", len(tasks)).Str("backend", s.cfg.Storage.Backend).Msg("store loaded")
}

func (s *session) runTUI(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var quotes *quote.Client
	if s.cfg.Quote.IsEnabled() {
		quotes = quote.New(s.cfg.Quote.Client(), log.With().Str("component", "quote").Logger())
	}

	m := tui.NewModel(ctx, s.svc, tui.Options{
		Quotes:        quotes,
		Durations:     s.cfg.Pomodoro.Durations(),
		ToastTimeout:  s.cfg.Achievements.Toast,
		StartupStatus: s.status,
		StartupErr:    s.statusErr,
		Bell:          os.Stdout,
		Logger:        log.With().Str("component", "tui").Logger(),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func newListCmd(s *session) *cli.Command {
	var filter, search string
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Print the task list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "filter",
				Aliases:     []string{"f"},
				Usage:       "status filter (all, active, done, today, overdue)",
				Value:       string(model.FilterAll),
				Destination: &filter,
			},
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"s"},
				Usage:       "only tasks whose text or category contains this",
				Destination: &search,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := s.svc.SetFilter(model.Filter(strings.ToLower(filter))); err != nil {
				return err
			}
			s.svc.SetQuery(search)
			return tui.RenderPlain(os.Stdout, s.svc, time.Now())
		},
	}
}

func newAddCmd(s *session) *cli.Command {
	var deadline, priority, category string
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a task without opening the interactive view",
		UsageText: "taskdeck add [options] <text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "deadline",
				Aliases:     []string{"d"},
				Usage:       "deadline as YYYY-MM-DD or YYYY-MM-DDTHH:MM (local time)",
				Destination: &deadline,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "high, medium or low",
				Value:       string(model.PriorityMedium),
				Destination: &priority,
			},
			&cli.StringFlag{
				Name:        "category",
				Usage:       "optional category label",
				Destination: &category,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			text := strings.Join(c.Args().Slice(), " ")

			prio, ok := model.ParsePriority(priority)
			if !ok {
				return fmt.Errorf("%w: %q", app.ErrInvalidPriority, priority)
			}

			var due *time.Time
			if strings.TrimSpace(deadline) != "" {
				d, ok := model.ParseDeadline(deadline, time.Local)
				if !ok {
					return fmt.Errorf("invalid deadline %q: use YYYY-MM-DD or YYYY-MM-DDTHH:MM", deadline)
				}
				due = &d
			}

			task, err := s.svc.Add(ctx, text, due, prio, category)
			if err != nil {
				return err
			}
			fmt.Printf("Added %q (%s)\n", task.Text, task.Priority)
			return nil
		},
	}
}
