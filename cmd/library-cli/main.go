// Command library-cli signs in to the library backend from a terminal and
// inspects what the portal would see: the signed-in user, raw endpoint data,
// and role dashboards.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/Nachiket-Roy/LMS-sub000/config"
	"github.com/Nachiket-Roy/LMS-sub000/internal/apiclient"
	"github.com/Nachiket-Roy/LMS-sub000/internal/bootstrap"
	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
	apperrors "github.com/Nachiket-Roy/LMS-sub000/internal/errors"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	bootstrap.SetLogLevel(cfg.LogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Config: cfg, Out: os.Stdout}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"whoami": {
			name:        "whoami",
			description: "Sign in and print the current user",
			run:         runWhoami,
		},
		"get": {
			name:        "get",
			description: "Sign in and GET a backend path, optionally filtered with a JMESPath query",
			run:         runGet,
		},
		"dashboard": {
			name:        "dashboard",
			description: "Sign in and load the dashboard for the user's role",
			run:         runDashboard,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: library-cli <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands()[name]
		if err := writef(w, "  %-12s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

type credentialOptions struct {
	Email    string
	Password string
}

type getOptions struct {
	credentialOptions
	Path  string
	Query string
}

type dashboardOptions struct {
	credentialOptions
	Query string
}

func bindCredentials(fs *flag.FlagSet, opts *credentialOptions) {
	fs.StringVar(&opts.Email, "email", os.Getenv("LIBRARY_EMAIL"), "account email (default $LIBRARY_EMAIL)")
	fs.StringVar(&opts.Password, "password", os.Getenv("LIBRARY_PASSWORD"), "account password (default $LIBRARY_PASSWORD)")
}

func (o credentialOptions) validate() error {
	if strings.TrimSpace(o.Email) == "" || o.Password == "" {
		return errors.New("email and password are required (flags or LIBRARY_EMAIL/LIBRARY_PASSWORD)")
	}
	return nil
}

func parseWhoamiFlags(args []string) (credentialOptions, error) {
	var opts credentialOptions
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	bindCredentials(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, opts.validate()
}

func parseGetFlags(args []string) (getOptions, error) {
	var opts getOptions
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	bindCredentials(fs, &opts.credentialOptions)
	fs.StringVar(&opts.Path, "path", "", "backend path, e.g. /books")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the response data")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if !strings.HasPrefix(opts.Path, "/") {
		return opts, errors.New("-path must start with /")
	}
	if err := validateQuery(opts.Query); err != nil {
		return opts, err
	}
	return opts, opts.validate()
}

func parseDashboardFlags(args []string) (dashboardOptions, error) {
	var opts dashboardOptions
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	bindCredentials(fs, &opts.credentialOptions)
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the dashboard")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if err := validateQuery(opts.Query); err != nil {
		return opts, err
	}
	return opts, opts.validate()
}

func validateQuery(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return fmt.Errorf("invalid -query: %w", err)
	}
	return nil
}

// session signs in with opts and returns the services holding the session.
func session(cmdCtx *commandContext, opts credentialOptions) (*bootstrap.ServiceContainer, *domainauth.User, error) {
	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{Config: &cmdCtx.Config, Logger: cmdCtx.Logger})
	if err != nil {
		return nil, nil, err
	}

	res := services.Auth.Login(cmdCtx.Ctx, domainauth.Credentials{Email: opts.Email, Password: opts.Password})
	if !res.Success {
		_ = services.Metrics.Close()
		return nil, nil, fmt.Errorf("login failed: %s", res.Error)
	}
	return services, res.User, nil
}

func endSession(cmdCtx *commandContext, services *bootstrap.ServiceContainer) {
	services.Auth.Logout(cmdCtx.Ctx, false)
	if err := services.Metrics.Close(); err != nil {
		cmdCtx.Logger.Warn("close metrics client failed", "error", err)
	}
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	opts, err := parseWhoamiFlags(args)
	if err != nil {
		return err
	}
	services, user, err := session(cmdCtx, opts)
	if err != nil {
		return err
	}
	defer endSession(cmdCtx, services)

	return writef(cmdCtx.Out, "%s <%s> role=%s id=%s\n", user.Name, user.Email, user.Role, user.ID)
}

func runGet(cmdCtx *commandContext, args []string) error {
	opts, err := parseGetFlags(args)
	if err != nil {
		return err
	}
	services, _, err := session(cmdCtx, opts.credentialOptions)
	if err != nil {
		return err
	}
	defer endSession(cmdCtx, services)

	data, err := apiclient.Fetch[any](cmdCtx.Ctx, services.Client, apiclient.Get(opts.Path))
	if err != nil {
		return fmt.Errorf("GET %s: %s", opts.Path, apperrors.UserMessage(err))
	}
	return printResult(cmdCtx.Out, data, opts.Query)
}

func runDashboard(cmdCtx *commandContext, args []string) error {
	opts, err := parseDashboardFlags(args)
	if err != nil {
		return err
	}
	services, user, err := session(cmdCtx, opts.credentialOptions)
	if err != nil {
		return err
	}
	defer endSession(cmdCtx, services)

	d, err := services.Dashboards.Load(cmdCtx.Ctx, user.Role)
	if err != nil {
		return fmt.Errorf("load %s dashboard: %s", user.Role, apperrors.UserMessage(err))
	}

	// Round-trip through JSON so JMESPath sees plain maps and slices.
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("decode dashboard: %w", err)
	}
	return printResult(cmdCtx.Out, generic, opts.Query)
}

func printResult(w io.Writer, data any, query string) error {
	if strings.TrimSpace(query) != "" {
		out, err := jmespath.Search(query, data)
		if err != nil {
			return fmt.Errorf("evaluate query: %w", err)
		}
		data = out
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
