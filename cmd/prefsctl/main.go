package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"recprefs/internal/client"
	"recprefs/internal/config"
	apperrors "recprefs/internal/errors"
	"recprefs/internal/feed"
	"recprefs/internal/settings"
)

const usage = `prefsctl [flags] <command> [args]

commands:
  list                      show every setting
  get <name>                show one setting
  set <name> <value>        change a setting, e.g. "set countdown 5" or "set userColor #ff8800"
  reset <name>              restore the default
  pick-dir                  choose the recordings folder in a dialog
  hotkeys                   show hotkey bindings
  bind <action> <combo>     bind a hotkey, e.g. "bind stop ctrl+cmd+s"
  unbind <action>           clear a hotkey
  blocklist                 show applications excluded from capture
  block <bundle-id>...      exclude applications
  unblock <bundle-id>...    include applications again
  watch                     stream changes until interrupted
  store-token [token]       save the Telegram bot token in the OS keyring (reads stdin if omitted)

flags:
`

type app struct {
	client  *client.Client
	theme   theme
	out     io.Writer
	verbose bool
}

func main() {
	flags := pflag.NewFlagSet("prefsctl", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "config file used to find the daemon address")
	addr := flags.StringP("addr", "a", "", "daemon address (overrides http.addr from config)")
	timeout := flags.Duration("timeout", 10*time.Second, "request timeout")
	plain := flags.Bool("plain", false, "disable colors")
	verbose := flags.BoolP("verbose", "v", false, "show kind, default and choices with get; debug logging")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := config.NewLogger(config.LoggingConfig{Level: level}, os.Stderr)

	if args[0] == "store-token" {
		if err := storeToken(args[1:]); err != nil {
			fail(err)
		}
		fmt.Println("bot token saved")
		return
	}

	if *addr == "" {
		*addr = daemonAddr(*configFile, logger)
	}

	a := &app{
		client:  client.NewClient(*addr, *timeout, logger),
		theme:   newTheme(*plain),
		out:     os.Stdout,
		verbose: *verbose,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.run(ctx, args[0], args[1:], logger); err != nil {
		if apperrors.IsWarning(err) {
			a.theme.warn(os.Stderr, apperrors.GetUserMessage(err))
			return
		}
		cancel()
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprint(os.Stderr, errorText(err))
	os.Exit(1)
}

func errorText(err error) string {
	text := fmt.Sprintf("error: %v\n", err)
	if apperrors.IsRetryable(err) {
		text += "this is usually temporary, try again\n"
	}
	return text
}

// localText resolves path values against this process, so "./rec" and "~/rec"
// mean the caller's directory rather than the daemon's
func localText(name settings.Name, text string) (string, error) {
	def, ok := settings.Lookup(name)
	if !ok || def.Kind != settings.KindPath {
		return text, nil
	}
	v, err := settings.ParseValue(name, text)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// daemonAddr reads http.addr from the daemon config, falling back to the default
func daemonAddr(configFile string, logger *slog.Logger) string {
	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Debug("config not usable, using default address", "error", err)
		return "127.0.0.1:7878"
	}
	return cfg.HTTP.Addr
}

func (a *app) run(ctx context.Context, cmd string, args []string, logger *slog.Logger) error {
	switch cmd {
	case "list":
		list, err := a.client.List(ctx)
		if err != nil {
			return err
		}
		a.theme.settings(a.out, list)
		return nil

	case "get":
		if len(args) != 1 {
			return fmt.Errorf("usage: get <name>")
		}
		s, err := a.client.Get(ctx, args[0])
		if err != nil {
			return err
		}
		a.theme.setting(a.out, s, a.verbose)
		return nil

	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: set <name> <value>")
		}
		text, err := localText(settings.Name(args[0]), strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		s, err := a.client.SetText(ctx, args[0], text)
		if err != nil && !apperrors.IsWarning(err) {
			return err
		}
		a.theme.setting(a.out, s, false)
		return err

	case "reset":
		if len(args) != 1 {
			return fmt.Errorf("usage: reset <name>")
		}
		s, err := a.client.Reset(ctx, args[0])
		if err != nil && !apperrors.IsWarning(err) {
			return err
		}
		a.theme.setting(a.out, s, false)
		return err

	case "pick-dir":
		path, err := a.client.PickSaveDirectory(ctx)
		if errors.Is(err, apperrors.ErrCancelled) {
			fmt.Fprintln(a.out, apperrors.GetUserMessage(err))
			return nil
		}
		if err != nil && !apperrors.IsWarning(err) {
			return err
		}
		a.theme.pairs(a.out, [][2]string{{"saveDirectory", path}})
		return err

	case "hotkeys":
		bound, err := a.client.Hotkeys(ctx)
		if err != nil {
			return err
		}
		a.theme.hotkeys(a.out, bound)
		return nil

	case "bind":
		if len(args) != 2 {
			return fmt.Errorf("usage: bind <action> <combo>")
		}
		bound, err := a.client.Bind(ctx, args[0], args[1])
		if err != nil && !apperrors.IsWarning(err) {
			return err
		}
		a.theme.pairs(a.out, [][2]string{{args[0], bound[args[0]]}})
		return err

	case "unbind":
		if len(args) != 1 {
			return fmt.Errorf("usage: unbind <action>")
		}
		_, err := a.client.Unbind(ctx, args[0])
		if err != nil && !apperrors.IsWarning(err) {
			return err
		}
		a.theme.pairs(a.out, [][2]string{{args[0], ""}})
		return err

	case "blocklist":
		apps, err := a.client.Blocklist(ctx)
		if err != nil {
			return err
		}
		a.theme.apps(a.out, apps)
		return nil

	case "block", "unblock":
		if len(args) == 0 {
			return fmt.Errorf("usage: %s <bundle-id>...", cmd)
		}
		var (
			apps    []string
			warning error
		)
		for _, id := range args {
			var err error
			if cmd == "block" {
				apps, err = a.client.Block(ctx, id)
			} else {
				apps, err = a.client.Unblock(ctx, id)
			}
			if err != nil {
				if !apperrors.IsWarning(err) {
					return fmt.Errorf("%s: %w", id, err)
				}
				warning = err
			}
		}
		a.theme.apps(a.out, apps)
		return warning

	case "watch":
		err := feed.Follow(ctx, a.client.FeedURL(), logger, func(msg feed.Message) {
			a.theme.change(a.out, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err

	default:
		return fmt.Errorf("unknown command %q, run prefsctl --help", cmd)
	}
}

func storeToken(args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read token: %w", err)
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("empty token")
	}
	return config.StoreBotToken(token)
}
