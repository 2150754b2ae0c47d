package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/storkych/ccj-frontend-sub000/auth"
	"github.com/storkych/ccj-frontend-sub000/backend"
	"github.com/storkych/ccj-frontend-sub000/credentials"
	"github.com/storkych/ccj-frontend-sub000/credentials/kv"
	"github.com/storkych/ccj-frontend-sub000/internal/config"
	ierrors "github.com/storkych/ccj-frontend-sub000/internal/errors"
	"github.com/storkych/ccj-frontend-sub000/resources"
	"github.com/storkych/ccj-frontend-sub000/sessions"
)

const usage = `usage: ccjctl [-env-file FILE] [-v] <command> [args]

commands:
  login -email E -password P   start a session
  logout                       end the session
  whoami [-remote]             show the session user
  objects [-search S]          list construction objects
  notifications                list notifications
  get <backend> <path>         GET any path on a backend (api, notifications, visits, tickets, ai, files)
`

var errUsage = errors.New("invalid usage")

type app struct {
	cfg     config.Config
	kv      kv.Store
	store   *credentials.Store
	set     *backend.Set
	auth    *auth.Service
	catalog *resources.Catalog
	out     io.Writer
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("ccjctl", flag.ContinueOnError)
	global.SetOutput(out)
	envFile := global.String("env-file", ".env", "optional env file")
	verbose := global.Bool("v", false, "log every backend request")
	global.Usage = func() { fmt.Fprint(out, usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if global.NArg() == 0 {
		global.Usage()
		return errUsage
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer a.close()

	unsubscribe := a.set.Guard.Subscribe(func(term sessions.Termination) {
		log.Warn().Str("login", term.LoginRoute).Msg("Session expired, run `ccjctl login` again")
	})
	defer unsubscribe()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.auth.Logout(ctx)
	case "whoami":
		return a.whoami(ctx, rest)
	case "objects":
		return a.objects(ctx, rest)
	case "notifications":
		notes, err := a.catalog.ListNotifications(ctx, resources.ListQuery{})
		if err != nil {
			return err
		}
		return a.print(notes)
	case "get":
		return a.get(ctx, rest)
	default:
		global.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func newApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	creds := credentials.NewStore(store)
	logger := log.Logger.With().Str("app", cfg.GetAppName()).Logger()
	set := backend.NewSet(cfg, creds, nil, &logger)
	return &app{
		cfg:     cfg,
		kv:      store,
		store:   creds,
		set:     set,
		auth:    auth.NewService(set.API(), creds, set.Guard),
		catalog: resources.New(set),
		out:     out,
	}, nil
}

// openStore selects the session persistence configured by CCJ_STORE.
func openStore(ctx context.Context, cfg config.Config) (kv.Store, error) {
	switch cfg.GetStoreKind() {
	case config.StoreMemory:
		return kv.NewInMemory(), nil
	case config.StoreFile:
		return kv.NewFile(cfg.GetDataFolder()), nil
	case config.StoreRedis:
		return kv.NewRedis(ctx, kv.RedisConfig{
			Addr:      cfg.GetRedisAddr(),
			Password:  cfg.GetRedisPassword(),
			DB:        cfg.GetRedisDB(),
			KeyPrefix: cfg.GetRedisKeyPrefix(),
		})
	default:
		return nil, fmt.Errorf("%w: store kind %q", ierrors.ErrUnsupported, cfg.GetStoreKind())
	}
}

func (a *app) close() {
	if c, ok := a.kv.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Err(err).Msg("Failed to close session store")
		}
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	return a.print(user)
}

func (a *app) whoami(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	fs.SetOutput(a.out)
	remote := fs.Bool("remote", false, "ask the backend instead of the stored copy")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *remote {
		user, err := a.auth.Me(ctx)
		if err != nil {
			return err
		}
		return a.print(user)
	}
	user, ok := a.auth.CurrentUser(ctx)
	if !ok {
		return ierrors.ErrNotLoggedIn
	}
	return a.print(user)
}

func (a *app) objects(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("objects", flag.ContinueOnError)
	fs.SetOutput(a.out)
	search := fs.String("search", "", "filter by name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	objects, err := a.catalog.ListObjects(ctx, resources.ListQuery{Search: *search})
	if err != nil {
		return err
	}
	return a.print(objects)
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: get <backend> <path>", errUsage)
	}
	client, err := a.set.Client(backend.Tag(strings.ToLower(args[0])))
	if err != nil {
		return err
	}

	res, err := client.Do(ctx, args[1], backend.WithMethod(http.MethodGet))
	if err != nil {
		return err
	}
	if res.IsJSON() {
		return a.print(res.JSON)
	}
	_, err = fmt.Fprintln(a.out, res.Text)
	return err
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
