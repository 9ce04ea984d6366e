package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/klwxsrx/edu-resource-client/internal/auth"
	authhttp "github.com/klwxsrx/edu-resource-client/internal/auth/infra/http"
	"github.com/klwxsrx/edu-resource-client/internal/eduapi"
	internalcmd "github.com/klwxsrx/edu-resource-client/internal/pkg/cmd"
	"github.com/klwxsrx/edu-resource-client/pkg/cmd"
	"github.com/klwxsrx/edu-resource-client/pkg/env"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

const (
	loginView   = "login"
	consoleView = "console"
)

const usage = `usage: educlient <command> [flags]

commands:
  login -u <username> -p <password>
  logout
  whoami
  profile
  follow <user id>
  unfollow <user id>
  resources [-keyword k] [-category c] [-sort latest|downloads|popular] [-page n]
  watch`

type app struct {
	container *auth.DependencyContainer
	api       *eduapi.API
	logger    log.Logger
}

// consoleNavigator has no views to switch, it tells the user to log in again.
type consoleNavigator struct {
	view string
}

func (n *consoleNavigator) CurrentView() string {
	return n.view
}

func (n *consoleNavigator) Navigate(_ context.Context, view string) error {
	n.view = view
	if view == loginView {
		fmt.Fprintln(os.Stderr, "session ended, run `educlient login` to sign in again")
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	os.Exit(execute(context.Background(), os.Args[1], os.Args[2:]))
}

func execute(ctx context.Context, command string, args []string) (code int) {
	infra := internalcmd.NewInfrastructureContainer(ctx)
	defer infra.Close(ctx)
	defer cmd.RecoverExit(ctx, infra.Logger.MustLoad(), &code)

	err := newApp(ctx, infra).run(ctx, command, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}

func newApp(ctx context.Context, infra *internalcmd.InfrastructureContainer) *app {
	container := auth.NewDependencyContainer(
		ctx,
		infra.Backend,
		infra.SessionStorage,
		infra.EventDispatcher,
		infra.Logger,
		authhttp.DefaultRoutes(),
		infra.RefreshOptions()...,
	)
	container.SubscribeLoginRedirect(&consoleNavigator{view: consoleView}, loginView)
	container.SubscribeNotices(func(_ context.Context, notice authhttp.EventNoticeRaised) error {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", notice.Kind, notice.Message)
		return nil
	})

	return &app{
		container: container,
		api:       eduapi.New(container.APIClient.MustLoad(), container.Sessions.MustLoad(), infra.Logger.MustLoad()),
		logger:    infra.Logger.MustLoad(),
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.api.User.Logout(ctx)
	case "whoami":
		return a.whoami()
	case "profile":
		user, err := a.api.User.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d\t%s\t%s\t%s\t%s\n", user.ID, user.Username, user.Nickname, user.Phone, user.Role)
		return nil
	case "follow", "unfollow":
		return a.follow(ctx, command, args)
	case "resources":
		return a.resources(ctx, args)
	case "watch":
		return a.watch(ctx)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	username := flags.String("u", "", "username")
	password := flags.String("p", "", "password")
	if err := flags.Parse(args); err != nil {
		return err
	}

	user, err := a.api.User.Login(ctx, eduapi.Credentials{Username: *username, Password: *password})
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *app) whoami() error {
	current := a.container.Sessions.MustLoad().Session()
	if !current.IsLoggedIn {
		return errors.New("not logged in")
	}

	fmt.Printf("%s (%s)\n", current.User.Username, current.User.Role)
	return nil
}

func (a *app) follow(ctx context.Context, command string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%s expects a user id", command)
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}

	if command == "unfollow" {
		return a.api.Follow.Unfollow(ctx, userID)
	}
	return a.api.Follow.Follow(ctx, userID)
}

func (a *app) resources(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("resources", flag.ContinueOnError)
	keyword := flags.String("keyword", "", "search keyword")
	category := flags.String("category", "", "category")
	sortBy := flags.String("sort", "", "latest, downloads or popular")
	page := flags.Int("page", 1, "page number")
	if err := flags.Parse(args); err != nil {
		return err
	}

	result, err := a.api.Resource.List(ctx, eduapi.ResourceFilter{
		PageQuery: eduapi.PageQuery{Page: *page},
		Keyword:   *keyword,
		Category:  *category,
		SortBy:    eduapi.ResourceSort(*sortBy),
	})
	if err != nil {
		return err
	}

	for _, resource := range result.List {
		fmt.Printf("%d\t%s\t%s\t%d downloads\n", resource.ID, resource.Name, resource.Category, resource.DownloadCount)
	}
	fmt.Printf("page %d of %d, %d total\n", result.Page, result.TotalPages, result.Total)
	return nil
}

// watch keeps the stored token fresh until the process is interrupted.
func (a *app) watch(ctx context.Context) error {
	interval := env.Must(env.ParseWithDefault("SESSION_KEEPALIVE_INTERVAL", time.Minute))
	coordinator := a.container.Coordinator.MustLoad()

	return cmd.KeepAlive(ctx, a.logger, interval, func(ctx context.Context) error {
		_, err := coordinator.EnsureFreshToken(ctx)
		return err
	})
}
