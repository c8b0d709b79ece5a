// Package serverapp assembles the HTTP API from the domain packages. It owns
// route registration and the sqlite-or-memory repository choice; process
// concerns (listening, background runners) stay in cmd/server.
package serverapp

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/analytics"
	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/daily"
	"github.com/rohitkumar-vc/lifequest-backend/internal/habit"
	"github.com/rohitkumar-vc/lifequest-backend/internal/sched"
	"github.com/rohitkumar-vc/lifequest-backend/internal/shop"
	"github.com/rohitkumar-vc/lifequest-backend/internal/todo"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type Options struct {
	Config  *config.Config
	Balance config.Balance
	// DB is the sqlite handle. When nil the app runs on in-memory
	// repositories, which is what the tests use.
	DB        *sql.DB
	Scheduler sched.Scheduler
	Logger    *log.Logger
}

// App is the assembled service graph. The repositories and services are
// exposed so cmd/server can hand them to the maintenance runner.
type App struct {
	Handler http.Handler

	Users   *user.Service
	Habits  habit.Repo
	Dailies daily.Repo
	Todos   *todo.Service
	Log     activity.Repo
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	loc := opts.Config.Location()

	var (
		userRepo  user.Repo
		habitRepo habit.Repo
		todoRepo  todo.Repo
		dailyRepo daily.Repo
		shopRepo  shop.Repo
		logRepo   activity.Repo
	)
	if opts.DB != nil {
		userRepo = user.NewSQLiteRepo(opts.DB)
		habitRepo = habit.NewSQLiteRepo(opts.DB)
		todoRepo = todo.NewSQLiteRepo(opts.DB)
		dailyRepo = daily.NewSQLiteRepo(opts.DB)
		shopRepo = shop.NewSQLiteRepo(opts.DB)
		logRepo = activity.NewSQLiteRepo(opts.DB)
	} else {
		userRepo = user.NewMemoryRepo()
		habitRepo = habit.NewMemoryRepo()
		todoRepo = todo.NewMemoryRepo()
		dailyRepo = daily.NewMemoryRepo()
		shopRepo = shop.NewMemoryRepo()
		logRepo = activity.NewMemoryRepo()
	}

	userSvc := user.NewService(userRepo, opts.Balance, opts.Config.JWTSecret, opts.Config.AccessTokenTTL, opts.Logger)
	habitSvc := habit.NewService(habitRepo, logRepo, userSvc, opts.Balance, opts.Logger)
	todoSvc := todo.NewService(todoRepo, logRepo, userSvc, opts.Scheduler, opts.Balance, opts.Logger)
	dailySvc := daily.NewService(dailyRepo, logRepo, userSvc, opts.Balance, loc, opts.Logger)
	shopSvc := shop.NewService(shopRepo, logRepo, userSvc, opts.Logger)
	analyticsSvc := analytics.NewService(logRepo, loc)

	userHandler := user.NewHandler(userSvc)
	habitHandler := habit.NewHandler(habitSvc)
	todoHandler := todo.NewHandler(todoSvc, opts.Config.WebhookSecret)
	dailyHandler := daily.NewHandler(dailySvc)
	shopHandler := shop.NewHandler(shopSvc)
	analyticsHandler := analytics.NewHandler(analyticsSvc)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "lifequest",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("POST /api/auth/register", userHandler.Register)
	mux.HandleFunc("POST /api/auth/login", userHandler.Login)

	api := func(h http.HandlerFunc) http.Handler {
		return userSvc.RequireAPI(h)
	}

	mux.Handle("GET /api/users/me", api(userHandler.Me))

	mux.Handle("POST /api/habits", api(habitHandler.Create))
	mux.Handle("GET /api/habits", api(habitHandler.List))
	mux.Handle("DELETE /api/habits/{id}", api(habitHandler.Delete))
	mux.Handle("POST /api/habits/{id}/trigger", api(habitHandler.Trigger))
	mux.Handle("POST /api/habits/{id}/undo", api(habitHandler.Undo))

	mux.Handle("POST /api/todos", api(todoHandler.Create))
	mux.Handle("GET /api/todos", api(todoHandler.List))
	mux.Handle("POST /api/todos/{id}/complete", api(todoHandler.Complete))
	mux.Handle("POST /api/todos/{id}/renew", api(todoHandler.Renew))
	mux.Handle("PUT /api/todos/{id}", api(todoHandler.Update))
	mux.Handle("DELETE /api/todos/{id}", api(todoHandler.Delete))
	// The scheduler callback authenticates with the shared webhook secret,
	// not a user token.
	mux.HandleFunc("POST /api/todos/{id}/check-validity", todoHandler.CheckValidity)

	mux.Handle("POST /api/dailies", api(dailyHandler.Create))
	mux.Handle("GET /api/dailies", api(dailyHandler.List))
	mux.Handle("POST /api/dailies/{id}/toggle", api(dailyHandler.Toggle))
	mux.Handle("DELETE /api/dailies/{id}", api(dailyHandler.Delete))

	mux.Handle("GET /api/shop/items", api(shopHandler.ListItems))
	mux.Handle("POST /api/shop/items", api(shopHandler.CreateItem))
	mux.Handle("DELETE /api/shop/items/{id}", api(shopHandler.DeleteItem))
	mux.Handle("POST /api/shop/buy/{id}", api(shopHandler.Buy))
	mux.Handle("GET /api/shop/history", api(shopHandler.History))

	mux.Handle("GET /api/analytics/recent", api(analyticsHandler.Recent))
	mux.Handle("GET /api/analytics/weekly", api(analyticsHandler.Weekly))

	return &App{
		Handler: mux,
		Users:   userSvc,
		Habits:  habitRepo,
		Dailies: dailyRepo,
		Todos:   todoSvc,
		Log:     logRepo,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
