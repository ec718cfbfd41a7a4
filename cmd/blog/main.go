package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang-migrate/migrate/v4"
	migrates "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Rabinkhulimuli/blog-post-web-app/internal/auth"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/persistence"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/server"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/source"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/storage/sqlite"
	"github.com/Rabinkhulimuli/blog-post-web-app/internal/store"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Host string `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port int    `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on"`

	SQLite           string `long:"sqlite" env:"SQLITE" default:"blog.db" description:"sqlite dsn"`
	SQLiteMigrations string `long:"sqlite.migrations" env:"SQLITE_MIGRATIONS" default:"migrations/sqlite" description:"sqlite migrations directory"`

	PostsAPI     string        `long:"posts.api" env:"POSTS_API" default:"https://dummyjson.com/posts" description:"posts collection endpoint of the remote post source"`
	PostsTimeout time.Duration `long:"posts.timeout" env:"POSTS_TIMEOUT" default:"5s" description:"timeout for requests to the remote post source"`
	PostsPreload bool          `long:"posts.preload" env:"POSTS_PRELOAD" description:"load the feed once at startup"`

	FeedCacheTTL time.Duration `long:"feed.cache_ttl" env:"FEED_CACHE_TTL" default:"0s" description:"ttl of the feed response cache, 0 disables caching"`

	LogLevel string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Blog"
	parser.LongDescription = "Blog post web app backend"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	logrus.Info("service started")
	logrus.Infof("%+v", opts)

	ctx, cancel := context.WithCancel(context.Background())

	db := mustGetDB()
	kv := sqlite.New(db)

	persister := persistence.New(kv)

	s := store.New(
		source.NewClient(opts.PostsAPI, opts.PostsTimeout),
		store.WithPersister(persister),
		store.WithUserPosts(persister.Rehydrate(ctx)),
	)

	if opts.PostsPreload {
		s.LoadPosts(ctx)
	}

	r := chi.NewMux()
	server.SetupRouter(s, auth.New(kv), r, opts.FeedCacheTTL)

	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: r,
	}

	gr, _ := errgroup.WithContext(ctx)
	gr.Go(srv.ListenAndServe)
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		s := <-sigs

		logrus.Infof("terminating by %s signal", s)

		cancel()

		if err := srv.Shutdown(context.Background()); err != nil {
			logrus.WithError(err).Error("failed to shutdown server")
		}

		return errTerminated
	})

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("sqlite3", opts.SQLite)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create sqlite connection")
	}

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping sqlite")
	}

	driver, err := migrates.WithInstance(db, &migrates.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.SQLiteMigrations), "sqlite3", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch v, d, err := migrator.Version(); err {
	case nil:
		logrus.Infof("database version %d with dirty state %t", v, d)
	case migrate.ErrNilVersion:
		logrus.Info("database version: nil")
	default:
		logrus.WithError(err).Fatal("failed to get version")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}
