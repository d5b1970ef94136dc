package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "howsitter/internal/adapters/http_server"
	"howsitter/internal/adapters/images"
	"howsitter/internal/adapters/observability"
	redisad "howsitter/internal/adapters/redis"
	"howsitter/internal/adapters/token"
	"howsitter/internal/app"
	"howsitter/internal/shared"
	mysqlrepo "howsitter/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	users := mysqlrepo.NewUserRepo(db)
	props := mysqlrepo.NewPropertyRepo(db)
	arrs := mysqlrepo.NewArrangementRepo(db)
	msgs := mysqlrepo.NewMessageRepo(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	tokens := token.New(cfg.JWTSecret, cfg.JWTTTL)
	store, err := images.New(cfg.UploadDir, cfg.MaxUploadMB)
	if err != nil {
		log.Fatal().Err(err).Msg("image store init failed")
	}

	// services
	auth := app.NewAuthService(users, tokens)
	propSvc := app.NewPropertyService(props, store, cache)
	arrSvc := app.NewArrangementService(arrs, props, msgs, cache)
	msgSvc := app.NewMessageService(msgs)
	q := app.NewQueryService(props, users, cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.ServeUploads(cfg.UploadDir)
	srv.MountHandlers(&server.Handlers{
		Auth:           auth,
		Props:          propSvc,
		Arrs:           arrSvc,
		Msgs:           msgSvc,
		Q:              q,
		Tokens:         tokens,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		LoginLimiter:   server.NewLoginLimiter(cfg.LoginRPS, cfg.LoginBurst),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
