package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"vinylfeed/internal/logging"
	"vinylfeed/internal/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	logging.SetGlobalLogger(logger)

	db, err := openDatabase(context.Background(), cfg)
	if err != nil {
		logger.Fatal(err, "connect to database")
	}
	defer db.Close()

	dataStore := store.New(db)

	handler := newHTTPHandler(cfg, dataStore)

	logging.Info(fmt.Sprintf("API available at http://localhost%v", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal(err, "server error")
	}
}
