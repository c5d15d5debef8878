// Command migrate applies the embedded schema migrations.
//
//	migrate [up|down|status|redo|reset|version|up-to VERSION|down-to VERSION]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"qr_menu_backend/internal/database"
	"qr_menu_backend/pkg/config"
	"qr_menu_backend/pkg/utils"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] COMMAND [ARGS...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	if err := migrate(context.Background(), cfg.DB, flag.Arg(0), flag.Args()[1:]...); err != nil {
		utils.LogError(err, "Migration failed", map[string]interface{}{"command": flag.Arg(0)})
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg config.DBConfig, command string, args ...string) (err error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, db.Close()) }()
	return database.Migrate(ctx, db, command, args...)
}
