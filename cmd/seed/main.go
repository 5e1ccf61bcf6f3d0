// Command seed fills the configured store with generated sample data. It
// prompts for the master password assigned to the two sample accounts so
// credentials never land in shell history.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/logging"
	"github.com/clione/sikre/internal/server/config"
	"github.com/clione/sikre/internal/server/repositories/repomanager"
	"github.com/clione/sikre/internal/server/seed"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	fmt.Println("Enter master password for the sample accounts")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatalf("error reading password: %v", err)
	}
	defer common.WipeByteArray(password)

	if len(password) == 0 {
		log.Fatal("master password must not be empty")
	}

	m, err := repomanager.New(ctx, cfg.DatabaseEngine, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer m.Close()

	params := seed.DefaultParams()
	params.MasterPassword = string(password)

	if err := seed.Generate(ctx, m, cfg, params, logger); err != nil {
		log.Fatalf("generation error: %v", err)
	}
}
