// Command seed loads the development fixture dataset into a database
// without starting the server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/claro-app/claro-server/internal/database"
	"github.com/claro-app/claro-server/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewDatabase(cfg.Database.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}

	if err := database.SeedFixtures(db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed fixtures: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Fixtures loaded.")
	fmt.Println("Demo accounts: alice@example.com / bob@example.com / carol@example.com (password: password123)")
}
