// Command admin runs maintenance tasks against the admissions database:
//
//	admin export -o applications.zip
//	admin review -id 42 -status accepted
//	admin passwd -email student@example.com
//
// Server configuration flags, the JSON file and environment variables are
// honored the same way as by the server.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/admissions/internal/admin"
	"github.com/dmitrijs2005/admissions/internal/logging"
	"github.com/dmitrijs2005/admissions/internal/server"
	"github.com/dmitrijs2005/admissions/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer app.Close()

	cmds := &admin.Commands{
		Exporter:  app.Exporter(),
		Reviewer:  app.Applications(),
		Passwords: app.Users(),
		Out:       os.Stdout,
	}

	if err := cmds.Run(ctx, subcommandArgs(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		app.Close()
		os.Exit(1)
	}
}

// subcommandArgs drops configuration flags that precede the subcommand name.
func subcommandArgs(args []string) []string {
	for i, a := range args {
		if !strings.HasPrefix(a, "-") && (i == 0 || !strings.HasPrefix(args[i-1], "-") || strings.Contains(args[i-1], "=")) {
			return args[i:]
		}
	}
	return nil
}
