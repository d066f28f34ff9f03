// Package main is the entrypoint for couchctl, the CouchDB cluster
// command-line tool built on the dispatch core.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/morebase/couch-client/internal/app"
	"github.com/morebase/couch-client/internal/config"
)

const usage = `Usage: couchctl [command]
       couchctl info                      Print the server welcome document.
       couchctl dbs                       List databases.
       couchctl get <db> <id>             Print one document.
       couchctl put <db> <json>           Save a document given as JSON text.
       couchctl del <db> <id> <rev>       Delete a document revision.
       couchctl changes <db> [--publish]  Follow the change feed; --publish republishes to COMMS.

Commands:
  info             Print the server welcome document (version, vendor).
  dbs              List the database names of the instance.
  get <db> <id>    Fetch the latest revision of a document.
  put <db> <json>  Create or update a document; prints its new id and rev.
  del <db> <id> <rev>  Delete the given document revision.
  changes <db>     Follow the database change feed until interrupted.

Environment: COUCH_URL (default http://127.0.0.1:5984), COUCH_API_VERSION (default 3.3),
COUCH_USERNAME, COUCH_PASSWORD, COUCH_CLUSTER_FILE, COMMS_URL, COUCH_CHANGE_SUBJECT,
COUCH_POLL_INTERVAL, LOG_LEVEL. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "help", "-h", "--help", "":
		fmt.Print(usage)
		return
	case "info", "dbs", "get", "put", "del", "changes":
		// handled below
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("couchctl: failed to load config: %v", err)
	}
	app.SetupLogging(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("couchctl: %v", err)
	}

	a, err := app.New(app.Params{Config: cfg})
	if err != nil {
		log.Fatalf("couchctl: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a, cmd, args[1:]); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Fatalf("couchctl %s: %v", cmd, err)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "info":
		return a.Info(ctx)
	case "dbs":
		return a.DBs(ctx)
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("get requires <db> <id>")
		}
		return a.Get(ctx, args[0], args[1])
	case "put":
		if len(args) < 2 {
			return fmt.Errorf("put requires <db> <json>")
		}
		return a.Put(ctx, args[0], args[1])
	case "del":
		if len(args) < 3 {
			return fmt.Errorf("del requires <db> <id> <rev>")
		}
		return a.Del(ctx, args[0], args[1], args[2])
	case "changes":
		if len(args) < 1 {
			return fmt.Errorf("changes requires <db>")
		}
		publish := false
		for _, arg := range args[1:] {
			if arg == "--publish" {
				publish = true
			}
		}
		return a.Changes(ctx, args[0], publish)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
