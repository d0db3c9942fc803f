// Command sheetctl inspects and copies the collections of the configured
// store.
//
//	sheetctl check
//	sheetctl dump [-raw] <collection>
//	sheetctl export [-lz4] [-o file] <collection>
//	sheetctl import [-db path] [-lz4] <collection> <file>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetdb/internal/app"
	"github.com/JonMunkholm/sheetdb/internal/backend/sqlite"
	"github.com/JonMunkholm/sheetdb/internal/config"
	"github.com/JonMunkholm/sheetdb/internal/core"
	_ "github.com/JonMunkholm/sheetdb/internal/core/collections" // Register all collections
	"github.com/JonMunkholm/sheetdb/internal/logging"
)

const usage = `usage: sheetctl <command> [flags]

commands:
  check                         probe every collection and report header drift
  dump [-raw] <collection>      print the records of a collection
  export [-lz4] [-o file] <c>   write a collection as CSV
  import [-db path] [-lz4] <c> <file>
                                load a CSV file into the SQLite store
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		color.Red("configuration: %v", err)
		os.Exit(1)
	}
	// Operator output goes to stdout; keep logs quiet unless asked.
	level := cfg.Logging.Level
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logging.Setup(level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		color.Red("%s: %v", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "import":
		return runImport(ctx, cfg, args, out)
	case "check", "dump", "export":
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}

	store, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	engine := core.NewEngine(store)

	switch cmd {
	case "check":
		fs := flag.NewFlagSet("check", flag.ContinueOnError)
		if err := fs.Parse(args); err != nil {
			return err
		}
		failed, err := check(ctx, engine, out)
		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d collection(s) failed", failed)
		}
		return nil

	case "dump":
		fs := flag.NewFlagSet("dump", flag.ContinueOnError)
		raw := fs.Bool("raw", false, "print Go values instead of JSON")
		if err := fs.Parse(args); err != nil {
			return err
		}
		collection, err := collectionArg(fs)
		if err != nil {
			return err
		}
		return dump(ctx, engine, collection, *raw, out)

	default:
		fs := flag.NewFlagSet("export", flag.ContinueOnError)
		compress := fs.Bool("lz4", false, "compress the CSV with lz4")
		output := fs.String("o", "", "output file (default stdout)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		collection, err := collectionArg(fs)
		if err != nil {
			return err
		}

		w := out
		if *output != "" {
			f, err := os.Create(*output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		n, err := export(ctx, engine, collection, w, *compress)
		if err != nil {
			return err
		}
		if *output != "" {
			color.Green("exported %d row(s) of %s to %s", n, collection, *output)
		}
		return nil
	}
}

func runImport(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dbPath := fs.String("db", cfg.Store.SQLitePath, "SQLite database file")
	compressed := fs.Bool("lz4", false, "input is lz4 compressed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("expected <collection> <file>")
	}

	collection := core.Collection(fs.Arg(0))
	if _, err := core.DefaultRegistry().Lookup(collection); err != nil {
		return err
	}

	f, err := os.Open(fs.Arg(1))
	if err != nil {
		return err
	}
	defer f.Close()

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := importCSV(ctx, store, collection, f, *compressed)
	if err != nil {
		return err
	}
	slog.Debug("import finished", "collection", collection, "db", *dbPath)
	color.New(color.FgGreen).Fprintf(out, "imported %d row(s) into %s (%s)\n", n, collection, store.Describe())
	return nil
}

func collectionArg(fs *flag.FlagSet) (core.Collection, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one collection, got %d", fs.NArg())
	}
	return core.Collection(fs.Arg(0)), nil
}
