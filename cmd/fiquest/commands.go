package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"fiquest/internal/cli"
	"fiquest/internal/core"
	"fiquest/internal/ledger"
	applog "fiquest/internal/log"
	"fiquest/internal/worker"
)

var (
	playerCommands   = []subcommands.Command{&loginCmd{}, &infoCmd{}, &logoutCmd{}, &autosaveCmd{}}
	ledgerCommands   = []subcommands.Command{&ledgerAddCmd{}, &ledgerListCmd{}, &ledgerDeleteCmd{}, &ledgerImportCmd{}, &ledgerExportCmd{}}
	saveFileCommands = []subcommands.Command{&exportCmd{}, &importCmd{}}
)

// run opens the app, hands it to fn and closes it, saving the session.
func run(ctx context.Context, fn func(*cli.App) error) subcommands.ExitStatus {
	app, err := cli.Bootstrap(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := app.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close store:", err)
		}
	}()

	if err := fn(app); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func requirePlayer(app *cli.App) (core.PlayerProfile, error) {
	p, ok := app.Session.Current()
	if !ok {
		return core.PlayerProfile{}, errors.New("no player logged in; run 'fiquest login -name <name>' first")
	}
	return p, nil
}

type loginCmd struct {
	name string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in as a player, creating it on first use" }
func (*loginCmd) Usage() string {
	return `fiquest login -name <player>
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Player name.")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		created, err := app.Session.Login(c.name)
		if err != nil {
			return err
		}
		p, _ := app.Session.Current()
		if created {
			fmt.Printf("Welcome, %s! A new player was created.\n", p.PlayerName)
		} else {
			fmt.Printf("Welcome back, %s.\n", p.PlayerName)
		}
		return nil
	})
}

type infoCmd struct {
	json bool
}

func (*infoCmd) Name() string     { return "info" }
func (*infoCmd) Synopsis() string { return "show what is stored for the current player" }
func (*infoCmd) Usage() string {
	return `fiquest info [-json]
`
}

func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the summary as JSON.")
}

func (c *infoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		info, ok := app.Session.DataManagementInfo()
		if !ok {
			return errors.New("no player logged in")
		}
		if c.json {
			data, err := core.MarshalIndent(info)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		fmt.Printf("Player:          %s\n", info.PlayerName)
		fmt.Printf("Last played:     %s\n", info.LastPlayed)
		fmt.Printf("Data size:       %.2f KB (player %.2f KB, game %.2f KB)\n", info.DataSize.Total, info.DataSize.Player, info.DataSize.Game)
		fmt.Printf("Scenarios:       %d\n", info.Counts.Scenarios)
		fmt.Printf("Ledger entries:  %d\n", info.Counts.NetWorthEntries)
		fmt.Printf("Setup complete:  %t\n", info.HasSetup)
		return nil
	})
}

type logoutCmd struct {
	export bool
}

func (*logoutCmd) Name() string     { return "logout" }
func (*logoutCmd) Synopsis() string { return "save a backup file and clear all local data" }
func (*logoutCmd) Usage() string {
	return `fiquest logout [-export=false]

  Writes a JSON save file to the export directory, then removes every
  fiquest_ key from the store. If the save file cannot be delivered
  nothing is removed.
`
}

func (c *logoutCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.export, "export", true, "Export a save file before clearing data.")
}

func (c *logoutCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		if err := app.Files.Logout(ctx, c.export); err != nil {
			return err
		}
		fmt.Println("Logged out. Local data cleared.")
		return nil
	})
}

type autosaveCmd struct{}

func (*autosaveCmd) Name() string     { return "autosave" }
func (*autosaveCmd) Synopsis() string { return "keep the session open and save it periodically" }
func (*autosaveCmd) Usage() string {
	return `fiquest autosave

  Runs until interrupted, saving the current player every
  FIQUEST_AUTOSAVE_INTERVAL and once more on exit.
`
}

func (*autosaveCmd) SetFlags(*flag.FlagSet) {}

func (*autosaveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		saver := worker.NewAutosaver(app.Session, app.Config.AutosaveInterval,
			app.Logger.WithComponent(applog.ComponentAutosave).Slog())
		if err := saver.Start(); err != nil {
			return err
		}

		sctx, done := cli.GracefulShutdown(app.Logger.Slog(), 30*time.Second, func(ctx context.Context) {
			if err := saver.Stop(ctx); err != nil {
				app.Logger.Warn("autosave stop", applog.FieldError, err)
			}
			app.Session.OnVisibilityHidden(ctx)
		})
		cli.WaitForShutdown(sctx, done)
		return nil
	})
}

type ledgerAddCmd struct {
	date        string
	notes       string
	assets      accountFlag
	liabilities accountFlag
}

func (*ledgerAddCmd) Name() string     { return "ledger-add" }
func (*ledgerAddCmd) Synopsis() string { return "record a net worth snapshot" }
func (*ledgerAddCmd) Usage() string {
	return `fiquest ledger-add [-date <date>] [-notes <text>] -asset name=actual[:projected]... -liability name=actual[:projected]...

  Dates default to today. Totals and variances are computed from the
  accounts.
`
}

func (c *ledgerAddCmd) SetFlags(f *flag.FlagSet) {
	c.assets, c.liabilities = accountFlag{}, accountFlag{}
	f.StringVar(&c.date, "date", "", "Entry date (M/D/YYYY or YYYY-MM-DD).")
	f.StringVar(&c.notes, "notes", "", "Free-form notes.")
	f.Var(c.assets, "asset", "Asset account as name=actual[:projected]. Repeatable.")
	f.Var(c.liabilities, "liability", "Liability account as name=actual[:projected]. Repeatable.")
}

func (c *ledgerAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		p, err := requirePlayer(app)
		if err != nil {
			return err
		}
		e, err := app.Session.AddEntry(ledger.EntryInput{
			Date:     c.date,
			Accounts: &core.Accounts{Assets: c.assets, Liabilities: c.liabilities},
			Notes:    c.notes,
		})
		if e.ID == "" && err != nil {
			return err
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "warning: entry recorded but not saved:", err)
		}
		fmt.Printf("%s  %s  net worth %s\n", e.ID, e.Date, ledger.FormatAmount(e.Totals.NetWorth, p.GameData.Preferences.Currency))
		return nil
	})
}

type ledgerListCmd struct{}

func (*ledgerListCmd) Name() string     { return "ledger-list" }
func (*ledgerListCmd) Synopsis() string { return "list net worth snapshots, newest first" }
func (*ledgerListCmd) Usage() string {
	return `fiquest ledger-list
`
}

func (*ledgerListCmd) SetFlags(*flag.FlagSet) {}

func (*ledgerListCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		p, err := requirePlayer(app)
		if err != nil {
			return err
		}
		cur := p.GameData.Preferences.Currency
		entries := app.Session.Entries()
		if len(entries) == 0 {
			fmt.Println("No net worth entries.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-28s %-10s assets %14s  liabilities %14s  net %14s  variance %14s  %s\n",
				e.ID, e.Date,
				ledger.FormatAmount(e.Totals.TotalAssets, cur),
				ledger.FormatAmount(e.Totals.TotalLiabilities, cur),
				ledger.FormatAmount(e.Totals.NetWorth, cur),
				ledger.FormatAmount(e.Totals.NetVariance, cur),
				e.Notes)
		}
		return nil
	})
}

type ledgerDeleteCmd struct {
	id string
}

func (*ledgerDeleteCmd) Name() string     { return "ledger-delete" }
func (*ledgerDeleteCmd) Synopsis() string { return "delete a net worth snapshot" }
func (*ledgerDeleteCmd) Usage() string {
	return `fiquest ledger-delete -id <entry id>
`
}

func (c *ledgerDeleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Entry id as shown by ledger-list.")
}

func (c *ledgerDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		if _, err := requirePlayer(app); err != nil {
			return err
		}
		deleted, err := app.Session.DeleteEntry(c.id)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("no entry with id %q", c.id)
		}
		fmt.Println("Deleted", c.id)
		return nil
	})
}

type ledgerImportCmd struct{}

func (*ledgerImportCmd) Name() string     { return "ledger-import" }
func (*ledgerImportCmd) Synopsis() string { return "bulk-add net worth snapshots from a JSON array" }
func (*ledgerImportCmd) Usage() string {
	return `fiquest ledger-import <file.json>

  The file holds an array of {"date", "accounts", "notes"} objects.
  Invalid items are counted and skipped.
`
}

func (*ledgerImportCmd) SetFlags(*flag.FlagSet) {}

func (*ledgerImportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "ledger-import takes exactly one file")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(app *cli.App) error {
		if _, err := requirePlayer(app); err != nil {
			return err
		}
		data, err := os.ReadFile(f.Arg(0))
		if err != nil {
			return err
		}
		var inputs []ledger.EntryInput
		if err := json.Unmarshal(data, &inputs); err != nil {
			return fmt.Errorf("parse %s: %w", f.Arg(0), err)
		}
		res, err := app.Session.ImportEntries(inputs)
		fmt.Printf("Imported %d entries, %d errors.\n", res.SuccessCount, res.ErrorCount)
		return err
	})
}

type ledgerExportCmd struct {
	format string
}

func (*ledgerExportCmd) Name() string     { return "ledger-export" }
func (*ledgerExportCmd) Synopsis() string { return "export the net worth ledger alone" }
func (*ledgerExportCmd) Usage() string {
	return `fiquest ledger-export [-format json|csv|excel]
`
}

func (c *ledgerExportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", core.FormatCSV, "Export format: json, csv or excel.")
}

func (c *ledgerExportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		res, err := app.Files.ExportLedger(ctx, strings.ToLower(c.format))
		if err != nil {
			return err
		}
		report(res.Succeeded, res.Filename, res.Message)
		return nil
	})
}

type exportCmd struct {
	format  string
	encrypt bool
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a save file for the current player" }
func (*exportCmd) Usage() string {
	return `fiquest export [-format json|csv] [-encrypt]

  Encrypted files are obfuscated, not secured.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", core.FormatJSON, "Export format: json or csv.")
	f.BoolVar(&c.encrypt, "encrypt", false, "Obfuscate the save file.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(app *cli.App) error {
		res, err := app.Files.SaveToFile(ctx, strings.ToLower(c.format), c.encrypt, "")
		if err != nil {
			return err
		}
		report(res.Succeeded, res.Filename, res.Message)
		return nil
	})
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the current data with a save file" }
func (*importCmd) Usage() string {
	return `fiquest import <save file>

  Files whose name contains "_encrypted" are de-obfuscated first. The
  current data is backed up and put back if the import fails.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "import takes exactly one file")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(app *cli.App) error {
		res, err := app.Files.LoadFromFile(f.Arg(0))
		if err != nil {
			return err
		}
		if res.Warning != "" {
			fmt.Fprintln(os.Stderr, "warning:", res.Warning)
		}
		if !res.Success {
			if res.BackupKey != "" {
				return fmt.Errorf("%s (backup kept under %s)", res.Message, res.BackupKey)
			}
			return errors.New(res.Message)
		}
		fmt.Printf("%s: %s (exported %s)\n", res.Message, res.PlayerName, res.ImportDate)
		return nil
	})
}

func report(ok bool, filename, message string) {
	if message != "" {
		fmt.Fprintln(os.Stderr, message)
	}
	if ok {
		fmt.Fprintln(os.Stderr, "Saved", filename)
	}
}
