package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"berthplan/internal/app"
	"berthplan/internal/berth"
	"berthplan/internal/config"
)

func main() {
	// A missing .env is fine; it only supplies BERTHPLAN_* defaults.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a BerthApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Import", "Edit").
func newApp(operation string) (*app.BerthApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewBerthApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "berthplan",
	Short:        "Berth assignment planning and conflict validation",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Run 'berthplan db migrate' to create the database.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg)
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the age key pair for archived snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !app.NeedsPassphrase(cfg) {
			return fmt.Errorf("encryption type is %q; set type = \"age\" to use keys", cfg.Encryption.Type)
		}
		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}
		if err := app.InitKeys(cfg, pass); err != nil {
			return err
		}
		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a berth plan CSV as a new version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		label, _ := cmd.Flags().GetString("label")

		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Import(args[0], source, label)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		for _, issue := range res.Issues {
			fmt.Println(issue)
		}
		fmt.Printf("Version %s: %d booking(s) admitted, %d issue(s)\n", res.VersionID, res.Admitted, len(res.Issues))
		return nil
	},
}

// versions command
var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage plan versions",
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List versions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListVersions")
		if err != nil {
			return err
		}
		defer a.Close()

		versions, err := a.ListVersions()
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			fmt.Println("No versions.")
			return nil
		}
		for _, v := range versions {
			fmt.Printf("%s  %s  %-8s  %4d  %s\n",
				v.ID,
				v.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				v.Source,
				v.Count,
				v.Label,
			)
		}
		return nil
	},
}

var versionsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show the bookings of a version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShowVersion")
		if err != nil {
			return err
		}
		defer a.Close()

		v, bookings, err := a.Version(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Version %s (%s) %s\n", v.ID, v.Source, v.Label)
		fmt.Printf("Created %s, %d booking(s)\n\n", v.CreatedAt.Local().Format("2006-01-02 15:04:05"), len(bookings))
		for _, b := range bookings {
			printBooking(os.Stdout, b)
		}
		return nil
	},
}

var versionsDeleteCmd = &cobra.Command{
	Use:   "delete [ID...]",
	Short: "Delete versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all && len(args) > 0 {
			return fmt.Errorf("give version ids or --all, not both")
		}

		a, err := newApp("DeleteVersions")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.DeleteVersions(args, all)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d version(s)\n", n)
		return nil
	},
}

var versionsExportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Export a version as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp("ExportVersion")
		if err != nil {
			return err
		}
		defer a.Close()

		if output == "" || output == "-" {
			return a.ExportVersion(args[0], os.Stdout)
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		if err := a.ExportVersion(args[0], f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		fmt.Fprintf(os.Stderr, "Exported %s to %s\n", args[0], output)
		return nil
	},
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate ID",
	Short: "Report conflicts and data issues in a version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Validate")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Validate(args[0])
		if err != nil {
			return err
		}
		printReport(os.Stdout, report)
		return nil
	},
}

// layout command
var layoutCmd = &cobra.Command{
	Use:   "layout ID",
	Short: "Show block height and offset per booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Layout")
		if err != nil {
			return err
		}
		defer a.Close()

		bookings, placements, err := a.Layout(args[0])
		if err != nil {
			return err
		}
		for i, p := range placements {
			fmt.Printf("%-5s  %-24s  height %6.1f  offset %6.1f  lane %6.1f  (%s)\n",
				p.Berth, bookings[i].Vessel, p.Height, p.Offset, p.LaneHeight, p.Source)
		}
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Apply scripted moves to a version and save the result",
	Long: `Apply moves and berth changes to a copy of a version and save it as a new version.

Moves are BOOKING:MINUTES:METERS and snap to the configured grids.
Berth changes are BOOKING:BERTH. --undo drops the last change before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawMoves, _ := cmd.Flags().GetStringArray("move")
		rawBerths, _ := cmd.Flags().GetStringArray("berth")
		undo, _ := cmd.Flags().GetBool("undo")
		label, _ := cmd.Flags().GetString("label")

		script := app.EditScript{Undo: undo, Label: label}
		for _, s := range rawMoves {
			m, err := app.ParseMove(s)
			if err != nil {
				return err
			}
			script.Moves = append(script.Moves, m)
		}
		for _, s := range rawBerths {
			r, err := app.ParseReassignment(s)
			if err != nil {
				return err
			}
			script.Reassignments = append(script.Reassignments, r)
		}

		a, err := newApp("Edit")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Edit(args[0], script)
		if err != nil {
			return fmt.Errorf("edit failed: %w", err)
		}
		for _, c := range res.Changes {
			printChange(os.Stdout, c)
		}
		if res.VersionID == "" {
			fmt.Println("No changes; nothing saved.")
		} else {
			fmt.Printf("Saved version %s from %s\n", res.VersionID, res.BaseVersion)
		}
		printReport(os.Stdout, res.Report)
		return nil
	},
}

// loa command
var loaCmd = &cobra.Command{
	Use:   "loa",
	Short: "Manage vessel lengths",
}

var loaSetCmd = &cobra.Command{
	Use:   "set NAME=LOA...",
	Short: "Set vessel length overall in meters",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loa, err := app.ParseLOA(args)
		if err != nil {
			return err
		}

		a, err := newApp("SetVesselLOA")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.SetVesselLOA(loa)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %d vessel(s)\n", n)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the board HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Serve(ctx)
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the planning database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		st, err := app.DatabaseStatus(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Database schema %s\n", st)
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the database schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := app.DatabaseStatus(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Database schema %s\n", st)
		return nil
	},
}

var dbRestoreCmd = &cobra.Command{
	Use:   "restore DEST",
	Short: "Download the archived database snapshot to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var pass string
		if app.NeedsPassphrase(cfg) {
			if pass, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}
		version, err := app.RestoreSnapshot(cfg, args[0], pass)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored snapshot version %d to %s\n", version, args[0])
		return nil
	},
}

func printBooking(w io.Writer, b *berth.Booking) {
	meters := ""
	if lo, hi, ok := berth.ExtractMeterRange(b); ok {
		meters = fmt.Sprintf("%g-%gm", lo, hi)
	}
	fmt.Fprintf(w, "%-36s  %-5s  %-24s  %s - %s  %s\n",
		b.ID,
		b.Berth,
		b.Vessel,
		b.Start.Local().Format("01-02 15:04"),
		b.End.Local().Format("01-02 15:04"),
		meters,
	)
}

func printReport(w io.Writer, r *berth.Report) {
	for _, issue := range r.Issues {
		fmt.Fprintln(w, issue)
	}
	for _, v := range r.Violations {
		fmt.Fprintln(w, v)
	}
	if r.Clean() {
		fmt.Fprintln(w, "No conflicts.")
		return
	}
	fmt.Fprintf(w, "%d violation(s), %d issue(s)\n", len(r.Violations), len(r.Issues))
}

func printChange(w io.Writer, c berth.Change) {
	if c.Kind == berth.ChangeRevert {
		fmt.Fprintln(w, "revert")
		return
	}
	fmt.Fprintf(w, "%-11s %s (%s): berth %s -> %s, %s -> %s\n",
		c.Kind,
		c.BookingID,
		c.Vessel,
		c.Before.Berth,
		c.After.Berth,
		c.Before.Start.Local().Format("01-02 15:04"),
		c.After.Start.Local().Format("01-02 15:04"),
	)
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// versions subcommands
	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsDeleteCmd)
	versionsDeleteCmd.Flags().Bool("all", false, "Delete every version")
	versionsCmd.AddCommand(versionsExportCmd)
	versionsExportCmd.Flags().StringP("output", "o", "", "Write CSV to this file instead of stdout")

	// loa subcommands
	loaCmd.AddCommand(loaSetCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbRestoreCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("source", "file", "Source recorded on the new version")
	importCmd.Flags().String("label", "", "Label for the new version")
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringArray("move", nil, "Move BOOKING:MINUTES:METERS (repeatable)")
	editCmd.Flags().StringArray("berth", nil, "Reassign BOOKING:BERTH (repeatable)")
	editCmd.Flags().Bool("undo", false, "Undo the last change before saving")
	editCmd.Flags().String("label", "", "Label for the saved version")
	rootCmd.AddCommand(loaCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
}
