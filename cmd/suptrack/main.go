package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"suptrack/internal/app"
	"suptrack/internal/backup"
	"suptrack/internal/config"
	"suptrack/internal/tracker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "suptrack",
	Short: "Supplement inventory tracker",
	Long:  "Tracks supplement quantities, daily consumption and depletion estimates,\nwith scheduled backups of the save file.",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg := config.Default(defaults.DataDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("initializing settings: %w", err)
		}

		fmt.Printf("Settings initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Data Dir:   %s\n", defaults.DataDir)
		fmt.Printf("Backup Dir: %s\n", cfg.Backup.BackupDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath, defaults.DataDir)
		if err != nil {
			return fmt.Errorf("reading settings: %w", err)
		}

		fmt.Printf("Settings from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Theme:       %s\n", cfg.Theme)
		fmt.Printf("Last File:   %s\n", cfg.LastFile)
		fmt.Printf("Backup Dir:  %s\n", cfg.Backup.BackupDir)
		fmt.Printf("Max Backups: %d\n", cfg.Backup.MaxBackups)
		fmt.Printf("Compression: %t\n", cfg.Backup.CompressionEnabled)
		fmt.Printf("Auto Backup Interval: %d min\n", cfg.Backup.MinAutoBackupIntervalMinutes)
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a supplement",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		name, _ := cmd.Flags().GetString("name")
		count, _ := cmd.Flags().GetInt("count")
		initial, _ := cmd.Flags().GetInt("initial")
		cost, _ := cmd.Flags().GetFloat64("cost")
		tagsCSV, _ := cmd.Flags().GetString("tags")
		link, _ := cmd.Flags().GetString("link")
		dose, _ := cmd.Flags().GetInt("dose")
		noAuto, _ := cmd.Flags().GetBool("no-auto")

		a, err := app.New("AddItem")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.OpenInventory(file); err != nil {
			return fmt.Errorf("loading inventory: %w", err)
		}

		item := tracker.NewItem(name, count, initial, cost, splitTags(tagsCSV), link, dose, time.Now())
		item.AutoDecrement = !noAuto
		a.Service().AddItem(item)

		_, path, err := a.SaveInventory(file, true)
		if err != nil {
			return fmt.Errorf("saving inventory: %w", err)
		}

		fmt.Printf("Added %q (%s) to %s\n", item.Name, item.ID, path)
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List supplements",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		search, _ := cmd.Flags().GetString("search")

		a, err := app.New("ListItems")
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.OpenInventory(file)
		if err != nil {
			return fmt.Errorf("loading inventory: %w", err)
		}

		items := a.Items(search)
		if len(items) == 0 {
			fmt.Println("No supplements found.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Count", "Initial", "Cost", "Tags", "Daily", "Days Left"})
		for _, item := range items {
			t.AppendRow(table.Row{
				shortID(item.ID),
				item.Name,
				item.CurrentCount,
				item.InitialCount,
				fmt.Sprintf("$%.2f", item.Cost),
				strings.Join(item.Tags, ", "),
				item.DailyDose,
				formatDays(item.DaysRemaining()),
			})
		}
		t.Render()

		if minDays := a.MinDaysRemaining(); !math.IsInf(minDays, 1) {
			fmt.Printf("Next empty in %.1f days\n", minDays)
		}

		// Persist the refreshed counts; a routine refresh is an automatic
		// save, so backups stay subject to the interval.
		if _, _, err := a.SaveInventory(path, false); err != nil {
			return fmt.Errorf("saving inventory: %w", err)
		}
		return nil
	},
}

// remove command
var removeCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a supplement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		a, err := app.New("RemoveItem")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.OpenInventory(file); err != nil {
			return fmt.Errorf("loading inventory: %w", err)
		}

		id, err := resolveID(a, args[0])
		if err != nil {
			return err
		}
		if err := a.Service().RemoveItem(id); err != nil {
			return err
		}

		if _, _, err := a.SaveInventory(file, true); err != nil {
			return fmt.Errorf("saving inventory: %w", err)
		}

		fmt.Printf("Removed %s\n", id)
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a supplement",
	Long:  "Replaces the supplement's fields with the provided flags; omitted flags\nkeep their current values. The last-updated date is preserved.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		a, err := app.New("EditItem")
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.OpenInventory(file); err != nil {
			return fmt.Errorf("loading inventory: %w", err)
		}

		id, err := resolveID(a, args[0])
		if err != nil {
			return err
		}
		existing := a.Service().Store().Get(id)
		if existing == nil {
			return fmt.Errorf("no item with id %s", id)
		}

		replacement := existing.Clone()
		if cmd.Flags().Changed("name") {
			replacement.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("count") {
			replacement.CurrentCount, _ = cmd.Flags().GetInt("count")
		}
		if cmd.Flags().Changed("initial") {
			replacement.InitialCount, _ = cmd.Flags().GetInt("initial")
		}
		if cmd.Flags().Changed("cost") {
			replacement.Cost, _ = cmd.Flags().GetFloat64("cost")
		}
		if cmd.Flags().Changed("tags") {
			tagsCSV, _ := cmd.Flags().GetString("tags")
			replacement.Tags = splitTags(tagsCSV)
		}
		if cmd.Flags().Changed("link") {
			replacement.Link, _ = cmd.Flags().GetString("link")
		}
		if cmd.Flags().Changed("dose") {
			replacement.DailyDose, _ = cmd.Flags().GetInt("dose")
		}
		if cmd.Flags().Changed("no-auto") {
			noAuto, _ := cmd.Flags().GetBool("no-auto")
			replacement.AutoDecrement = !noAuto
		}

		if err := a.Service().EditItem(id, replacement); err != nil {
			return err
		}

		if _, _, err := a.SaveInventory(file, true); err != nil {
			return fmt.Errorf("saving inventory: %w", err)
		}

		fmt.Printf("Updated %q\n", replacement.Name)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage save file backups",
}

var backupNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Snapshot the save file",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		a, err := app.New("BackupNow")
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, path, err := a.BackupNow(file)
		if err != nil {
			return err
		}

		switch outcome.Status {
		case backup.StatusCreated:
			fmt.Printf("Backup created: %s (%d bytes)\n", outcome.Record.Filename, outcome.Record.SizeBytes)
		case backup.StatusSkipped:
			fmt.Printf("Backup skipped: %s (%s)\n", outcome.Reason, path)
		case backup.StatusFailed:
			return fmt.Errorf("backup failed: %w", outcome.Err)
		}
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New("ListBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.ListBackups()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No backups.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Filename", "Created", "Type", "Size", "Original"})
		for _, rec := range records {
			kind := "manual"
			if rec.IsAuto {
				kind = "auto"
			}
			t.AppendRow(table.Row{
				rec.Filename,
				rec.Timestamp.Format("2006-01-02 15:04:05"),
				kind,
				rec.SizeBytes,
				rec.OriginalFile,
			})
		}
		t.Render()
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore FILENAME",
	Short: "Restore a backup over the save file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		a, err := app.New("RestoreBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		target, err := a.RestoreBackup(args[0], file)
		if err != nil {
			return err
		}

		fmt.Printf("Restored %s to %s\n", args[0], target)
		return nil
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Evict backups beyond the retention limit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New("PruneBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.PruneBackups()
		if err != nil {
			return err
		}

		fmt.Printf("Removed %d backup(s)\n", removed)
		return nil
	},
}

// calc command
var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compare supplement costs",
	Long:  "Compares purchase options given as COUNT,PRICE,DAILY triples and ranks\nthem by cost per day.",
	Example: `  suptrack calc --option 120,19.99,2 --option 60,12.50,2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringArray("option")

		options := make([]tracker.CostOption, 0, len(raw))
		for _, spec := range raw {
			opt, err := parseOption(spec)
			if err != nil {
				return err
			}
			options = append(options, opt)
		}

		results, err := tracker.CompareCosts(options)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Rank", "Cost/Day", "Days Supply", "Price"})
		for i, r := range results {
			t.AppendRow(table.Row{
				i + 1,
				fmt.Sprintf("$%.2f", r.CostPerDay),
				fmt.Sprintf("%.1f", r.DaysSupply),
				fmt.Sprintf("$%.2f", r.Option.Price),
			})
		}
		t.Render()
		return nil
	},
}

// register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the .sup file type with the OS",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.RegisterFileType(); err != nil {
			return err
		}
		fmt.Println("File type registered. Run update-mime-database to refresh the MIME cache.")
		return nil
	},
}

func splitTags(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseOption(spec string) (tracker.CostOption, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return tracker.CostOption{}, fmt.Errorf("option %q: want COUNT,PRICE,DAILY", spec)
	}
	count, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return tracker.CostOption{}, fmt.Errorf("option %q: invalid count: %w", spec, err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return tracker.CostOption{}, fmt.Errorf("option %q: invalid price: %w", spec, err)
	}
	daily, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return tracker.CostOption{}, fmt.Errorf("option %q: invalid daily dose: %w", spec, err)
	}
	return tracker.CostOption{DoseCount: count, Price: price, DailyDose: daily}, nil
}

// resolveID accepts a full item ID or an unambiguous prefix.
func resolveID(a *app.App, ref string) (string, error) {
	var match string
	for _, item := range a.Service().Store().Items() {
		if item.ID == ref {
			return ref, nil
		}
		if strings.HasPrefix(item.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("ambiguous id prefix %q", ref)
			}
			match = item.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no item with id %q", ref)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDays(days float64) string {
	if math.IsInf(days, 1) {
		return "-"
	}
	return fmt.Sprintf("%.1f", days)
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// backup subcommands
	backupCmd.AddCommand(backupNowCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupPruneCmd)

	// item flags shared by add and edit
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().String("name", "", "Supplement name")
		c.Flags().Int("count", 0, "Current count")
		c.Flags().Int("initial", 0, "Initial count")
		c.Flags().Float64("cost", 0, "Cost")
		c.Flags().String("tags", "", "Comma-separated tags")
		c.Flags().String("link", "", "Purchase link")
		c.Flags().Int("dose", 0, "Daily dose")
		c.Flags().Bool("no-auto", false, "Disable automatic count decay")
	}
	addCmd.MarkFlagRequired("name")

	listCmd.Flags().StringP("search", "s", "", "Filter by name or tag")

	calcCmd.Flags().StringArray("option", nil, "Purchase option as COUNT,PRICE,DAILY (repeatable)")
	calcCmd.MarkFlagRequired("option")

	// root commands
	rootCmd.PersistentFlags().StringP("file", "f", "", "Inventory file (default: last used file)")
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(registerCmd)
}
