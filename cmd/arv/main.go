package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"arv-go/internal/app"
	"arv-go/internal/arv"
	"arv-go/internal/config"
	"arv-go/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// version is the only thing the (external) update checker consumes.
var version = "0.3.0"

// cdMarker prefixes the slot path handed off to the shell wrapper,
// which interprets the line and changes its own working directory.
const cdMarker = "__ARCHIVER_CD__:"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// When no config file exists yet, defaults are used so the tool works
// out of the box.
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		cfg = config.NewConfig(defaults["base_dir"])
	}

	a, err := app.NewApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:     "arv",
	Short:   "Archive files and directories into managed vaults",
	Version: version,
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

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Store root: %s\n", cfg.Root)
		fmt.Printf("Log dir:    %s\n", cfg.LogDir)
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
		fmt.Printf("Store root: %s\n", cfg.Root)
		fmt.Printf("Log dir:    %s\n", cfg.LogDir)
		return nil
	},
}

// init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the archive store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Store initialized at %s\n", a.Store().Root())
		return nil
	},
}

// put command
var putCmd = &cobra.Command{
	Use:   "put PATH...",
	Short: "Move files or directories into the archive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vault, _ := cmd.Flags().GetString("vault")
		message, _ := cmd.Flags().GetString("message")
		remark, _ := cmd.Flags().GetString("remark")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Put(args, vault, message, remark)
		if err != nil {
			return err
		}
		return printResult(result)
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore ID...",
	Short: "Move archived objects back to their original locations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Restore(args)
		if err != nil {
			return err
		}
		return printResult(result)
	},
}

// move command
var moveCmd = &cobra.Command{
	Use:   "move ID...",
	Short: "Relocate archived objects into another vault",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vault, _ := cmd.Flags().GetString("vault")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Move(args, vault)
		if err != nil {
			return err
		}
		return printResult(result)
	},
}

// cd command
var cdCmd = &cobra.Command{
	Use:   "cd TARGET",
	Short: "Resolve an archive's slot directory for the shell wrapper",
	Long: `Resolves "<id>" or "<vault>/<id>" to the archive's slot directory.
The output line is consumed by the arv shell wrapper, which performs the
actual directory change. With --print the bare path is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printOnly, _ := cmd.Flags().GetBool("print")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		slot, err := a.ResolveCd(args[0])
		if err != nil {
			return err
		}

		if printOnly {
			fmt.Println(slot)
		} else {
			fmt.Println(cdMarker + slot)
		}
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archive entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		vault, _ := cmd.Flags().GetString("vault")
		all, _ := cmd.Flags().GetBool("all")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListEntries(vault)
		if err != nil {
			return err
		}
		vaults, err := a.ListVaults(true)
		if err != nil {
			return err
		}
		cfg, err := a.Store().Config(false)
		if err != nil {
			return err
		}

		names := make(map[int64]string, len(vaults))
		for _, v := range vaults {
			name := v.Name
			if alias, ok := cfg.Aliases[v.Name]; ok {
				name = alias
			}
			names[v.ID] = name
		}

		shown := 0
		for _, e := range entries {
			if !all && e.Status != model.ItemArchived {
				continue
			}
			fmt.Printf("#%-6d %-10s %-12s %s/%s\n", e.ID, string(e.Status), names[e.VaultID], e.Directory, e.Item)
			shown++
		}
		if shown == 0 {
			fmt.Println("No archive entries.")
		}
		return nil
	},
}

// vault command
var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage vaults",
}

var vaultCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remark, _ := cmd.Flags().GetString("remark")
		use, _ := cmd.Flags().GetBool("use")
		recoverRemoved, _ := cmd.Flags().GetBool("recover")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.CreateVault(args[0], remark, use, recoverRemoved)
		if err != nil {
			if errors.Is(err, arv.ErrRemovedVaultExists) {
				return fmt.Errorf("%w; rerun with --recover to reactivate it", err)
			}
			return err
		}
		fmt.Printf("Vault %s (#%d) is ready.\n", v.Name, v.ID)
		return nil
	},
}

var vaultRemoveCmd = &cobra.Command{
	Use:   "remove VAULT",
	Short: "Remove a vault, relocating its archives to the default vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if !force && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Printf("Remove vault %q? Its archives move to the default vault. [y/N] ", args[0])
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v, moved, err := a.RemoveVault(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Vault %s (#%d) removed; %d archives relocated to the default vault.\n", v.Name, v.ID, moved)
		return nil
	},
}

var vaultRecoverCmd = &cobra.Command{
	Use:   "recover VAULT",
	Short: "Recover a removed vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.RecoverVault(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Vault %s (#%d) recovered.\n", v.Name, v.ID)
		return nil
	},
}

var vaultRenameCmd = &cobra.Command{
	Use:   "rename VAULT NEW_NAME",
	Short: "Rename a vault",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.RenameVault(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Vault #%d is now named %s.\n", v.ID, v.Name)
		return nil
	},
}

var vaultUseCmd = &cobra.Command{
	Use:   "use VAULT",
	Short: "Set the current vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		v, err := a.UseVault(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Current vault is now %s (#%d).\n", v.Name, v.ID)
		return nil
	},
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		vaults, err := a.ListVaults(all)
		if err != nil {
			return err
		}
		cfg, err := a.Store().Config(false)
		if err != nil {
			return err
		}

		for _, v := range vaults {
			current := ""
			if v.ID == cfg.CurrentVaultID {
				current = "  [current]"
			}
			fmt.Printf("#%-4d %-20s %s%s\n", v.ID, v.Name, string(v.Status), current)
		}
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that metadata and the filesystem agree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Check()
		if err != nil {
			return err
		}

		for _, issue := range report.Issues {
			fmt.Printf("%-5s %-28s %s\n", strings.ToUpper(string(issue.Severity)), issue.Code, issue.Message)
		}
		for _, line := range report.Summary {
			fmt.Println(line)
		}

		// Warnings are soft drift; only error findings fail the command.
		if report.HasErrors() {
			cmd.SilenceUsage = true
			return fmt.Errorf("consistency check found errors")
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent operations from the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, rec := range records {
			op := rec.Operation.Command
			if rec.Operation.Action != "" {
				op += " " + rec.Operation.Action
			}
			fmt.Printf("#%-6d %-20s %-6s %-14s %s\n", rec.ID, rec.Time, string(rec.Level), op, rec.Message)
		}
		return nil
	},
}

// printResult renders a batch outcome and fails the command when
// nothing succeeded.
func printResult(result *arv.Result) error {
	for _, s := range result.Succeeded {
		fmt.Println(s.Detail)
	}
	for _, f := range result.Failed {
		fmt.Printf("failed: %s: %s\n", f.Item, f.Reason)
	}
	if len(result.Failed) > 0 {
		fmt.Printf("%d succeeded, %d failed\n", len(result.Succeeded), len(result.Failed))
	}
	if len(result.Succeeded) == 0 && len(result.Failed) > 0 {
		return fmt.Errorf("all items failed")
	}
	return nil
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// vault subcommands
	vaultCmd.AddCommand(vaultCreateCmd)
	vaultCreateCmd.Flags().StringP("remark", "r", "", "Free-text remark stored with the vault")
	vaultCreateCmd.Flags().BoolP("use", "u", false, "Make the new vault current")
	vaultCreateCmd.Flags().Bool("recover", false, "Reactivate a removed vault holding this name")
	vaultCmd.AddCommand(vaultRemoveCmd)
	vaultRemoveCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
	vaultCmd.AddCommand(vaultRecoverCmd)
	vaultCmd.AddCommand(vaultRenameCmd)
	vaultCmd.AddCommand(vaultUseCmd)
	vaultCmd.AddCommand(vaultListCmd)
	vaultListCmd.Flags().BoolP("all", "a", false, "Include removed vaults")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().StringP("vault", "v", "", "Target vault (defaults to the current vault)")
	putCmd.Flags().StringP("message", "m", "", "Free-text message stored with each entry")
	putCmd.Flags().StringP("remark", "r", "", "Free-text remark stored with each entry")
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().StringP("vault", "v", "", "Destination vault")
	moveCmd.MarkFlagRequired("vault")
	rootCmd.AddCommand(cdCmd)
	cdCmd.Flags().BoolP("print", "p", false, "Print the bare slot path instead of the cd hand-off line")
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("vault", "v", "", "Only entries of this vault")
	listCmd.Flags().BoolP("all", "a", false, "Include restored entries")
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of records to show")
}
