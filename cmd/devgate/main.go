package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"devgate/internal/app"
	"devgate/internal/config"
	"devgate/internal/encryption"
	"devgate/internal/gate"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(). operation identifies the CLI command being run and tags
// every log line.
func newApp(cmd *cobra.Command, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cmd.Context(), cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// finish prints the result message and converts failures to errors so
// the process exits non-zero.
func finish(res gate.Result) error {
	if res.OK {
		fmt.Println(res.Message)
		return nil
	}
	return fmt.Errorf("[%s] %s", res.Code, res.Message)
}

// promptSecret reads a value from the terminal without echo.
func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// codeFromFlagOrPrompt returns the --code flag value, prompting without
// echo when the flag is empty.
func codeFromFlagOrPrompt(cmd *cobra.Command) (string, error) {
	code, _ := cmd.Flags().GetString("code")
	if code != "" {
		return code, nil
	}
	return promptSecret("Secret code")
}

var rootCmd = &cobra.Command{
	Use:   "devgate",
	Short: "Consent-gated control plane for host and Android device access",
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

		hostID, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("determining host id: %w", err)
		}

		cfg := config.NewConfig(hostID, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID:  %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
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
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Store:       %s\n", cfg.Store.Type)
		fmt.Printf("Bridge:      %s (timeout %ds)\n", cfg.Bridge.AdbPath, cfg.Bridge.CommandTimeoutSeconds)
		fmt.Printf("Backup root: %s\n", cfg.Backup.DefaultRoot)
		fmt.Printf("Mirror:      %s\n", cfg.Mirror.Type)
		return nil
	},
}

var configKeysInitCmd = &cobra.Command{
	Use:   "keys-init",
	Short: "Generate the backup sealing key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "KeysInit")
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Encryptor == nil {
			return fmt.Errorf("encryption is disabled in the configuration")
		}
		if a.Encryptor.IsConfigured() {
			return fmt.Errorf("key pair already exists")
		}

		passphrase, err := promptSecret("Key passphrase")
		if err != nil {
			return err
		}
		confirm, err := promptSecret("Repeat passphrase")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.Encryptor.Setup(passphrase); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}
		fmt.Println("Sealing key pair generated. Backups will now be encrypted.")
		return nil
	},
}

// secret command
var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the privileged-operation secret code",
}

var secretValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a secret code",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SecretValidate")
		if err != nil {
			return err
		}
		defer a.Close()

		code, err := codeFromFlagOrPrompt(cmd)
		if err != nil {
			return err
		}
		if !a.Secret.Validate(code) {
			return fmt.Errorf("secret code is invalid")
		}
		fmt.Println("Secret code is valid.")
		return nil
	},
}

var secretRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Replace the secret code",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SecretRotate")
		if err != nil {
			return err
		}
		defer a.Close()

		current, err := promptSecret("Current code")
		if err != nil {
			return err
		}
		next, err := promptSecret("New code (4-12 digits)")
		if err != nil {
			return err
		}

		return finish(a.Secret.Rotate(current, next))
	},
}

// consent command
var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Manage owner consent grants",
}

var consentRequestCmd = &cobra.Command{
	Use:   "request DEVICE_TYPE DEVICE_ID",
	Short: "Open a consent handshake for a device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		minutes, _ := cmd.Flags().GetInt("minutes")
		profile, _ := cmd.Flags().GetString("profile")
		persistent, _ := cmd.Flags().GetBool("persistent")

		a, err := newApp(cmd, "ConsentRequest")
		if err != nil {
			return err
		}
		defer a.Close()

		offer := a.Consents.Request(args[0], args[1], owner, minutes, profile, persistent)
		if !offer.OK {
			return finish(offer.Result)
		}

		fmt.Println(offer.Message)
		fmt.Printf("Request ID:   %s\n", offer.RequestID)
		fmt.Printf("Consent code: %s  (give this to the device owner; it is shown once)\n", offer.ConsentCode)
		fmt.Printf("Profile:      %s (%s)\n", offer.AccessProfile, joinScopes(offer.Scopes))
		fmt.Printf("Grant expiry: %s\n", offer.ExpiresLabel)
		return nil
	},
}

var consentConfirmCmd = &cobra.Command{
	Use:   "confirm REQUEST_ID CODE",
	Short: "Confirm a pending consent request with the owner's code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ConsentConfirm")
		if err != nil {
			return err
		}
		defer a.Close()

		decision := a.Consents.Confirm(args[0], args[1])
		if !decision.OK {
			return finish(decision.Result)
		}

		fmt.Println(decision.Message)
		fmt.Printf("Scopes: %s\n", joinScopes(decision.Scopes))
		fmt.Printf("Expiry: %s\n", decision.ExpiresLabel)
		return nil
	},
}

var consentRevokeCmd = &cobra.Command{
	Use:   "revoke DEVICE_TYPE DEVICE_ID",
	Short: "Revoke the active grant for a device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ConsentRevoke")
		if err != nil {
			return err
		}
		defer a.Close()

		return finish(a.Consents.Revoke(args[0], args[1]))
	},
}

var consentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active grants",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ConsentList")
		if err != nil {
			return err
		}
		defer a.Close()

		grants, err := a.Consents.List()
		if err != nil {
			return err
		}
		if len(grants) == 0 {
			fmt.Println("No active grants.")
			return nil
		}

		for _, g := range grants {
			fmt.Printf("%-30s  owner:%-15s  profile:%-9s  expires:%s\n",
				gate.DeviceKey(g.DeviceType, g.DeviceID),
				g.OwnerName,
				g.AccessProfile,
				g.ExpiresLabel(),
			)
		}
		return nil
	},
}

// device command
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Inspect and modify endpoints",
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reachable endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeviceList")
		if err != nil {
			return err
		}
		defer a.Close()

		scan := a.Executor.ListDevices(cmd.Context())
		if !scan.OK {
			return finish(scan.Result)
		}

		for _, d := range scan.Devices {
			fmt.Printf("%-8s  %-24s  %-12s  %s\n", d.DeviceType, d.DeviceID, d.Status, d.Name)
		}
		fmt.Println(scan.BridgeStatus)
		return nil
	},
}

var deviceInfoCmd = &cobra.Command{
	Use:   "info DEVICE_TYPE DEVICE_ID",
	Short: "Show identity facts for an endpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeviceInfo")
		if err != nil {
			return err
		}
		defer a.Close()

		info := a.Executor.DeviceInfo(cmd.Context(), args[0], args[1])
		if !info.OK {
			return finish(info.Result)
		}

		for k, v := range info.Info {
			fmt.Printf("%-16s %s\n", k+":", v)
		}
		return nil
	},
}

var deviceFilesCmd = &cobra.Command{
	Use:   "files SERIAL [PATH]",
	Short: "List a directory on a bridged device",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeviceFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		remotePath := ""
		if len(args) > 1 {
			remotePath = args[1]
		}

		listing := a.Executor.ListDeviceFiles(cmd.Context(), args[0], remotePath)
		if !listing.OK {
			return finish(listing.Result)
		}

		for _, f := range listing.Files {
			fmt.Println(f)
		}
		fmt.Println(listing.Message)
		return nil
	},
}

var deviceApplyCmd = &cobra.Command{
	Use:   "apply DEVICE_TYPE DEVICE_ID OPERATION PATH",
	Short: "Run a guarded file mutation (create-folder, write-text, delete-path)",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, _ := cmd.Flags().GetString("content")

		a, err := newApp(cmd, "DeviceApply")
		if err != nil {
			return err
		}
		defer a.Close()

		code, err := codeFromFlagOrPrompt(cmd)
		if err != nil {
			return err
		}

		deviceType := strings.ToLower(args[0])
		switch deviceType {
		case "windows":
			return finish(a.Executor.ApplyHostChange(gate.HostChange{
				TargetID:   args[1],
				Operation:  args[2],
				TargetPath: args[3],
				Content:    content,
				AuthCode:   code,
			}))
		case "android":
			return finish(a.Executor.ApplyDeviceChange(cmd.Context(), gate.DeviceChange{
				Serial:     args[1],
				Operation:  args[2],
				RemotePath: args[3],
				Content:    content,
				AuthCode:   code,
			}))
		default:
			return fmt.Errorf("unsupported device type: %s", args[0])
		}
	},
}

// command command
var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Run guarded host commands",
}

var commandRunCmd = &cobra.Command{
	Use:   "run COMMAND",
	Short: "Execute a command on the host shell",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "CommandRun")
		if err != nil {
			return err
		}
		defer a.Close()

		code, err := codeFromFlagOrPrompt(cmd)
		if err != nil {
			return err
		}

		outcome := a.Executor.RunHostCommand(cmd.Context(), code, args[0])
		if outcome.Stdout != "" {
			fmt.Print(outcome.Stdout)
		}
		if outcome.Stderr != "" {
			fmt.Fprint(os.Stderr, outcome.Stderr)
		}
		return finish(outcome.Result)
	},
}

// browser command
var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Discover and export browser data",
}

var browserSourcesCmd = &cobra.Command{
	Use:   "sources DEVICE_TYPE DEVICE_ID",
	Short: "List exportable browser data for an endpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BrowserSources")
		if err != nil {
			return err
		}
		defer a.Close()

		result := a.Executor.ListBrowserSources(cmd.Context(), args[0], args[1])
		if !result.OK {
			return finish(result.Result)
		}

		for _, s := range result.Sources {
			fmt.Printf("%-12s  %-24s  %s\n", s.Browser, s.Kind, s.Location)
		}
		fmt.Println(result.Message)
		return nil
	},
}

var browserExportCmd = &cobra.Command{
	Use:   "export DEVICE_TYPE DEVICE_ID",
	Short: "Copy browser data files into the export folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourcePath, _ := cmd.Flags().GetString("source")

		a, err := newApp(cmd, "BrowserExport")
		if err != nil {
			return err
		}
		defer a.Close()

		code, err := codeFromFlagOrPrompt(cmd)
		if err != nil {
			return err
		}

		result := a.Executor.ExportBrowserData(cmd.Context(), args[0], args[1], code, sourcePath)
		if !result.OK {
			return finish(result.Result)
		}

		fmt.Println(result.Message)
		fmt.Printf("Destination: %s\n", result.DestinationPath)
		for _, skipped := range result.Skipped {
			fmt.Printf("Skipped: %s\n", skipped)
		}
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage background backup jobs",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create DEVICE_TYPE DEVICE_ID SOURCE_PATH",
	Short: "Create a recurring backup job",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")
		root, _ := cmd.Flags().GetString("root")
		interval, _ := cmd.Flags().GetInt("interval")

		a, err := newApp(cmd, "BackupCreate")
		if err != nil {
			return err
		}
		defer a.Close()

		code, err := codeFromFlagOrPrompt(cmd)
		if err != nil {
			return err
		}

		result := a.Backups.Create(gate.CreateJobInput{
			DeviceType:      args[0],
			DeviceID:        args[1],
			SourcePath:      args[2],
			Label:           label,
			BackupRoot:      root,
			IntervalMinutes: interval,
			AuthCode:        code,
		})
		if !result.OK {
			return finish(result.Result)
		}

		fmt.Println(result.Message)
		fmt.Printf("Job ID:   %s\n", result.Job.ID)
		fmt.Printf("Interval: every %d minute(s)\n", result.Job.IntervalMinutes)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupList")
		if err != nil {
			return err
		}
		defer a.Close()

		jobs, err := a.Backups.List()
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No backup jobs configured.")
			return nil
		}

		for _, j := range jobs {
			state := "enabled"
			if !j.Enabled {
				state = "disabled"
			}
			lastRun := "never"
			if j.LastRunAt != nil {
				lastRun = j.LastRunAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("%s  %-8s  %-30s  every %dm  last:%s\n", j.ID, state,
				gate.DeviceKey(j.DeviceType, j.DeviceID)+" "+j.SourcePath, j.IntervalMinutes, lastRun)
			fmt.Printf("    %s\n", j.LastResult)
		}
		return nil
	},
}

var backupEnableCmd = &cobra.Command{
	Use:   "enable JOB_ID",
	Short: "Enable a backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupEnable")
		if err != nil {
			return err
		}
		defer a.Close()

		return finish(a.Backups.SetEnabled(args[0], true).Result)
	},
}

var backupDisableCmd = &cobra.Command{
	Use:   "disable JOB_ID",
	Short: "Disable a backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupDisable")
		if err != nil {
			return err
		}
		defer a.Close()

		return finish(a.Backups.SetEnabled(args[0], false).Result)
	},
}

var backupRunCmd = &cobra.Command{
	Use:   "run JOB_ID",
	Short: "Run a backup job immediately",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupRun")
		if err != nil {
			return err
		}
		defer a.Close()

		return finish(a.Backups.RunNow(cmd.Context(), args[0]).Result)
	},
}

var backupRemoveCmd = &cobra.Command{
	Use:   "remove JOB_ID",
	Short: "Delete a backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupRemove")
		if err != nil {
			return err
		}
		defer a.Close()

		return finish(a.Backups.Remove(args[0]))
	},
}

var backupUnsealCmd = &cobra.Command{
	Use:   "unseal ARCHIVE DEST",
	Short: "Decrypt a sealed backup archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupUnseal")
		if err != nil {
			return err
		}
		defer a.Close()

		unlocker, ok := a.Encryptor.(encryption.Unlocker)
		if !ok {
			return fmt.Errorf("configured encryptor cannot decrypt archives")
		}

		passphrase, err := promptSecret("Key passphrase")
		if err != nil {
			return err
		}
		dc, err := unlocker.Unlock(passphrase)
		if err != nil {
			return fmt.Errorf("unlocking key: %w", err)
		}

		in, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer in.Close()

		out, err := os.OpenFile(args[1], os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer out.Close()

		if err := dc.Decrypt(in, out); err != nil {
			return fmt.Errorf("decrypting archive: %w", err)
		}
		fmt.Printf("Unsealed to %s\n", args[1])
		return nil
	},
}

// scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background backup scheduler",
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Tick due backup jobs every minute until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SchedulerRun")
		if err != nil {
			return err
		}
		defer a.Close()

		a.Scheduler.Run(cmd.Context())
		return nil
	},
}

// settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage operator preferences",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show stored preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SettingsList")
		if err != nil {
			return err
		}
		defer a.Close()

		settings, err := a.GetSettings()
		if err != nil {
			return err
		}
		fmt.Printf("open_at_login: %t\n", settings.OpenAtLogin)
		return nil
	},
}

var settingsOpenAtLoginCmd = &cobra.Command{
	Use:   "open-at-login on|off",
	Short: "Toggle starting the scheduler at login",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("expected \"on\" or \"off\", got %q", args[0])
		}

		a, err := newApp(cmd, "SettingsOpenAtLogin")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetOpenAtLogin(enabled); err != nil {
			return err
		}
		fmt.Printf("open_at_login set to %t\n", enabled)
		return nil
	},
}

func joinScopes(scopes []gate.Scope) string {
	parts := make([]string, len(scopes))
	for i, s := range scopes {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysInitCmd)

	// secret subcommands
	secretCmd.AddCommand(secretValidateCmd)
	secretValidateCmd.Flags().String("code", "", "Secret code (prompted when omitted)")
	secretCmd.AddCommand(secretRotateCmd)

	// consent subcommands
	consentCmd.AddCommand(consentRequestCmd)
	consentRequestCmd.Flags().String("owner", "", "Device owner's name")
	consentRequestCmd.Flags().Int("minutes", 0, "Grant duration in minutes (default 120, clamped to 10-43200)")
	consentRequestCmd.Flags().String("profile", "", "Access profile: standard or developer")
	consentRequestCmd.Flags().Bool("persistent", false, "Grant access until revoked")
	consentCmd.AddCommand(consentConfirmCmd)
	consentCmd.AddCommand(consentRevokeCmd)
	consentCmd.AddCommand(consentListCmd)

	// device subcommands
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceInfoCmd)
	deviceCmd.AddCommand(deviceFilesCmd)
	deviceCmd.AddCommand(deviceApplyCmd)
	deviceApplyCmd.Flags().String("content", "", "Text content for write-text")
	deviceApplyCmd.Flags().String("code", "", "Secret code (prompted when omitted)")

	// command subcommands
	commandCmd.AddCommand(commandRunCmd)
	commandRunCmd.Flags().String("code", "", "Secret code (prompted when omitted)")

	// browser subcommands
	browserCmd.AddCommand(browserSourcesCmd)
	browserCmd.AddCommand(browserExportCmd)
	browserExportCmd.Flags().String("source", "", "Device shared-storage folder to pull from")
	browserExportCmd.Flags().String("code", "", "Secret code (prompted when omitted)")

	// backup subcommands
	backupCmd.AddCommand(backupCreateCmd)
	backupCreateCmd.Flags().String("label", "", "Job label used in backup folder names")
	backupCreateCmd.Flags().String("root", "", "Backup destination root (defaults to the configured root)")
	backupCreateCmd.Flags().Int("interval", 0, "Run interval in minutes (default 60, clamped to 5-1440)")
	backupCreateCmd.Flags().String("code", "", "Secret code (prompted when omitted)")
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupEnableCmd)
	backupCmd.AddCommand(backupDisableCmd)
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupRemoveCmd)
	backupCmd.AddCommand(backupUnsealCmd)

	// scheduler subcommands
	schedulerCmd.AddCommand(schedulerRunCmd)

	// settings subcommands
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsOpenAtLoginCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(secretCmd)
	rootCmd.AddCommand(consentCmd)
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(commandCmd)
	rootCmd.AddCommand(browserCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(settingsCmd)
}
