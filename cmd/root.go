package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vvs-tools/vvs-install/internal/config"
	"github.com/vvs-tools/vvs-install/internal/fetch"
	"github.com/vvs-tools/vvs-install/internal/github"
	"github.com/vvs-tools/vvs-install/internal/install"
	"github.com/vvs-tools/vvs-install/pkg/logger"
)

// Version is the installer's own version, injected from main.
var Version = "dev"

var (
	cfgFile      string
	versionTag   string
	uninstall    bool
	installDir   string
	skipVerify   bool
	logLevel     string
	osOverride   string
	archOverride string
)

var rootCmd = &cobra.Command{
	Use:   "vvs-install",
	Short: "Download, verify, and install the vvs binary",
	Long: `vvs-install downloads a prebuilt vvs release from GitHub Releases,
verifies its SHA-256 checksum against the release manifest, and places the
binary in a fixed installation directory on the executable search path.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := logger.Init(cfg.Logging); err != nil {
			return err
		}

		if uninstall {
			inst := &install.Installer{
				Dir:    cfg.Install.Dir,
				Binary: installedBinaryName(cfg.Install.Binary),
			}
			return runUninstall(inst, cmd.OutOrStdout())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := github.NewClient(cfg.Repo.Owner, cfg.Repo.Name,
			github.WithAPIBase(cfg.Repo.APIBase),
			github.WithDownloadBase(cfg.Repo.DownloadBase),
			github.WithToken(github.TokenFromEnv()),
			github.WithUserAgent("vvs-install/"+Version),
		)

		p := installParams{
			cfg:          cfg,
			client:       client,
			fetcher:      fetch.New(fetch.WithUserAgent("vvs-install/" + Version)),
			versionTag:   versionTag,
			osOverride:   osOverride,
			archOverride: archOverride,
			confirmRun:   true,
			stdout:       cmd.OutOrStdout(),
		}
		return runInstall(ctx, p)
	},
}

// Execute runs the root command. Errors are returned to main for a single
// stderr message and a non-zero exit.
func Execute(version string) error {
	Version = version
	rootCmd.SetContext(context.Background())
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&versionTag, "version", "v", "", "release tag to install (default: latest)")
	rootCmd.Flags().BoolVarP(&uninstall, "uninstall", "u", false, "remove the installed binary and exit")
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./vvs-install.yaml)")
	rootCmd.Flags().StringVar(&installDir, "install-dir", "", "installation directory (overrides config)")
	rootCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "skip checksum verification (not recommended)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	rootCmd.Flags().StringVar(&osOverride, "os", "", "target operating system (default: this host)")
	rootCmd.Flags().StringVar(&archOverride, "arch", "", "target architecture (default: this host)")
}

// loadConfig loads file/env configuration and layers flag overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("install-dir") {
		cfg.Install.Dir = installDir
	}
	if cmd.Flags().Changed("skip-verify") {
		cfg.Verify.Skip = skipVerify
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
