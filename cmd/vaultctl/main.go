package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/securevault-systems/vault-core/internal/config"
	"github.com/securevault-systems/vault-core/internal/repository"
	"github.com/securevault-systems/vault-core/internal/seeder"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "vaultctl",
	Short:   "SecureVault operator CLI",
	Long:    "vaultctl administers a SecureVault deployment: seed demo data and provision admin accounts.",
	Version: "0.1.0",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(adminCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
}

// openRepo connects to whatever store the config names. Seeding an
// in-memory repository is only useful from tests, so the CLI insists on
// postgres.
func openRepo(ctx context.Context) (repository.Repository, func(), error) {
	if cfg.Database.Type != "postgres" {
		return nil, nil, fmt.Errorf("vaultctl requires database.type=postgres, got %q", cfg.Database.Type)
	}
	connString := cfg.Database.Postgres.ConnString()
	if err := repository.Migrate(connString); err != nil {
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	pg, err := repository.NewPostgresRepository(ctx, connString)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the vault with demo sectors, identities and files",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, _ := cmd.Flags().GetInt("users")
		files, _ := cmd.Flags().GetInt("files")

		ctx := cmd.Context()
		repo, closeRepo, err := openRepo(ctx)
		if err != nil {
			return err
		}
		defer closeRepo()

		if err := seeder.Seed(ctx, repo, seeder.Options{Users: users, FilesPerSector: files}); err != nil {
			return err
		}
		fmt.Printf("seeded %d demo users and %d sectors\n", users, len(seeder.DefaultSectors))
		return nil
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator account management",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Provision an administrator account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		fullName, _ := cmd.Flags().GetString("full-name")
		if password == "" {
			return fmt.Errorf("--password is required")
		}

		ctx := cmd.Context()
		repo, closeRepo, err := openRepo(ctx)
		if err != nil {
			return err
		}
		defer closeRepo()

		admin, err := seeder.CreateAdmin(ctx, repo, args[0], password, fullName)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		fmt.Printf("admin %s created (id %s)\n", admin.Username, admin.ID)
		return nil
	},
}

func init() {
	seedCmd.Flags().Int("users", 8, "number of demo users")
	seedCmd.Flags().Int("files", 3, "files per sector")
	adminCmd.AddCommand(adminCreateCmd)
	adminCreateCmd.Flags().String("password", "", "credential for the new admin")
	adminCreateCmd.Flags().String("full-name", "Vault Administrator", "display name")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
