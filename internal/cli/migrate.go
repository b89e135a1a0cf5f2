package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"task_tracker/internal/config"
	"task_tracker/internal/repository/gormrepo"
	"task_tracker/internal/repository/sqlrepo"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the relational schema",
		Long: `Manage the relational schema.

The sql driver applies versioned migrations; the gorm driver migrates its
models automatically and only supports "up".`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if err := migrateUp(cfg.Storage); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if err := migrateDown(cfg.Storage); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back last migration")
			return nil
		},
	})
	return cmd
}

func migrateUp(cfg config.StorageConfig) error {
	switch cfg.Driver {
	case config.DriverSQL:
		db, err := sqlrepo.Open(cfg.Dialect, cfg.DSN)
		if err != nil {
			return err
		}
		return db.Close()
	case config.DriverGORM:
		db, err := gormrepo.Open(cfg.Dialect, cfg.DSN)
		if err != nil {
			return err
		}
		return gormrepo.Close(db)
	default:
		return fmt.Errorf("storage driver %q has no schema migrations", cfg.Driver)
	}
}

func migrateDown(cfg config.StorageConfig) error {
	if cfg.Driver != config.DriverSQL {
		return fmt.Errorf("rollback is only supported for the sql driver, not %q", cfg.Driver)
	}
	db, err := sqlrepo.Connect(cfg.Dialect, cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return sqlrepo.RollbackLast(db, cfg.Dialect)
}
