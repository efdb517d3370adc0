// Package cli implements intranetctl, the operator tool for migrations, accounts and seed data.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nsrz/intranet/internal/config"
	"github.com/nsrz/intranet/internal/events"
	"github.com/nsrz/intranet/internal/observability"
	"github.com/nsrz/intranet/internal/persistence"
	"github.com/nsrz/intranet/internal/repository"
	"github.com/nsrz/intranet/internal/service"
)

// runtime holds what commands need once configuration is loaded. Postgres is opened lazily.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
	out    io.Writer
}

func (r *runtime) postgres(ctx context.Context) (*persistence.Postgres, error) {
	if r.pg != nil {
		return r.pg, nil
	}
	pg, err := persistence.NewPostgres(ctx, r.cfg.Postgres, r.logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	r.pg = pg
	return pg, nil
}

func (r *runtime) close() {
	if r.pg != nil {
		r.pg.Close()
	}
	if r.logger != nil {
		_ = r.logger.Sync()
	}
}

// services is the slice of the service layer the CLI drives.
type services struct {
	tx          persistence.TxManager
	departments *service.DepartmentService
	users       *service.UserService
	positions   *service.PositionService
	employees   *service.EmployeeService
}

func (r *runtime) openServices(ctx context.Context) (*services, error) {
	pg, err := r.postgres(ctx)
	if err != nil {
		return nil, err
	}
	pool := pg.PoolHandle()
	tx := persistence.NewTxManager(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	positionRepo := repository.NewPositionRepository(pool)
	dispatcher := events.NewInMemoryDispatcher()

	return &services{
		tx: tx,
		departments: service.NewDepartmentService(service.DepartmentDependencies{
			DepartmentRepo:   departmentRepo,
			TxManager:        tx,
			Dispatcher:       dispatcher,
			Logger:           r.logger,
			OrganizationName: r.cfg.App.OrganizationName,
		}),
		users: service.NewUserService(service.UserDependencies{
			UserRepo:       repository.NewUserRepository(pool),
			DepartmentRepo: departmentRepo,
			TxManager:      tx,
			Dispatcher:     dispatcher,
			Logger:         r.logger,
			BcryptCost:     r.cfg.Auth.BcryptCost,
		}),
		positions: service.NewPositionService(service.PositionDependencies{
			PositionRepo:   positionRepo,
			DepartmentRepo: departmentRepo,
			TxManager:      tx,
			Logger:         r.logger,
		}),
		employees: service.NewEmployeeService(service.EmployeeDependencies{
			EmployeeRepo:   repository.NewEmployeeRepository(pool),
			PositionRepo:   positionRepo,
			DepartmentRepo: departmentRepo,
			TxManager:      tx,
			Logger:         r.logger,
		}),
	}, nil
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	rt := &runtime{out: os.Stdout}

	cmd := &cobra.Command{
		Use:           "intranetctl",
		Short:         "Operator tool for the intranet portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = logger
			rt.out = cmd.OutOrStdout()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}
	cmd.AddCommand(newMigrateCmd(rt))
	cmd.AddCommand(newUserCmd(rt))
	cmd.AddCommand(newDepartmentsCmd(rt))
	cmd.AddCommand(newSeedCmd(rt))
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
