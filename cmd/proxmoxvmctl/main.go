// Command proxmoxvmctl runs module callbacks from the shell, for operators
// repairing or inspecting services outside the billing panel.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/proxmoxvm/internal/adapter/driven/proxmox"
	webhandler "github.com/ericfisherdev/proxmoxvm/internal/adapter/driving/web"
	"github.com/ericfisherdev/proxmoxvm/internal/application"
	"github.com/ericfisherdev/proxmoxvm/internal/bootstrap"
	"github.com/ericfisherdev/proxmoxvm/internal/config"
	"github.com/ericfisherdev/proxmoxvm/internal/domain/model"
)

var (
	paramsFile string
	serviceID  int64
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "proxmoxvmctl",
		Short: "Run proxmoxvm module callbacks from the command line",
		Long: `proxmoxvmctl drives the same callbacks the billing panel calls,
against the database and hypervisor configured through PROXMOXVM_* variables.

EXAMPLES:
  proxmoxvmctl create --params service-42.yaml
  proxmoxvmctl suspend --service-id 42
  proxmoxvmctl bindings`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&paramsFile, "params", "p", "", "YAML file with host params (serviceid, configoption1..11, ...)")
	root.PersistentFlags().Int64Var(&serviceID, "service-id", 0, "service id, overrides the params file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		lifecycleCmd("create", "Provision a guest for the service", (*application.ModuleService).CreateAccount),
		lifecycleCmd("suspend", "Stop the service's guest", (*application.ModuleService).SuspendAccount),
		lifecycleCmd("unsuspend", "Start the service's guest", (*application.ModuleService).UnsuspendAccount),
		lifecycleCmd("terminate", "Stop and delete the service's guest", (*application.ModuleService).TerminateAccount),
		lifecycleCmd("restart", "Reboot the service's guest", (*application.ModuleService).AdminRestartVM),
		statusCmd(),
		consoleCmd(),
		bindingsCmd(),
	)

	return root
}

type lifecycleFunc func(*application.ModuleService, context.Context, model.ModuleParams) string

func lifecycleCmd(use, short string, fn lifecycleFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(paramsFile, serviceID)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), func(svc *application.ModuleService) error {
				return printResult(cmd.OutOrStdout(), fn(svc, cmd.Context(), params))
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the service's guest status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(paramsFile, serviceID)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), func(svc *application.ModuleService) error {
				res := svc.AdminGetStatus(cmd.Context(), params)
				if res.Result != model.ResultSuccess {
					return errors.New(res.Result)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), application.StatusLabel(res.Status))
				return err
			})
		},
	}
}

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Print the web console URL for the service's guest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := loadParams(paramsFile, serviceID)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), func(svc *application.ModuleService) error {
				res := svc.ServiceSingleSignOn(cmd.Context(), params)
				if !res.Success {
					return errors.New(res.ErrorMsg)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), res.RedirectTo)
				return err
			})
		},
	}
}

func bindingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bindings",
		Short: "List every service-to-guest binding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), func(svc *application.ModuleService) error {
				bindings, err := svc.ListBindings(cmd.Context())
				if err != nil {
					return err
				}
				return printBindings(cmd.OutOrStdout(), bindings)
			})
		},
	}
}

// withService builds the module service from the environment, runs fn and
// releases the database.
func withService(ctx context.Context, fn func(*application.ModuleService) error) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := stores.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	svc := application.NewModuleService(proxmox.NewFactory(), stores.Bindings, stores.Services, application.ModuleOptions{
		DefaultServer:   cfg.Server,
		Storage:         cfg.Storage,
		Bridge:          cfg.Bridge,
		TerminateSettle: cfg.TerminateSettle,
		NoticeHTML:      webhandler.RenderNotice(cfg.ClientNotice),
	}, logger)

	return fn(svc)
}

// printResult writes a callback result; anything but success is an error.
func printResult(w io.Writer, result string) error {
	if result != model.ResultSuccess {
		return errors.New(result)
	}
	_, err := fmt.Fprintln(w, result)
	return err
}

func printBindings(w io.Writer, bindings []model.VMBinding) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tVMID\tNODE\tTYPE\tCREATED")
	for _, b := range bindings {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", b.ServiceID, b.VMID, b.Node, b.Kind, b.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
