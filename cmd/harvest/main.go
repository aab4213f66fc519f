package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LJTian/NewsHarvest/internal/config"
	"github.com/LJTian/NewsHarvest/internal/logger"
	"github.com/LJTian/NewsHarvest/internal/pipeline"
	"github.com/LJTian/NewsHarvest/internal/scheduler"
	"github.com/LJTian/NewsHarvest/internal/storage"
	"github.com/LJTian/NewsHarvest/internal/tasks"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// 命令行入口：手动触发整条任务链或单个任务，适合本地调试与一次性补采
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "harvest",
		Short:        "Harvest news articles into versioned CSV datasets",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newTasksCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [task...]",
		Short: "Run the whole task chain, or only the named tasks in the given order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := logger.Init(cfg.LogLevel); err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner, err := buildRunner(cfg)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				s, err := scheduler.New(cfg.CronSpec, runner.Tasks(), cfg.TaskRetries, cfg.TaskRetryDelay)
				if err != nil {
					return fmt.Errorf("init scheduler failed: %w", err)
				}
				err = s.RunOnce(ctx)
				renderReports(cmd.OutOrStdout(), runner.Reports())
				return err
			}

			for _, name := range args {
				if err := runner.Run(ctx, name); err != nil {
					renderReports(cmd.OutOrStdout(), runner.Reports())
					return err
				}
			}
			renderReports(cmd.OutOrStdout(), runner.Reports())
			return nil
		},
	}
}

func newTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List task names in dependency order",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := tasks.NewRunnerFromConfig(config.Load())
			if err != nil {
				return err
			}
			for _, t := range runner.Tasks() {
				fmt.Fprintln(cmd.OutOrStdout(), t.Name)
			}
			return nil
		},
	}
}

// buildRunner 配置了 POSTGRES_DSN 时同时写入数据库镜像
func buildRunner(cfg *config.Config) (*tasks.Runner, error) {
	var opts []tasks.Option
	if cfg.PostgresDSN != "" {
		store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("init store failed: %w", err)
		}
		opts = append(opts, tasks.WithMirror(store))
	}
	return tasks.NewRunnerFromConfig(cfg, opts...)
}

func renderReports(w io.Writer, reports []*pipeline.Report) {
	if len(reports) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Discovered", "Saved", "Failed", "Empty", "Duration"})
	for _, r := range reports {
		t.AppendRow(table.Row{r.Source, r.Discovered, r.Saved, r.Failed, r.Empty, r.Duration().Round(time.Millisecond)})
	}
	t.Render()
}
