package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ezpool/ezpool/pool"
	"github.com/ezpool/ezpool/worker"
)

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
)

var (
	runMode    string
	runNCPU    int
	runWorkers []string
	runTasks   string
	runWorker  string
	runTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Map a worker over a list of tasks",
	Example: `  # Serial fib over ten tasks
  ezpool run --tasks 0,1,2,3,4,5,6,7,8,9

  # Parallel across 4 local workers
  ezpool run --mode parallel --ncpu 4 --tasks 30,31,32,33

  # Distributed across two daemons
  ezpool run --mode distributed \
    --workers grpc:fib@localhost:21000,grpc:fib@localhost:21001 \
    --tasks 30,31,32,33,34`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := pool.ParseMode(runMode)
		if err != nil {
			return err
		}

		tasks, err := parseTasks(runTasks)
		if err != nil {
			return err
		}

		opts := []pool.Option{
			pool.WithMode(mode),
			pool.WithNCPU(runNCPU),
			pool.WithProgress(),
			pool.WithProgressMessage(fmt.Sprintf("%s (%s)", runWorker, mode)),
		}
		if len(runWorkers) > 0 {
			opts = append(opts, pool.WithWorkers(runWorkers...))
		}
		if runTimeout > 0 {
			opts = append(opts, pool.WithCallTimeout(runTimeout))
		}

		p, err := pool.New[int, int](opts...)
		if err != nil {
			return err
		}
		defer p.Close()

		fun, err := selectTaskFun(mode, runWorker)
		if err != nil {
			return err
		}

		results, err := p.Map(cmd.Context(), fun, tasks)
		if err != nil {
			return err
		}

		renderResults(results)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", string(pool.ModeSerial), "execution mode: serial, parallel or distributed")
	runCmd.Flags().IntVar(&runNCPU, "ncpu", 1, "worker goroutine count for parallel mode")
	runCmd.Flags().StringSliceVar(&runWorkers, "workers", nil, "worker endpoint URIs for distributed mode (grpc:name@host:port)")
	runCmd.Flags().StringVar(&runTasks, "tasks", "", "comma-separated task values (required)")
	runCmd.Flags().StringVar(&runWorker, "worker", "fib", "worker type: fib or echo")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "per-call timeout for distributed mode")
	_ = runCmd.MarkFlagRequired("tasks")
	rootCmd.AddCommand(runCmd)
}

// parseTasks splits a comma-separated task list into integers.
func parseTasks(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	tasks := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad task value %q: %w", part, err)
		}
		tasks = append(tasks, n)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks given")
	}
	return tasks, nil
}

// selectTaskFun picks the task function shape for the chosen worker type and
// mode. Distributed mode dispatches by worker type name; local modes run the
// built-in implementation directly.
func selectTaskFun(mode pool.Mode, name string) (any, error) {
	switch name {
	case "fib":
		return worker.FibWorker{}, nil
	case "echo":
		if mode == pool.ModeDistributed {
			return pool.Ref[int, int]("echo"), nil
		}
		return func(ctx context.Context, task int) (int, error) {
			return task, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown worker type %q", name)
	}
}

func renderResults(results pool.Results[int, int]) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Task", "Status", "Value", "Elapsed", "Error")

	for _, o := range results {
		status, value, errMsg := "ok", strconv.Itoa(o.Value), ""
		if !o.Ok() {
			status, value, errMsg = "failed", "", o.Err.Error()
		}
		_ = table.Append(
			strconv.Itoa(o.Index),
			strconv.Itoa(o.Task),
			status,
			value,
			o.Elapsed.Round(time.Microsecond).String(),
			errMsg,
		)
	}
	_ = table.Render()

	failed := len(results.Failed())
	if failed == 0 {
		_, _ = green.Printf("✅ %d/%d tasks succeeded\n", len(results), len(results))
		return
	}
	_, _ = red.Printf("❌ %d/%d tasks failed\n", failed, len(results))
}
