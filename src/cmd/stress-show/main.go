package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"selection-translate/src/singleinstance"
)

type stressOptions struct {
	n        int
	command  string
	deadline time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-show",
		Short:         "Stress test delegation of commands to the resident instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.command, "command", string(singleinstance.CommandShow), "command each client sends")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

type counts struct {
	ok, absent, rejected, failed int32
}

func runWithOptions(opts stressOptions) error {
	command := singleinstance.Command(strings.ToUpper(strings.TrimSpace(opts.command)))
	c := stress(opts.n, opts.deadline, func(ctx context.Context) (bool, error) {
		return singleinstance.NewClient().Send(ctx, command)
	})
	fmt.Fprintf(os.Stdout, "launched=%d ok=%d absent=%d rejected=%d err=%d\n", opts.n, c.ok, c.absent, c.rejected, c.failed)
	return nil
}

// stress runs n concurrent sends and classifies their outcomes.
func stress(n int, deadline time.Duration, send func(ctx context.Context) (bool, error)) counts {
	var (
		wg sync.WaitGroup
		c  counts
	)
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), deadline)
			defer cancel()
			delegated, err := send(ctx)
			switch {
			case err != nil && delegated:
				atomic.AddInt32(&c.rejected, 1)
			case err != nil:
				atomic.AddInt32(&c.failed, 1)
			case delegated:
				atomic.AddInt32(&c.ok, 1)
			default:
				atomic.AddInt32(&c.absent, 1)
			}
		}()
	}
	wg.Wait()
	fmt.Fprintf(os.Stderr, "elapsed=%s\n", time.Since(start))
	return c
}
