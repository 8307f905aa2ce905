package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"selection-translate/src/clipboard"
	"selection-translate/src/config"
	"selection-translate/src/control"
	"selection-translate/src/eventloop"
	"selection-translate/src/gui"
	"selection-translate/src/hotkey"
	"selection-translate/src/input"
	"selection-translate/src/logutil"
	"selection-translate/src/notification"
	"selection-translate/src/overlay"
	"selection-translate/src/runtimeinit"
	"selection-translate/src/session"
	"selection-translate/src/singleinstance"
	"selection-translate/src/tray"
	"selection-translate/src/worker"
)

const appID = "com.selectiontranslate.app"

type mainOptions struct {
	envPath     string
	profilePath string
}

func main() {
	opts := &mainOptions{}
	if err := newRootCmd(opts).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "selection-translate",
		Short:         "Translate selected text with a local or hosted model",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*opts)
		},
	}
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to .env file")
	cmd.Flags().StringVar(&opts.profilePath, "profile", "", "Path to the profile file (API key, base URL, prompt)")
	return cmd
}

// delegateToResident asks an already running instance to show its settings
// window. It reports whether one answered, even if the answer was an error.
func delegateToResident(ctx context.Context, client singleinstance.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	delegated, err := client.Send(ctx, singleinstance.CommandShow)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delegation error: %v\n", err)
	}
	return delegated
}

// preloadConfig loads .env so SELECTION_TRANSLATE_PORT_* apply before the
// resident scan. Logging is not set up yet, so failures go to w; Bootstrap
// reports the same error again.
func preloadConfig(opts config.LoadOptions, w io.Writer) {
	if _, err := config.LoadWithOptions(opts); err != nil {
		fmt.Fprintf(w, "Config pre-load error: %v\n", err)
	}
}

func run(opts mainOptions) error {
	enableDPIAwareness()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadOpts := config.LoadOptions{EnvPathOverride: opts.envPath, ProfilePathOverride: opts.profilePath}
	preloadConfig(loadOpts, os.Stderr)
	if delegateToResident(ctx, singleinstance.NewClient()) {
		fmt.Println("selection-translate is already running; opened its settings window")
		return nil
	}

	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:   loadOpts,
		SetupLogging:  logutil.Setup,
		InitClipboard: true,
		PingTimeout:   2 * time.Second,
	})
	if err != nil {
		notification.ShowBlockingError("Selection Translate", fmt.Sprintf("Startup failed: %v", err))
		return err
	}
	defer rt.Close()

	cfg := rt.Config
	logMonitorConfiguration()
	portStart, portEnd := singleinstance.PortRange()
	zap.S().Infof("Resident port range %d-%d", portStart, portEnd)
	zap.S().Infof("Selection Translate initialized, hotkey %s, model %s", cfg.Hotkey, rt.Settings.Model)

	a := app.NewWithID(appID)
	a.SetIcon(tray.Icon)

	overlayWin := overlay.New(a, overlay.Options{FontSize: cfg.FontSize})
	settingsWin := a.NewWindow(gui.WindowTitle)
	panel := control.New(rt.Settings, rt.Store, rt.Models, overlayWin, gui.NewDialogs(settingsWin))
	sw := gui.NewSettingsWindow(ctx, settingsWin, panel, cfg.Hotkey)

	sess := session.New(clipboard.NewSystemBridge(cfg.ClipboardSettle()), panel, rt.Backend, session.Options{
		Timeout: cfg.RequestTimeout(),
	})
	loop := eventloop.New(sess, worker.New(cfg.Workers, cfg.QueueSize), overlayWin, eventloop.Options{
		Server:      singleinstance.NewServer(),
		OnShowPanel: sw.Show,
	})

	hook := hotkey.New()
	watcher := input.New(input.Options{
		Hotkey:        cfg.Hotkey,
		HoldThreshold: cfg.HoldThreshold(),
		TriggerDelay:  cfg.TriggerDelay(),
	}, func(tr input.Trigger) {
		if !loop.Post(tr) {
			zap.S().Warnf("input: %s trigger dropped, loop busy", tr)
		}
	})
	if err := watcher.Attach(hook); err != nil {
		notification.ShowBlockingError("Selection Translate", err.Error())
		return err
	}

	trayIcon, _ := tray.Install(a, tray.Actions{
		ShowSettings:        sw.Show,
		ToggleAutoTranslate: func() { panel.ToggleAutoTranslate() },
		Quit:                a.Quit,
	})
	panel.Observe(func(st control.State) { trayIcon.SetAutoTranslate(st.AutoTranslate) })

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hook.Start(gctx) })
	g.Go(func() error {
		if err := loop.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	// Not part of the group: after a.Run returns nothing drains fyne.Do.
	go func() {
		<-gctx.Done()
		fyne.Do(a.Quit)
	}()

	sw.Show()
	a.Run()

	cancel()
	if err := g.Wait(); err != nil {
		zap.S().Errorf("shutdown: %v", err)
		return err
	}
	zap.S().Infof("Selection Translate stopped")
	return nil
}
