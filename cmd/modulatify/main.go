package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cli/browser"
	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/rhysemmas/modulatify/pkg/app"
	"github.com/rhysemmas/modulatify/pkg/config"
	"github.com/rhysemmas/modulatify/pkg/spotify"
)

const statusInterval = 5 * time.Second

func main() {
	if err := exec(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func exec() error {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initialiseLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("unable to initialise logger, %w", err)
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	tray := &tray{app: a, logger: logger}

	systray.Run(func() {
		tray.setup(ctx)
		go func() {
			runErr <- a.Run(ctx)
			systray.Quit()
		}()
	}, stop)

	return <-runErr
}

func initialiseLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	return l.Sugar(), nil
}

type tray struct {
	app    *app.App
	logger *zap.SugaredLogger
}

func (t *tray) setup(ctx context.Context) {
	systray.SetTitle("Modulatify")

	mConnect := systray.AddMenuItem("Connect Spotify", "Authorise Modulatify to control playback")
	mEnabled := systray.AddMenuItemCheckbox("Hotkeys enabled", "Turn global hotkeys on or off", t.app.HotkeysEnabled())
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit Modulatify")

	t.refresh(mConnect)

	go func() {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.refresh(mConnect)
			case <-mConnect.ClickedCh:
				if err := browser.OpenURL(t.app.AuthorizationURL()); err != nil {
					t.logger.Warnw("error opening browser", "error", err)
				}
			case <-mEnabled.ClickedCh:
				enabled := !mEnabled.Checked()
				if err := t.app.SetHotkeysEnabled(enabled); err != nil {
					t.logger.Warnw("error saving hotkey state", "error", err)
				}
				if enabled {
					mEnabled.Check()
				} else {
					mEnabled.Uncheck()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (t *tray) refresh(mConnect *systray.MenuItem) {
	state := t.app.AuthState()
	systray.SetTooltip("Modulatify: " + tooltip(state))

	if state == spotify.Unauthenticated {
		mConnect.SetTitle("Connect Spotify")
	} else {
		mConnect.SetTitle("Reconnect Spotify")
	}
}

func tooltip(state spotify.AuthState) string {
	switch state {
	case spotify.Valid, spotify.Expired:
		return "connected to Spotify"
	default:
		return "not connected to Spotify"
	}
}
