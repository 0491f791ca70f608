package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/stockbot/core/config"
	coretelegram "github.com/m3rciful/stockbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed  bool
	started bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			a.started = true
			return nil
		},
	}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func options(t *testing.T, app *fakeApp) Options {
	t.Helper()
	return Options{
		ConfigEnvVar:      "STOCKBOT_TEST_CONFIG",
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{filepath.Join(t.TempDir(), "absent.env")},
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, o coretelegram.RunOptions) error {
			if err := o.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return o.OnStop(ctx, coretelegram.Runtime{})
		},
	}
}

func TestRunChainsHooksAndClosesApp(t *testing.T) {
	app := &fakeApp{}
	if err := Run(options(t, app)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !app.started {
		t.Fatal("app OnStart hook was not chained")
	}
	if !app.closed {
		t.Fatal("app was not closed")
	}
}

func TestRunPassesConfigPathFromEnv(t *testing.T) {
	t.Setenv("STOCKBOT_TEST_CONFIG", "/etc/stockbot.yaml")
	var got string
	opts := options(t, &fakeApp{})
	opts.LoadConfig = func(path string) (ConfigCarrier, error) {
		got = path
		return carrier{cfg: &coreconfig.Config{}}, nil
	}
	if err := Run(opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "/etc/stockbot.yaml" {
		t.Fatalf("config path = %q", got)
	}
}

func TestRunFailsOnBootstrapError(t *testing.T) {
	boom := errors.New("db down")
	opts := options(t, &fakeApp{})
	opts.Bootstrap = func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom }
	if err := Run(opts); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
