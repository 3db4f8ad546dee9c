package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"maunium.net/go/mautrix/crypto/cryptohelper"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jklear/seance/internal/config"
	"github.com/jklear/seance/internal/matrix"
	"github.com/jklear/seance/internal/media"
	"github.com/jklear/seance/internal/state"
	"github.com/jklear/seance/internal/ui"
	"github.com/jklear/seance/internal/verification"
)

func main() {
	cfgDir := config.Dir()
	cfgPath := filepath.Join(cfgDir, "config.yaml")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config from %s: %v\n", cfgPath, err)
		fmt.Fprintf(os.Stderr, "\nCreate the config file with:\n")
		fmt.Fprintf(os.Stderr, "  mkdir -p %s\n", cfgDir)
		fmt.Fprintf(os.Stderr, "  cat > %s << 'EOF'\n", cfgPath)
		fmt.Fprintf(os.Stderr, "homeserver: https://matrix.example.org\nEOF\n")
		os.Exit(1)
	}

	// Setup logging to file; stdout belongs to the TUI.
	logPath := filepath.Join(cfgDir, "seance.log")
	logCfg := zap.NewDevelopmentConfig()
	logCfg.OutputPaths = []string{logPath}
	logCfg.ErrorOutputPaths = []string{logPath}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		logCfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	os.MkdirAll(cfgDir, 0700)

	settings, err := config.LoadSettings(config.SettingsPath())
	if err != nil {
		logger.Warn("settings unreadable, using defaults", zap.Error(err))
		settings = &config.Settings{SortMode: "activity"}
	}

	rooms := state.NewRoomList()
	rooms.SetSortMode(settings.RoomSortMode())
	rooms.SetUnreadFirst(settings.UnreadFirst)
	rooms.SetCollapsed(settings.Collapsed())

	cache := media.NewCache()
	machine := &verification.Machine{}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// syncCancel stops the sync loop on logout, separately from the
	// process-level context.
	var mu sync.Mutex
	var syncCancel context.CancelFunc
	var verifier verification.Service

	hooks := &ui.Hooks{
		Verifier: func() verification.Service {
			mu.Lock()
			defer mu.Unlock()
			return verifier
		},
		Logout: func() {
			mu.Lock()
			if syncCancel != nil {
				syncCancel()
			}
			mu.Unlock()
			if err := config.ClearSession(config.SessionPath()); err != nil {
				logger.Warn("failed to clear session", zap.Error(err))
			}
		},
		SaveView: func(sort state.SortMode, unreadFirst bool, collapsed []state.Section) {
			s := &config.Settings{SortMode: "activity", UnreadFirst: unreadFirst}
			if sort == state.SortAlphabetical {
				s.SortMode = "alphabetical"
			}
			for _, section := range collapsed {
				s.CollapsedSections = append(s.CollapsedSections, int(section))
			}
			if err := config.SaveSettings(config.SettingsPath(), s); err != nil {
				logger.Warn("failed to save settings", zap.Error(err))
			}
		},
	}

	app := ui.NewApp(cfg.Homeserver, rooms, cache, machine, hooks)

	connect := func(cctx context.Context, username, password string) (matrix.Client, error) {
		var client *matrix.MautrixClient

		session, err := config.LoadSession(config.SessionPath())
		if err != nil {
			logger.Warn("stored session unreadable", zap.Error(err))
		}
		if session != nil {
			client, err = matrix.Restore(cfg.Homeserver, matrix.Credentials{
				UserID:      session.UserID,
				DeviceID:    session.DeviceID,
				AccessToken: session.AccessToken,
			}, logger)
			if err != nil {
				return nil, err
			}
		} else {
			var creds *matrix.Credentials
			client, creds, err = matrix.Login(cctx, cfg.Homeserver, username, password, logger)
			if err != nil {
				return nil, err
			}
			if err := config.SaveSession(config.SessionPath(), &config.Session{
				UserID:      creds.UserID,
				DeviceID:    creds.DeviceID,
				AccessToken: creds.AccessToken,
			}); err != nil {
				logger.Warn("failed to save session", zap.Error(err))
			}
		}

		// Crypto stack: encrypted rooms and device verification. A
		// failure here degrades to plaintext-only operation.
		helper, err := cryptohelper.NewCryptoHelper(client.SDK(), []byte("seance"), filepath.Join(cfgDir, "crypto.db"))
		if err != nil {
			logger.Warn("crypto store unavailable", zap.Error(err))
		} else if err := helper.Init(cctx); err != nil {
			logger.Warn("crypto init failed", zap.Error(err))
		} else {
			client.SDK().Crypto = helper
			svc := matrix.NewVerificationService(client.SDK(), helper.Machine(), logger)
			if err := svc.Init(cctx); err != nil {
				logger.Warn("verification init failed", zap.Error(err))
			} else {
				mu.Lock()
				verifier = svc
				mu.Unlock()
			}
		}

		loopCtx, loopCancel := context.WithCancel(ctx)
		mu.Lock()
		syncCancel = loopCancel
		mu.Unlock()

		loop := matrix.NewSyncLoop(client, ui.NewBridge(app.Send), logger)
		go loop.Run(loopCtx)

		return client, nil
	}
	hooks.Connect = connect

	// A stored session skips the login form.
	if session, _ := config.LoadSession(config.SessionPath()); session != nil {
		go func() {
			client, err := connect(ctx, "", "")
			if err != nil {
				logger.Error("session restore failed", zap.Error(err))
				app.Send(ui.LoginFailedMsg{Err: err})
				return
			}
			app.Send(ui.ConnectedMsg{UserID: client.WhoAmI(), Client: client})
		}()
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(app.Run)

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cancel()
}
