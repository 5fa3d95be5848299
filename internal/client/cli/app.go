package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/tourcheck/internal/client/client"
	"github.com/dmitrijs2005/tourcheck/internal/client/config"
	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"github.com/dmitrijs2005/tourcheck/internal/client/services"
	"github.com/dmitrijs2005/tourcheck/internal/filex"
	"github.com/dmitrijs2005/tourcheck/internal/logging"
)

// App is the interactive client: one engine, one terminal.
type App struct {
	config  *config.Config
	engine  *services.Engine
	watcher *client.Watcher
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	closers []io.Closer

	interactive bool
	// view is the last listing shown, so commands can address rows by number.
	view []models.Passenger
}

// NewApp wires the local store, the remote gateway and the engine from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	a := &App{config: c, reader: bufio.NewReader(os.Stdin), out: os.Stdout}
	a.interactive = isTerminal(int(os.Stdin.Fd()))

	var logOut io.Writer = os.Stderr
	if c.LogFile != "" && c.LogFile != "-" {
		if _, err := filex.EnsureParentDir(c.LogFile); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.closers = append(a.closers, f)
		logOut = f
	}
	a.log = logging.NewTextLogger(logOut, c.LogLevel)

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		a.log.Error(ctx, "error initializing database", "error", err)
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, db)

	repos := client.NewRepositories(db)
	store := services.NewLocalStore(repos, a.log)

	var conn client.Connectivity = client.AlwaysOnline{}
	prober, err := a.newProber(c)
	if err != nil {
		a.close()
		return nil, err
	}
	if prober != nil {
		a.watcher = client.NewWatcher(prober, c.OnlineCheckInterval, a.log)
		conn = a.watcher
	}

	gw, err := client.NewHTTPGateway(c.RemoteURL, client.GatewayOptions{
		RequestTimeout: c.RequestTimeout,
		PollInterval:   c.PollInterval,
		Connectivity:   conn,
		Logger:         a.log,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.engine = services.NewEngine(services.EngineOptions{
		Gateway:       gw,
		Store:         store,
		Connectivity:  conn,
		Logger:        a.log,
		RetryInterval: c.RetryInterval,
	})
	return a, nil
}

func (a *App) newProber(c *config.Config) (client.Prober, error) {
	switch c.Probe {
	case config.ProbeNone:
		return nil, nil
	case config.ProbeGRPC:
		p, err := client.NewGRPCHealthProber(c.GRPCHealthAddr, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create health prober: %w", err)
		}
		a.closers = append(a.closers, p)
		return p, nil
	default:
		return client.HTTPProber{URL: c.RemoteURL}, nil
	}
}

// Run restores the last active tour and blocks in the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		a.engine.Close()
		a.close()
	}()

	if a.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.watcher.Run(ctx)
		}()
	}

	printlnFn("Welcome to tourcheck (type 'help' for commands)")
	restored, err := a.engine.Restore(ctx)
	if err != nil {
		a.log.Warn(ctx, "failed to restore active tour", "error", err)
	}
	if restored {
		_ = a.Status(ctx)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchChanges(ctx)
	}()

	runREPL(ctx, a, a.prompt, a.reader)
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// watchChanges announces lists adopted from the remote store.
func (a *App) watchChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.engine.Changes():
			st := a.engine.Status()
			printlnFn(fmt.Sprintf("* %s updated remotely (%d passengers, %d checked)",
				st.Code, st.Stats.Total, st.Stats.Checked))
		}
	}
}

func (a *App) hasTour() bool {
	return a.engine.Status().State != services.StateUnloaded
}

func (a *App) prompt() string {
	if !a.interactive {
		return ""
	}
	st := a.engine.Status()
	if st.State == services.StateUnloaded {
		return "tc> "
	}
	return fmt.Sprintf("tc (%s %s %d/%d)> ", st.Code, st.State, st.Stats.Checked, st.Stats.Total)
}
