package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/aconomy-watch/internal/adapters/archive/sqlite"
	"github.com/bnema/aconomy-watch/internal/adapters/notify"
	"github.com/bnema/aconomy-watch/internal/application"
	"github.com/bnema/aconomy-watch/internal/domain"
)

const shutdownTimeout = 5 * time.Second

// sessionRuntime is one controller with its notification bus and, when enabled, the
// archive recorder subscribed to it.
type sessionRuntime struct {
	bus        *notify.Bus
	controller *application.Controller
	recorder   *application.Recorder
	archive    *sqlite.Store
	logger     zerolog.Logger
}

func (a *app) newSessionRuntime() (*sessionRuntime, error) {
	bus, err := notify.NewBus(a.logger)
	if err != nil {
		return nil, err
	}

	rt := &sessionRuntime{bus: bus, logger: a.logger}
	if a.cfg.Archive.Enabled {
		store, err := a.openArchive()
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		rt.archive = store
		rt.recorder = application.NewRecorder(store, a.clock, a.logger)
		bus.AddHandler("archive", rt.recorder.Handle)
	}

	rt.controller = application.NewController(a.dialer,
		application.WithLogger(a.logger),
		application.WithNotifier(bus),
	)
	return rt, nil
}

// run drives the controller loop and the bus while fn runs. fn starts only once the
// archive handler is subscribed; when it returns the session is stopped and pending
// archive writes are drained before everything is torn down.
func (rt *sessionRuntime) run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.controller.Run(gctx)
	})
	g.Go(func() error {
		return rt.bus.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()

		if rt.recorder != nil {
			select {
			case <-rt.bus.Running():
			case <-gctx.Done():
				return nil
			}
		}

		err := fn(gctx)
		rt.shutdown(gctx)
		return err
	})

	return g.Wait()
}

func (rt *sessionRuntime) shutdown(runCtx context.Context) {
	if runCtx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := rt.controller.Stop(ctx); err != nil && !errors.Is(err, domain.ErrControllerStopped) {
		rt.logger.Warn().Err(err).Msg("stop session")
	}
	if rt.recorder == nil {
		return
	}
	if err := rt.recorder.Drain(ctx, rt.controller.LastSeq()); err != nil {
		rt.logger.Warn().Err(err).Msg("archive may be incomplete")
	}
}

func (rt *sessionRuntime) close() error {
	var errs []error
	if err := rt.bus.Close(); err != nil {
		errs = append(errs, err)
	}
	if rt.archive != nil {
		if err := rt.archive.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
