package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"ex-revolt/internal/cache/memory"
	"ex-revolt/internal/cache/sqlite"
	"ex-revolt/internal/dispatch"
	"ex-revolt/internal/gateway"
	"ex-revolt/internal/rest"
	"ex-revolt/pkg/revolt"
)

// app carries the loaded configuration and shared collaborators of one command run.
type app struct {
	cfg    appConfig
	logger *slog.Logger
	out    io.Writer
}

func newApp(cfg appConfig, logOut io.Writer, out io.Writer) *app {
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: cfg.logLevel}))

	return &app{cfg: cfg, logger: logger, out: out}
}

// openCache builds the configured cache backend. The returned close function
// is never nil.
func (a *app) openCache(ctx context.Context) (revolt.Cache, func() error, error) {
	noop := func() error { return nil }

	switch a.cfg.cacheType {
	case cacheTypeNone:
		return revolt.NoCache(), noop, nil
	case cacheTypeMemory:
		cache := memory.New(
			memory.WithLogger(a.logger),
			memory.WithMaxEntries(a.cfg.cacheMaxEntries),
			memory.WithTTL(a.cfg.cacheTTL),
		)
		return cache, noop, nil
	case cacheTypeSQLite:
		cache, err := sqlite.Open(ctx, a.cfg.cachePath,
			sqlite.WithLogger(a.logger),
			sqlite.WithTTL(a.cfg.cacheTTL),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
		if a.cfg.cacheTTL > 0 {
			pruned, err := cache.Prune(ctx)
			if err != nil {
				_ = cache.Close()
				return nil, nil, fmt.Errorf("open cache: %w", err)
			}
			a.logger.Debug("sqlite cache pruned", "removed", pruned)
		}
		return cache, cache.Close, nil
	default:
		return nil, nil, fmt.Errorf("open cache: unsupported type %q", a.cfg.cacheType)
	}
}

func (a *app) newRESTClient() (*rest.Client, error) {
	client, err := rest.New(a.cfg.apiURL, a.cfg.credentials,
		rest.WithLogger(a.logger),
		rest.WithTimeout(a.cfg.httpTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("build rest client: %w", err)
	}

	return client, nil
}

func (a *app) newResolver(cache revolt.Cache) (*revolt.Resolver, error) {
	client, err := a.newRESTClient()
	if err != nil {
		return nil, err
	}
	resolver, err := revolt.NewResolver(client, revolt.WithCache(cache))
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}

	return resolver, nil
}

// listen streams gateway events into the cache until ctx ends or the server
// closes the connection.
func (a *app) listen(ctx context.Context) (err error) {
	cache, closeCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeCache())
	}()

	dispatcherOptions := []dispatch.Option{dispatch.WithLogger(a.logger)}
	if a.cfg.strictOrphans {
		dispatcherOptions = append(dispatcherOptions, dispatch.WithStrictOrphans())
	}
	dispatcher := dispatch.New(cache, dispatcherOptions...)
	if err := dispatcher.Handle("log", func(_ context.Context, event revolt.InboundEvent) error {
		a.logger.Info("event received", "type", event.Type())
		return nil
	}); err != nil {
		return err
	}
	if err := dispatch.On(dispatcher, "ready", func(_ context.Context, ready revolt.ReadyEvent) error {
		a.logger.Info("session ready",
			"users", len(ready.Users),
			"servers", len(ready.Servers),
			"channels", len(ready.Channels),
			"members", len(ready.Members),
		)
		return nil
	}); err != nil {
		return err
	}

	gatewayOptions := []gateway.Option{
		gateway.WithLogger(a.logger),
		gateway.WithPingInterval(a.cfg.pingInterval),
		gateway.WithHandshakeTimeout(a.cfg.handshakeTimeout),
	}
	if a.cfg.strictDecode {
		gatewayOptions = append(gatewayOptions, gateway.WithStrictDecode())
	}
	conn, err := gateway.Dial(ctx, a.cfg.wsURL, gatewayOptions...)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Authenticate(ctx, a.cfg.credentials.AuthEvent()); err != nil {
		return err
	}
	a.logger.Info("gateway authentication sent", "url", a.cfg.wsURL)

	if err := conn.Run(ctx, dispatcher.Dispatch); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if stats, ok := cache.(interface{ Stats() map[revolt.EntityKind]int }); ok {
		a.logger.Info("listen finished", "cached", stats.Stats())
	}

	return nil
}

// resolve runs lookup through a resolver bound to the configured cache and
// prints the entity as JSON.
func (a *app) resolve(ctx context.Context, lookup func(context.Context, *revolt.Resolver) (any, error)) (err error) {
	cache, closeCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeCache())
	}()

	resolver, err := a.newResolver(cache)
	if err != nil {
		return err
	}
	entity, err := lookup(ctx, resolver)
	if err != nil {
		return err
	}

	return a.printJSON(entity)
}

func (a *app) send(ctx context.Context, channel revolt.ChannelID, params rest.SendMessageParams) error {
	client, err := a.newRESTClient()
	if err != nil {
		return err
	}
	message, err := client.SendMessage(ctx, channel, params)
	if err != nil {
		return err
	}
	a.logger.Debug("message sent", "channel", channel, "id", message.ID, "nonce", params.Nonce)

	return a.printJSON(message)
}

func (a *app) printJSON(value any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("print result: %w", err)
	}

	return nil
}
