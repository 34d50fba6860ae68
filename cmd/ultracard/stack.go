package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ultracard"
	"github.com/aretw0/ultracard/pkg/adapters/file"
	"github.com/aretw0/ultracard/pkg/adapters/hass"
	"github.com/aretw0/ultracard/pkg/adapters/memory"
	"github.com/aretw0/ultracard/pkg/adapters/redis"
	"github.com/aretw0/ultracard/pkg/observability"
	"github.com/aretw0/ultracard/pkg/persistence/middleware"
	"github.com/aretw0/ultracard/pkg/ports"
	"github.com/aretw0/ultracard/pkg/session"
)

// stack is the wiring shared by the long-running commands.
type stack struct {
	session *ultracard.Session
	cards   *session.Manager
	metrics *observability.Metrics
	close   func()
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store-dir", "", "Store cards as JSON files in this directory (default: in memory)")
	cmd.Flags().String("redis-addr", "", "Store cards in Redis at this address (default: in memory)")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().String("redis-prefix", redis.DefaultPrefix, "Redis key prefix")
	cmd.Flags().Duration("card-ttl", 0, "Expire stored cards after this long (0 keeps them)")
	cmd.Flags().String("encryption-key", "", "Base64 AES-256 key to encrypt stored cards (default $ULTRACARD_ENCRYPTION_KEY)")
	cmd.Flags().StringSlice("fallback-key", nil, "Previous base64 keys still accepted for decryption")
	cmd.Flags().StringSlice("redact", nil, "Regexp of setting names masked before cards are stored")
}

// storeMiddleware builds the redaction and encryption layers selected by flags.
func storeMiddleware(cmd *cobra.Command) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if patterns, _ := cmd.Flags().GetStringSlice("redact"); len(patterns) > 0 {
		mw, err := middleware.NewRedactionMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}

	raw, _ := cmd.Flags().GetString("encryption-key")
	if raw == "" {
		raw = os.Getenv("ULTRACARD_ENCRYPTION_KEY")
	}
	if raw == "" {
		return mws, nil
	}
	cfg := middleware.EncryptionConfig{}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	cfg.ActiveKey = key
	fallbacks, _ := cmd.Flags().GetStringSlice("fallback-key")
	for _, f := range fallbacks {
		k, err := base64.StdEncoding.DecodeString(f)
		if err != nil {
			return nil, fmt.Errorf("invalid fallback key: %w", err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, k)
	}
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	return append(mws, mw), nil
}

func buildStack(cmd *cobra.Command, logger *slog.Logger) (*stack, error) {
	mws, err := storeMiddleware(cmd)
	if err != nil {
		return nil, err
	}
	addr, _ := cmd.Flags().GetString("redis-addr")
	dir, _ := cmd.Flags().GetString("store-dir")
	if addr != "" && dir != "" {
		return nil, fmt.Errorf("--store-dir and --redis-addr are mutually exclusive")
	}
	provider, err := providerFrom(cmd, logger)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	sess := ultracard.New(
		ultracard.WithLogger(logger),
		ultracard.WithStateProvider(provider),
		ultracard.WithLifecycleHooks(metrics.Hooks()),
		ultracard.WithLifecycleHooks(observability.LogHooks(logger)),
	)
	st := &stack{session: sess, metrics: metrics, close: sess.Close}

	// A live client reloads states in the background for as long as the stack runs.
	stopRefresh := func() {}
	if client, ok := provider.(*hass.Client); ok {
		ctx, cancel := context.WithCancel(context.WithoutCancel(cmd.Context()))
		go client.Run(ctx)
		stopRefresh = cancel
		st.close = func() {
			cancel()
			sess.Close()
		}
	}

	if addr == "" {
		var store ports.ConfigStore = memory.NewStore()
		if dir != "" {
			store = file.New(dir)
			logger.Info("Using file card store", "dir", dir)
		}
		st.cards = session.NewManager(middleware.Chain(store, mws...), sess.Editor(), sess.Validator(),
			session.WithLogger(logger))
		return st, nil
	}

	password, _ := cmd.Flags().GetString("redis-password")
	db, _ := cmd.Flags().GetInt("redis-db")
	prefix, _ := cmd.Flags().GetString("redis-prefix")
	ttl, _ := cmd.Flags().GetDuration("card-ttl")

	store := redis.New(addr, password, db, redis.WithPrefix(prefix), redis.WithTTL(ttl))
	if err := store.Client().Ping(cmd.Context()).Err(); err != nil {
		stopRefresh()
		sess.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	st.cards = session.NewManager(middleware.Chain(store, mws...), sess.Editor(), sess.Validator(),
		session.WithLocker(redis.NewLocker(store.Client(), prefix)),
		session.WithLogger(logger),
	)
	st.close = func() {
		stopRefresh()
		sess.Close()
		_ = store.Client().Close()
	}
	logger.Info("Using Redis card store", "addr", addr, "prefix", prefix)
	return st, nil
}
