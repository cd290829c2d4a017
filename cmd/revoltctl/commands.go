package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ex-revolt/internal/rest"
	"ex-revolt/pkg/revolt"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	var current *app

	root := &cobra.Command{
		Use:           "revoltctl",
		Short:         "Inspect and drive a Revolt session from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if raw := strings.TrimSpace(flags.logLevel); raw != "" {
				level, err := parseLogLevel(raw)
				if err != nil {
					return fmt.Errorf("parse --log-level: %w", err)
				}
				cfg.logLevel = level
			}
			current = newApp(cfg, cmd.ErrOrStderr(), cmd.OutOrStdout())
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (default: $"+envConfigFile+" or "+defaultConfigFilePath+")")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log_level: debug, info, warn or error")

	appOf := func() *app { return current }
	root.AddCommand(
		newListenCommand(appOf),
		newResolveCommand(appOf),
		newSendCommand(appOf),
	)

	return root
}

func newListenCommand(appOf func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Stream gateway events into the configured cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return appOf().listen(cmd.Context())
		},
	}
}

func newResolveCommand(appOf func() *app) *cobra.Command {
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve an entity from the cache, fetching it on a miss",
	}

	lookup := func(use string, short string, positional cobra.PositionalArgs, fn func(ctx context.Context, resolver *revolt.Resolver, args []string) (any, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  positional,
			RunE: func(cmd *cobra.Command, args []string) error {
				return appOf().resolve(cmd.Context(), func(ctx context.Context, resolver *revolt.Resolver) (any, error) {
					return fn(ctx, resolver, args)
				})
			},
		}
	}

	resolve.AddCommand(
		lookup("channel <id>", "Resolve a channel", cobra.ExactArgs(1),
			func(ctx context.Context, resolver *revolt.Resolver, args []string) (any, error) {
				return resolver.Channel(ctx, revolt.ChannelID(args[0]))
			}),
		lookup("server <id>", "Resolve a server", cobra.ExactArgs(1),
			func(ctx context.Context, resolver *revolt.Resolver, args []string) (any, error) {
				return resolver.Server(ctx, revolt.ServerID(args[0]))
			}),
		lookup("user <id>", "Resolve a user", cobra.ExactArgs(1),
			func(ctx context.Context, resolver *revolt.Resolver, args []string) (any, error) {
				return resolver.User(ctx, revolt.UserID(args[0]))
			}),
		lookup("member <server-id> <user-id>", "Resolve a server member", cobra.ExactArgs(2),
			func(ctx context.Context, resolver *revolt.Resolver, args []string) (any, error) {
				return resolver.Member(ctx, revolt.MemberID{Server: revolt.ServerID(args[0]), User: revolt.UserID(args[1])})
			}),
	)

	return resolve
}

func newSendCommand(appOf func() *app) *cobra.Command {
	var (
		nonce   string
		replies []string
		mention bool
	)

	cmd := &cobra.Command{
		Use:   "send <channel-id> <content>",
		Short: "Send a message to a channel",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := rest.SendMessageParams{
				Content: strings.Join(args[1:], " "),
				Nonce:   nonce,
			}
			for _, reply := range replies {
				params.Replies = append(params.Replies, revolt.ReplyData{ID: revolt.MessageID(reply), Mention: mention})
			}
			return appOf().send(cmd.Context(), revolt.ChannelID(args[0]), params)
		},
	}
	cmd.Flags().StringVar(&nonce, "nonce", "", "Idempotency nonce (default: generated ULID)")
	cmd.Flags().StringSliceVar(&replies, "reply", nil, "Message id to reply to (repeatable)")
	cmd.Flags().BoolVar(&mention, "mention", false, "Mention the authors of replied messages")

	return cmd
}
