package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/comigor/magic8ball-go/internal/agent"
	"github.com/comigor/magic8ball-go/internal/classify"
	"github.com/comigor/magic8ball-go/internal/config"
	"github.com/comigor/magic8ball-go/internal/format"
	"github.com/comigor/magic8ball-go/internal/logger"
	"github.com/comigor/magic8ball-go/internal/transport"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
)

func main() {
	root := &cobra.Command{
		Use:           "magic8ball",
		Short:         "Magic 8 Ball agent for the XMTP network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				os.Setenv("CONFIG_PATH", configPath)
			}
		},
		RunE: runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ./config.yaml)")

	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(askCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		logger.L.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig(logOut io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format, logOut)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Join the network and answer direct messages (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	if err := cfg.ValidateTransport(); err != nil {
		return err
	}

	inboxID, err := transport.Address(cfg.XMTP.WalletKey)
	if err != nil {
		return fmt.Errorf("invalid xmtp.wallet_key: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := cfg.XMTP.DBPath
	if dbPath == "" {
		dbPath = transport.DefaultDBPath(cfg.XMTP.Env, inboxID)
	}
	store, err := transport.OpenStore(dbPath, cfg.XMTP.DBEncryptionKey)
	if err != nil {
		return err
	}
	defer store.Close()

	answerer, label, err := buildAnswerer(ctx, cfg)
	if err != nil {
		return err
	}

	relay, err := transport.DialRelay(ctx, transport.RelayOptions{
		URL:     cfg.XMTP.RelayURL,
		Env:     cfg.XMTP.Env,
		InboxID: inboxID,
		Store:   store,
	})
	if err != nil {
		return err
	}
	defer relay.Close()

	formatter := format.New(format.Identity{Address: inboxID, Env: cfg.XMTP.Env, PoweredBy: label}, cfg.HelpCommand)
	a := agent.New(relay, classify.New(cfg.HelpCommand), answerer, formatter)

	logger.L.Info("🔮 Magic 8 Ball is online",
		"address", inboxID,
		"env", cfg.XMTP.Env,
		"chat", transport.ChatURL(inboxID),
		"answer_mode", cfg.AnswerMode)

	return a.Run(ctx)
}

func chatCmd() *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent on stdin/stdout without joining the network",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := transport.OpenStore(":memory:", "")
			if err != nil {
				return err
			}
			defer store.Close()

			answerer, label, err := buildAnswerer(ctx, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			mem := transport.NewMemory("local-agent", store, transport.WithOnSend(func(m transport.Message) {
				fmt.Fprintf(out, "%s\n\n", m.Content)
			}))
			formatter := format.New(format.Identity{Address: mem.InboxID(), Env: "local console", PoweredBy: label}, cfg.HelpCommand)
			a := agent.New(mem, classify.New(cfg.HelpCommand), answerer, formatter)

			go func() {
				defer mem.Close()
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					if _, err := mem.Deliver(ctx, sender, scanner.Text(), transport.ContentTypeText); err != nil {
						return
					}
				}
			}()

			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&sender, "as", "console", "sender id used for your messages")
	return cmd
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(os.Stderr)
			if err != nil {
				return err
			}
			answerer, label, err := buildAnswerer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			resp, err := answerer.Answer(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			text, err := format.New(format.Identity{PoweredBy: label}, cfg.HelpCommand).Format(resp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "magic8ball %s\n", version)
		},
	}
}
