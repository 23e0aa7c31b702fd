package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ripple-mq/ripple-chat/internal/node"
	"github.com/ripple-mq/ripple-chat/pkg/utils/config"
	"github.com/ripple-mq/ripple-chat/pkg/utils/pen"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ripple-chat [port]",
		Short: "Peer-to-peer terminal chat",
		Long: "Listens for peers on the given port (default 2504). A node started on any\n" +
			"other port first joins the session through its seed peer. Every line typed\n" +
			"on stdin is sent to all connected peers. Once stdin closes the node keeps\n" +
			"printing messages until its last peer leaves.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(v, args)
			if err != nil {
				return err
			}
			pen.InitLog(cfg.Log.Level)
			return run(cmd.Context(), cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.String("config", "config.toml", "path to the TOML config file")
	flags.IntP("port", "p", config.DefaultPort, "port to listen on")
	flags.StringP("seed", "s", config.DefaultSeed, "seed peer dialed when not on the default port")
	flags.StringP("name", "n", "", "username announced to peers")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"config", "port", "seed", "name", "log-level"} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
	return rootCmd
}

// resolveConfig layers the config file, CHAT_* environment variables, flags
// and finally the positional port argument.
func resolveConfig(v *viper.Viper, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(v.GetString("config"))
	if err != nil {
		return nil, err
	}
	if v.IsSet("port") {
		cfg.Node.Port = v.GetInt("port")
	}
	if v.IsSet("seed") {
		cfg.Node.Seed = v.GetString("seed")
	}
	if v.IsSet("name") {
		cfg.Node.Username = v.GetString("name")
	}
	if v.IsSet("log-level") {
		cfg.Log.Level = v.GetString("log-level")
	}
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", args[0])
		}
		cfg.Node.Port = port
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config) error {
	n, err := node.New(cfg, os.Stdout)
	if err != nil {
		return err
	}

	s := pen.Loader(fmt.Sprintf("Starting chat node on %s ", cfg.ListenAddr()))
	if err := n.Start(); err != nil {
		pen.Fail(s, "failed to start chat node", err)
		return err
	}
	pen.Complete(s, fmt.Sprintf("chat node listening on %s", n.Addr()))
	defer n.Stop()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = n.Run(ctx, os.Stdin)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func Execute() {
	if err := newRootCmd(viper.New()).ExecuteContext(context.Background()); err != nil {
		log.Fatal("ripple-chat exited", "err", err)
	}
}
