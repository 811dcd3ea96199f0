package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"zenoh-go/core/session"
	"zenoh-go/core/wire"
	"zenoh-go/core/zenoh"
	"zenoh-go/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{Use: "zenohc"}
	rootCmd.AddCommand(pubCmd(), subCmd(), getCmd(), queryableCmd(), scoutCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func commonFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("connect", nil, "tcp/host:port locators to dial")
	cmd.Flags().String("mode", "client", "client or peer")
	cmd.Flags().Bool("multicast", false, "join the scouting multicast group (peer mode)")
}

func buildConfig(cmd *cobra.Command) config.Config {
	cfg := config.Default()
	mode, _ := cmd.Flags().GetString("mode")
	cfg.Mode = config.Mode(mode)
	connect, _ := cmd.Flags().GetStringSlice("connect")
	cfg.Connect = connect
	multicast, _ := cmd.Flags().GetBool("multicast")
	cfg.Scouting.Multicast.Enabled = multicast
	return cfg
}

func mustOpen(cmd *cobra.Command) *session.Session {
	sess, err := zenoh.Open(buildConfig(cmd))
	if err != nil {
		fmt.Fprintln(os.Stderr, "zenohc: open session:", err)
		os.Exit(-1)
	}
	return sess
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}

func pubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pub <keyexpr> <value>",
		Short: "put a value on a key expression",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			encoding, _ := cmd.Flags().GetString("encoding")
			sess := mustOpen(cmd)
			defer sess.Close()
			if err := sess.Put(args[0], []byte(args[1]), encoding); err != nil {
				fmt.Fprintln(os.Stderr, "zenohc: put:", err)
				os.Exit(1)
			}
			fmt.Printf("put %q = %q\n", args[0], args[1])
		},
	}
	commonFlags(cmd)
	cmd.Flags().String("encoding", "text/plain", "payload encoding")
	return cmd
}

func subCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sub <keyexpr>",
		Short: "subscribe to a key expression and print samples",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sess := mustOpen(cmd)
			defer sess.Close()
			handle, err := sess.DeclareSubscriber(args[0], func(s session.Sample) {
				kind := "PUT"
				if !s.IsPut {
					kind = "DELETE"
				}
				fmt.Printf(">> [%s] %s: %s\n", kind, s.KeyExpr, string(s.Payload))
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "zenohc: declare subscriber:", err)
				os.Exit(1)
			}
			defer handle.Undeclare()
			fmt.Printf("subscribed to %q, ctrl-c to stop\n", args[0])
			waitForSignal()
		},
	}
	commonFlags(cmd)
	return cmd
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <selector>",
		Short: "query matching queryables and print replies",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			timeoutMs, _ := cmd.Flags().GetInt("timeout")
			sess := mustOpen(cmd)
			defer sess.Close()
			replies, err := sess.GetCollect(args[0], session.GetOptions{
				Target:        wire.TargetBestMatching,
				Consolidation: wire.ConsolidationLatest,
				Timeout:       time.Duration(timeoutMs) * time.Millisecond,
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "zenohc: get:", err)
				os.Exit(1)
			}
			for _, r := range replies {
				fmt.Printf(">> %s: %s\n", r.KeyExpr, string(r.Payload))
			}
		},
	}
	commonFlags(cmd)
	cmd.Flags().Int("timeout", 2000, "query timeout in milliseconds")
	return cmd
}

func queryableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queryable <keyexpr>",
		Short: "serve queries on a key expression with a fixed reply",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			value, _ := cmd.Flags().GetString("value")
			sess := mustOpen(cmd)
			defer sess.Close()
			handle, err := sess.DeclareQueryable(args[0], true, func(q *session.Query) {
				_ = q.Reply(q.KeyExpr(), []byte(value), "text/plain")
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "zenohc: declare queryable:", err)
				os.Exit(1)
			}
			defer handle.Undeclare()
			fmt.Printf("serving %q, ctrl-c to stop\n", args[0])
			waitForSignal()
		},
	}
	commonFlags(cmd)
	cmd.Flags().String("value", "pong", "reply payload")
	return cmd
}

func scoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scout",
		Short: "broadcast a scout and print discovered participants",
		Run: func(cmd *cobra.Command, args []string) {
			timeoutMs, _ := cmd.Flags().GetInt("timeout")
			cfg := config.Default()
			cfg.Scouting.Multicast.Enabled = true
			hellos, err := zenoh.Scout(cfg, time.Duration(timeoutMs)*time.Millisecond)
			if err != nil {
				fmt.Fprintln(os.Stderr, "zenohc: scout:", err)
				os.Exit(1)
			}
			for _, h := range hellos {
				fmt.Printf(">> zid=%x whatami=%d locators=%v\n", h.ZID.Slice(), h.What, h.Locators)
			}
		},
	}
	cmd.Flags().Int("timeout", 1000, "scouting window in milliseconds")
	return cmd
}
