package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/objlock/cmd/lock"
	"github.com/ValentinKolb/objlock/cmd/serve"
	"github.com/ValentinKolb/objlock/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "objlock",
		Short: "advisory object locks",
		Long: fmt.Sprintf(`objlock (v%s)

Advisory locks on objects, written in Go. Clients acquire named exclusive or
shared locks with cookies and expirations, a bid ledger admits the lowest
bidder when several clients race for an exclusive lock. Lock records live in
the attributes of the objects, in memory or replicated with RAFT.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of objlock",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("objlock v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (http, tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
