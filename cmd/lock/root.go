package lock

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ValentinKolb/objlock/cmd/util"
	"github.com/ValentinKolb/objlock/lib/objclass"
	"github.com/ValentinKolb/objlock/lib/objlock"
	"github.com/ValentinKolb/objlock/rpc/client"
	"github.com/ValentinKolb/objlock/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcLockClient *client.RPCLockClient

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:   "lock",
		Short: "Perform lock operations",
		Long: `Perform lock operations on objects of a pool.

Every invocation runs in a session. Without a ticket a new session is opened
and its ticket is printed to stderr. Pass it with --ticket (or OBJLOCK_TICKET)
to act under the same identity again, e.g. to release a lock acquired earlier.`,
		PersistentPreRunE:  setupLockClient,
		PersistentPostRunE: closeLockClient,
	}

	acquireCmd = &cobra.Command{
		Use:   "acquire [object] [name]",
		Short: "Acquire or renew a lock",
		Args:  cobra.ExactArgs(2),
		RunE:  runAcquire,
	}

	releaseCmd = &cobra.Command{
		Use:   "release [object] [name] [cookie]",
		Short: "Release a lock held by this session",
		Args:  cobra.ExactArgs(3),
		RunE:  runRelease,
	}

	breakCmd = &cobra.Command{
		Use:   "break [object] [name] [locker] [cookie]",
		Short: "Release a lock held by another locker (e.g. client.4711)",
		Args:  cobra.ExactArgs(4),
		RunE:  runBreak,
	}

	infoCmd = &cobra.Command{
		Use:   "info [object] [name]",
		Short: "Show the type, tag and lockers of a lock",
		Args:  cobra.ExactArgs(2),
		RunE:  runInfo,
	}

	listCmd = &cobra.Command{
		Use:   "list [object]",
		Short: "List the locks of an object",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}

	assertCmd = &cobra.Command{
		Use:   "assert [object] [name] [cookie]",
		Short: "Check that this session holds a lock",
		Args:  cobra.ExactArgs(3),
		RunE:  runAssert,
	}

	setCookieCmd = &cobra.Command{
		Use:   "set-cookie [object] [name] [cookie] [new-cookie]",
		Short: "Change the cookie of a lock held by this session",
		Args:  cobra.ExactArgs(4),
		RunE:  runSetCookie,
	}

	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Print the identity of this session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("locker=%s\n", rpcLockClient.Whoami())
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitEnv)

	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)
	LockCommands.AddCommand(breakCmd)
	LockCommands.AddCommand(infoCmd)
	LockCommands.AddCommand(listCmd)
	LockCommands.AddCommand(assertCmd)
	LockCommands.AddCommand(setCookieCmd)
	LockCommands.AddCommand(whoamiCmd)
	LockCommands.AddCommand(benchCmd)

	// Add common RPC flags to the lock command
	util.SetupRPCClientFlags(LockCommands)

	LockCommands.PersistentFlags().String("ticket", "", util.WrapString("Session ticket of an earlier invocation. Empty opens a new session"))

	// type and tag identify the lock for acquire, assert and set-cookie
	for _, cmd := range []*cobra.Command{acquireCmd, assertCmd, setCookieCmd} {
		cmd.Flags().String("type", "exclusive", util.WrapString("Lock type (exclusive, shared, ephemeral)"))
		cmd.Flags().String("tag", "", util.WrapString("Tag all shared lockers must agree on"))
	}

	acquireCmd.Flags().String("cookie", "", util.WrapString("Cookie of the lock entry. Empty generates a random cookie"))
	acquireCmd.Flags().Duration("duration", 30*time.Second, util.WrapString("How long the lock is held (0 for no expiration)"))
	acquireCmd.Flags().String("description", "", util.WrapString("Free text stored with the lock"))
	acquireCmd.Flags().String("renew", "", util.WrapString("Renew mode: empty (fail if held), may (renew or acquire), must (renew only)"))
	acquireCmd.Flags().Int32("bid", -1, util.WrapString("Bid amount, the lowest unexpired bid wins (exclusive locks only, negative for no bid)"))
	acquireCmd.Flags().Duration("bid-duration", 10*time.Second, util.WrapString("How long the bid stays in the ledger"))
}

// setupLockClient connects to the server and opens or resumes a session
func setupLockClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	// bench opens its own sessions
	if cmd == benchCmd {
		return nil
	}

	ticket := viper.GetString("ticket")

	var err error
	rpcLockClient, err = newClient(ticket)
	if err != nil {
		return err
	}

	if ticket == "" {
		fmt.Fprintf(os.Stderr, "ticket=%s\n", rpcLockClient.Ticket())
	}
	return nil
}

func closeLockClient(_ *cobra.Command, _ []string) error {
	if rpcLockClient != nil {
		return rpcLockClient.Close()
	}
	return nil
}

// newClient creates a lock client from the configured transport and serializer
func newClient(ticket string) (*client.RPCLockClient, error) {
	config := util.GetClientConfig()

	s, err := util.GetSerializer()
	if err != nil {
		return nil, err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return nil, err
	}

	return client.NewRPCLockClient(util.GetShardID(), *config, t, s, ticket)
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

func runAcquire(cmd *cobra.Command, args []string) error {
	typ, err := objlock.ParseLockType(viper.GetString("type"))
	if err != nil {
		return err
	}

	flags, err := parseRenew(viper.GetString("renew"))
	if err != nil {
		return err
	}

	cookie := viper.GetString("cookie")
	if cookie == "" {
		if cookie, err = objlock.NewCookie(); err != nil {
			return err
		}
	}

	op := objlock.LockOp{
		Name:        args[1],
		Type:        typ,
		Duration:    viper.GetDuration("duration"),
		Description: viper.GetString("description"),
		Flags:       flags,
		Cookie:      cookie,
		Tag:         viper.GetString("tag"),
	}
	if amount, _ := cmd.Flags().GetInt32("bid"); amount >= 0 {
		op.Bid = &objlock.Bid{Amount: amount, Duration: viper.GetDuration("bid-duration")}
	}

	if err := rpcLockClient.Lock(args[0], op); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	fmt.Printf("acquired=true locker=%s cookie=%s\n", rpcLockClient.Whoami(), cookie)
	return nil
}

func runRelease(_ *cobra.Command, args []string) error {
	if err := rpcLockClient.Unlock(args[0], args[1], args[2]); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	fmt.Println("released=true")
	return nil
}

func runBreak(_ *cobra.Command, args []string) error {
	locker, err := objclass.ParseEntityName(args[2])
	if err != nil {
		return err
	}
	if err := rpcLockClient.BreakLock(args[0], args[1], locker, args[3]); err != nil {
		return fmt.Errorf("failed to break lock: %w", err)
	}
	fmt.Println("broken=true")
	return nil
}

func runInfo(_ *cobra.Command, args []string) error {
	info, err := rpcLockClient.GetInfo(args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to get lock info: %w", err)
	}
	fmt.Print(formatInfo(info))
	return nil
}

func runList(_ *cobra.Command, args []string) error {
	names, err := rpcLockClient.ListLocks(args[0])
	if err != nil {
		return fmt.Errorf("failed to list locks: %w", err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runAssert(_ *cobra.Command, args []string) error {
	typ, err := objlock.ParseLockType(viper.GetString("type"))
	if err != nil {
		return err
	}
	if err := rpcLockClient.AssertLocked(args[0], args[1], typ, viper.GetString("tag"), args[2]); err != nil {
		return fmt.Errorf("lock is not held: %w", err)
	}
	fmt.Println("locked=true")
	return nil
}

func runSetCookie(_ *cobra.Command, args []string) error {
	typ, err := objlock.ParseLockType(viper.GetString("type"))
	if err != nil {
		return err
	}
	if err := rpcLockClient.SetCookie(args[0], args[1], typ, viper.GetString("tag"), args[2], args[3]); err != nil {
		return fmt.Errorf("failed to set cookie: %w", err)
	}
	fmt.Printf("cookie=%s\n", args[3])
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func parseRenew(mode string) (objlock.Flags, error) {
	switch strings.ToLower(mode) {
	case "", "none":
		return 0, nil
	case "may":
		return objlock.FlagMayRenew, nil
	case "must":
		return objlock.FlagMustRenew, nil
	default:
		return 0, fmt.Errorf("invalid renew mode %q (expected may or must)", mode)
	}
}

// formatInfo renders a lock record, one locker per line
func formatInfo(info objlock.LockInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "type=%s tag=%q lockers=%d\n", info.Type, info.Tag, len(info.Lockers))
	for _, id := range info.SortedLockers() {
		li := info.Lockers[id]
		expiration := "never"
		if !li.Expiration.IsZero() {
			expiration = li.Expiration.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(&sb, "  locker=%s cookie=%s expires=%s addr=%s description=%q\n",
			id.Locker, id.Cookie, expiration, li.Addr, li.Description)
	}
	return sb.String()
}
