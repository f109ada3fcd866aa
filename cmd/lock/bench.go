package lock

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/ValentinKolb/objlock/cmd/util"
	"github.com/ValentinKolb/objlock/lib/objlock"
	"github.com/ValentinKolb/objlock/rpc/client"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load generator: many sessions racing for one exclusive lock",
	Long: `Start a number of sessions that repeatedly race for the same exclusive lock.
A session that wins holds the lock briefly and releases it, a session that
loses retries. With --bid-duration > 0 every attempt carries a random bid.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().Int("clients", 8, util.WrapString("Number of concurrent sessions"))
	benchCmd.Flags().Int("rounds", 100, util.WrapString("Successful acquisitions per session"))
	benchCmd.Flags().Int("max-attempts", 1000, util.WrapString("Attempts per round before a session gives up"))
	benchCmd.Flags().String("object", "__bench", util.WrapString("Object to lock"))
	benchCmd.Flags().Duration("hold", time.Millisecond, util.WrapString("How long a winner holds the lock"))
	benchCmd.Flags().Duration("bid-duration", 0, util.WrapString("Duration of the random bids (0 disables bids)"))
	benchCmd.Flags().Bool("verbose", false, util.WrapString("Dump all collected metrics after the summary"))
}

// benchStats collects the results of all sessions
type benchStats struct {
	registry gometrics.Registry
	lock     gometrics.Timer     // latency of lock calls
	unlock   gometrics.Timer     // latency of unlock calls
	attempts gometrics.Histogram // attempts until a round was won
	busy     gometrics.Counter
	failed   gometrics.Counter
}

func newBenchStats() *benchStats {
	s := &benchStats{
		registry: gometrics.NewRegistry(),
		lock:     gometrics.NewTimer(),
		unlock:   gometrics.NewTimer(),
		attempts: gometrics.NewHistogram(gometrics.NewUniformSample(4096)),
		busy:     gometrics.NewCounter(),
		failed:   gometrics.NewCounter(),
	}
	_ = s.registry.Register("lock", s.lock)
	_ = s.registry.Register("unlock", s.unlock)
	_ = s.registry.Register("attempts", s.attempts)
	_ = s.registry.Register("busy", s.busy)
	_ = s.registry.Register("failed", s.failed)
	return s
}

func runBench(_ *cobra.Command, _ []string) error {
	numClients := viper.GetInt("clients")
	rounds := viper.GetInt("rounds")
	if numClients <= 0 || rounds <= 0 {
		return fmt.Errorf("clients and rounds must be positive")
	}

	fmt.Println("Lock benchmark")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Clients: %d, Rounds: %d, Bids: %v\n\n", numClients, rounds, viper.GetDuration("bid-duration") > 0)

	clients := make([]*client.RPCLockClient, 0, numClients)
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()
	for i := 0; i < numClients; i++ {
		c, err := newClient("")
		if err != nil {
			return fmt.Errorf("failed to open session %d: %w", i, err)
		}
		clients = append(clients, c)
	}

	stats := newBenchStats()
	start := time.Now()

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c objlock.IClient) {
			defer wg.Done()
			benchClient(c, rounds, stats)
		}(c)
	}
	wg.Wait()

	elapsed := time.Since(start)
	won := stats.attempts.Count()
	fmt.Printf("%d acquisitions in %s (%.0f/sec), %d busy replies, %d errors\n\n",
		won, elapsed.Round(time.Millisecond), float64(won)/elapsed.Seconds(), stats.busy.Count(), stats.failed.Count())

	printTimer("lock", stats.lock)
	printTimer("unlock", stats.unlock)
	h := stats.attempts.Snapshot()
	fmt.Printf("%-10s mean %.1f  p50 %.0f  p99 %.0f  max %d\n", "attempts", h.Mean(), h.Percentile(0.5), h.Percentile(0.99), h.Max())

	if viper.GetBool("verbose") {
		gometrics.WriteOnce(stats.registry, os.Stdout)
	}
	return nil
}

// benchClient runs the rounds of one session
func benchClient(c objlock.IClient, rounds int, stats *benchStats) {
	maxAttempts := viper.GetInt("max-attempts")
	hold := viper.GetDuration("hold")
	bidDuration := viper.GetDuration("bid-duration")

	op := objlock.LockOp{
		Name:     "bench",
		Type:     objlock.LockTypeExclusive,
		Cookie:   c.Whoami().String(),
		Duration: 10 * time.Second,
	}
	oid := viper.GetString("object")

	for round := 0; round < rounds; round++ {
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if bidDuration > 0 {
				op.Bid = &objlock.Bid{Amount: rand.Int31n(1 << 20), Duration: bidDuration}
			}

			begin := time.Now()
			err := c.Lock(oid, op)
			stats.lock.UpdateSince(begin)

			if errors.Is(err, objlock.ErrBusy) {
				stats.busy.Inc(1)
				continue
			}
			if err != nil {
				stats.failed.Inc(1)
				continue
			}

			stats.attempts.Update(int64(attempt))
			time.Sleep(hold)

			begin = time.Now()
			if err := c.Unlock(oid, op.Name, op.Cookie); err != nil {
				stats.failed.Inc(1)
			}
			stats.unlock.UpdateSince(begin)
			break
		}
	}
}

func printTimer(name string, t gometrics.Timer) {
	s := t.Snapshot()
	fmt.Printf("%-10s count %d  mean %s  p50 %s  p99 %s  max %s\n", name, s.Count(),
		time.Duration(s.Mean()), time.Duration(s.Percentile(0.5)), time.Duration(s.Percentile(0.99)), time.Duration(s.Max()))
}
