package server

import (
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ValentinKolb/objlock/lib/db"
	"github.com/ValentinKolb/objlock/lib/db/engines/maple"
	"github.com/ValentinKolb/objlock/lib/objclass"
	"github.com/ValentinKolb/objlock/lib/objlock"
	"github.com/ValentinKolb/objlock/lib/session"
	"github.com/ValentinKolb/objlock/lib/store"
	"github.com/ValentinKolb/objlock/lib/store/dstore"
	"github.com/ValentinKolb/objlock/lib/store/lstore"
	"github.com/ValentinKolb/objlock/lib/xattr"
	"github.com/ValentinKolb/objlock/rpc/common"
	"github.com/ValentinKolb/objlock/rpc/serializer"
	"github.com/ValentinKolb/objlock/rpc/transport"
	httptransport "github.com/ValentinKolb/objlock/rpc/transport/http"
	"github.com/VictoriaMetrics/metrics"
	"github.com/jonboulle/clockwork"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is one storage pool served by the RPC server: the store it
// encapsulates and the executor that runs lock class methods on its objects.
// Gate, if set, is asked before every lock call and rejects it with an error.
type serverShard struct {
	Store store.IStore
	Exec  *objclass.Executor
	Gate  func() error
}

// leaderLookup is the part of the dragonboat NodeHost the leader gate needs
type leaderLookup interface {
	GetLeaderID(shardID uint64) (leaderID uint64, term uint64, valid bool, err error)
}

// leaderGate admits calls only while this replica leads the raft shard.
// Bids are kept in memory per process, so every lock call of a replicated
// pool has to reach the same node to be ranked against the others.
func leaderGate(nh leaderLookup, shardID, replicaID uint64) func() error {
	return func() error {
		leader, term, valid, err := nh.GetLeaderID(shardID)
		switch {
		case err != nil:
			return fmt.Errorf("shard %d: %w", shardID, err)
		case !valid:
			return fmt.Errorf("shard %d has no leader", shardID)
		case leader != replicaID:
			return fmt.Errorf("shard %d is led by replica %d (term %d), not by this node", shardID, leader, term)
		}
		return nil
	}
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, *serverShard](),
		clock:      clockwork.NewRealClock(),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, *serverShard]
	adapter    IRPCServerAdapter
	clock      clockwork.Clock
	nodeHost   *dragonboat.NodeHost
	metricsSrv *http.Server
}

// handle decodes a request, routes it to its shard and encodes the response
func (s *rpcServer) handle(shardId uint64, peer transport.Peer, req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	start := time.Now()

	if shard, ok := s.shards.Load(shardId); !ok {
		respMsg = common.NewErrorResponse(objlock.RetCInvalidArgument, fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(objlock.RetCInvalidArgument, fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = s.adapter.Handle(&msg, peer, shard)
		metrics.GetOrCreateSummary(fmt.Sprintf(`objlock_rpc_request_duration_seconds{type=%q}`, msg.MsgType)).UpdateDuration(start)
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(objlock.RetCInternal, fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

func (s *rpcServer) init() error {
	if len(s.config.Shards) == 0 {
		return fmt.Errorf("no shards configured")
	}

	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", s.config.String())

	sessions, err := session.NewIssuer(session.Options{
		Secret: []byte(s.config.AuthSecret),
		TTL:    time.Duration(s.config.SessionTTLSec) * time.Second,
		Clock:  s.clock,
	})
	if err != nil {
		return err
	}

	// One ledger per process, shared by all shards
	ledger := objlock.NewBidLedger(&objlock.BidLedgerOptions{
		SweepEvery: s.config.SweepEvery,
		SweepBatch: s.config.SweepBatch,
		Clock:      s.clock,
	})
	objlock.RegisterLedgerGauge(ledger)
	s.adapter = NewLockClassServerAdapter(objlock.NewClass(ledger, s.clock), sessions)

	dbFactory := func() db.KVDB { return maple.NewMapleDB(nil) }

	// Only create the NodeHost if we have remote shards
	if s.config.HasRemoteShard() {
		s.nodeHost, err = dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
	}

	// CREATE SHARDS

	/*
		Note: A single RPC Server can serve any number of local and remote
		pools. Every pool gets its own attribute store and executor, the lock
		class and the bid ledger are shared. Bids are keyed by the pool
		qualified object id, so equal object ids in two pools stay apart.
		Replicated pools accept lock calls on the raft leader only.
	*/

	for _, shardConfig := range s.config.Shards {
		var pool store.IStore
		var gate func() error

		switch shardConfig.Type {
		case common.ShardTypeLocal:
			pool = lstore.NewLocalStore(dbFactory)
			Logger.Infof("created local pool for shard %d", shardConfig.ShardID)

		case common.ShardTypeRemote:
			if err := s.nodeHost.StartConcurrentReplica(s.config.ClusterMembers, false, dstore.CreateStateMaschineFactory(dbFactory), s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}
			pool = dstore.NewDistributedStore(s.nodeHost, shardConfig.ShardID, s.config.Timeout())
			gate = leaderGate(s.nodeHost, shardConfig.ShardID, s.config.ReplicaID)
			Logger.Infof("created replicated pool for shard %d", shardConfig.ShardID)

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}

		s.shards.Store(shardConfig.ShardID, &serverShard{
			Store: pool,
			Exec:  objclass.NewExecutor(xattr.NewAttrStore(pool), &objclass.ExecutorOptions{PoolID: shardConfig.ShardID}),
			Gate:  gate,
		})
	}

	if s.config.MetricsEndpoint != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /metrics", httptransport.MetricsHandler)
		s.metricsSrv = &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			Logger.Infof("Serving metrics on %s", s.config.MetricsEndpoint)
			if err := s.metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				Logger.Errorf("metrics endpoint failed: %v", err)
			}
		}()
	}

	Logger.Infof("objlock setup completed successfully")

	s.transport.RegisterHandler(s.handle)

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer.
// It blocks until the transport is closed.
func (s *rpcServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport, the metrics endpoint and the raft node host
func (s *rpcServer) Close() error {
	err := s.transport.Close()
	if s.metricsSrv != nil {
		_ = s.metricsSrv.Close()
	}
	if s.nodeHost != nil {
		s.nodeHost.Close()
	}
	return err
}
