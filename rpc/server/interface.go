package server

import (
	"github.com/ValentinKolb/objlock/rpc/common"
	"github.com/ValentinKolb/objlock/rpc/transport"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request for a shard and returns a response.
	// peer is the remote end as seen by the transport.
	// If an error occurs, it should be set in the response
	Handle(req *common.Message, peer transport.Peer, shard *serverShard) (resp *common.Message)
}
