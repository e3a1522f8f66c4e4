package server

import (
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ValentinKolb/dLock/lib/logger"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

var Logger = logger.NewStdLogger("rpc", logger.LevelInfo)

// NewRPCServer creates a new RPC server serving the given lease store
// It takes a config, store, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		memstore.New(nil),
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	leaseStore store.ILeaseStore,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.SetLevel(logger.ParseLevel(config.LogLevel))
	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return RPCServer{
		config:     config,
		store:      leaseStore,
		adapter:    NewLeaseStoreServerAdapter(),
		transport:  transport,
		serializer: serializer,
	}
}

type RPCServer struct {
	config     common.ServerConfig
	store      store.ILeaseStore
	adapter    IRPCServerAdapter
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Decode the request
		err := s.serializer.Deserialize(req, &msg)

		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				Err:     fmt.Sprintf("failed to deserialize request: %s", err),
			}
		} else {
			// Let the adapter handle the request
			respMsg = *s.adapter.Handle(&msg, s.store)
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			return nil
		}
		return val
	})
}

// Serve starts the RPC server
// This function will register the transport handler and start the transport layer
func (s *RPCServer) Serve() error {
	if s.store == nil {
		return fmt.Errorf("no lease store configured")
	}

	// Configure the transport layer
	s.registerTransportHandler()

	Logger.Infof("dLock setup completed successfully")

	return s.transport.Listen(s.config)
}
