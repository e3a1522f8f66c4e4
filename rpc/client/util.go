package client

import (
	"fmt"

	"github.com/ValentinKolb/dLock/lib/logger"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/transport"
)

var (
	Logger = logger.NewStdLogger("rpc", logger.LevelInfo)
)

// rpcClientAdapter bundles what every remote call needs: the connected
// transport and the codec both ends agreed on
type rpcClientAdapter struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// invokeRPCRequest performs one request/response exchange. It rejects
// responses that carry an error or whose type does not match the request.
func invokeRPCRequest(req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := transport.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	resp := &common.Message{}
	if err := serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("rpc client: failed to decode response: %s", err)
	}

	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, fmt.Errorf("rpc client: server error: %s", resp.Err)
	}

	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("rpc client: unexpected message type %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}
