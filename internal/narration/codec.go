package narration

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages are google.protobuf.Struct values: {"prompt": string} in,
// {"text": string, "provider": string} out.
const (
	narratorService = "casefiles.narrator.v1.Narrator"
	generateMethod  = "/" + narratorService + "/Generate"
)

// #region client-struct
// CodecClient calls a remote narrator service over gRPC.
type CodecClient struct {
	addr string
	conn grpc.ClientConnInterface
	cc   *grpc.ClientConn
}

// #endregion client-struct

// #region constructor
// NewCodecClient prepares a connection to the narrator at addr. The
// connection is established lazily on the first call.
func NewCodecClient(addr string) (*CodecClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &CodecClient{addr: addr, conn: conn, cc: conn}, nil
}

// NewCodecClientWithConn wraps an existing connection. Close is then the
// caller's job.
func NewCodecClientWithConn(conn grpc.ClientConnInterface) *CodecClient {
	return &CodecClient{addr: "injected", conn: conn}
}

// Close shuts down the gRPC connection if this client opened it.
func (c *CodecClient) Close() error {
	if c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// #endregion constructor

// #region generate
func (c *CodecClient) Name() string { return "codec:" + c.addr }

// Generate implements Provider.
func (c *CodecClient) Generate(ctx context.Context, prompt string) (string, error) {
	req, err := structpb.NewStruct(map[string]any{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, generateMethod, req, resp); err != nil {
		return "", fmt.Errorf("generate rpc: %w", err)
	}
	text := resp.GetFields()["text"].GetStringValue()
	if text == "" {
		return "", errors.New("generate rpc: empty text")
	}
	return text, nil
}

// #endregion generate
