// Command taskctl manages tasks and categories on a running taskboard
// server over gRPC.
package main

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/gurkanbulca/taskboard/internal/grpcapi"
)

func main() {
	if err := newRootCmd(dialServer, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dialServer(_ context.Context, addr string) (*grpcapi.Client, func() error, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return grpcapi.NewClient(conn), conn.Close, nil
}
