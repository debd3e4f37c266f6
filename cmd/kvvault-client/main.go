// cmd/kvvault-client is a thin manual-testing client for kvvaultd's raw
// binary RPC protocol. It has no business logic of its own — each
// subcommand encodes one request frame, sends it, and prints the decoded
// response.
//
// Usage:
//
//	kvvault-client call key_value_store add_key '["s","k","v"]'  --addr 127.0.0.1:6666
//	kvvault-client call key_value_store get_key  '["s","k"]'     --addr 127.0.0.1:6666
package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kvvault/internal/codec"
)

var (
	addr    string
	timeout time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "kvvault-client",
		Short: "Raw-protocol client for kvvaultd",
	}

	root.PersistentFlags().StringVarP(&addr, "addr", "a", "127.0.0.1:6666", "kvvaultd RPC address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "connection timeout")
	root.AddCommand(callCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <service> <method> [json-args]",
		Short: "Call one RPC method and print the response",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rpcArgs []interface{}
			if len(args) == 3 {
				if err := json.Unmarshal([]byte(args[2]), &rpcArgs); err != nil {
					return fmt.Errorf("parse json args: %w", err)
				}
			}

			resp, err := call(args[0], args[1], rpcArgs)
			if err != nil {
				return err
			}
			if resp.Error != "" {
				fmt.Fprintln(os.Stderr, resp.Error)
				os.Exit(1)
			}
			prettyPrint(resp.Result)
			return nil
		},
	}
}

func call(service, method string, args []interface{}) (codec.Response, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return codec.Response{}, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	payload, err := codec.EncodeRequest(codec.Request{
		ServiceURI: service,
		Method:     method,
		Args:       args,
	})
	if err != nil {
		return codec.Response{}, fmt.Errorf("encode request: %w", err)
	}
	if err := codec.WriteFrame(conn, payload); err != nil {
		return codec.Response{}, fmt.Errorf("write frame: %w", err)
	}

	respBytes, err := codec.ReadFrame(conn)
	if err != nil {
		return codec.Response{}, fmt.Errorf("read frame: %w", err)
	}
	resp, err := codec.DecodeResponse(respBytes)
	if err != nil {
		return codec.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func prettyPrint(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}
