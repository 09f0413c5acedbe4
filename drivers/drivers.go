package drivers

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	LOG_DIR  = "logs"
	LOG_NAME = "TRANSCRIPT"
	LOG_EXT  = ".log"
)

// Standard OBD-II request/response arbitration IDs.
const (
	CanIdReq = 0x7E0
	CanIdRsp = 0x7E8
)

// PosOffset is added to the request service byte in a positive response
// (0x01 -> 0x41, 0x22 -> 0x62).
const PosOffset = 0x40

var (
	// ErrDisconnected means the transport gave up on the device; callers
	// should treat every reading as absent rather than retry.
	ErrDisconnected = errors.New("transport disconnected")

	// ErrNoData means the ECU didn't answer this one request. The
	// connection itself is fine.
	ErrNoData = errors.New("no data")
)

// Transport issues a single diagnostic request and returns the response
// data bytes with the service/PID echo already stripped.
type Transport interface {
	Init() error
	Query(ctx context.Context, request string) ([]byte, error)
	Connected() bool
	Close() error
}

func requestBytes(request string) ([]byte, error) {
	b, err := hex.DecodeString(request)
	if err != nil || len(b) == 0 {
		return nil, fmt.Errorf("bad request %q", request)
	}
	return b, nil
}

// stripEcho validates the positive-response header against the request and
// returns the data bytes that follow it.
func stripEcho(request string, payload []byte) ([]byte, error) {
	req, err := requestBytes(request)
	if err != nil {
		return nil, err
	}
	if len(payload) < len(req) {
		return nil, fmt.Errorf("short response % X to %s", payload, request)
	}
	if payload[0] != req[0]+PosOffset {
		return nil, fmt.Errorf("unexpected service 0x%02X in response to %s", payload[0], request)
	}
	for i := 1; i < len(req); i++ {
		if payload[i] != req[i] {
			return nil, fmt.Errorf("response echo % X doesn't match request %s", payload[:len(req)], request)
		}
	}
	return payload[len(req):], nil
}
