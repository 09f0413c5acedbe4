package drivers

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
	"go.uber.org/zap"

	"grdiag/config"
	"grdiag/logger"
)

const defaultRespTimeout = 500 * time.Millisecond

// SocketCAN sends requests as single-frame ISO-TP on 0x7E0 and matches
// responses on 0x7E8. Every PID in the registry fits a single frame, so
// flow control is never needed.
type SocketCAN struct {
	*config.SocketCANFlags

	mu        sync.Mutex
	conn      net.Conn
	recv      *socketcan.Receiver
	tx        *socketcan.Transmitter
	connected bool
}

func NewSocketCAN(flags *config.SocketCANFlags) *SocketCAN {
	return &SocketCAN{SocketCANFlags: flags}
}

func (s *SocketCAN) Init() error {
	conn, err := socketcan.DialContext(context.Background(), "can", s.SocketCanAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.SocketCanAddr, err)
	}
	s.conn = conn
	s.recv = socketcan.NewReceiver(conn)
	s.tx = socketcan.NewTransmitter(conn)
	s.connected = true
	logger.Info("connected to can bus", zap.String("interface", s.SocketCanAddr))
	return nil
}

func (s *SocketCAN) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *SocketCAN) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SocketCAN) Query(ctx context.Context, request string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrDisconnected
	}

	req, err := requestBytes(request)
	if err != nil {
		return nil, err
	}
	if len(req) > 7 {
		return nil, fmt.Errorf("request %s doesn't fit a single frame", request)
	}

	var frame can.Frame
	frame.ID = CanIdReq
	frame.Length = 8
	frame.Data[0] = byte(len(req)) // single-frame PCI
	copy(frame.Data[1:], req)

	if err := s.tx.TransmitFrame(ctx, frame); err != nil {
		s.connected = false
		logger.Warn("can transmit failed, disabling transport", zap.Error(err))
		return nil, ErrDisconnected
	}

	deadline := time.Now().Add(defaultRespTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = s.conn.SetReadDeadline(deadline)
	defer s.conn.SetReadDeadline(time.Time{})

	for s.recv.Receive() {
		rsp := s.recv.Frame()
		if rsp.ID != CanIdRsp {
			continue
		}
		pci := rsp.Data[0]
		if pci&0xF0 != 0 {
			return nil, fmt.Errorf("multi-frame response to %s not supported", request)
		}
		n := int(pci)
		if n == 0 || n > 7 {
			continue
		}
		payload := make([]byte, n)
		copy(payload, rsp.Data[1:1+n])
		return stripEcho(request, payload)
	}

	if err := s.recv.Err(); err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			// the receiver stays stopped after an error, start a fresh one
			s.recv = socketcan.NewReceiver(s.conn)
			return nil, ErrNoData
		}
		s.connected = false
		logger.Warn("can receive failed, disabling transport", zap.Error(err))
		return nil, ErrDisconnected
	}
	return nil, ErrNoData
}
