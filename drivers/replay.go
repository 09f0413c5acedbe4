package drivers

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"grdiag/config"
	"grdiag/logger"
)

// Replay serves responses out of a recorded adapter transcript instead of
// a live vehicle. Transcript lines are "REQUEST RESPONSEHEX" as written by
// the ELM327 driver.
type Replay struct {
	*config.ReplayFlags
	responses map[string][]byte
	connected bool
}

func NewReplay(replayFlags *config.ReplayFlags) *Replay {
	return &Replay{ReplayFlags: replayFlags}
}

func (r *Replay) Init() error {
	file, err := os.Open(r.Path)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("couldn't close transcript", zap.Error(err))
		}
	}()

	r.responses = make(map[string][]byte)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			logger.Warn("skipping malformed transcript line", zap.Int("line", lineNo))
			continue
		}
		payload, err := hex.DecodeString(fields[1])
		if err != nil {
			logger.Warn("skipping unparseable transcript line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		// last recorded response per request wins
		r.responses[strings.ToUpper(fields[0])] = payload
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	r.connected = true
	logger.Info("replaying transcript", zap.String("path", r.Path), zap.Int("requests", len(r.responses)))
	return nil
}

func (r *Replay) Connected() bool {
	return r.connected
}

func (r *Replay) Close() error {
	r.connected = false
	return nil
}

func (r *Replay) Query(_ context.Context, request string) ([]byte, error) {
	if !r.connected {
		return nil, ErrDisconnected
	}
	payload, ok := r.responses[strings.ToUpper(request)]
	if !ok {
		return nil, ErrNoData
	}
	return stripEcho(request, payload)
}
