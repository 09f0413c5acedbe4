package drivers

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"grdiag/config"
	"grdiag/logger"
	"grdiag/utils"
)

// USB serial bridges found on ELM327 adapters and clones
var preferredVIDs = map[string]bool{
	"1A86": true, // CH340
	"10C4": true, // CP210x
	"0403": true, // FTDI
}

// initCommands puts the adapter into a machine-friendly mode: no echo, no
// linefeeds, no spaces, no headers, auto protocol.
var initCommands = []string{"ATZ", "ATE0", "ATL0", "ATS0", "ATH0", "ATSP0"}

const readTimeout = 100 * time.Millisecond

// ELM327 talks the adapter's CR-framed ASCII command protocol over a
// serial port.
type ELM327 struct {
	*config.SerialFlags

	mu        sync.Mutex
	port      serial.Port
	connected bool

	transcript     *bufio.Writer
	transcriptFile *os.File
}

func NewELM327(serialFlags *config.SerialFlags) *ELM327 {
	return &ELM327{SerialFlags: serialFlags}
}

func (e *ELM327) Init() error {
	portName := e.SerialPort
	if portName == "auto" {
		name, err := autoSelectPort()
		if err != nil {
			return fmt.Errorf("auto-select: %w", err)
		}
		portName = name
	}

	mode := &serial.Mode{BaudRate: e.BaudRate}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return fmt.Errorf("open serial %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("set read timeout: %w", err)
	}
	e.port = port

	for _, cmd := range initCommands {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := e.command(ctx, cmd)
		cancel()
		if err != nil {
			_ = port.Close()
			return fmt.Errorf("adapter init %s: %w", cmd, err)
		}
	}

	if e.Transcript {
		if err := os.MkdirAll(LOG_DIR, 0o755); err == nil {
			filePath := utils.NextAvailableFilename(LOG_DIR, LOG_NAME, LOG_EXT)
			if f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				e.transcriptFile = f
				e.transcript = bufio.NewWriter(f)
				logger.Info("recording transcript", zap.String("path", filePath))
			}
		}
	}

	e.connected = true
	logger.Info("connected to adapter", zap.String("port", portName), zap.Int("baud", e.BaudRate))
	return nil
}

func (e *ELM327) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

func (e *ELM327) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connected = false
	if e.transcript != nil {
		_ = e.transcript.Flush()
	}
	if e.transcriptFile != nil {
		_ = e.transcriptFile.Close()
	}
	if e.port != nil {
		return e.port.Close()
	}
	return nil
}

// Query sends one request and returns the response data bytes. An
// unresponsive PID maps to ErrNoData; an unresponsive adapter flips the
// transport to disconnected.
func (e *ELM327) Query(ctx context.Context, request string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.connected {
		return nil, ErrDisconnected
	}

	raw, err := e.command(ctx, request)
	if err != nil {
		e.connected = false
		logger.Warn("adapter unresponsive, disabling transport", zap.Error(err))
		return nil, ErrDisconnected
	}

	resp := cleanResponse(raw, request)
	switch {
	case resp == "" || strings.Contains(resp, "NODATA") || resp == "?":
		return nil, ErrNoData
	case strings.Contains(resp, "UNABLETOCONNECT") || strings.Contains(resp, "CANERROR") || strings.Contains(resp, "BUSINIT:ERROR"):
		e.connected = false
		logger.Warn("lost the vehicle bus, disabling transport", zap.String("response", resp))
		return nil, ErrDisconnected
	}

	payload, err := hex.DecodeString(resp)
	if err != nil {
		return nil, fmt.Errorf("unparseable response %q to %s", resp, request)
	}

	data, err := stripEcho(request, payload)
	if err != nil {
		return nil, err
	}

	if e.transcript != nil {
		fmt.Fprintf(e.transcript, "%s %s\n", request, resp)
		_ = e.transcript.Flush()
	}

	return data, nil
}

// command writes a CR-terminated command and reads until the '>' prompt.
func (e *ELM327) command(ctx context.Context, cmd string) (string, error) {
	if _, err := e.port.Write([]byte(cmd + "\r")); err != nil {
		return "", fmt.Errorf("write %s: %w", cmd, err)
	}

	var response []byte
	buffer := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := e.port.Read(buffer)
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			// read timeout tick, keep waiting for the prompt until ctx expires
			continue
		}
		response = append(response, buffer[:n]...)
		if idx := strings.IndexByte(string(response), '>'); idx >= 0 {
			return string(response[:idx]), nil
		}
	}
}

// cleanResponse strips prompt noise down to the bare hex string.
func cleanResponse(raw, request string) string {
	s := strings.ToUpper(raw)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimPrefix(s, "SEARCHING...")
	// with ATE0 there is no echo, but clones don't always honour it
	s = strings.TrimPrefix(s, strings.ToUpper(request))
	return s
}

func autoSelectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate ports: %w", err)
	}
	// Look for the first matching adapter-ish port
	for _, p := range ports {
		if p.IsUSB && preferredVIDs[strings.ToUpper(p.VID)] {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("no obd adapter serial ports found")
}
