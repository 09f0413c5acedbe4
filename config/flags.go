package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DriverType string

const (
	ELM327    DriverType = "elm327"
	SocketCAN DriverType = "socket-can"
	Replay    DriverType = "replay"
)

type Flags struct {
	Driver          DriverType
	Addr            string
	CSVPath         string
	FaultsDB        string
	LogInterval     time.Duration
	MonitorDuration time.Duration
	Debug           bool
}

type SerialFlags struct {
	SerialPort string
	BaudRate   int
	Transcript bool
}

type SocketCANFlags struct {
	SocketCanAddr string
}

type ReplayFlags struct {
	Path string
}

type MQTTFlags struct {
	Broker         string
	Topic          string
	UpdateInterval time.Duration
}

const DEFAULT_BAUD_RATE = 38400

// GetFlags parses the command line. Every flag has a working default so the
// binary runs with no arguments; a .env file or environment variables
// (GRDIAG_*) override the defaults.
func GetFlags() (*Flags, *SerialFlags, *SocketCANFlags, *ReplayFlags, *MQTTFlags) {
	_ = godotenv.Load()

	flags := &Flags{}
	var driverStr string
	flag.StringVar(&driverStr, "driver", envOr("GRDIAG_DRIVER", "elm327"), "transport driver to talk to the vehicle (elm327, socket-can or replay)")
	flag.StringVar(&flags.Addr, "addr", envOr("GRDIAG_ADDR", ":8080"), "http listen address for the status page")
	flag.StringVar(&flags.CSVPath, "csv", envOr("GRDIAG_CSV", "2gr_log.csv"), "CSV log file path")
	flag.StringVar(&flags.FaultsDB, "faults-db", envOr("GRDIAG_FAULTS_DB", "faults.db"), "bbolt fault history path")
	flag.DurationVar(&flags.LogInterval, "log-interval", envOrDuration("GRDIAG_LOG_INTERVAL", 5*time.Second), "interval between CSV samples")
	flag.DurationVar(&flags.MonitorDuration, "monitor-duration", envOrDuration("GRDIAG_MONITOR_DURATION", 60*time.Second), "length of the VVT monitor phase before logging starts (0 skips it)")
	flag.BoolVar(&flags.Debug, "debug", false, "debug logging")

	serial := &SerialFlags{}
	flag.StringVar(&serial.SerialPort, "serial-port", envOr("GRDIAG_PORT", "auto"), "serial device path or 'auto'")
	flag.IntVar(&serial.BaudRate, "baud", envOrInt("GRDIAG_BAUD", DEFAULT_BAUD_RATE), "baud rate")
	flag.BoolVar(&serial.Transcript, "transcript", true, "record the raw adapter transcript under logs/")

	socketCAN := &SocketCANFlags{}
	flag.StringVar(&socketCAN.SocketCanAddr, "socket-can-address", envOr("GRDIAG_CAN_ADDR", "can0"), "socket CAN bus address")

	replay := &ReplayFlags{}
	flag.StringVar(&replay.Path, "replay", "", "path to a recorded transcript to replay")

	mqtt := &MQTTFlags{}
	flag.StringVar(&mqtt.Broker, "broker", envOr("GRDIAG_BROKER", ""), "MQTT broker url, empty disables publishing")
	flag.StringVar(&mqtt.Topic, "topic", envOr("GRDIAG_TOPIC", "vehicle/2gr"), "MQTT topic for snapshots")
	flag.DurationVar(&mqtt.UpdateInterval, "mqtt-interval", envOrDuration("GRDIAG_MQTT_INTERVAL", 10*time.Second), "MQTT publish interval")

	flag.Parse()

	flags.Driver = DriverType(driverStr)

	return flags, serial, socketCAN, replay, mqtt
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
