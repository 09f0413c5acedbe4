package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"grdiag/config"
	"grdiag/csvlog"
	"grdiag/drivers"
	"grdiag/events"
	"grdiag/logger"
	"grdiag/monitor"
	"grdiag/mqtt"
	"grdiag/pids"
	"grdiag/sampler"
	"grdiag/storage"
	"grdiag/web"
)

func main() {
	flags, serialFlags, socketCANFlags, replayFlags, mqttFlags := config.GetFlags()

	if err := logger.Init(flags.Debug); err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	// Create the correct transport
	var transport drivers.Transport
	switch flags.Driver {
	case config.ELM327:
		transport = drivers.NewELM327(serialFlags)
	case config.SocketCAN:
		transport = drivers.NewSocketCAN(socketCANFlags)
	case config.Replay:
		if replayFlags.Path == "" {
			logger.Fatal("replay driver needs -replay <transcript>")
		}
		transport = drivers.NewReplay(replayFlags)
	default:
		logger.Fatal("unsupported driver type", zap.String("driver", string(flags.Driver)))
	}

	// A failed connection downgrades to disconnected sampling, it doesn't
	// abort the process.
	if err := transport.Init(); err != nil {
		logger.Error("couldn't connect, all readings will be absent", zap.Error(err))
	}
	defer func() {
		if err := transport.Close(); err != nil {
			logger.Warn("close transport", zap.Error(err))
		}
	}()

	samp := sampler.New(transport, pids.Default2GR())
	hub := events.NewHub()

	faults, err := storage.Open(flags.FaultsDB)
	if err != nil {
		logger.Warn("fault history unavailable", zap.Error(err))
		faults = nil
	} else {
		defer faults.Close()
	}

	// Status page
	server, err := web.NewServer(samp, hub)
	if err != nil {
		logger.Warn("couldn't build status page", zap.Error(err))
	} else {
		go func() {
			if err := server.Start(flags.Addr); err != nil {
				logger.Error("status page stopped", zap.Error(err))
			}
		}()
	}

	// Snapshot publisher
	if mqttFlags.Broker != "" {
		client := mqtt.NewClient(mqttFlags, samp.Latest)
		if err := client.Connect(); err != nil {
			logger.Warn("couldn't connect to mqtt broker", zap.Error(err))
		} else {
			client.StartPublishing()
			defer client.Disconnect()
			defer client.StopPublishing()
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Phase one: timed VVT health check
	if flags.MonitorDuration > 0 {
		monitor.New(samp, hub, faults).Run(ctx, flags.MonitorDuration)
	}

	// Phase two: continuous CSV logging
	csv := csvlog.New(flags.CSVPath)
	defer func() {
		if err := csv.Close(); err != nil {
			logger.Warn("close csv", zap.Error(err))
		}
	}()

	logger.Info("logging snapshots",
		zap.String("csv", flags.CSVPath),
		zap.Duration("interval", flags.LogInterval))

	ticker := time.NewTicker(flags.LogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
		}

		snapshot := samp.Sample(ctx)
		hub.Broadcast(&events.Event{Timestamp: int(time.Now().UnixMilli()), Snapshot: snapshot})
		if snapshot.Empty() {
			logger.Debug("empty snapshot, nothing to log")
			continue
		}
		if err := csv.Append(snapshot); err != nil {
			logger.Error("couldn't append to csv", zap.Error(err))
		}
	}
}
