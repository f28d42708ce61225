// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command edgenode is a minimal demonstration host: it reads a
// config.json describing a Sparkplug group/edge-node identity and a
// broker rotation, attaches one example metric (uptime_seconds), brings a
// Node online, and republishes changed metrics on a fixed interval until
// killed.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgesparkplug/edge-client/internal/config"
	"github.com/edgesparkplug/edge-client/internal/scheduler"
	"github.com/edgesparkplug/edge-client/pkg/log"
	"github.com/edgesparkplug/edge-client/pkg/mqtt"
	"github.com/edgesparkplug/edge-client/pkg/sparkplug"
	"github.com/edgesparkplug/edge-client/pkg/sparkplugmetrics"
)

func main() {
	cliInit()
	log.SetLogLevel(flagLevel)

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := config.Init(flagConfigFile, flagEnvFile); err != nil {
		log.Fatal(err)
	}
	cfg := config.Keys

	brokers := make([]sparkplug.TransportOptions, len(cfg.Brokers))
	for i, b := range cfg.Brokers {
		opts := sparkplug.TransportOptions{
			BrokerURL:      b.URL,
			ClientID:       b.ClientID,
			Username:       b.Username,
			Password:       b.Password,
			KeepAlive:      b.KeepAlive(),
			ConnectTimeout: b.ConnectTimeout(),
		}
		if tlsCfg, err := brokerTLSConfig(b); err != nil {
			log.Fatalf("broker %s: %s", b.URL, err.Error())
		} else if tlsCfg != nil {
			opts.TLSConfig = tlsCfg
		}
		brokers[i] = opts
	}

	reg := prometheus.NewRegistry()
	metricsReg := sparkplugmetrics.New(reg, cfg.GroupID, cfg.EdgeNodeID)

	newTransport := func() sparkplug.Transport {
		return mqtt.New("mqtt")
	}

	var nodeOpts []sparkplug.NodeOption
	if !cfg.ProvideBdSeq {
		nodeOpts = append(nodeOpts, sparkplug.WithoutBdSeq())
	}
	if !cfg.ProvideControls {
		nodeOpts = append(nodeOpts, sparkplug.WithoutControls())
	}
	if cfg.Uint32InLong {
		nodeOpts = append(nodeOpts, sparkplug.WithU32InLong())
	}
	if cfg.StrictSchema {
		nodeOpts = append(nodeOpts, sparkplug.WithStrictSchema())
	}
	if cfg.RebirthPollIntervalSeconds > 0 {
		nodeOpts = append(nodeOpts, sparkplug.WithRebirthPollInterval(cfg.RebirthPollInterval()))
	}
	nodeOpts = append(nodeOpts, sparkplug.WithMetricsRegistry(metricsReg))

	node, err := sparkplug.NewNode(cfg.GroupID, cfg.EdgeNodeID, brokers, newTransport, nodeOpts...)
	if err != nil {
		log.Fatal(err)
	}

	uptime, err := sparkplug.NewMetricInferred("uptime_seconds", int64(0))
	if err != nil {
		log.Fatal(err)
	}
	if err := node.AddMetric(uptime); err != nil {
		log.Fatal(err)
	}

	started := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := node.Online(ctx); err != nil {
		log.Fatalf("bringing node online: %s", err.Error())
	}

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal(err)
	}
	if err := sched.AddPeriodicPublish("uptime", cfg.PublishInterval(), func(context.Context) error {
		uptime.SetValue(sparkplug.IntValue(int64(time.Since(started).Seconds())))
		return node.SendData()
	}); err != nil {
		log.Fatal(err)
	}
	sched.Start()

	if cfg.MetricsListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsListenAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Errorf("metrics listener on %s stopped: %s", cfg.MetricsListenAddr, err.Error())
			}
		}()
		log.Infof("serving Prometheus metrics on %s/metrics", cfg.MetricsListenAddr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	if err := sched.Shutdown(); err != nil {
		log.Errorf("scheduler shutdown: %s", err.Error())
	}
	if err := node.Offline(); err != nil {
		log.Errorf("node offline: %s", err.Error())
	}
}

func brokerTLSConfig(b config.Broker) (*tls.Config, error) {
	if b.CAFile == "" && b.CertFile == "" && !b.TLSInsecureSkipVerify {
		return nil, nil
	}
	cfg := &tls.Config{InsecureSkipVerify: b.TLSInsecureSkipVerify}

	if b.CAFile != "" {
		pem, err := os.ReadFile(b.CAFile)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(pem)
		cfg.RootCAs = pool
	}

	if b.CertFile != "" && b.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(b.CertFile, b.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
