package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/opd-ai/peerlink"
	"github.com/opd-ai/peerlink/config"
	"github.com/opd-ai/peerlink/factory"
	"github.com/opd-ai/peerlink/kvstore"
	"github.com/opd-ai/peerlink/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const metricsShutdownTimeout = 5 * time.Second

// node is a started client together with the resources it owns.
type node struct {
	client  *peerlink.Client
	store   kvstore.Store
	server  *http.Server
	runDone chan error
	cancel  context.CancelFunc
}

// startNode opens the ledger store, builds the engine, runs the client loop
// and starts the node.
func startNode(ctx context.Context, cfg *config.Config, opts ...peerlink.Option) (*node, error) {
	store, err := kvstore.Open(cfg.Store.Backend, cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}

	engine, err := factory.NewEngineFactory().CreateEngineWithConfig(cfg.EngineConfig())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%w: %v", peerlink.ErrEngineUnavailable, err)
	}

	n := &node{store: store, runDone: make(chan error, 1)}

	var collector *metrics.Collector
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if collector, err = metrics.New(reg); err != nil {
			_ = engine.Close()
			_ = store.Close()
			return nil, err
		}
		n.server = serveMetrics(cfg.Metrics.Addr, reg)
	}

	base := []peerlink.Option{
		peerlink.WithStore(store),
		peerlink.WithLedgerKey(cfg.Store.LedgerKey),
		peerlink.WithRetryDelays(cfg.Retry.Delays...),
		peerlink.WithResumeDelay(cfg.Retry.ResumeDelay),
		peerlink.WithPeerInfoInterval(cfg.Retry.PeerInfoInterval),
		peerlink.WithIdentity(cfg.Seed, cfg.IdentityPath()),
		peerlink.WithMetrics(collector),
	}
	client, err := peerlink.NewClient(engine, append(base, opts...)...)
	if err != nil {
		_ = engine.Close()
		n.closeResources()
		return nil, err
	}
	n.client = client

	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	go func() {
		n.runDone <- client.Run(runCtx)
	}()

	if err := client.Start(); err != nil {
		n.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "startNode",
		"data_dir":   cfg.DataDir,
		"store":      cfg.Store.Backend,
		"simulation": engine.IsSimulation(),
	}).Info("Node ready")
	return n, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithFields(logrus.Fields{
				"function": "serveMetrics",
				"addr":     addr,
				"error":    err.Error(),
			}).Error("Metrics endpoint stopped")
		}
	}()
	logrus.WithFields(logrus.Fields{
		"function": "serveMetrics",
		"addr":     addr,
	}).Info("Serving metrics")
	return server
}

// Close stops the client, the engine, the metrics endpoint and the store.
func (n *node) Close() {
	if err := n.client.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "node.Close",
			"error":    err.Error(),
		}).Warn("Engine close failed")
	}
	n.cancel()
	<-n.runDone
	n.closeResources()
}

func (n *node) closeResources() {
	if n.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		_ = n.server.Shutdown(ctx)
		cancel()
	}
	if err := n.store.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "node.Close",
			"error":    err.Error(),
		}).Warn("Store close failed")
	}
}
