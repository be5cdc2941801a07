// Command mqttcat connects to a broker, subscribes to one or more topic
// filters, and prints every inbound message to stdout. It also exposes
// Prometheus metrics and pprof over HTTP, mirroring the debug server this
// codebase has always run alongside its MQTT traffic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-io/requests"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rafaortegano/tp-taller-go/mqtt"
)

func main() {
	url := flag.String("url", "mqtt://127.0.0.1:1883", "broker URL (mqtt:// or ws://)")
	clientID := flag.String("client-id", "", "client id (default: auto-generated)")
	topics := flag.String("topics", "", "comma-separated topic filters to subscribe to")
	qos := flag.Int("qos", 0, "subscribe QoS (0 or 1)")
	debugAddr := flag.String("debug-addr", "", "if set, serve /metrics and /debug/pprof on this address")
	flag.Parse()

	if *topics == "" {
		fmt.Fprintln(os.Stderr, "mqttcat: -topics is required")
		os.Exit(2)
	}

	opts := []mqtt.Option{mqtt.WithURL(*url)}
	if *clientID != "" {
		opts = append(opts, mqtt.WithClientID(*clientID))
	}
	client := mqtt.New(opts...)

	if *debugAddr != "" {
		reg := prometheus.NewRegistry()
		if err := client.Stat().Register(reg); err != nil {
			log.Fatalf("registering metrics: %v", err)
		}
		go serveDebug(*debugAddr, reg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		log.Fatalf("connect: %v", err)
	}

	var reqs []mqtt.SubscribeRequest
	for _, t := range strings.Split(*topics, ",") {
		reqs = append(reqs, mqtt.SubscribeRequest{Filter: strings.TrimSpace(t), QoS: byte(*qos)})
	}
	subCtx, subCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer subCancel()
	codes, err := client.Subscribe(subCtx, reqs)
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	log.Printf("subscribed, reason codes: %v", codes)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = client.Disconnect(stopCtx)
	}()

	for msg := range client.Inbound() {
		if msg.MatchedFilter != "" && msg.MatchedFilter != msg.Topic {
			fmt.Printf("%s (via %s): %s\n", msg.Topic, msg.MatchedFilter, msg.Payload)
			continue
		}
		fmt.Printf("%s: %s\n", msg.Topic, msg.Payload)
	}
}

// serveDebug exposes /metrics and pprof, the same small HTTP surface this
// codebase has always run alongside the wire protocol.
func serveDebug(addr string, reg *prometheus.Registry) {
	mux := requests.NewServeMux(requests.URL("http://" + addr))
	mux.Route("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Pprof()
	s := requests.NewServer(context.Background(), mux, requests.OnStart(func(s *http.Server) {
		log.Printf("debug server listening on %s", s.Addr)
	}))
	if err := s.ListenAndServe(); err != nil {
		log.Printf("debug server: %v", err)
	}
}
