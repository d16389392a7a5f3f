package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formdraft/internal/echoserver"
)

func main() {
	var (
		addrFlag    = flag.String("addr", ":8080", "Listen address")
		failFlag    = flag.String("fail", "", "Comma separated path=status pairs, e.g. /customers=500")
		verboseFlag = flag.Bool("v", false, "Log every request")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verboseFlag {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []echoserver.Option{echoserver.WithLogger(logger)}
	for _, pair := range strings.Split(*failFlag, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		path, raw, ok := strings.Cut(pair, "=")
		status, err := strconv.Atoi(raw)
		if !ok || err != nil || status < 100 || status > 599 {
			log.Fatalf("invalid -fail entry %q", pair)
		}
		opts = append(opts, echoserver.WithStatus(path, status))
	}

	srv := &http.Server{
		Addr:              *addrFlag,
		Handler:           echoserver.New(opts...).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Printf("echo backend listening on %s (endpoints %v)", *addrFlag, echoserver.Endpoints)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}
