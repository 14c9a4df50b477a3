package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dentmark "github.com/Gibihakkasy/dental-clinic-marketing"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	cfg, err := dentmark.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dentmark-web: %v\n", err)
		os.Exit(1)
	}

	engine, err := dentmark.NewEngine(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dentmark-web: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	mux := newRouter(engine)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      logging(recovery(cors(cfg.CORSOrigins, mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // generation endpoints block on the model
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("dentmark-web: listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("dentmark-web: %v", err)
		}
	}()

	<-done
	log.Println("dentmark-web: shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("dentmark-web: shutdown error: %v", err)
	}
	log.Println("dentmark-web: stopped")
}
