package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"bankdesk/api"
	"bankdesk/events"
)

func newServeCommand(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			log := opts.logger()

			var history api.History
			if opts.cfg.MongoURI != "" {
				j, disconnect, err := events.ConnectJournal(ctx, opts.cfg.MongoURI, opts.cfg.MongoDatabase, opts.cfg.MongoCollection)
				if err != nil {
					log.Warn("journal unavailable", "error", err)
				} else {
					defer disconnect(context.Background())
					history = j
				}
			}

			gin.SetMode(gin.ReleaseMode)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(a.identity, a.ledger, history, log).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errs := make(chan error, 1)
			go func() {
				log.Info("http server listening", "addr", addr)
				errs <- srv.ListenAndServe()
			}()

			select {
			case err := <-errs:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", opts.cfg.HTTPAddr, "Listen address")
	return cmd
}

func newRelayCommand(opts *options) *cobra.Command {
	var prefetch int
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Copy published ledger entries from RabbitMQ into the MongoDB journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.RabbitMQURI == "" || opts.cfg.MongoURI == "" {
				return errors.New("RABBITMQ_URI and MONGO_URI must both be set")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mq, err := events.NewRabbitMQ(opts.cfg.RabbitMQURI, opts.cfg.RabbitMQQueue)
			if err != nil {
				return err
			}
			defer mq.Close()

			j, disconnect, err := events.ConnectJournal(ctx, opts.cfg.MongoURI, opts.cfg.MongoDatabase, opts.cfg.MongoCollection)
			if err != nil {
				return err
			}
			defer disconnect(context.Background())

			deliveries, err := mq.Consume(prefetch)
			if err != nil {
				return err
			}
			return events.NewRelay(deliveries, j, opts.logger().With("queue", mq.Queue())).Run(ctx)
		},
	}
	cmd.Flags().IntVar(&prefetch, "prefetch", 16, "Unacknowledged deliveries in flight")
	return cmd
}
