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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifystream/internal/tui"
	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/pushchannel"
)

// errPageExcluded is returned when NOTIFY_PAGE_PATH is a page that never
// holds a push connection.
var errPageExcluded = errors.New("push connection disabled for this page path")

func newTailCmd(load func() (Settings, error)) *cobra.Command {
	var (
		recent      bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print notifications as they are pushed",
		Long: "Open the push connection and print every new notification until interrupted. " +
			"Exits with an error when the session expires or the connection is given up.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			return runTail(cmd, s, recent, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&recent, "recent", false, "Print the recent notifications before following")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func runTail(cmd *cobra.Command, s Settings, recent bool, metricsAddr string) error {
	log := s.logger(cmd.ErrOrStderr())

	client, err := s.client(log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	presenter := tui.NewPresenter(cmd.OutOrStdout(), s.Client.BaseURL)
	mgr := notifications.NewManager(client, s.transport(log), presenter,
		notifications.WithManagerLogger(log),
		notifications.WithPagePath(s.pagePath),
		notifications.WithChannelOptions(append(s.Channel.Options(),
			pushchannel.WithMetrics(pushchannel.NewMetrics(reg, serviceName)),
		)...),
	)
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if recent {
		if err := mgr.OpenPanel(ctx); err != nil {
			return err
		}
		mgr.ClosePanel(ctx)
	}

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	if mgr.Channel().State() == pushchannel.Disconnected {
		return fmt.Errorf("%w: %s", errPageExcluded, s.PagePath)
	}

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case err := <-presenter.Fatal():
			return err
		}
	})

	if metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, metricsAddr, reg)
		})
		log.InfoContext(ctx, "serving metrics", logger.Endpoint(metricsAddr))
	}

	return g.Wait()
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	}
}
