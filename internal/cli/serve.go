package cli

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ssqa/storefront/internal/config"
	"github.com/ssqa/storefront/internal/database"
	"github.com/ssqa/storefront/internal/handlers"
)

// ServerDependencies holds all dependencies needed for the server
type ServerDependencies struct {
	DB                   *database.DB
	ServerConfig         config.ServerConfig
	HomeHandler          http.Handler
	ProductHandler       http.Handler
	ReviewHandler        http.Handler
	CartHandler          http.Handler
	CheckoutHandler      http.Handler
	OrderReceivedHandler http.Handler
	LoginHandler         http.Handler
	AccountHandler       http.Handler
	UploadsHandler       http.Handler
	RESTHandler          http.Handler
	SamplePageHandler    http.Handler
	NotFoundHandler      http.Handler
}

// RunServe serves the storefront until SIGINT or SIGTERM, then closes the
// order database
func RunServe(deps ServerDependencies) error {
	return runServe(deps, nil, shutdownTimeout)
}

// shutdownTimeout bounds how long in-flight requests get to finish
const shutdownTimeout = 30 * time.Second

func runServe(deps ServerDependencies, shutdown chan os.Signal, timeout time.Duration) error {
	if deps.DB != nil {
		defer deps.DB.Close()
	}
	listener, server, err := StartServer(deps)
	if err != nil {
		return err
	}
	defer listener.Close()

	return WaitForShutdownWithTimeout(server, shutdown, timeout)
}

// routes maps the storefront URLs to their handlers. Handlers left nil are
// not routed.
func routes(deps ServerDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	for pattern, h := range map[string]http.Handler{
		"/":                              deps.NotFoundHandler,
		"/{$}":                           deps.HomeHandler,
		"/product/{slug}/":               deps.ProductHandler,
		"/wp-comments-post.php":          deps.ReviewHandler,
		"/cart/{$}":                      deps.CartHandler,
		"/checkout/{$}":                  deps.CheckoutHandler,
		"/checkout/order-received/{id}/": deps.OrderReceivedHandler,
		"/wp-login.php":                  deps.LoginHandler,
		"/my-account/{$}":                deps.AccountHandler,
		"/my-account/{section}/":         deps.AccountHandler,
		"/wp-content/uploads/":           deps.UploadsHandler,
		handlers.RESTPrefix:              deps.RESTHandler,
		"/sample-page/{$}":               deps.SamplePageHandler,
	} {
		if h != nil {
			mux.Handle(pattern, h)
		}
	}
	return mux
}

// StartServer listens on the configured port and serves the storefront routes
// in the background
func StartServer(deps ServerDependencies) (net.Listener, *http.Server, error) {
	listener, err := net.Listen("tcp", ":"+deps.ServerConfig.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create listener: %w", err)
	}

	server := &http.Server{
		Handler:           routes(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on %s", listener.Addr().String())
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return listener, server, nil
}

// WaitForShutdown blocks until a signal arrives on shutdown, or on SIGINT or
// SIGTERM when shutdown is nil, and then stops the server
func WaitForShutdown(server *http.Server, shutdown chan os.Signal) error {
	return WaitForShutdownWithTimeout(server, shutdown, shutdownTimeout)
}

// WaitForShutdownWithTimeout is WaitForShutdown with its own grace period.
// Connections still open when it runs out are closed.
func WaitForShutdownWithTimeout(server *http.Server, shutdown chan os.Signal, timeout time.Duration) error {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)
	}

	sig := <-shutdown
	log.Printf("Received %v, stopping storefront", sig)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
		if err := server.Close(); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	log.Println("Storefront stopped")
	return nil
}
