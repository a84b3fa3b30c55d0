/*
main.go - Application entry point

PURPOSE:
  Starts the ledger HTTP server. The ledger lives in memory; its operation
  log is journaled to SQLite and replayed on startup.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open SQLite journal
  3. Restore the ledger by replaying the journal
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite journal path (default: ledger.db)
           Use ":memory:" for a journal that dies with the process
  -origin  Allowed CORS origin, repeatable (default: http://localhost:5173)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/ledger.db"
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Journal implementation
*/
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

	"github.com/warp/opledger/api"
	"github.com/warp/opledger/ledger"
	"github.com/warp/opledger/store/sqlite"
)

type originList []string

func (o *originList) String() string { return strings.Join(*o, ",") }

func (o *originList) Set(v string) error {
	*o = append(*o, v)
	return nil
}

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "ledger.db", "SQLite journal path")
	var origins originList
	flag.Var(&origins, "origin", "allowed CORS origin (repeatable)")
	flag.Parse()
	if len(origins) == 0 {
		origins = originList{"http://localhost:5173"}
	}

	// Initialize journal
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize journal: %v", err)
	}
	defer store.Close()

	// Replay journal into a fresh ledger
	rec, err := ledger.OpenRecorder(context.Background(), store)
	if err != nil {
		log.Fatalf("Failed to restore ledger: %v", err)
	}
	l := rec.Ledger()
	log.Printf("Restored %d operations across %d accounts", l.Len(), len(l.Accounts()))

	router := api.NewRouter(api.NewHandler(rec), origins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
