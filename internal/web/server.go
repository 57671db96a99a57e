package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/papertrade/internal/entity"
)

const snapshotPollInterval = 2 * time.Second

type transactionReader interface {
	RecordsAfter(index uint64) ([]entity.TransactionRecord, error)
}

type snapshotter interface {
	Snapshot(ctx context.Context) entity.AccountSnapshot
}

// Server exposes HTTP endpoints serving the HTML dashboard and SSE
// streams of account snapshots and transactions.
type Server struct {
	Addr         string
	Account      snapshotter
	TxLog        transactionReader
	PollInterval time.Duration
}

// NewServer creates a new web server instance.
func NewServer(addr string, account snapshotter, txlog transactionReader) *Server {
	return &Server{Addr: addr, Account: account, TxLog: txlog}
}

func (s *Server) pollInterval() time.Duration {
	if s.PollInterval > 0 {
		return s.PollInterval
	}
	return snapshotPollInterval
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/account/stream", s.handleAccountStream)
	mux.HandleFunc("/transactions/stream", s.handleTransactionStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via
// ACME. It also starts an HTTP server on port 80 for ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = httpsSrv.Shutdown(shutdownCtx)
	}()

	errCh := make(chan error, 2)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleAccountStream(w http.ResponseWriter, r *http.Request) {
	if s.Account == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "account not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(s.pollInterval())
	defer pollTicker.Stop()

	sendSnapshot := func() error {
		snapshot := s.Account.Snapshot(r.Context())
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: account\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return nil
	}

	if err := sendSnapshot(); err != nil {
		http.Error(w, "failed to load account snapshot", http.StatusInternalServerError)
		log.Printf("account stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendSnapshot(); err != nil {
				log.Printf("account stream poll err: %v", err)
			}
		}
	}
}

func (s *Server) handleTransactionStream(w http.ResponseWriter, r *http.Request) {
	if s.TxLog == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "transaction log not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(s.pollInterval())
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendTransactions := func() error {
		records, err := s.TxLog.RecordsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Tx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: transaction\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendTransactions(); err != nil {
		http.Error(w, "failed to load transactions", http.StatusInternalServerError)
		log.Printf("transaction stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendTransactions(); err != nil {
				log.Printf("transaction stream poll err: %v", err)
			}
		}
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>papertrade</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:center;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    #app {
      width:min(960px, 96vw);
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
    }
    header { display:flex; justify-content:space-between; align-items:flex-start; gap:1rem; }
    h1 { margin:0 0 1.5rem; font-size:1.2rem; text-transform:uppercase; letter-spacing:.2em; }
    .status {
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      border:2px solid var(--ink);
      padding:.4rem .9rem;
    }
    .cards { display:grid; grid-template-columns:repeat(4, 1fr); gap:1rem; margin-bottom:2rem; }
    .card { border:2px solid var(--ink); padding:1rem; background:var(--bg); }
    .card .label { font-size:.6rem; text-transform:uppercase; letter-spacing:.15em; color:var(--ink-mid); }
    .card .value { font-size:1.1rem; font-weight:700; margin-top:.4rem; }
    .pnl-neg { color:#b00020; }
    table { width:100%; border-collapse:collapse; font-size:.75rem; }
    th, td { border-bottom:1px solid var(--ink-soft); padding:.45rem .3rem; text-align:left; }
    th { text-transform:uppercase; font-size:.6rem; letter-spacing:.15em; color:var(--ink-mid); }
    #transactions { max-height:320px; overflow-y:auto; }
  </style>
</head>
<body>
  <div id="app">
    <header>
      <h1>papertrade</h1>
      <div class="status" id="status">connecting</div>
    </header>
    <div class="cards">
      <div class="card"><div class="label">Cash</div><div class="value" id="cash">—</div></div>
      <div class="card"><div class="label">Holdings</div><div class="value" id="holdings">—</div></div>
      <div class="card"><div class="label">Total</div><div class="value" id="total">—</div></div>
      <div class="card"><div class="label">P&amp;L</div><div class="value" id="pnl">—</div></div>
    </div>
    <div id="transactions">
      <table>
        <thead><tr><th>Time</th><th>Type</th><th>Symbol</th><th>Qty</th><th>Price</th><th>Amount</th></tr></thead>
        <tbody id="txbody"></tbody>
      </table>
    </div>
  </div>
  <script>
    const fmt = v => '$' + Number(v).toFixed(2);
    const status = document.getElementById('status');

    const account = new EventSource('/account/stream');
    account.addEventListener('account', e => {
      const s = JSON.parse(e.data);
      status.textContent = 'live';
      document.getElementById('cash').textContent = fmt(s.cash);
      document.getElementById('holdings').textContent = fmt(s.holdings_value);
      document.getElementById('total').textContent = fmt(s.total_value);
      const pnl = document.getElementById('pnl');
      pnl.textContent = fmt(s.pnl);
      pnl.classList.toggle('pnl-neg', Number(s.pnl) < 0);
    });
    account.onerror = () => { status.textContent = 'reconnecting'; };

    const txs = new EventSource('/transactions/stream');
    txs.addEventListener('transaction', e => {
      const tx = JSON.parse(e.data);
      const row = document.createElement('tr');
      const trade = tx.kind === 'BUY' || tx.kind === 'SELL';
      row.innerHTML =
        '<td>' + new Date(tx.time).toLocaleTimeString() + '</td>' +
        '<td>' + tx.kind + '</td>' +
        '<td>' + (trade ? tx.symbol : '') + '</td>' +
        '<td>' + (trade ? tx.quantity : '') + '</td>' +
        '<td>' + (trade ? fmt(tx.price) : '') + '</td>' +
        '<td>' + fmt(trade ? tx.total : tx.amount) + '</td>';
      const body = document.getElementById('txbody');
      body.insertBefore(row, body.firstChild);
    });
  </script>
</body>
</html>
`
