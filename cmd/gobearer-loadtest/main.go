package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	goBearer "github.com/MrEthical07/goBearer"
	"github.com/MrEthical07/goBearer/session"
)

func main() {
	var (
		ops         = flag.Int("ops", 200000, "requests per phase (steady + coalesce)")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		baseURL     = flag.String("base-url", "", "target API base URL; if empty, a local stub API is started")
		redisAddr   = flag.String("redis-addr", "", "redis address for the session backend; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gb", "session slot prefix")
		shortTTL    = flag.Duration("short-ttl", 20*time.Minute, "token TTL inside the refresh window, drives the coalesce phase")
	)
	flag.Parse()

	if *ops <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "ops and concurrency must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	target := *baseURL
	var stub *stubAPI
	if target == "" {
		var err error
		stub, err = startStubAPI(*shortTTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start stub API: %v\n", err)
			os.Exit(1)
		}
		defer stub.Close()
		target = stub.URL()
		fmt.Printf("using stub API at %s\n", target)
	} else {
		fmt.Printf("using API at %s\n", target)
	}

	backend, err := session.NewRedisBackend(client, *prefix, "token", "identity")
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis backend: %v\n", err)
		os.Exit(1)
	}

	cfg := goBearer.HighThroughputConfig(target)
	cfg.Token.RefreshThreshold = 30 * time.Minute
	cfg.Throttle.Enabled = false

	bearer, err := goBearer.New().
		WithConfig(cfg).
		WithBackend(backend).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "client build: %v\n", err)
		os.Exit(1)
	}
	defer bearer.Close()

	if _, err := bearer.Login(ctx, "load@example.com", "load-test"); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}

	// Phase 1: healthy credential, no refresh pressure. The stub hands out
	// long-lived tokens while in steady mode.
	if stub != nil {
		stub.SetTokenTTL(24 * time.Hour)
		if _, err := bearer.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "refresh into steady phase: %v\n", err)
			os.Exit(1)
		}
	}
	steadyStats := runPhase(ctx, bearer, *ops, *concurrency)

	// Phase 2: every token the stub grants is already inside the refresh
	// window, so every worker wants a refresh on every request. The
	// coordinator must collapse that demand into a trickle of wire calls.
	var coalesceStats phaseStats
	if stub != nil {
		stub.SetTokenTTL(*shortTTL)
		if _, err := bearer.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "refresh into coalesce phase: %v\n", err)
			os.Exit(1)
		}
		refreshBefore := stub.RefreshCalls()
		coalesceStats = runPhase(ctx, bearer, *ops, *concurrency)
		refreshDuring := stub.RefreshCalls() - refreshBefore

		fmt.Println("---- results ----")
		printStats("steady", steadyStats)
		printStats("coalesce", coalesceStats)
		fmt.Printf("coalesce: %d requests shared %d refresh wire calls (%.1fx coalescing)\n",
			coalesceStats.ops, refreshDuring, coalesceRatio(coalesceStats.ops, refreshDuring))
	} else {
		fmt.Println("---- results ----")
		printStats("steady", steadyStats)
		fmt.Println("coalesce phase skipped: external API TTL is not controllable")
	}

	snap := bearer.MetricsSnapshot()
	fmt.Printf("client metrics: requests=%d refresh_success=%d refresh_joined=%d retries=%d\n",
		snap.Counters[goBearer.MetricRequests],
		snap.Counters[goBearer.MetricRefreshSuccess],
		snap.Counters[goBearer.MetricRefreshJoined],
		snap.Counters[goBearer.MetricUnauthorizedRetry],
	)
}

func coalesceRatio(ops int, refreshCalls int64) float64 {
	if refreshCalls <= 0 {
		return float64(ops)
	}
	return float64(ops) / float64(refreshCalls)
}

func runPhase(ctx context.Context, bearer *goBearer.Client, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				resp, err := bearer.Get(ctx, fmt.Sprintf("/items/%d", i%512))
				d := time.Since(t0)
				if err != nil || !resp.OK() {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// stubAPI is the local bearer-protected API the loadtest drives when no
// -base-url is given. It mints HS256 tokens whose TTL is switchable at
// runtime so the phases can move the client in and out of the refresh
// window.
type stubAPI struct {
	srv      *http.Server
	listener net.Listener

	tokenTTL     atomic.Int64
	refreshCalls atomic.Int64
}

const stubSecret = "gobearer-loadtest"

func startStubAPI(ttl time.Duration) (*stubAPI, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &stubAPI{listener: ln}
	s.tokenTTL.Store(int64(ttl))

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", s.handleGrant)
	mux.HandleFunc("/auth/refresh", s.handleRefresh)
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/", s.handleData)

	s.srv = &http.Server{Handler: mux}
	go func() { _ = s.srv.Serve(ln) }()
	return s, nil
}

func (s *stubAPI) URL() string { return "http://" + s.listener.Addr().String() }

func (s *stubAPI) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func (s *stubAPI) SetTokenTTL(ttl time.Duration) { s.tokenTTL.Store(int64(ttl)) }

func (s *stubAPI) RefreshCalls() int64 { return s.refreshCalls.Load() }

func (s *stubAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	s.handleGrant(w, r)
}

func (s *stubAPI) handleGrant(w http.ResponseWriter, _ *http.Request) {
	ttl := time.Duration(s.tokenTTL.Load())
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    "load@example.com",
		"userId": int64(1),
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(stubSecret))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token":        signed,
		"userId":       1,
		"email":        "load@example.com",
		"isSuperadmin": false,
	})
}

func (s *stubAPI) handleData(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}
