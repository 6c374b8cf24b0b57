// Command goaccounts-loadtest seeds accounts against an in-memory store
// and measures session issue and resolution throughput, the two paths a
// fronting API server hits on every request.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/MrEthical07/goAccounts/rbac"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		accounts    = flag.Int("accounts", 10000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (login + resolve)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		cleanup = func() {}
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	// Seeding dominates wall time with production Argon2 parameters, so
	// the load test runs with the cheapest valid ones. Login cost is
	// still dominated by hashing, which is the point.
	cfg := goAccounts.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := goAccounts.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(newLoadStore()).
		WithRoleStore(loadRoleStore{}).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	const seedPassword = "loadtest-password-123"

	emails := make([]string, *accounts)
	tokens := make([]string, *accounts)
	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	for i := 0; i < *accounts; i++ {
		emails[i] = fmt.Sprintf("load-%d@example.com", i)
		res, err := engine.Register(ctx, goAccounts.RegisterRequest{
			Email:    emails[i],
			Username: fmt.Sprintf("load-%d", i),
			Password: seedPassword,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed register failed: %v\n", err)
			os.Exit(1)
		}
		tokens[i] = res.Token
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		email := emails[r.Intn(len(emails))]
		_, err := engine.Login(ctx, goAccounts.LoginRequest{Email: email, Password: seedPassword})
		return err
	})
	resolveStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := engine.ResolveSession(ctx, tokens[r.Intn(len(tokens))])
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("resolve", resolveStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("metrics: logins=%d resolves=%d rejected=%d\n",
		snap.Counters[goAccounts.MetricLoginSuccess],
		snap.Counters[goAccounts.MetricSessionResolved],
		snap.Counters[goAccounts.MetricSessionRejected],
	)
}

func runPhase(ops, concurrency int, op func(*rand.Rand) error) phaseStats {
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
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
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

// loadStore is a map-backed AccountStore sized for the seeding loop.
type loadStore struct {
	mu      sync.RWMutex
	byID    map[string]*goAccounts.Account
	byEmail map[string]string
	byName  map[string]string
}

func newLoadStore() *loadStore {
	return &loadStore{
		byID:    map[string]*goAccounts.Account{},
		byEmail: map[string]string{},
		byName:  map[string]string{},
	}
}

func (s *loadStore) GetByID(_ context.Context, id string) (*goAccounts.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byID[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, nil
}

func (s *loadStore) GetByEmail(ctx context.Context, email string) (*goAccounts.Account, error) {
	s.mu.RLock()
	id := s.byEmail[email]
	s.mu.RUnlock()
	if id == "" {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *loadStore) GetByUsername(ctx context.Context, username string) (*goAccounts.Account, error) {
	s.mu.RLock()
	id := s.byName[username]
	s.mu.RUnlock()
	if id == "" {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *loadStore) GetBySocialLink(context.Context, string, string) (*goAccounts.Account, error) {
	return nil, nil
}

func (s *loadStore) Create(_ context.Context, account *goAccounts.Account) (*goAccounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *account
	if copied.ID == "" {
		copied.ID = uuid.NewString()
	}
	s.byID[copied.ID] = &copied
	s.byEmail[copied.Email] = copied.ID
	s.byName[copied.Username] = copied.ID
	out := copied
	return &out, nil
}

func (s *loadStore) Update(_ context.Context, id string, patch goAccounts.AccountPatch) (*goAccounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown account %s", id)
	}
	if patch.Verified != nil {
		a.Verified = *patch.Verified
	}
	if patch.PasswordHash != nil {
		a.PasswordHash = *patch.PasswordHash
	}
	if patch.LastLoginAt != nil {
		a.LastLoginAt = *patch.LastLoginAt
	}
	copied := *a
	return &copied, nil
}

// loadRoleStore serves a single enabled role; permission resolution is
// not what this benchmark measures.
type loadRoleStore struct{}

var loadRole = &rbac.Role{ID: "user", Name: "user", Permissions: []string{"boards.read"}, Status: rbac.StatusEnabled}

func (loadRoleStore) GetByID(_ context.Context, id string) (*rbac.Role, error) {
	if id == loadRole.ID {
		return loadRole, nil
	}
	return nil, nil
}

func (loadRoleStore) GetByName(_ context.Context, name string) (*rbac.Role, error) {
	if name == loadRole.Name {
		return loadRole, nil
	}
	return nil, nil
}

func (loadRoleStore) GetByNames(_ context.Context, names []string) ([]*rbac.Role, error) {
	var out []*rbac.Role
	for _, name := range names {
		if name == loadRole.Name {
			out = append(out, loadRole)
		}
	}
	return out, nil
}

func (loadRoleStore) Create(_ context.Context, role *rbac.Role) (*rbac.Role, error) {
	return role, nil
}

func (loadRoleStore) Update(context.Context, string, rbac.RolePatch) (*rbac.Role, error) {
	return nil, rbac.ErrRoleNotFound
}
