// Package main runs taxglide-server, a small stateless HTTP front end over
// calculation.Engine's six core operations.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taxglide/taxglide/internal/calculation"
	"github.com/taxglide/taxglide/internal/config"
	"github.com/taxglide/taxglide/internal/domain"
	"github.com/taxglide/taxglide/internal/obslog"
)

var (
	version   = "dev"
	startTime = time.Now()
)

// server holds the process-wide collaborators: the configuration file
// path, a TTL cache holding the Engine built from that file (under one
// fixed key, since the server only ever loads one path; a hot-reload
// replaces the entry), and the structured logger.
type server struct {
	configPath string
	engines    *cache.Cache
	log        *zap.SugaredLogger
}

func newServer(configPath string, log *zap.SugaredLogger) *server {
	return &server{
		configPath: configPath,
		engines:    cache.New(5*time.Minute, 10*time.Minute),
		log:        log,
	}
}

const engineCacheKey = "engine"

func (s *server) engine() (*calculation.Engine, error) {
	if cached, ok := s.engines.Get(engineCacheKey); ok {
		return cached.(*calculation.Engine), nil
	}
	cfg, err := config.NewLoader().LoadFromFile(s.configPath)
	if err != nil {
		return nil, err
	}
	e := calculation.NewEngine(*cfg, calculation.ZapLogger{S: s.log}, version)
	s.engines.Set(engineCacheKey, e, cache.DefaultExpiration)
	return e, nil
}

func (s *server) reload() {
	cfg, err := config.NewLoader().LoadFromFile(s.configPath)
	if err != nil {
		s.log.Warnf("config reload failed, keeping previous configuration: %v", err)
		return
	}
	e := calculation.NewEngine(*cfg, calculation.ZapLogger{S: s.log}, version)
	s.engines.Set(engineCacheKey, e, cache.DefaultExpiration)
	s.log.Infof("configuration reloaded from %s", s.configPath)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the core error taxonomy to an HTTP status. The mapping
// is owned by this ambient layer, not the core.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrInvalidInput:
		return http.StatusBadRequest
	case domain.ErrConfigurationMissing:
		return http.StatusNotFound
	case domain.ErrConfigurationInvalid:
		return http.StatusUnprocessableEntity
	case domain.ErrSchemaMismatch:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeJSON(w, statusFor(kind), map[string]string{"error": err.Error(), "kind": string(kind)})
}

func queryDecimal(q queryValues, name string) (decimal.Decimal, bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, domain.WrapError(domain.ErrInvalidInput, err, "invalid %s %q", name, raw)
	}
	return v, true, nil
}

type queryValues interface {
	Get(string) string
}

func queryInt64(q queryValues, name string, def int64) (int64, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, err, "invalid %s %q", name, raw)
	}
	return v, nil
}

func resolveIncomes(q queryValues) (sg, fed decimal.Decimal, err error) {
	income, hasIncome, err := queryDecimal(q, "income")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	incomeSG, hasSG, err := queryDecimal(q, "income_sg")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	incomeFed, hasFed, err := queryDecimal(q, "income_fed")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	hasPair := hasSG || hasFed
	if hasIncome == hasPair {
		return decimal.Zero, decimal.Zero, domain.NewError(domain.ErrInvalidInput, "exactly one of income or (income_sg and income_fed) must be given")
	}
	if hasIncome {
		return income, income, nil
	}
	if !hasSG || !hasFed {
		return decimal.Zero, decimal.Zero, domain.NewError(domain.ErrInvalidInput, "both income_sg and income_fed must be given together")
	}
	return incomeSG, incomeFed, nil
}

func filingStatusQuery(q queryValues) domain.FilingStatus {
	switch q.Get("filing_status") {
	case "married_joint":
		return domain.MarriedJoint
	default:
		return domain.Single
	}
}

func (s *server) handleCalc(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sg, fed, err := resolveIncomes(q)
	if err != nil {
		writeError(w, err)
		return
	}
	year, err := queryInt64(q, "year", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := s.engine()
	if err != nil {
		writeError(w, err)
		return
	}
	bd, err := e.Calc(calculation.CalcParams{
		Year:         int(year),
		Canton:       q.Get("canton"),
		Municipality: q.Get("municipality"),
		IncomeSG:     sg,
		IncomeFed:    fed,
		FilingStatus: filingStatusQuery(q),
		Picks:        calculation.PickSet{Picks: q["pick"], Skips: q["skip"]},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bd)
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sg, fed, err := resolveIncomes(q)
	if err != nil {
		writeError(w, err)
		return
	}
	year, err := queryInt64(q, "year", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	maxDeduction, err := queryInt64(q, "max_deduction", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	step, err := queryInt64(q, "d_step", 100)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := s.engine()
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := e.Scan(calculation.ScanRequest{
		Year:                 int(year),
		Canton:               q.Get("canton"),
		Municipality:         q.Get("municipality"),
		IncomeSG:             sg,
		IncomeFed:            fed,
		FilingStatus:         filingStatusQuery(q),
		Picks:                calculation.PickSet{Picks: q["pick"], Skips: q["skip"]},
		MaxDeduction:         maxDeduction,
		Step:                 step,
		IncludeLocalMarginal: q.Get("include_local_marginal") != "false",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *server) handleOptimise(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sg, fed, err := resolveIncomes(q)
	if err != nil {
		writeError(w, err)
		return
	}
	year, err := queryInt64(q, "year", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	maxDeduction, err := queryInt64(q, "max_deduction", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	step, err := queryInt64(q, "step", 100)
	if err != nil {
		writeError(w, err)
		return
	}
	var tol *decimal.Decimal
	if t, has, err := queryDecimal(q, "tolerance_bp"); err != nil {
		writeError(w, err)
		return
	} else if has {
		tol = &t
	}
	e, err := s.engine()
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := e.Optimise(calculation.OptimiseRequest{
		Year:         int(year),
		Canton:       q.Get("canton"),
		Municipality: q.Get("municipality"),
		IncomeSG:     sg,
		IncomeFed:    fed,
		FilingStatus: filingStatusQuery(q),
		Picks:        calculation.PickSet{Picks: q["pick"], Skips: q["skip"]},
		MaxDeduction: maxDeduction,
		Step:         step,
		ToleranceBp:  tol,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleCompareBrackets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sg, fed, err := resolveIncomes(q)
	if err != nil {
		writeError(w, err)
		return
	}
	year, err := queryInt64(q, "year", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	deduction, err := queryInt64(q, "deduction", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := s.engine()
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := e.CompareBrackets(calculation.CompareBracketsRequest{
		Year:         int(year),
		Canton:       q.Get("canton"),
		Municipality: q.Get("municipality"),
		IncomeSG:     sg,
		IncomeFed:    fed,
		Deduction:    deduction,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt64(r.URL.Query(), "year", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := s.engine()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Validate(int(year)))
}

func (s *server) handleVersion(w http.ResponseWriter, r *http.Request) {
	e, err := s.engine()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Version())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(startTime).String(),
	})
}

// rateLimitMiddleware protects the process with a shared token bucket;
// each individual core operation is single-threaded and CPU-bound, but the
// server is a shared resource across however many callers reach it.
func rateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func main() {
	_ = godotenv.Load()

	debug := os.Getenv("TAXGLIDE_DEBUG") == "true"
	log := obslog.MustNew(debug, true)
	defer log.Sync()
	sugar := log.Sugar()

	configPath := os.Getenv("TAXGLIDE_CONFIG")
	if configPath == "" {
		configPath = "taxglide.yaml"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := newServer(configPath, sugar)

	if watcher, err := config.NewWatcher(configPath, func(cfg *domain.Configuration, err error) {
		if err != nil {
			sugar.Warnf("config watch reload failed: %v", err)
			return
		}
		srv.reload()
	}); err != nil {
		sugar.Warnf("config hot-reload disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestIDMiddleware)
	r.Use(rateLimitMiddleware(20, 40))

	r.Get("/health", handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/calc", srv.handleCalc)
		r.Get("/scan", srv.handleScan)
		r.Get("/optimise", srv.handleOptimise)
		r.Get("/compare-brackets", srv.handleCompareBrackets)
		r.Get("/validate", srv.handleValidate)
		r.Get("/version", srv.handleVersion)
	})

	sugar.Infof("taxglide-server listening on :%s (config=%s)", port, configPath)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		sugar.Fatalf("server failed: %v", err)
	}
}
