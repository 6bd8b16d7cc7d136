package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"moneyflow/internal/core"
	"moneyflow/internal/ledger"
	applog "moneyflow/internal/log"
	"moneyflow/internal/middleware/ratelimit"
	"moneyflow/internal/middleware/security"
	"moneyflow/internal/middleware/trace"
	"moneyflow/internal/services"
)

// Options tunes the server. The zero value serves with the wall clock,
// auto-initialization and default rate limits.
type Options struct {
	// ManualInit makes /ready fail until POST /api/init has run.
	ManualInit bool
	Now        func() time.Time
	RateLimit  ratelimit.Config
}

type Server struct {
	http.Server
	ledger     *services.LedgerService
	logger     *applog.Logger
	limiter    *ratelimit.Limiter
	now        func() time.Time
	manualInit bool

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledgerSvc *services.LedgerService, logger *applog.Logger, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		ledger:     ledgerSvc,
		logger:     logger,
		limiter:    ratelimit.NewLimiter(opts.RateLimit),
		now:        opts.Now,
		manualInit: opts.ManualInit,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/api/init", s.handleInit)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/goals", s.handleGoals)
	mux.HandleFunc("/api/goals/projections", s.handleGoalProjections)
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/statistics/monthly", s.handleMonthlyStatistics)
	mux.HandleFunc("/api/statistics/categories", s.handleCategoryStatistics)
	mux.HandleFunc("/api/overview", s.handleOverview)

	resolver := security.NewIPResolver()
	var handler http.Handler = mux
	handler = s.limiter.Middleware(resolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, retry later").Write(w)
	}, http.MethodPost)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger, resolver.ClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

// writeError logs err against the request logger and writes its response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, errType := errorKind(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Ledger operation failed", err,
			applog.ComponentHTTP, op, applog.NewFields().WithErrorType(errType))
	} else {
		logger.WarnContext(r.Context(), "Ledger request rejected",
			applog.FieldOperation, op,
			applog.FieldErrorType, errType,
			applog.FieldError, err.Error())
	}
	ServiceError(err).Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	state := s.ledger.State()
	resp := NewJSONResponse(stateResponse{State: state.String()})
	if s.manualInit && state != ledger.Initialized {
		resp.Status(http.StatusServiceUnavailable)
	}
	resp.Write(w)
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.ledger.Init(r.Context()); err != nil {
		s.writeError(w, r, applog.OpInit, err)
		return
	}
	NewJSONResponse(stateResponse{State: s.ledger.State().String()}).Write(w)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		txs, err := s.ledger.ListTransactions(r.Context())
		if err != nil {
			s.writeError(w, r, applog.OpList, err)
			return
		}
		NewJSONResponse(newTransactionResponses(txs)).Write(w)
	case http.MethodPost:
		var req transactionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeBadBody(w, r, err)
			return
		}
		in, err := req.toNew()
		if err != nil {
			s.writeError(w, r, applog.OpCreate, err)
			return
		}
		id, err := s.ledger.AddTransaction(r.Context(), in)
		if err != nil {
			s.writeError(w, r, applog.OpCreate, err)
			return
		}
		NewJSONResponse(idResponse{ID: id}).Status(http.StatusCreated).Write(w)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goals, err := s.ledger.ListGoals(r.Context())
		if err != nil {
			s.writeError(w, r, applog.OpList, err)
			return
		}
		NewJSONResponse(newGoalResponses(goals)).Write(w)
	case http.MethodPost:
		var req goalRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeBadBody(w, r, err)
			return
		}
		in, err := req.toNew()
		if err != nil {
			s.writeError(w, r, applog.OpCreate, err)
			return
		}
		id, err := s.ledger.AddGoal(r.Context(), in)
		if err != nil {
			s.writeError(w, r, applog.OpCreate, err)
			return
		}
		NewJSONResponse(idResponse{ID: id}).Status(http.StatusCreated).Write(w)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) writeBadBody(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Malformed request body", applog.FieldError, err.Error())
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		ErrorResponse(http.StatusRequestEntityTooLarge, applog.ErrorTypeValidation, "request body too large").Write(w)
		return
	}
	BadRequestError(errBadJSON.Error()).Write(w)
}

func (s *Server) handleGoalProjections(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	projections, err := s.ledger.GoalProjections(r.Context(), s.today())
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	NewJSONResponse(newProjectionResponses(projections)).Write(w)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	balance, err := s.ledger.Balance(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	NewJSONResponse(balanceResponse{Balance: number(balance)}).Write(w)
}

func (s *Server) handleMonthlyStatistics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	months, err := s.ledger.MonthlyStatistics(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	NewJSONResponse(newMonthlyResponses(months)).Write(w)
}

func (s *Server) handleCategoryStatistics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	params, err := ParseMonthParams(r.URL.Query(), s.today())
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	categories, err := s.ledger.CategoryStatistics(r.Context(), params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	NewJSONResponse(newCategoryResponses(categories)).Write(w)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	ov, err := s.ledger.Overview(r.Context(), s.today())
	if err != nil {
		s.writeError(w, r, applog.OpAggregate, err)
		return
	}
	NewJSONResponse(overviewResponse{
		Balance:          number(ov.Balance),
		TransactionCount: ov.TransactionCount,
		Months:           newMonthlyResponses(ov.Months),
		Goals:            newProjectionResponses(ov.Goals),
	}).Write(w)
}
