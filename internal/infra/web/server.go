package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/repository"
	"notification-hub/internal/infra/logging"
	"notification-hub/internal/usecase"
)

// Server is the HTTP boundary. Callers authenticate with a static bearer API
// key and identify the acting user via the X-Username header; the user is
// resolved here exactly once and passed down to the use cases explicitly.
type Server struct {
	users    repository.UserRepository
	dispatch usecase.DispatchUseCase
	queries  usecase.MessageQueryUseCase
	limits   usecase.RateLimitUseCase
	admin    usecase.UserUseCase
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	users repository.UserRepository,
	dispatch usecase.DispatchUseCase,
	queries usecase.MessageQueryUseCase,
	limits usecase.RateLimitUseCase,
	admin usecase.UserUseCase,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		users:    users,
		dispatch: dispatch,
		queries:  queries,
		limits:   limits,
		admin:    admin,
		apiKey:   apiKey,
		log:      logger,
	}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/messages", s.handleSend)
		r.Get("/messages", s.handleListOwn)
		r.Get("/quota", s.handleQuota)
		r.Route("/admin", func(r chi.Router) {
			r.Get("/messages", s.handleListAll)
			r.Get("/metrics", s.handleMetrics)
			r.Put("/users/{username}/limit", s.handleUpdateLimit)
		})
	})
	return r
}

// requestContext threads chi's request id into the logging context so every
// log line for one request carries the same request_id.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logger(ctx context.Context) *zerolog.Logger {
	return logging.With(ctx, s.log)
}

// authMiddleware provides simple Bearer token authentication for the API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("server API key is not configured")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if parts[1] != s.apiKey {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveUser turns the X-Username header into a domain user and stamps the
// user id onto the request context for downstream log lines.
func (s *Server) resolveUser(r *http.Request) (*model.User, context.Context, error) {
	username := strings.TrimSpace(r.Header.Get("X-Username"))
	if username == "" {
		return nil, r.Context(), fmt.Errorf("%w: missing X-Username header", domain.ErrInvalidArgument)
	}
	user, err := s.users.FindByUsername(r.Context(), repository.NoTX, username)
	if err != nil {
		return nil, r.Context(), err
	}
	return user, logging.WithUserID(r.Context(), user.ID), nil
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	user, ctx, err := s.resolveUser(r)
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Destinations) == 0 {
		writeError(w, http.StatusBadRequest, "at least one destination is required")
		return
	}

	dests := make([]model.Destination, 0, len(req.Destinations))
	for _, d := range req.Destinations {
		// Unknown platform tags are passed through so the engine records
		// them as failed deliveries instead of rejecting the whole request.
		p, _ := model.ParsePlatform(d.Platform)
		dests = append(dests, model.Destination{Platform: p, Target: d.Destination})
	}

	msg, err := s.dispatch.SendMessage(ctx, user, req.Content, dests)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRateLimitExceeded):
			writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger(ctx).Error().Err(err).Msg("send failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (s *Server) handleListOwn(w http.ResponseWriter, r *http.Request) {
	user, ctx, err := s.resolveUser(r)
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs, err := s.queries.ListForUser(ctx, user, filter)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("list messages failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponses(msgs))
}

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	caller, ctx, err := s.resolveUser(r)
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	msgs, err := s.queries.ListAll(ctx, caller, filter)
	if err != nil {
		if errors.Is(err, domain.ErrAdminOnly) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		s.logger(ctx).Error().Err(err).Msg("admin list failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponses(msgs))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	caller, ctx, err := s.resolveUser(r)
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	rows, err := s.queries.Metrics(ctx, caller)
	if err != nil {
		if errors.Is(err, domain.ErrAdminOnly) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		s.logger(ctx).Error().Err(err).Msg("metrics failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleUpdateLimit(w http.ResponseWriter, r *http.Request) {
	caller, ctx, err := s.resolveUser(r)
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}

	var req updateLimitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := s.admin.UpdateDailyLimit(ctx, caller, chi.URLParam(r, "username"), req.DailyLimit)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAdminOnly):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger(ctx).Error().Err(err).Msg("limit update failed")
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(target))
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	user, ctx, err := s.resolveUser(r)
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	remaining, err := s.limits.Remaining(ctx, user)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("quota lookup failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"remaining_messages_today": remaining})
}

func (s *Server) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "unknown user")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger(r.Context()).Error().Err(err).Msg("user resolution failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}
