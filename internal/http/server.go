package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/micro-ha/nuki-bridge/addon/internal/i18n"
	"github.com/micro-ha/nuki-bridge/addon/internal/model"
	"github.com/micro-ha/nuki-bridge/addon/internal/nuki"
	"github.com/micro-ha/nuki-bridge/addon/internal/storage"
	"github.com/micro-ha/nuki-bridge/addon/internal/verify"
)

// Worst case for one verification is hardPollCeiling polls at max delay, so
// the request timeout sits above that bound.
const requestTimeout = 2 * time.Minute

// ActionRunner is the engine surface the handlers drive.
type ActionRunner interface {
	Run(ctx context.Context, cfg model.BridgeConfig, deviceID string, act verify.Action) verify.Outcome
	Toggle(ctx context.Context, cfg model.BridgeConfig, deviceID string, activate, deactivate verify.Action) verify.Outcome
}

// StateClient serves plain state queries, which bypass the engine.
type StateClient interface {
	FetchSnapshot(ctx context.Context, cfg model.BridgeConfig, family nuki.Family, deviceID string) (*nuki.Snapshot, error)
}

// ConfigSource yields the current integration configuration, if any.
type ConfigSource interface {
	Get() (model.BridgeConfig, bool)
}

// HistoryStore records and lists verification outcomes.
type HistoryStore interface {
	InsertOutcome(ctx context.Context, rec storage.OutcomeRecord) error
	ListRecent(ctx context.Context, limit int) ([]storage.OutcomeRecord, error)
	Prune(ctx context.Context, keep int) error
}

type API struct {
	engine      ActionRunner
	client      StateClient
	config      ConfigSource
	store       HistoryStore
	catalogs    map[string]*i18n.Catalog
	logger      *slog.Logger
	historyKeep int
}

func New(engine ActionRunner, client StateClient, config ConfigSource, store HistoryStore, logger *slog.Logger, historyKeep int) (*API, error) {
	catalogs := map[string]*i18n.Catalog{}
	for _, language := range []string{"en", "de"} {
		catalog, err := i18n.Load(language)
		if err != nil {
			return nil, err
		}
		catalogs[language] = catalog
	}
	return &API{
		engine:      engine,
		client:      client,
		config:      config,
		store:       store,
		catalogs:    catalogs,
		logger:      logger,
		historyKeep: historyKeep,
	}, nil
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(stripIngressPrefix)

	r.Get("/healthz", a.health)
	r.Route("/api", func(api chi.Router) {
		api.Get("/lock", a.deviceState(nuki.FamilyLock))
		api.Post("/lock/lock", a.runAction(verify.LockLock))
		api.Post("/lock/unlock", a.runAction(verify.LockUnlock))
		api.Post("/lock/unlatch", a.runAction(verify.LockUnlatch))

		api.Get("/opener", a.deviceState(nuki.FamilyOpener))
		api.Post("/opener/rto/activate", a.runAction(verify.OpenerRTOActivate))
		api.Post("/opener/rto/deactivate", a.runAction(verify.OpenerRTODeactivate))
		api.Post("/opener/rto/toggle", a.runToggle(verify.OpenerRTOActivate, verify.OpenerRTODeactivate))
		api.Post("/opener/continuous/activate", a.runAction(verify.OpenerContinuousActivate))
		api.Post("/opener/continuous/deactivate", a.runAction(verify.OpenerContinuousDeactivate))
		api.Post("/opener/continuous/toggle", a.runToggle(verify.OpenerContinuousActivate, verify.OpenerContinuousDeactivate))
		api.Post("/opener/open", a.runAction(verify.OpenerElectricStrike))

		api.Get("/history", a.history)
	})
	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	_, configured := a.config.Get()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "configured": configured})
}

func (a *API) runAction(act verify.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, deviceID, catalog, ok := a.resolve(w, act.Family)
		if !ok {
			return
		}
		out := a.engine.Run(r.Context(), cfg, deviceID, act)
		a.record(r.Context(), deviceID, out)
		writeJSON(w, statusFor(out), formatOutcome(out, catalog, time.Now()))
	}
}

func (a *API) runToggle(activate, deactivate verify.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, deviceID, catalog, ok := a.resolve(w, activate.Family)
		if !ok {
			return
		}
		out := a.engine.Toggle(r.Context(), cfg, deviceID, activate, deactivate)
		a.record(r.Context(), deviceID, out)
		writeJSON(w, statusFor(out), formatOutcome(out, catalog, time.Now()))
	}
}

func (a *API) deviceState(family nuki.Family) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, deviceID, _, ok := a.resolve(w, family)
		if !ok {
			return
		}
		snap, err := a.client.FetchSnapshot(r.Context(), cfg, family, deviceID)
		if err != nil {
			writeError(w, http.StatusBadGateway, "state_query_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, formatSnapshot(family, snap, time.Now()))
	}
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = value
	}
	items, err := a.store.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// resolve checks the Configuration Store before any network call. A missing
// token or device identifier short-circuits as a rejected request.
func (a *API) resolve(w http.ResponseWriter, family nuki.Family) (model.BridgeConfig, string, *i18n.Catalog, bool) {
	cfg, configured := a.config.Get()
	catalog := a.catalogFor(cfg.Language)
	if !configured {
		a.writeNotConfigured(w, catalog)
		return model.BridgeConfig{}, "", nil, false
	}

	var deviceID string
	switch family {
	case nuki.FamilyLock:
		deviceID = cfg.SmartlockID
	case nuki.FamilyOpener:
		deviceID = cfg.OpenerID
	}
	if deviceID == "" {
		a.writeNotConfigured(w, catalog)
		return model.BridgeConfig{}, "", nil, false
	}
	return cfg, deviceID, catalog, true
}

func (a *API) writeNotConfigured(w http.ResponseWriter, catalog *i18n.Catalog) {
	writeJSON(w, http.StatusConflict, ActionResponse{
		Success:    false,
		Outcome:    verify.OutcomeCommandRejected.String(),
		MessageKey: verify.MsgConfigMissing,
		Message:    catalog.Get(verify.MsgConfigMissing),
		Timestamp:  time.Now().UTC(),
	})
}

func (a *API) catalogFor(language string) *i18n.Catalog {
	if catalog, ok := a.catalogs[strings.ToLower(strings.TrimSpace(language))]; ok {
		return catalog
	}
	return a.catalogs["en"]
}

func (a *API) record(ctx context.Context, deviceID string, out verify.Outcome) {
	if a.store == nil {
		return
	}
	rec := storage.OutcomeRecord{
		Family:       string(out.Action.Family),
		DeviceID:     deviceID,
		Action:       out.Action.ID,
		Outcome:      out.Kind.String(),
		Success:      out.Success(),
		MessageKey:   out.MessageKey,
		PollAttempts: out.PollAttempts,
	}
	if snap := out.Snapshot; snap != nil && snap.Online {
		state := snap.State
		rec.State = &state
		if out.Action.Family == nuki.FamilyOpener {
			mode := snap.Mode
			rec.Mode = &mode
		}
	}
	if err := a.store.InsertOutcome(ctx, rec); err != nil {
		a.logger.Warn("failed to record outcome", "err", err)
		return
	}
	if err := a.store.Prune(ctx, a.historyKeep); err != nil {
		a.logger.Warn("failed to prune history", "err", err)
	}
}

func statusFor(out verify.Outcome) int {
	if out.Success() {
		return http.StatusOK
	}
	return http.StatusBadGateway
}

func stripIngressPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := strings.TrimSpace(r.Header.Get("X-Ingress-Path"))
		if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
			r.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
			if r.URL.Path == "" {
				r.URL.Path = "/"
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func RunServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "err", err)
			return err
		}
		return nil
	}
}
