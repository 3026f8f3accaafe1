package http

import (
	"log/slog"
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Schedule   *ScheduleHandler
	Admin      *AdminHandler
	Sessions   SessionValidator
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	optional := passthrough
	authed := passthrough
	admin := passthrough
	if cfg.Sessions != nil {
		optional = OptionalSession(cfg.Sessions)
		authed = RequireSession(cfg.Sessions, cfg.Logger)
		requireAdmin := RequireAdmin(cfg.Logger)
		admin = func(next http.Handler) http.Handler {
			return authed(requireAdmin(next))
		}
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Register(w, r)
		})
		mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Schedule != nil {
		mux.Handle("/api/bootstrap", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Schedule.Bootstrap(w, r)
		})))
		mux.Handle("/api/events/", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/api/events/")
			parts := strings.Split(rest, "/")
			if len(parts) != 2 || parts[0] == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}

			r = r.WithContext(ContextWithEventID(r.Context(), parts[0]))
			switch parts[1] {
			case "register":
				cfg.Schedule.Register(w, r)
			case "unregister":
				cfg.Schedule.Unregister(w, r)
			default:
				http.NotFound(w, r)
			}
		})))
	}

	if cfg.Admin != nil {
		mux.Handle("/api/admin/schedule", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Admin.Schedule(w, r)
		})))
		mux.Handle("/api/admin/events", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Admin.UpsertEvent(w, r)
		})))
		mux.Handle("/api/admin/events/", admin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/api/admin/events/")
			parts := strings.Split(rest, "/")
			if parts[0] == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}

			r = r.WithContext(ContextWithEventID(r.Context(), parts[0]))
			switch {
			case len(parts) == 1:
				cfg.Admin.DeleteEvent(w, r)
			case len(parts) == 3 && parts[1] == "registrations":
				cfg.Admin.RemoveRegistrant(w, r, parts[2])
			default:
				http.NotFound(w, r)
			}
		})))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func passthrough(next http.Handler) http.Handler {
	return next
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
