package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires handlers into the router. Health is served outside
// Middleware so probes need no owner.
type RouterConfig struct {
	Agenda     *AgendaHandler
	Courses    *CourseHandler
	Conflicts  *ConflictHandler
	Calendar   *CalendarHandler
	Health     http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Agenda != nil {
		collection(mux, "/planner-items", cfg.Agenda.CreatePlannerItem, cfg.Agenda.UpdatePlannerItem, cfg.Agenda.DeletePlannerItem)
		collection(mux, "/exams", cfg.Agenda.CreateExam, cfg.Agenda.UpdateExam, cfg.Agenda.DeleteExam)
		collection(mux, "/events", cfg.Agenda.CreateEvent, cfg.Agenda.UpdateEvent, cfg.Agenda.DeleteEvent)
	}

	if cfg.Courses != nil {
		mux.HandleFunc("/semesters", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Courses.CreateSemester(w, r)
		})
		mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Courses.ListCourses(w, r)
			case http.MethodPost:
				cfg.Courses.CreateCourse(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/courses/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/courses/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Courses.DeleteCourse(w, r.WithContext(ContextWithResourceID(r.Context(), id)))
		})
	}

	if cfg.Conflicts != nil {
		mux.HandleFunc("/conflicts/check", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Conflicts.Check(w, r)
		})
	}

	if cfg.Calendar != nil {
		calendarRoute(mux, "/calendar", cfg.Calendar.Project)
		calendarRoute(mux, "/calendar/sessions", cfg.Calendar.Sessions)
		calendarRoute(mux, "/calendar/ics", cfg.Calendar.ExportICS)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	if cfg.Health == nil {
		return handler
	}
	root := http.NewServeMux()
	root.Handle("/healthz", cfg.Health)
	root.Handle("/", handler)
	return root
}

// collection registers POST on prefix and PUT/DELETE on prefix/{id}.
func collection(mux *http.ServeMux, prefix string, create, update, remove http.HandlerFunc) {
	mux.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		create(w, r)
	})
	mux.HandleFunc(prefix+"/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix+"/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithResourceID(r.Context(), id))
		switch r.Method {
		case http.MethodPut:
			update(w, r)
		case http.MethodDelete:
			remove(w, r)
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	})
}

func calendarRoute(mux *http.ServeMux, path string, handler http.HandlerFunc) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		handler(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
