package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/idltd/CCTV-Log/api"
	"github.com/idltd/CCTV-Log/api/scheduler"
	"github.com/idltd/CCTV-Log/config"
	"github.com/idltd/CCTV-Log/databases"
	"github.com/idltd/CCTV-Log/geocode"
	"github.com/idltd/CCTV-Log/models"
	"github.com/idltd/CCTV-Log/registry"
	"github.com/idltd/CCTV-Log/wizard"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	dbHelper  databases.DatabaseHelper
	redis     *redis.Client
	registry  *registry.Service
	regClient *registry.Client
	flow      *wizard.Flow
	hub       *Hub
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	api.SetupGoGuardian()

	r := mux.NewRouter()

	geocoder := geocode.NewClient(&a.Config)

	i := Incident{DB: databases.NewIncidentDatabase(a.dbHelper), Flow: a.flow}
	cam := Camera{DB: databases.NewLocalCameraDatabase(a.dbHelper), Registry: a.registry, Client: a.regClient}
	contact := Contact{DB: databases.NewContactDatabase(a.dbHelper)}
	profile := Profile{DB: databases.NewProfileDatabase(a.dbHelper)}
	letterHandler := Letter{Flow: a.flow}
	g := Geocode{Client: geocoder}
	admin := Admin{Client: a.regClient}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(api.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/cameras/nearby", api.Middleware(http.HandlerFunc(cam.CamerasNearbyHandler))).Methods("GET")
	apiCreate.Handle("/cameras", api.Middleware(http.HandlerFunc(cam.CreateCameraHandler))).Methods("POST")
	apiCreate.Handle("/cameras/local", api.Middleware(http.HandlerFunc(cam.LocalCamerasHandler))).Methods("GET")
	apiCreate.Handle("/cameras/local/{camera_id}", api.Middleware(http.HandlerFunc(cam.DeleteCameraHandler))).Methods("DELETE")

	apiCreate.Handle("/incidents", api.Middleware(http.HandlerFunc(i.CreateIncidentHandler))).Methods("POST")
	apiCreate.Handle("/incidents", api.Middleware(http.HandlerFunc(i.IncidentsHandler))).Methods("GET")
	apiCreate.Handle("/incidents/status-counts", api.Middleware(http.HandlerFunc(i.IncidentStatusCountsHandler))).Methods("GET")
	apiCreate.Handle("/incident/{incident_id}", api.Middleware(http.HandlerFunc(i.IncidentHandler))).Methods("GET")
	apiCreate.Handle("/incident/{incident_id}", api.Middleware(http.HandlerFunc(i.UpdateIncidentHandler))).Methods("PATCH")
	apiCreate.Handle("/incident/{incident_id}", api.Middleware(http.HandlerFunc(i.DeleteIncidentHandler))).Methods("DELETE")
	apiCreate.Handle("/incident/{incident_id}/camera", api.Middleware(http.HandlerFunc(i.SetIncidentCameraHandler))).Methods("PUT")
	apiCreate.Handle("/incident/{incident_id}/details", api.Middleware(http.HandlerFunc(i.SetIncidentDetailsHandler))).Methods("PUT")
	apiCreate.Handle("/incident/{incident_id}/letter", api.Middleware(http.HandlerFunc(letterHandler.GenerateLetterHandler))).Methods("POST")
	apiCreate.Handle("/incident/{incident_id}/send", api.Middleware(http.HandlerFunc(letterHandler.SendLetterHandler))).Methods("POST")

	apiCreate.Handle("/contact/{operator_key}", api.Middleware(http.HandlerFunc(contact.ContactStatusHandler))).Methods("GET")

	apiCreate.Handle("/profile", api.Middleware(http.HandlerFunc(profile.ProfileHandler))).Methods("GET")
	apiCreate.Handle("/profile", api.Middleware(http.HandlerFunc(profile.UpdateProfileHandler))).Methods("PUT")

	apiCreate.Handle("/geocode/reverse", api.Middleware(http.HandlerFunc(g.ReverseGeocodeHandler))).Methods("GET")
	apiCreate.Handle("/geocode/search", api.Middleware(http.HandlerFunc(g.SearchGeocodeHandler))).Methods("GET")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/pending-cameras", AdminOnly(http.HandlerFunc(admin.PendingCamerasHandler))).Methods("GET")
	apiCreate.Handle("/admin/pending-cameras/{pending_id}/review", AdminOnly(http.HandlerFunc(admin.ReviewPendingCameraHandler))).Methods("POST")

	r.HandleFunc("/ws/events", a.hub.HandleEventsWebSocket)

	// swagger docs hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir("./docs/"))))
	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect(context.Background())
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("cctv-log has connected to the database")

	redisOpts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		zap.S().With(err).Error("failed to parse redis url")
		return err
	}
	a.redis = redis.NewClient(redisOpts)

	a.hub = NewHub()
	a.regClient = registry.NewClient(&a.Config)
	a.registry = &registry.Service{
		Client:  a.regClient,
		Cache:   registry.NewCache(a.redis),
		LocalDB: databases.NewLocalCameraDatabase(a.dbHelper),
		Observer: func(res registry.RefreshResult) {
			a.hub.Broadcast("registry_refresh", map[string]interface{}{
				"at":      res.At,
				"cameras": res.Count,
				"ok":      res.Err == nil,
			})
		},
	}

	mailer := SendGridMailer{
		FromName:  os.Getenv("MAIL_FROM_NAME"),
		FromEmail: os.Getenv("MAIL_FROM_EMAIL"),
	}
	a.flow = wizard.New(wizard.Deps{
		Incidents: databases.NewIncidentDatabase(a.dbHelper),
		Contacts:  databases.NewContactDatabase(a.dbHelper),
		Profiles:  databases.NewProfileDatabase(a.dbHelper),
		Registry:  a.registry,
		Geocoder:  geocode.NewClient(&a.Config),
		Mailer:    mailer,
		Events:    a.hub,
	})

	a.scheduler = scheduler.NewScheduler(a.registry, a.regClient,
		databases.NewLocalCameraDatabase(a.dbHelper))
	a.scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Shutdown stops background jobs and closes connections
func (a *App) Shutdown() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.S().Warnw("failed to close redis connection", "error", err)
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
