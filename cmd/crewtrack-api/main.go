// README: Entry point; loads config, wires services, starts HTTP server and the presence refresher.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog/log"

	"crewtrack/internal/config"
	httptransport "crewtrack/internal/http"
	"crewtrack/internal/infra"
	"crewtrack/internal/maps"
	"crewtrack/internal/modules/booking"
	"crewtrack/internal/modules/checkin"
	"crewtrack/internal/modules/directory"
	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/location"
	"crewtrack/internal/modules/presence"
	"crewtrack/internal/modules/pricing"
	"crewtrack/internal/modules/talent"
	"crewtrack/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	infra.InitLogger(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal().Msg("CREWTRACK_FIREBASE_PROJECT_ID is required")
	}
	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("firebase init")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		log.Fatal().Err(err).Msg("firebase auth")
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres")
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	hub := notify.NewHub()
	notifier := notify.Multi{notify.LogNotifier{}, hub}
	if push := newPush(ctx, app, cfg.Firebase.FCMTopic); push != nil {
		notifier = append(notifier, push)
	}

	var geocoder jobs.Geocoder
	if cfg.Maps.APIKey != "" {
		gs, err := maps.NewGeocodeService(cfg.Maps.APIKey, redisClient)
		if err != nil {
			log.Fatal().Err(err).Msg("geocoder")
		}
		geocoder = gs
	}

	directorySvc := directory.NewService(directory.NewStore(dbPool))
	jobsSvc := jobs.NewService(jobs.NewStore(dbPool), geocoder)
	locationStore := location.NewStore(dbPool, redisClient)
	locationSvc := location.NewService(locationStore, locationStore)

	refresher := presence.NewRefresher(presence.Sources{
		Employees: directorySvc,
		Locations: locationSvc,
		Jobs:      jobsSvc,
	}, notifier, cfg.Presence.RefreshInterval(), cfg.Presence.Zone)

	var geo checkin.Geolocator
	if cfg.Firebase.DatabaseURL != "" {
		dp, err := location.NewDevicePositions(ctx, app, cfg.CheckIn.DeviceMaxAge())
		if err != nil {
			log.Fatal().Err(err).Msg("device positions")
		}
		geo = dp
	}
	checkinSvc := checkin.NewService(locationSvc, jobsSvc, geo, notifier, checkin.Options{
		GeoTimeout: cfg.CheckIn.GeoTimeout(),
		Fallback:   cfg.CheckIn.DefaultPosition,
	})

	pricingSvc := pricing.NewService(pricing.NewStore(dbPool))
	bookingSvc := booking.NewService(booking.NewStore(dbPool), pricingSvc, notifier)

	talentStore := talent.NewStore(dbPool, redisClient)
	talentSvc := talent.NewService(talentStore, talentStore, cfg.Talent)
	if n, err := talentSvc.Reindex(ctx); err != nil {
		log.Warn().Err(err).Msg("electrician geo index not loaded; searches will scan")
	} else {
		log.Info().Int("electricians", n).Msg("electrician geo index loaded")
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Presence:      refresher,
		CheckIn:       checkinSvc,
		Booking:       bookingSvc,
		Talent:        talentSvc,
		Jobs:          jobsSvc,
		Notifications: hub,
		Verifier:      verifier,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
	})

	go refresher.Run(ctx)

	if err := httptransport.NewServer(cfg.HTTP.Addr, router).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
	log.Info().Msg("stopped")
}

func newPush(ctx context.Context, app *firebase.App, topic string) notify.Notifier {
	if topic == "" {
		return nil
	}
	push, err := notify.NewPushNotifier(ctx, app, topic)
	if err != nil {
		log.Warn().Err(err).Msg("push notifications disabled")
		return nil
	}
	return push
}
