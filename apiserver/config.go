package main

import (
	"context"

	"github.com/H420Prajyot/Matrix/apiserver/internal/audit"
	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
	authxMongodb "github.com/H420Prajyot/Matrix/apiserver/internal/authx/mongodb"
	authxRedis "github.com/H420Prajyot/Matrix/apiserver/internal/authx/redis"
	authxREST "github.com/H420Prajyot/Matrix/apiserver/internal/authx/rest"
	"github.com/H420Prajyot/Matrix/apiserver/internal/core"
	coreMongodb "github.com/H420Prajyot/Matrix/apiserver/internal/core/mongodb"
	coreREST "github.com/H420Prajyot/Matrix/apiserver/internal/core/rest"
	coreS3 "github.com/H420Prajyot/Matrix/apiserver/internal/core/s3"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/metrics"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/mongodb"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/redis"
	"github.com/H420Prajyot/Matrix/apiserver/internal/lib/restmachinery"
	libS3 "github.com/H420Prajyot/Matrix/apiserver/internal/lib/s3"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func getAPIServerFromEnvironment(
	logger *zap.Logger,
) (restmachinery.Server, error) {
	ctx := context.Background()

	// API server config
	apiConfig, err := restmachinery.GetConfigFromEnvironment()
	if err != nil {
		return nil, err
	}

	// Common
	database, err := mongodb.Database()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis.Client()
	if err != nil {
		return nil, err
	}
	s3Client, bucket, err := libS3.Client(ctx)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	authMetrics := metrics.New(registry)
	audits := audit.NewZapSink(logger)

	// Users
	usersStore, err := authxMongodb.NewUsersStore(database)
	if err != nil {
		return nil, err
	}
	usersService := authx.NewUsersService(usersStore, audits)

	// Sessions-- depend on users
	issuerURL, verifierConfig, providerCacheTTL, err :=
		authx.GetIdentityConfigFromEnvironment()
	if err != nil {
		return nil, err
	}
	sessionsConfig, err := authx.GetSessionsServiceConfigFromEnvironment()
	if err != nil {
		return nil, err
	}
	// Role hints are a development convenience. Production mode wins over the
	// flag no matter how it is set.
	sessionsConfig.RoleHintsEnabled =
		sessionsConfig.RoleHintsEnabled && apiConfig.DevelopmentMode()
	providers := authx.NewProviderCache(issuerURL, providerCacheTTL, logger)
	verifier := authx.NewIdentityVerifier(providers, verifierConfig, logger)
	refresher := authx.NewRefreshManager(providers, verifierConfig, logger)
	sessionsStore := authxRedis.NewSessionsStore(redisClient)
	sessionsService := authx.NewSessionsService(
		sessionsStore,
		usersStore,
		authx.NewCredentialsValidator(usersStore),
		verifier,
		audits,
		authMetrics,
		logger,
		sessionsConfig,
	)

	// Filters-- depend on sessions
	authFilter := authxREST.NewSessionAuthFilter(
		sessionsService.GetByToken,
		usersStore.Get,
		refresher.EnsureFresh,
		sessionsService.Update,
		sessionsService.Delete,
		authMetrics,
		logger,
	)
	resolveUser := authx.NewUserResolver(usersStore)
	userFilter := authxREST.NewRoleFilter(resolveUser, authMetrics, logger)
	adminFilter := authxREST.NewRoleFilter(
		resolveUser,
		authMetrics,
		logger,
		authx.RoleAdmin,
	)

	// Projects
	projectsStore, err := coreMongodb.NewProjectsStore(database)
	if err != nil {
		return nil, err
	}
	vulnerabilitiesStore, err := coreMongodb.NewVulnerabilitiesStore(database)
	if err != nil {
		return nil, err
	}
	reportsStore, err := coreMongodb.NewReportsStore(database)
	if err != nil {
		return nil, err
	}
	blobStore := coreS3.NewBlobStore(s3Client, bucket)
	projectsService := core.NewProjectsService(
		projectsStore,
		usersStore,
		vulnerabilitiesStore,
		reportsStore,
		blobStore,
		audits,
		logger,
	)
	vulnerabilitiesService := core.NewVulnerabilitiesService(
		projectsStore,
		vulnerabilitiesStore,
	)
	reportsService := core.NewReportsService(
		projectsStore,
		reportsStore,
		blobStore,
		audits,
		logger,
	)

	baseEndpoints := &restmachinery.BaseEndpoints{
		Logger: logger,
	}

	return restmachinery.NewServer(
		apiConfig,
		baseEndpoints,
		[]restmachinery.Endpoints{
			authxREST.NewSessionsEndpoints(
				baseEndpoints,
				authFilter,
				userFilter,
				sessionsService,
				apiConfig.TLSEnabled(),
			),
			authxREST.NewUsersEndpoints(
				baseEndpoints,
				authFilter,
				adminFilter,
				usersService,
			),
			coreREST.NewProjectsEndpoints(
				baseEndpoints,
				authFilter,
				userFilter,
				projectsService,
			),
			coreREST.NewVulnerabilitiesEndpoints(
				baseEndpoints,
				authFilter,
				userFilter,
				vulnerabilitiesService,
			),
			coreREST.NewReportsEndpoints(
				baseEndpoints,
				authFilter,
				userFilter,
				reportsService,
			),
			metrics.NewEndpoints(registry),
		},
	), nil
}
