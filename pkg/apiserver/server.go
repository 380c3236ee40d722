package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grlabs/grepp/pkg/backend"
	"github.com/grlabs/grepp/pkg/version"
	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type apiServer struct {
	ctx  context.Context
	log  *logrus.Entry
	port int
}

func NewAPIServer(ctx context.Context, log *logrus.Entry, port int) *apiServer {
	return &apiServer{
		ctx:  ctx,
		log:  log,
		port: port,
	}
}

func (a *apiServer) Start(backend backend.Backend) error {
	logrus.Infof("Version: %s", version.Get())

	router := mux.NewRouter().StrictSlash(true)
	router.Use(loggingMiddleware(a.log))
	h := newHandler(backend)

	// When functioning properly, these routes return the running version
	router.Path("/").HandlerFunc(h.root)
	router.Path("/healthz").HandlerFunc(h.root)

	api := router.PathPrefix("/v1").Subrouter()

	// All registry-touching routes require the configured bearer token
	authedRoutes := api.PathPrefix("/domains/{domain}").Subrouter()
	authedRoutes.Use(tokenAuthMiddleware(backend))

	// Lifecycle actions on the domain resource
	authedRoutes.Path("/check").Methods("GET").HandlerFunc(h.checkDomain)
	authedRoutes.Path("/renew").Methods("POST").HandlerFunc(h.renew)
	authedRoutes.Path("/transfer").Methods("POST").HandlerFunc(h.transfer)
	authedRoutes.Path("/recall").Methods("POST").HandlerFunc(h.recall)

	// Delegation and lock sub-resources
	authedRoutes.Path("/nameservers").Methods("GET").HandlerFunc(h.getNameservers)
	authedRoutes.Path("/nameservers").Methods("PUT").HandlerFunc(h.setNameservers)
	authedRoutes.Path("/contacts").Methods("GET").HandlerFunc(h.contacts)
	authedRoutes.Path("/registrant").Methods("PUT").HandlerFunc(h.updateRegistrant)
	authedRoutes.Path("/lock").Methods("GET").HandlerFunc(h.getLock)
	authedRoutes.Path("/lock").Methods("PUT").HandlerFunc(h.setLock)
	authedRoutes.Path("/transfertoken").Methods("POST").HandlerFunc(h.issueTransferToken)

	// Operator views
	authedRoutes.Path("/audit").Methods("GET").HandlerFunc(h.auditTrail)

	// Bare domain routes go last so they don't shadow the sub-resources
	authedRoutes.Methods("GET").HandlerFunc(h.domainInfo)
	authedRoutes.Methods("POST").HandlerFunc(h.register)
	authedRoutes.Methods("DELETE").HandlerFunc(h.requestDelete)

	// Glue record management for nameservers under managed domains
	hostRoutes := api.PathPrefix("/hosts/{host}").Subrouter()
	hostRoutes.Use(tokenAuthMiddleware(backend))
	hostRoutes.Methods("POST").HandlerFunc(h.registerHost)
	hostRoutes.Methods("PUT").HandlerFunc(h.modifyHost)
	hostRoutes.Methods("DELETE").HandlerFunc(h.deleteHost)

	queueRoutes := api.PathPrefix("/queue").Subrouter()
	queueRoutes.Use(tokenAuthMiddleware(backend))
	queueRoutes.Path("/stats").Methods("GET").HandlerFunc(h.queueStats)

	// Note: this allows not found urls to be logged via the middleware
	// It **HAS** to be defined after all other paths are defined.
	router.NotFoundHandler = router.NewRoute().HandlerFunc(http.NotFound).GetHandler()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: ghandlers.CORS()(router),
	}

	go func() {
		a.log.WithField("port", a.port).Info("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Fatalf("listen: %s\n", err)
		}
	}()

	go backend.StartDispatcherDaemon(a.ctx.Done())

	<-a.ctx.Done()

	a.log.Info("shutting down the api server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer func() {
		cancel()
	}()

	if err := srv.Shutdown(ctx); err != nil {
		a.log.WithError(err).Error("unable to shutdown the api server gracefully")
		return err
	}

	return nil
}
