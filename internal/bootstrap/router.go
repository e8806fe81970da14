package bootstrap

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/wheelforge/wheelforge-backend/internal/api/http"
	"github.com/wheelforge/wheelforge-backend/internal/api/http/middleware"
	"github.com/wheelforge/wheelforge-backend/internal/builder"
	"github.com/wheelforge/wheelforge-backend/internal/storage/projectfs"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Store       *projectfs.Store
	Resolver    httpapi.Resolver
	Fetcher     httpapi.Fetcher
	Runner      *builder.Runner
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.Default())
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store.Root())
	healthHandler.RegisterRoutes(r)

	handler := httpapi.New(dep.Store, dep.Resolver, dep.Fetcher, dep.Runner)
	handler.Register(r)

	return r
}
