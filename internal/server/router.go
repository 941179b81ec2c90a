package server

import "github.com/gin-gonic/gin"

// NewRouter builds the HTTP router for the sandbox service.
func NewRouter(svc *ServiceContext) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), TraceContextMiddleware())

	router.GET("/healthz", healthHandler)

	api := router.Group("/api/v1")
	{
		api.POST("/execute", svc.executeHandler)
		api.POST("/toolchain/run", svc.toolchainHandler)
		api.GET("/resolve", svc.resolveHandler)

		files := api.Group("/files")
		{
			files.POST("", svc.writeFileHandler)
			files.GET("", svc.readFileHandler)
			files.GET("/list", svc.listDirHandler)
			files.DELETE("", svc.removeFileHandler)
		}

		plugins := api.Group("/plugins")
		{
			plugins.POST("", svc.registerPluginHandler)
			plugins.GET("", svc.listPluginsHandler)
			plugins.GET("/:name", svc.getPluginHandler)
			plugins.PUT("/:name/active", svc.setPluginActiveHandler)
			plugins.PUT("/:name/settings", svc.setPluginSettingHandler)
			plugins.GET("/:name/settings/:key", svc.getPluginSettingHandler)
		}
	}

	return router
}
