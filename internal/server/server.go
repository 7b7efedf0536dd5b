// Package server assembles the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ishaara/internal/config"
	"ishaara/internal/domain/blob"
	"ishaara/internal/domain/contact"
	"ishaara/internal/domain/contribution"
	"ishaara/internal/domain/docstore"
	"ishaara/internal/domain/files"
	"ishaara/internal/domain/upload"
	"ishaara/internal/middleware"
	"ishaara/internal/pkg/response"
)

// NewRouter wires every service over store and blobStore and mounts them
// under /api. blobStore may be nil.
func NewRouter(cfg *config.Config, store docstore.Store, blobStore blob.Store) *gin.Engine {
	fileService := files.NewService(store, cfg.FilesCollection, cfg.ContributionsCollection)
	fileHandler := files.NewHandler(fileService)

	contributionService := contribution.NewService(store, fileService, cfg.ContributionsCollection)
	contributionHandler := contribution.NewHandler(contributionService)

	contactService := contact.NewService(store, cfg.ContactsCollection)
	contactHandler := contact.NewHandler(contactService)

	uploadService := upload.NewService(blobStore, fileService, cfg.BlobFolder, cfg.MaxUploadBytes)
	uploadHandler := upload.NewHandler(uploadService)

	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger(), middleware.CORS())
	r.MaxMultipartMemory = 8 << 20

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			response.Success(c, http.StatusOK, gin.H{
				"status":          "ok",
				"blob_configured": uploadService.Configured(),
			})
		})

		upload.RegisterRoutes(api, uploadHandler)
		files.RegisterRoutes(api, fileHandler)
		contribution.RegisterRoutes(api, contributionHandler)
		contact.RegisterRoutes(api, contactHandler)
	}

	return r
}
