package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/mattraynor/fundraiser-api/docs"
	v1 "github.com/mattraynor/fundraiser-api/internal/api/handler/v1"
	"github.com/mattraynor/fundraiser-api/internal/api/middleware"
	"github.com/mattraynor/fundraiser-api/internal/config"
	"github.com/mattraynor/fundraiser-api/internal/repository"
	"github.com/mattraynor/fundraiser-api/internal/repository/dao"
	"github.com/mattraynor/fundraiser-api/internal/service"
)

const donationRatePerMinute = 10

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB, provider service.PaymentProvider, tasks service.TaskQueue) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	campaignHandler := s.initCampaignHandler(db)
	donationHandler := s.initDonationHandler(db, provider, tasks)
	webhookHandler := s.initWebhookHandler(db, provider, tasks)
	s.MountHandlers(campaignHandler, donationHandler, webhookHandler)

	return s
}

func (s *Server) initCampaignHandler(db *gorm.DB) *v1.CampaignHandler {
	campaignDAO := dao.NewCampaignDAO(db)
	repo := repository.NewCampaignRepository(campaignDAO)
	svc := service.NewCampaignService(repo)
	handler := v1.NewCampaignHandler(svc)

	return handler
}

func (s *Server) initDonationHandler(db *gorm.DB, provider service.PaymentProvider, tasks service.TaskQueue) *v1.DonationHandler {
	repo := repository.NewDonationRepository(dao.NewDonationDAO(db))
	campaignRepo := repository.NewCampaignRepository(dao.NewCampaignDAO(db))
	svc := service.NewDonationService(repo, campaignRepo, provider, tasks, s.Config.API, s.Config.Donation)
	handler := v1.NewDonationHandler(svc)

	return handler
}

func (s *Server) initWebhookHandler(db *gorm.DB, provider service.PaymentProvider, tasks service.TaskQueue) *v1.WebhookHandler {
	repo := repository.NewDonationRepository(dao.NewDonationDAO(db))
	campaignRepo := repository.NewCampaignRepository(dao.NewCampaignDAO(db))
	svc := service.NewDonationService(repo, campaignRepo, provider, tasks, s.Config.API, s.Config.Donation)
	handler := v1.NewWebhookHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(campaignHandler *v1.CampaignHandler, donationHandler *v1.DonationHandler, webhookHandler *v1.WebhookHandler) {
	const basePath = "/api/v1"

	limiter := middleware.NewRateLimiter(donationRatePerMinute)

	campaigns := s.Router.Group(basePath)
	{
		campaigns.GET("/campaign", campaignHandler.HandleGetCampaign)
		campaigns.GET("/campaign/updates", campaignHandler.HandleGetUpdates)
	}

	donations := s.Router.Group(basePath)
	{
		donations.POST("/donations", limiter.Limit(), donationHandler.HandleCreateDonation)
		donations.GET("/donations/recent", donationHandler.HandleRecentDonations)
		donations.GET("/donations/success", donationHandler.HandlePaymentSuccess)
		donations.GET("/donations/cancel", donationHandler.HandlePaymentCancel)
	}

	webhooks := s.Router.Group(basePath)
	{
		webhooks.POST("/stripe/webhook", webhookHandler.HandleStripeWebhook)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Fundraiser API"
	docs.SwaggerInfo.Description = "Donation campaign API with Stripe checkout."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
