package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront/cart"
	"storefront/catalog"
	"storefront/config"
	"storefront/consumers"
	"storefront/controllers"
	"storefront/database"
	"storefront/favorites"
	"storefront/middlewares"
	"storefront/models"
	"storefront/offers"
	"storefront/orders"
	"storefront/rabbitmq"
	"storefront/reviews"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.LoadConfig()

	// Storage: MySQL when reachable, in-memory otherwise. A missing database
	// degrades durability, not availability.
	var (
		cartStorage cart.Storage
		orderStore  orders.Store
	)
	if err := database.InitDB(cfg); err != nil {
		logger.Warn("database unavailable, using in-memory storage", zap.Error(err))
		cartStorage = cart.NewMemoryStorage()
		orderStore = orders.NewMemoryStore()
	} else {
		defer database.CloseDB()
		cartStorage = cart.NewMySQLStorage(database.DB)
		orderStore = orders.NewMySQLStore(database.DB)
	}

	carts := cart.NewStore(cartStorage, logger)
	defer carts.Close()

	// Messaging is optional the same way: without a broker, order events are
	// skipped and checkout still works.
	var publisher orders.EventPublisher
	if rmq, err := rabbitmq.NewRabbitMQ(cfg, logger); err != nil {
		logger.Warn("rabbitmq unavailable, order events disabled", zap.Error(err))
	} else {
		defer rmq.Close()
		if err := rmq.SetupQueues(); err != nil {
			logger.Warn("rabbitmq queue setup failed, order events disabled", zap.Error(err))
		} else {
			publisher = rmq
			consumer := &consumers.OrderConsumer{Store: orderStore, Logger: logger}
			if err := consumer.Start(rmq.Channel, cfg); err != nil {
				logger.Warn("failed to start order consumer", zap.Error(err))
			}
		}
	}

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout, logger)

	methods, err := catalog.LoadShippingMethods(cfg.DataDir)
	if err != nil {
		logger.Warn("shipping methods seed missing, pickup only", zap.Error(err))
	}
	if !hasMethod(methods, cfg.PickupMethodID) {
		methods = append(methods, models.ShippingMethod{
			ID: cfg.PickupMethodID, Name: "Retiro en tienda", Cost: 0, ETA: "Hoy",
		})
	}
	coupons, err := catalog.LoadCoupons(cfg.DataDir)
	if err != nil {
		logger.Warn("coupon seed missing, no coupons active", zap.Error(err))
		coupons = map[string]models.Coupon{}
	}

	emitter := orders.NewEmitter(orderStore, carts, publisher, cfg.PaymentWindow, logger)

	favService := favorites.NewService(
		favorites.NewHTTPClient(cfg.CatalogBaseURL, cfg.CatalogTimeout), logger)

	httpClient := &http.Client{Timeout: cfg.OffersTimeout}
	sources := []offers.Source{
		&offers.DummyJSON{BaseURL: "https://dummyjson.com", USDToCLPRate: cfg.USDToCLPRate, Client: httpClient},
		&offers.FakeStore{BaseURL: "https://fakestoreapi.com", USDToCLPRate: cfg.USDToCLPRate, Client: httpClient},
	}
	for _, site := range cfg.OffersSites {
		sources = append(sources, &offers.MercadoLibre{
			BaseURL: "https://api.mercadolibre.com", Site: site, Client: httpClient,
		})
	}
	aggregator := offers.NewAggregator(sources,
		offers.NewCache(cfg.OffersCacheTTL, cfg.OffersCacheSize),
		cfg.OffersTimeout, cfg.OffersMaxResults, logger)

	cartCtl := &controllers.CartController{
		Carts: carts, Catalog: catalogClient,
		TaxRate: cfg.TaxRate, PickupID: cfg.PickupMethodID, Logger: logger,
	}
	checkoutCtl := &controllers.CheckoutController{
		Cart: cartCtl, Emitter: emitter, Coupons: coupons, Methods: methods,
		TaxRate: cfg.TaxRate, PickupID: cfg.PickupMethodID, Logger: logger,
	}
	orderCtl := &controllers.OrderController{Emitter: emitter, Logger: logger}
	favCtl := &controllers.FavoritesController{Favorites: favService, Logger: logger}
	reviewsCtl := &controllers.ReviewsController{
		Reviews: reviews.NewHTTPClient(cfg.CatalogBaseURL, cfg.CatalogTimeout), Logger: logger,
	}
	catalogCtl := &controllers.CatalogController{Catalog: catalogClient, Logger: logger}
	offersCtl := &controllers.OffersController{Aggregator: aggregator}

	r := gin.Default()
	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/products", catalogCtl.ListProducts)
	r.GET("/api/categories", catalogCtl.ListCategories)
	r.GET("/api/offers", offersCtl.SearchOffers)
	r.GET("/api/shipping-methods", checkoutCtl.ShippingMethods)
	r.GET("/api/products/:id/reviews", reviewsCtl.ListProductReviews)

	authGroup := r.Group("/api")
	authGroup.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	{
		authGroup.GET("/cart", cartCtl.GetCart)
		authGroup.POST("/cart/items", cartCtl.AddItem)
		authGroup.PUT("/cart/items/:id", cartCtl.SetQuantity)
		authGroup.DELETE("/cart/items/:id", cartCtl.RemoveItem)
		authGroup.DELETE("/cart", cartCtl.ClearCart)

		authGroup.POST("/checkout", checkoutCtl.Submit)

		authGroup.GET("/orders", orderCtl.ListOrders)
		authGroup.GET("/orders/:id", orderCtl.GetOrder)
		authGroup.PUT("/orders/:id/status", orderCtl.UpdateOrderStatus)

		authGroup.GET("/favorites", favCtl.ListFavorites)
		authGroup.POST("/favorites", favCtl.AddFavorite)
		authGroup.DELETE("/favorites/:id", favCtl.RemoveFavorite)

		authGroup.POST("/reviews", reviewsCtl.CreateReview)
		authGroup.DELETE("/reviews/:id", reviewsCtl.DeleteReview)
	}

	port := ":8080"
	logger.Info("storefront starting", zap.String("port", port))
	if err := r.Run(port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func hasMethod(methods []models.ShippingMethod, id string) bool {
	for _, m := range methods {
		if m.ID == id {
			return true
		}
	}
	return false
}
