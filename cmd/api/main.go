package main

import (
	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/handler"
	"bookstore/internal/infra/db"
	infraRepo "bookstore/internal/infra/repository"
	"bookstore/internal/payment"
	"bookstore/internal/server"
	"bookstore/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envが無くても環境変数だけで動く
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.PasswordResetToken{},
		&model.Category{},
		&model.Book{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Review{},
		&model.Wishlist{},
		&model.WishlistItem{},
		&model.PurchasedBook{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	bookRepo := infraRepo.NewBookGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	resetRepo := infraRepo.NewPasswordResetTokenGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	purchasedRepo := infraRepo.NewPurchasedBookGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//PayPal返金クライアント
	paypalClient := payment.NewPayPalClient(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalClientSecret, logger)

	//Usecase生成
	bookUC := usecase.NewBookUsecase(bookRepo, categoryRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	cartUC := usecase.NewCartUsecase(txManager)
	orderUC := usecase.NewOrderUsecase(txManager, paypalClient, purchasedRepo, cfg.ShippingFeeCents)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, paypalClient)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, resetRepo)
	userUC := usecase.NewUserUsecase(userRepo)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, bookRepo, userRepo)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, bookRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:       handler.NewAuthHandler(authUC),
		Book:       handler.NewBookHandler(bookUC),
		AdminBook:  handler.NewAdminBookHandler(bookUC),
		Category:   handler.NewCategoryHandler(categoryUC),
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC, orderUC),
		User:       handler.NewUserHandler(userUC),
		Review:     handler.NewReviewHandler(reviewUC),
		Wishlist:   handler.NewWishlistHandler(wishlistUC),
	}

	//Server起動
	e := server.New(cfg, logger, handlers)
	if err := server.Start(e, cfg); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.GoEnv == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
