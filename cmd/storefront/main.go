package main

import (
	"context"
	"log/slog"
	"os"

	"khilat/config"
	"khilat/internal/delivery"
	"khilat/internal/delivery/http"
	httpmiddleware "khilat/internal/delivery/http/middleware"
	"khilat/internal/delivery/http/router/handler"
	"khilat/internal/domain/service"
	"khilat/internal/infra/cartapi"
	"khilat/internal/infra/cartcache"
	"khilat/internal/infra/checkoutapi"
	logs "khilat/internal/infra/log"
	"khilat/internal/infra/payment"
	"khilat/internal/infra/pubsub"
	"khilat/internal/infra/qrcode"
	"khilat/internal/infra/token"
	"khilat/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectClients(),
		injectUsecase(),
		injectMiddleware(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		cartcache.NewSnapshotCache,
		pubsub.NewEventPublisher,
	)
}

func injectClients() fx.Option {
	return fx.Options(
		fx.Provide(
			cartapi.NewClient,
			checkoutapi.NewClient,
			payment.NewClient,
			token.NewCompletionTokenService,
			newQRCodeService,
		),
	)
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(256, "M")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCartService,
			impl.NewCheckoutService,
			impl.NewCompletionService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			httpmiddleware.NewGuestMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewCartHandler,
			handler.NewCheckoutHandler,
			handler.NewCompletionHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
