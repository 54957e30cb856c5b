package main

import (
	"context"
	"net/http"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"

	"github.com/anivartee/anivartee/moderation"
	"github.com/anivartee/anivartee/points"
	"github.com/anivartee/anivartee/server"
	"github.com/anivartee/anivartee/utils"
	"github.com/anivartee/anivartee/utils/dotenv"
	. "github.com/anivartee/anivartee/utils/flag"
	. "github.com/anivartee/anivartee/utils/log"
	"github.com/anivartee/anivartee/worker"
)

func init() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	utils.StartTracer()
	utils.StartProfiler()

	Log.Info("moderation server initialized")
}

func NewDogStatsdClient() *statsd.Client {
	client, err := statsd.New("127.0.0.1:8125")
	if err != nil {
		panic(err)
	}
	return client
}

// NewClaimStatusStore connects to redis. The store is a read optimization, a
// missing redis only degrades queue listings instead of failing startup.
func NewClaimStatusStore() *moderation.ClaimStatusStore {
	store, err := moderation.GetClaimStatusStore()
	if err != nil {
		Log.Warnf("claim status store unavailable, queue listings will not be annotated: %v", err)
		return nil
	}
	return store
}

func main() {
	db, err := utils.GetDefaultDBConnection()
	if err != nil {
		panic(err)
	}
	utils.DatabaseSetupAndMigration(db)

	eventbus := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            100,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NewStdLogger(false, false),
	)

	// Service graph. Side effects of the moderation flows (points, activity,
	// draft cleanup) go through the event bus and are applied by the worker
	// engine below.
	claimStatus := NewClaimStatusStore()
	effects := worker.NewSideEffectPublisher(eventbus)
	pointsService := points.NewService(db)
	activity := moderation.NewActivityService(db)
	queue := moderation.NewQueueService(db)
	claims := moderation.NewClaimService(db, queue, pointsService, claimStatus)
	flags := moderation.NewFlagService(db, pointsService, effects)
	interactions := moderation.NewInteractionService(db, flags, effects)
	verdicts := moderation.NewVerdictService(db, claims, queue, pointsService, effects)

	ctx, cancel := context.WithCancel(context.Background())
	engine := worker.NewEngine([]worker.Module{
		worker.NewClaimJanitor(Janitor, claims, NewDogStatsdClient()),
		worker.NewSideEffectWorker("side_effect_worker", eventbus, pointsService, activity, verdicts),
	}, ctx, cancel, eventbus)
	go engine.Run()

	defer func() {
		engine.Shutdown()
		utils.CloseProfiler()
		utils.CloseTracer()
		Log.Info("moderation server shutdown")
	}()

	// Default with the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(gintrace.Middleware(ServiceName))

	handler := server.NewHandler(db, queue, claims, flags, interactions, verdicts, pointsService, claimStatus)
	handler.RegisterRoutes(router)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	Log.Info("moderation server starts up")
	router.Run(":8080")
}
