package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"clob/api/rest"
	"clob/api/wire"
	"clob/api/ws"
	"clob/config"
	"clob/domain/orderbook"
	"clob/infra/kafka"
	"clob/infra/sequence"
	"clob/jobs/broadcaster"
	"clob/marketdata"
	"clob/outbox"
	"clob/service"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log := buildLogger(cfg.Dev)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---------------- Core ----------------

	if cfg.PoolCapacity <= 0 {
		cfg.PoolCapacity = orderbook.DefaultPoolCapacity
	}
	pool := orderbook.NewOrderPool(cfg.PoolCapacity)
	book := orderbook.NewBook(cfg.PoolCapacity)
	engine := orderbook.NewEngine(book, pool)

	// ---------------- Market data ----------------

	pubs := []marketdata.Publisher{
		marketdata.NewMetricsObserver(prometheus.DefaultRegisterer),
	}

	hub := ws.NewHub(log.Named("ws"), 256)
	go hub.Run(ctx)
	pubs = append(pubs, hub)

	if cfg.Dev {
		pubs = append(pubs, marketdata.NewLogPublisher(log.Named("feed")))
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		kp := marketdata.NewKafkaPublisher(producer, log.Named("kafka"), 1024)
		go kp.Run(ctx)
		pubs = append(pubs, kp)
	}

	engine.PublishTo(marketdata.NewFanout(pubs...), cfg.DepthLimit)

	// ---------------- Outbox ----------------

	var ledger *outbox.Ledger
	if cfg.Outbox.Enabled {
		ledger, err = outbox.Open(cfg.Outbox.Dir)
		if err != nil {
			log.Fatal("outbox open failed", zap.Error(err))
		}
		defer ledger.Close()

		if cfg.Kafka.Enabled {
			bc, err := broadcaster.New(ledger, cfg.Kafka.Brokers, cfg.Kafka.Topic+".trades",
				250*time.Millisecond, log.Named("broadcaster"))
			if err != nil {
				log.Fatal("broadcaster init failed", zap.Error(err))
			}
			defer bc.Close()
			bc.ReplaySent()
			bc.Start(ctx)
		}
	}

	// ---------------- Service ----------------

	ids := sequence.New(uint64(time.Now().UnixNano()))
	metrics := service.NewMetrics(prometheus.DefaultRegisterer, engine)
	svc := service.NewOrderService(engine, ids, cfg.RecentTrades, ledger, log.Named("service"), metrics)

	if cfg.Seed {
		seedBook(svc, log)
	}

	// ---------------- Listeners ----------------

	api := rest.NewServer(svc, log.Named("rest"), cfg.DepthLimit)
	api.Router().Handle("/ws", hub)

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: api}
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server exited", zap.Error(err))
		}
	}()

	if cfg.WireAddr != "" {
		ln, err := net.Listen("tcp", cfg.WireAddr)
		if err != nil {
			log.Fatal("wire listen failed", zap.Error(err))
		}
		wireSrv := wire.NewServer(svc, log.Named("wire"))
		go func() {
			log.Info("wire listening", zap.String("addr", cfg.WireAddr))
			if err := wireSrv.Serve(ctx, ln); err != nil {
				log.Error("wire server exited", zap.Error(err))
			}
		}()
	}

	// ---------------- Shutdown ----------------

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	_ = httpSrv.Shutdown(shutdownCtx)
}

func buildLogger(dev bool) *zap.Logger {
	if dev {
		log, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log
	}
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return log
}

// seedBook pre-populates a demo book: ten asks stepping up from
// $105.00 and ten bids stepping down from $104.90.
func seedBook(svc *service.OrderService, log *zap.Logger) {
	for i := 0; i < 10; i++ {
		price := int64(10500 + i*10)
		qty := uint64(100 + i*20)
		if _, err := svc.PlaceOrder(uint64(1000+i), orderbook.Ask, price, qty); err != nil {
			log.Warn("seed ask failed", zap.Error(err))
		}
	}
	for i := 0; i < 10; i++ {
		price := int64(10490 - i*10)
		qty := uint64(100 + i*20)
		if _, err := svc.PlaceOrder(uint64(2000+i), orderbook.Bid, price, qty); err != nil {
			log.Warn("seed bid failed", zap.Error(err))
		}
	}
	log.Info("seeded demo book", zap.Int("orders", 20))
}
