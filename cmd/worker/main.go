// Command worker drains the social outbox and repairs follow counters.
//
//	worker -mode relay          # poll the outbox until stopped
//	worker -mode relay -once    # one batch, then exit
//	worker -mode reconcile      # one counter repair pass
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"prizetalk/internal/config"
	"prizetalk/internal/pkg"
	"prizetalk/internal/repository/rdb"
	"prizetalk/internal/service"
)

func main() {
	mode := flag.String("mode", "relay", "relay | reconcile")
	once := flag.Bool("once", false, "relay a single batch and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := pkg.NewLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("worker").With(zap.String("mode", *mode))

	db, err := rdb.Open(cfg, logger)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := rdb.Migrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "relay":
		senders := []service.Sender{service.LogSender(logger)}
		if len(cfg.KafkaBrokers) > 0 {
			producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
			defer producer.Close()
			senders = append(senders, service.KafkaSender(producer))
			logger.Info("kafka sender enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		}
		if cfg.SMTPHost != "" {
			mailer := pkg.NewMailer(pkg.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				Username: cfg.SMTPUsername,
				Password: cfg.SMTPPassword,
				From:     cfg.SMTPFrom,
			})
			senders = append(senders, service.MailSender(db, mailer))
			logger.Info("mail sender enabled", zap.String("host", cfg.SMTPHost))
		}

		relayer := service.NewOutboxRelayer(db, service.MultiSender(senders...), cfg.RelayBatchSize, cfg.RelayInterval, logger)
		if *once {
			n, err := relayer.DrainOnce(ctx)
			if err != nil {
				logger.Fatal("relay", zap.Error(err))
			}
			logger.Info("relay done", zap.Int("processed", n))
			return
		}
		relayer.Run(ctx)

	case "reconcile":
		fixed, err := service.NewFollowCountReconciler(db, cfg.ReconcileBatchSize, logger).ReconcileOnce(ctx)
		if err != nil {
			logger.Fatal("reconcile", zap.Error(err))
		}
		logger.Info("reconcile done", zap.Int("fixed", fixed))

	default:
		logger.Fatal("unknown mode")
	}
}
