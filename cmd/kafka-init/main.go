package main

import (
	"context"
	"flag"
	"log"
	"time"

	config "github.com/NordCoder/ipwatch/internal/config/pinger"
	"github.com/NordCoder/ipwatch/internal/obs"
	"github.com/NordCoder/ipwatch/internal/repository/kafka"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config/pinger.yaml", "path to the pinger yaml config")
	partitions := flag.Int("partitions", 1, "partitions per topic")
	rf := flag.Int("rf", 1, "replication factor")
	trigger := flag.String("trigger", "", "after the topics are ready, request an immediate cycle with this reason")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	l, err := obs.NewLogger(cfg.LoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, topic := range []string{cfg.Kafka.TransitionsTopic, cfg.Kafka.TriggerTopic} {
		err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, kafka.TopicSpec{
			Name:              topic,
			NumPartitions:     *partitions,
			ReplicationFactor: *rf,
			MaxWait:           30 * time.Second,
		}, l)
		if err != nil {
			l.Fatal("ensure topic", zap.String("topic", topic), zap.Error(err))
		}
	}

	if *trigger != "" {
		prod := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TriggerTopic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		if err := kafka.NewTriggerRequests(prod).RequestCycle(ctx, *trigger); err != nil {
			l.Fatal("request cycle", zap.Error(err))
		}
		l.Info("cycle requested", zap.String("reason", *trigger))
	}
	l.Info("kafka-init ok")
}
