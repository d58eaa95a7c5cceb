package main

import "time"

type Config struct {
	Host           string        `env:"HOST,default=localhost"`
	Port           int           `env:"PORT,default=8080"`
	QueueSize      int           `env:"QUEUE_SIZE,default=64"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	MetricInterval time.Duration `env:"METRIC_INTERVAL,default=30s"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
}
