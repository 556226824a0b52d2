package client

import (
	"fmt"

	"cake-marketplace/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

func InitRabbitMQClient(cfg *config.RabbitMQ) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	return conn, nil
}
