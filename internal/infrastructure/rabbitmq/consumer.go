package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-restaurant-seating/internal/config"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
)

// Handler は受信したイベントを処理する
type Handler func(ctx context.Context, ev reservation.Event) error

// Consume はキューからイベントを受け取り handler に渡す
// ctx がキャンセルされるか接続が切れるまで戻らない
func Consume(ctx context.Context, cfg *config.RabbitMQConfig, handler Handler) error {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return fmt.Errorf("RabbitMQ への接続に失敗: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("チャネルのオープンに失敗: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("QoS の設定に失敗", zap.Error(err))
	}
	if err := declareQueue(ch, cfg.Queue); err != nil {
		return err
	}
	deliveries, err := ch.ConsumeWithContext(ctx, cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("キューの購読に失敗: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("配信チャネルが閉じられました")
			}
			handleDelivery(ctx, d, handler)
		}
	}
}

func handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler) {
	var ev reservation.Event
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		// 壊れたメッセージは再送しない
		logger.Error("イベントの復元に失敗", zap.String("message_id", d.MessageId), zap.Error(err))
		_ = d.Reject(false)
		return
	}
	if err := handler(ctx, ev); err != nil {
		logger.Error("イベント処理に失敗", zap.String("event_id", ev.ID), zap.Error(err))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
