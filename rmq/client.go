package rmq

import (
	"encoding/json"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"text2phenotype.com/standoff/logger"
)

type Config struct {
	Host                    string `envconfig:"MDL_COMN_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"MDL_COMN_RMQ_PORT" required:"true"`
	Username                string `envconfig:"MDL_COMN_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"MDL_COMN_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"MDL_COMN_RMQ_DEFAULT_EXCHANGE" default:"text2phenotype-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"STANDOFF_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	StandoffTaskQueue       string `envconfig:"MDL_COMN_STANDOFF_TASK_QUEUE" required:"true"`
	SequencerTaskQueue      string `envconfig:"MDL_COMN_SEQUENCER_TASK_QUEUE" required:"true"`
}

// Client consumes standoff tasks on one connection and answers the
// sequencer on another, so a blocked publisher never stalls consumption.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	fdlLogger      zerolog.Logger
}

func NewClient() (*Client, error) {
	fdlLogger := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fdlLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	url := getURL(config)
	respConn, respChannel, err := setup(url)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(url)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}

	deliveries, err := consume(reqChannel, config)
	if err != nil {
		_ = respConn.Close()
		_ = reqConn.Close()
		return nil, err
	}
	fdlLogger.Info().Str("queue", config.StandoffTaskQueue).Msg("Consuming standoff tasks")

	return &Client{
		Deliveries:     deliveries,
		ReqChanErrors:  reqChannel.NotifyClose(make(chan *amqp.Error)),
		RespChanErrors: respChannel.NotifyClose(make(chan *amqp.Error)),
		config:         config,
		reqConn:        reqConn,
		respConn:       respConn,
		respChannel:    respChannel,
		fdlLogger:      fdlLogger,
	}, nil
}

func consume(channel *amqp.Channel, config Config) (<-chan amqp.Delivery, error) {
	q, err := channel.QueueDeclarePassive(
		config.StandoffTaskQueue, // name
		true,                     // durable
		false,                    // delete when unused
		false,                    // exclusive
		false,                    // no-wait
		nil,                      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", config.StandoffTaskQueue, err)
	}
	if err := channel.QueueBind(q.Name, q.Name, config.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind %s: %w", q.Name, err)
	}
	if err := channel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := channel.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	return deliveries, nil
}

// SendToSequencer publishes message as JSON to the sequencer queue.
func (c *Client) SendToSequencer(message interface{}, contentType string) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	c.fdlLogger.Debug().Str("queue", c.config.SequencerTaskQueue).Msg("Publishing to sequencer")
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.SequencerTaskQueue,
		false,
		false,
		amqp.Publishing{ContentType: contentType, Body: body},
	)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
