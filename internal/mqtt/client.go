package mqtt

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/AquaNexus/aquanexus_backend/config"
	"github.com/AquaNexus/aquanexus_backend/internal/models"
	"github.com/AquaNexus/aquanexus_backend/internal/services"
)

// Client wraps the MQTT client with aquaponics sensor ingest
type Client struct {
	client       mqtt.Client
	parser       *services.SensorParser
	cfg          config.MQTTConfig
	plantHandler func(*models.PlantReading)
	fishHandler  func(*models.FishReading)
	errorHandler func(error)
	isConnected  bool
}

// NewClient creates a new MQTT client for the sensor nodes
func NewClient(cfg config.MQTTConfig) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetPingTimeout(cfg.PingTimeout)
	opts.SetCleanSession(true)
	opts.SetConnectRetry(cfg.ConnectRetry)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := &Client{
		parser:      services.NewSensorParser(),
		cfg:         cfg,
		isConnected: false,
	}

	// Set connection handlers
	opts.SetDefaultPublishHandler(client.defaultMessageHandler)
	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)

	client.client = mqtt.NewClient(opts)

	return client
}

// Connect establishes connection to the MQTT broker
func (c *Client) Connect() error {
	log.Println("📡 Connecting to MQTT broker...")

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Println("✅ Connected to MQTT broker")
	c.isConnected = true
	return nil
}

// Disconnect closes the MQTT connection
func (c *Client) Disconnect() {
	if c.isConnected {
		c.client.Disconnect(250)
		c.isConnected = false
		log.Println("Disconnected from MQTT broker")
	}
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	return c.isConnected && c.client.IsConnected()
}

// SubscribeToSensorData subscribes to the plant and fish reading topics
func (c *Client) SubscribeToSensorData() error {
	if token := c.client.Subscribe(c.cfg.TopicPlantReadings, 1, c.plantDataHandler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.cfg.TopicPlantReadings, token.Error())
	}
	log.Printf("Subscribed to topic: %s", c.cfg.TopicPlantReadings)

	if token := c.client.Subscribe(c.cfg.TopicFishReadings, 1, c.fishDataHandler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.cfg.TopicFishReadings, token.Error())
	}
	log.Printf("Subscribed to topic: %s", c.cfg.TopicFishReadings)

	return nil
}

// SetPlantHandler sets the callback for parsed plant readings
func (c *Client) SetPlantHandler(handler func(*models.PlantReading)) {
	c.plantHandler = handler
}

// SetFishHandler sets the callback for parsed fish readings
func (c *Client) SetFishHandler(handler func(*models.FishReading)) {
	c.fishHandler = handler
}

// SetErrorHandler sets the callback function for errors
func (c *Client) SetErrorHandler(handler func(error)) {
	c.errorHandler = handler
}

// plantDataHandler processes incoming plant sensor messages
func (c *Client) plantDataHandler(client mqtt.Client, msg mqtt.Message) {
	reading, err := c.parser.ParsePlantJSON(msg.Payload())
	if err != nil {
		log.Printf("Failed to parse plant sensor data: %v", err)
		if c.errorHandler != nil {
			c.errorHandler(fmt.Errorf("plant sensor parsing failed: %w", err))
		}
		return
	}

	log.Printf("🌱 %s", c.parser.FormatPlantReading(reading))

	if c.plantHandler != nil {
		c.plantHandler(reading)
	}
}

// fishDataHandler processes incoming fish tank sensor messages
func (c *Client) fishDataHandler(client mqtt.Client, msg mqtt.Message) {
	reading, err := c.parser.ParseFishJSON(msg.Payload())
	if err != nil {
		log.Printf("Failed to parse fish sensor data: %v", err)
		if c.errorHandler != nil {
			c.errorHandler(fmt.Errorf("fish sensor parsing failed: %w", err))
		}
		return
	}

	log.Printf("🐟 %s", c.parser.FormatFishReading(reading))

	if c.fishHandler != nil {
		c.fishHandler(reading)
	}
}

// defaultMessageHandler handles messages on unsubscribed topics
func (c *Client) defaultMessageHandler(client mqtt.Client, msg mqtt.Message) {
	log.Printf("Received message on unhandled topic %s: %s", msg.Topic(), string(msg.Payload()))
}

// onConnect callback when connection is established
func (c *Client) onConnect(client mqtt.Client) {
	log.Println("MQTT client connected")
	c.isConnected = true
}

// onConnectionLost callback when connection is lost
func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
	c.isConnected = false

	if c.errorHandler != nil {
		c.errorHandler(fmt.Errorf("MQTT connection lost: %w", err))
	}
}
