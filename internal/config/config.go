package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// Config структура конфигурации.
type Config struct {
	Logger    LogConf       // Logger - конфигурация регистратора.
	MQTT      MQTTConf      // MQTT - конфигурация MQTT клиента.
	Bridge    BridgeConf    // Bridge - обнаружение и управление show bridge.
	Directory DirectoryConf // Directory - сервер списка шоу.
	ArtNet    ArtNetConf    // ArtNet - зеркалирование DMX в Art-Net.
}

// LogConf структура конфигурации.
type LogConf struct {
	Level  string `toml:"log-level"`  // Level - уровень логирования.
	Format string `toml:"log-format"` // Format - text или json.
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	Enabled  bool   `toml:"enabled"`  // Enabled - включить MQTT.
	ClientID string `toml:"clientID"` // ClientID - имя клиента.
	Host     string `toml:"server"`   // Host - адрес MQTT сервера.
	Port     string `toml:"port"`     // Port - порт MQTT сервера.
	User     string `toml:"user"`     // User - логин для подключения к MQTT серверу.
	Password string `toml:"password"` // Password - пароль для подключения к MQTT серверу.
	Qos      byte   `toml:"qos"`      // Qos - качество обслуживания.
	Prefix   string `toml:"prefix"`   // Prefix - корень дерева топиков.
}

// BridgeConf описывает сокет bridge-протокола.
type BridgeConf struct {
	LocalIP        string   `toml:"local-ip"`        // LocalIP - адрес привязки, пусто = все интерфейсы.
	LocalPort      int      `toml:"local-port"`      // LocalPort - локальный порт клиента.
	CommandPort    int      `toml:"command-port"`    // CommandPort - порт команд на устройстве.
	Interfaces     []string `toml:"interfaces"`      // Interfaces - интерфейсы для сканирования, пусто = все.
	ScanTimeout    Duration `toml:"scan-timeout"`    // ScanTimeout - окно приёма ответов на сканирование.
	CommandTimeout Duration `toml:"command-timeout"` // CommandTimeout - ожидание ответа на команду.
	Select         int      `toml:"select"`          // Select - индекс устройства после сканирования.
	PPS            int      `toml:"pps"`             // PPS - скорость вывода, 0 = не задавать.
}

// DirectoryConf описывает сервер списка шоу.
type DirectoryConf struct {
	Host      string   `toml:"host"`       // Host - адрес хоста с шоу.
	Port      int      `toml:"port"`       // Port - порт сервера списка.
	LocalPort int      `toml:"local-port"` // LocalPort - локальный порт, 0 = любой.
	Timeout   Duration `toml:"timeout"`    // Timeout - ожидание ответа.
}

// ArtNetConf описывает вывод Art-Net.
type ArtNetConf struct {
	Enabled      bool   `toml:"enabled"`       // Enabled - включить зеркалирование.
	AddressRange string `toml:"address-range"` // AddressRange - сеть Art-Net.
	MaxFPS       int    `toml:"max-fps"`       // MaxFPS - ограничение частоты отправки.
}

// Duration позволяет писать "100ms" в TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file overrides a value.
func Default() Config {
	return Config{
		Logger: LogConf{Level: "info", Format: "text"},
		MQTT: MQTTConf{
			Host:   "localhost",
			Port:   "1883",
			Prefix: "showbridge",
		},
		Bridge: BridgeConf{
			LocalPort:      8099,
			CommandPort:    8089,
			ScanTimeout:    Duration{2000 * time.Millisecond},
			CommandTimeout: Duration{100 * time.Millisecond},
		},
		Directory: DirectoryConf{
			Host:    "127.0.0.1",
			Port:    8099,
			Timeout: Duration{time.Second},
		},
		ArtNet: ArtNetConf{
			AddressRange: "192.168.6.0/24",
			MaxFPS:       30,
		},
	}
}

// NewConfig конструктор.
func NewConfig(path string) (*Config, error) {
	// default values
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return &cfg, err
		}
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "showbridge-" + uuid.NewString()[:8]
	}
	return &cfg, nil
}
