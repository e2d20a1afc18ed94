package clientmqtt

type MQTTConf struct {
	ClientID string // ClientID - уникальное имя клиента для брокеров.
	Schema   string // Schema - тип подключения.
	Host     string // Host - адрес MQTT сервера.
	Port     string // Port - порт MQTT сервера.
	User     string // User - логин для подключения к MQTT серверу.
	Password string // Password - пароль для подключения к MQTT серверу.
	Qos      byte   // Qos - качество обслуживания публикаций и подписок.
	Prefix   string // Prefix - корень дерева топиков.
}

type nameTopic string

// DataCh carries DMX channel updates for one show.
type DataCh struct {
	Show int
	Data Payload
}

type DMXCommand struct {
	Channel uint16 `json:"channel"` // Channel is the channel a command can talk to (0-511).
	Value   uint8  `json:"value"`   // Value is the value a DMX channel can represent (0-255).
}

type Payload []DMXCommand

// BridgeMessage is the retained description of one discovered show bridge.
type BridgeMessage struct {
	Index     int    `json:"index"`
	Address   string `json:"address"`
	Version   uint8  `json:"version"`
	MaxPPS    int    `json:"maxPps"`
	MaxPoints int    `json:"maxPoints"`
}

// ShowMessage is the retained description of one show.
type ShowMessage struct {
	Index      int    `json:"index"`
	ID         int16  `json:"id"`
	Name       string `json:"name"`
	Port       uint16 `json:"port"`
	Online     bool   `json:"online"`
	ExternMode bool   `json:"externMode"`
	Topic      string `json:"topic"`
}
