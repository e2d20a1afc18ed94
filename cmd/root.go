package main

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"
	"showbridge/internal/bridge"
	"showbridge/internal/clientmqtt"
	"showbridge/internal/config"
	"showbridge/internal/logger"
	"showbridge/internal/netif"
	"showbridge/internal/protocol"
	"showbridge/internal/session"
	"showbridge/internal/transport"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "showbridge",
	Short: "Discover and drive laser show bridges",
	Long: `showbridge finds show bridges on the local networks, streams frames and
control commands to them, and queries a controller host for its shows.

Use "showbridge [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(showsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(controlCmd)
}

// app is what every command starts from.
type app struct {
	cfg  *config.Config
	log  *logger.Log
	sess *session.Session
}

// newApp reads the configuration, builds the logger and binds a session.
func newApp() (*app, error) {
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("configuration file read error: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create a logger: %w", err)
	}
	log.Module("logger").Debug("newLogger created ok")

	opts, err := sessionOptions(cfg)
	if err != nil {
		return nil, err
	}
	sess := session.New(transport.UDPListener{}, log, opts)
	if err := sess.Bind(); err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, sess: sess}, nil
}

func (a *app) close() {
	if err := a.sess.Close(); err != nil {
		a.log.Module("session").Warnf("close: %v", err)
	}
}

// scan runs discovery on the configured interfaces.
func (a *app) scan() (int, error) {
	ifaces, err := netif.List(false)
	if err != nil {
		return 0, err
	}
	ifaces = netif.Select(ifaces, a.cfg.Bridge.Interfaces)
	if len(ifaces) == 0 {
		return 0, fmt.Errorf("no usable interface among %v", a.cfg.Bridge.Interfaces)
	}
	return a.sess.Scan(ifaces)
}

// sessionOptions преобразует конфигурацию в параметры сессии.
func sessionOptions(cfg *config.Config) (session.Options, error) {
	opts := session.Options{
		BridgeLocalPort:    cfg.Bridge.LocalPort,
		DirectoryLocalPort: cfg.Directory.LocalPort,
		DirectoryTimeout:   cfg.Directory.Timeout.Duration,
		Bridge: bridge.Options{
			CommandPort:    cfg.Bridge.CommandPort,
			ScanTimeout:    cfg.Bridge.ScanTimeout.Duration,
			CommandTimeout: cfg.Bridge.CommandTimeout.Duration,
			WireEndian:     protocol.LittleEndian,
		},
	}
	if cfg.Bridge.LocalIP != "" {
		ip, err := netip.ParseAddr(cfg.Bridge.LocalIP)
		if err != nil {
			return opts, fmt.Errorf("bridge local-ip: %w", err)
		}
		opts.LocalIP = ip
	}
	host, err := netip.ParseAddr(cfg.Directory.Host)
	if err != nil {
		return opts, fmt.Errorf("directory host: %w", err)
	}
	opts.Directory = netip.AddrPortFrom(host, uint16(cfg.Directory.Port))
	return opts, nil
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID: cfg.ClientID,
		Schema:   "tcp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Qos:      cfg.Qos,
		Prefix:   cfg.Prefix,
	}
}
