package main

import (
	"context"

	"github.com/spf13/cobra"
	"showbridge/internal/artnet"
	"showbridge/internal/clientmqtt"
	"showbridge/internal/protocol"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge daemon until interrupted",
	Long: `Bind, scan for show bridges, fetch the show list, then relay DMX
updates received over MQTT to the shows (and to Art-Net when enabled).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		log := a.log

		if _, err := a.scan(); err != nil {
			log.Module("bridge").Warnf("scan: %v", err)
		}
		bridges := a.sess.Bridges()
		if len(bridges) > 0 {
			if err := a.sess.SelectBridge(a.cfg.Bridge.Select); err != nil {
				log.Module("bridge").Warnf("select %d: %v", a.cfg.Bridge.Select, err)
			} else if a.cfg.Bridge.PPS > 0 {
				if err := a.sess.SetPPS(a.cfg.Bridge.PPS); err != nil {
					log.Module("bridge").Warnf("set pps: %v", err)
				}
			}
		}

		shows := fetchShows(a)

		// Канал для передачи.
		dmxDataCh := make(chan clientmqtt.DataCh, 10)

		relay, err := artnet.NewRelay(log, a.sess, artnet.Options{
			Mirror:       a.cfg.ArtNet.Enabled,
			AddressRange: a.cfg.ArtNet.AddressRange,
			MaxFPS:       a.cfg.ArtNet.MaxFPS,
		})
		if err != nil {
			return err
		}
		log.Module("art-net").Debug("NewRelay created ok")
		if err := relay.Start(ctx, dmxDataCh); err != nil {
			return err
		}
		defer relay.Stop()

		if a.cfg.MQTT.Enabled {
			client := clientmqtt.NewClient(log, ConvertConfigClientMQTT(a.cfg.MQTT))
			if err := mqttStartErr(ctx, client.Start(ctx, dmxDataCh)); err != nil {
				log.Error("failed to start MQTT service: ", err.Error())
				return err
			}
			defer func() {
				if err := client.Stop(); err != nil {
					log.Error("failed to stop MQTT service: ", err.Error())
				}
			}()
			if ctx.Err() != nil {
				log.Info("interrupted while connecting to MQTT, shutdown complete")
				return nil
			}
			if err := client.PublishBridges(bridges); err != nil {
				log.Module("mqtt").Warn(err)
			}
			if err := client.PublishShows(shows); err != nil {
				log.Module("mqtt").Warn(err)
			}
		}

		<-ctx.Done()
		log.Info("shutdown complete")
		return nil
	},
}

// mqttStartErr drops a start failure caused by the daemon being interrupted.
func mqttStartErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// fetchShows reads the show list and the info of every show. A show whose info
// cannot be read keeps its place with only the port filled in.
func fetchShows(a *app) []protocol.Show {
	log := a.log.Module("directory")
	list, err := a.sess.ShowList()
	if err != nil {
		log.Warnf("show list: %v", err)
		return nil
	}
	shows := make([]protocol.Show, 0, list.Count)
	for i := 0; i < int(list.Count); i++ {
		s, err := a.sess.ShowInfo(i)
		if err != nil {
			log.Warnf("show %d: %v", i, err)
			s = protocol.Show{ID: int16(i), Port: list.Port(i)}
		}
		shows = append(shows, s)
	}
	return shows
}
