package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"showbridge/internal/session"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List show bridges answering on the local networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.scan()
		if err != nil && n == 0 {
			return err
		}
		if n == 0 {
			fmt.Println("No show bridges found.")
			return nil
		}
		fmt.Printf("Show bridges (%d):\n\n", n)
		for i, b := range a.sess.Bridges() {
			fmt.Printf("  %3d  %s\n", i, b)
		}
		return err
	},
}

var showsCmd = &cobra.Command{
	Use:   "shows",
	Short: "List the shows of the controller host",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		list, err := a.sess.ShowList()
		if err != nil {
			return err
		}
		fmt.Printf("Shows on %s (%d, %s endian):\n\n", a.cfg.Directory.Host, list.Count, list.Endian)
		for i := 0; i < int(list.Count); i++ {
			fmt.Printf("  %3d  port %d\n", i, list.Port(i))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Print the details of one show",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("show index %q: %w", args[0], err)
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if _, err := a.sess.ShowList(); err != nil {
			return err
		}
		s, err := a.sess.ShowInfo(i)
		if err != nil {
			return err
		}
		opt, err := a.sess.OptimizerSetting(i)
		if err != nil {
			return err
		}
		fmt.Printf("Show %d\n", i)
		fmt.Printf("  ID:        %d\n", s.ID)
		fmt.Printf("  Name:      %s\n", s.Name)
		fmt.Printf("  Port:      %d\n", s.Port)
		fmt.Printf("  Online:    %v\n", s.Dac.Online())
		fmt.Printf("  Extern:    %v\n", s.Dac.ExternMode())
		fmt.Printf("  Optimizer: anchors %d/%d, interpolation %d/%d\n",
			opt.AnchorPointsLit, opt.AnchorPointsBlanked, opt.InterpDistLit, opt.InterpDistBlanked)
		return nil
	},
}

var controlActions = map[string]func(*session.Session) error{
	"play":   (*session.Session).Play,
	"stop":   (*session.Session).Stop,
	"pause":  (*session.Session).Pause,
	"resume": (*session.Session).Resume,
	"reboot": (*session.Session).Reboot,
}

var controlCmd = &cobra.Command{
	Use:       "control <play|stop|pause|resume|reboot>",
	Short:     "Send a playback command to the configured show bridge",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"play", "stop", "pause", "resume", "reboot"},
	RunE: func(cmd *cobra.Command, args []string) error {
		action := controlActions[args[0]]
		index, _ := cmd.Flags().GetInt("bridge")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if index < 0 {
			index = a.cfg.Bridge.Select
		}
		if _, err := a.scan(); err != nil {
			a.log.Module("bridge").Warnf("scan: %v", err)
		}
		if err := a.sess.SelectBridge(index); err != nil {
			return err
		}
		if err := action(a.sess); err != nil {
			return err
		}
		b, _ := a.sess.SelectedBridge()
		fmt.Printf("%s sent to %s\n", args[0], b.Addr)
		return nil
	},
}

func init() {
	controlCmd.Flags().Int("bridge", -1, "Bridge index from the scan (default: bridge.select from config)")
}
