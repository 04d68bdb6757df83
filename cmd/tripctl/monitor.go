package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	monitorCmd := &cobra.Command{Use: "monitor", Short: "Trip monitoring operations"}

	var types []string
	startCmd := &cobra.Command{
		Use:   "start TRIP_ID",
		Short: "Start collecting weather and travel-alert updates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if len(types) > 0 {
				payload["types"] = types
			}
			data, err := checkStatus(newClient().R().
				SetBody(payload).
				Post("/api/trips/" + args[0] + "/monitoring"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	startCmd.Flags().StringSliceVar(&types, "types", nil, "Feeds to collect (weather, travel-alerts); default both")
	monitorCmd.AddCommand(startCmd)

	statusCmd := &cobra.Command{
		Use:   "status TRIP_ID",
		Short: "Show whether the trip is being monitored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkStatus(newClient().R().
				Get("/api/trips/" + args[0] + "/monitoring/status"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	monitorCmd.AddCommand(statusCmd)

	updatesCmd := &cobra.Command{
		Use:   "updates TRIP_ID",
		Short: "Show updates collected since monitoring started",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkStatus(newClient().R().
				Get("/api/trips/" + args[0] + "/monitoring"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	monitorCmd.AddCommand(updatesCmd)

	stopCmd := &cobra.Command{
		Use:   "stop TRIP_ID",
		Short: "Stop monitoring the trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := checkStatus(newClient().R().
				Delete("/api/trips/" + args[0] + "/monitoring")); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "stopped")
			return nil
		},
	}
	monitorCmd.AddCommand(stopCmd)

	rootCmd.AddCommand(monitorCmd)
}
