package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	tripsCmd := &cobra.Command{Use: "trips", Short: "Trip operations"}

	// create
	var title, destination, start, end, description string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"title":       title,
				"destination": destination,
				"start_date":  start,
				"end_date":    end,
			}
			if description != "" {
				payload["description"] = description
			}
			data, err := checkStatus(newClient().R().SetBody(payload).Post("/api/trips"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVarP(&title, "title", "t", "", "Trip title (required)")
	createCmd.Flags().StringVarP(&destination, "destination", "d", "", "Destination (required)")
	createCmd.Flags().StringVarP(&start, "start", "s", "", "Start date YYYY-MM-DD (required)")
	createCmd.Flags().StringVarP(&end, "end", "e", "", "End date YYYY-MM-DD (required)")
	createCmd.Flags().StringVar(&description, "description", "", "Trip description")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("destination")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("end")
	tripsCmd.AddCommand(createCmd)

	// list
	var page, pageSize int
	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List trips",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := newClient().R().
				SetQueryParam("page", fmt.Sprint(page)).
				SetQueryParam("page_size", fmt.Sprint(pageSize))
			if status != "" {
				req.SetQueryParam("status", status)
			}
			data, err := checkStatus(req.Get("/api/trips"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	listCmd.Flags().IntVar(&pageSize, "page-size", 20, "Page size")
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status")
	tripsCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get TRIP_ID",
		Short: "Get a trip with its itinerary and budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkStatus(newClient().R().Get("/api/trips/" + args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	tripsCmd.AddCommand(getCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete TRIP_ID",
		Short: "Delete a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := checkStatus(newClient().R().Delete("/api/trips/" + args[0])); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	tripsCmd.AddCommand(deleteCmd)

	// plan
	planCmd := &cobra.Command{
		Use:   "plan TRIP_ID",
		Short: "Build the trip's itinerary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := checkStatus(newClient().R().Post("/api/trips/" + args[0] + "/itinerary"))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	tripsCmd.AddCommand(planCmd)

	rootCmd.AddCommand(tripsCmd)
}
