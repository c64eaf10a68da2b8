// Command bgpctl is the operator control utility for bgpd: a thin client
// over the management Unix socket.
package main

import (
	"fmt"
	"os"

	"github.com/routerd/bgpd/config"
	"github.com/spf13/cobra"
)

func main() {
	var socket string

	root := &cobra.Command{
		Use:   "bgpctl",
		Short: "Query a running bgpd instance",
	}
	root.PersistentFlags().StringVar(&socket, "socket", config.DefaultMgmtSocketPath, "management socket path")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show speaker state",
	}

	showRoutes := &cobra.Command{
		Use:   "routes",
		Short: "Show routes",
	}
	showRoutes.AddCommand(newShowRoutesReceivedCmd(&socket))
	showRoutes.AddCommand(newShowRoutesAdvertisedCmd(&socket))

	show.AddCommand(newShowNeighborsCmd(&socket))
	show.AddCommand(showRoutes)
	root.AddCommand(show)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
