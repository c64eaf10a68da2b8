package main

import (
	"fmt"
	"os"

	jsp "github.com/buger/jsonparser"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// run executes cmd against the management socket, printing either a
// rendered table on success, or the error message to stderr and exiting
// nonzero on failure.
func run(socket, cmd string, header []string, row func(obj []byte) []string) error {
	resp, err := query(socket, cmd)
	if err != nil {
		return err
	}

	status, data, message, err := envelope(resp)
	if err != nil {
		return err
	}
	if status != "success" {
		fmt.Fprintln(os.Stderr, message)
		os.Exit(1)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)

	_, err = jsp.ArrayEach(data, func(val []byte, _ jsp.ValueType, _ int, _ error) {
		table.Append(row(val))
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

func newShowNeighborsCmd(socket *string) *cobra.Command {
	return &cobra.Command{
		Use:   "neighbors",
		Short: "Show configured peering sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*socket, "show_neighbors",
				[]string{"Peer", "Remote AS", "State", "Uptime", "Sent", "Received"},
				func(obj []byte) []string {
					peerIP, _ := jsp.GetString(obj, "peer_ip")
					remoteAS, _ := jsp.GetInt(obj, "remote_as")
					state, _ := jsp.GetString(obj, "state")
					uptime, _ := jsp.GetString(obj, "uptime")
					sent, _ := jsp.GetInt(obj, "msgs_sent")
					received, _ := jsp.GetInt(obj, "msgs_received")
					return []string{
						peerIP,
						fmt.Sprint(remoteAS),
						state,
						uptime,
						fmt.Sprint(sent),
						fmt.Sprint(received),
					}
				})
		},
	}
}

func newShowRoutesReceivedCmd(socket *string) *cobra.Command {
	return &cobra.Command{
		Use:   "received",
		Short: "Show routes received from peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*socket, "show_routes_received",
				[]string{"Prefix", "Next Hop", "AS Path", "Origin", "Remote AS", "Received From"},
				func(obj []byte) []string {
					prefix, _ := jsp.GetString(obj, "prefix")
					nextHop, _ := jsp.GetString(obj, "next_hop")
					asPath, _ := jsp.GetString(obj, "as_path")
					origin, _ := jsp.GetString(obj, "origin")
					remoteAS, _ := jsp.GetInt(obj, "remote_as")
					receivedFrom, _ := jsp.GetString(obj, "received_from")
					return []string{prefix, nextHop, asPath, origin, fmt.Sprint(remoteAS), receivedFrom}
				})
		},
	}
}

func newShowRoutesAdvertisedCmd(socket *string) *cobra.Command {
	return &cobra.Command{
		Use:   "advertised",
		Short: "Show prefixes originated to peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := query(*socket, "show_routes_advertised")
			if err != nil {
				return err
			}
			status, data, message, err := envelope(resp)
			if err != nil {
				return err
			}
			if status != "success" {
				fmt.Fprintln(os.Stderr, message)
				os.Exit(1)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Prefix"})
			_, err = jsp.ArrayEach(data, func(val []byte, _ jsp.ValueType, _ int, _ error) {
				table.Append([]string{string(val)})
			})
			if err != nil {
				return err
			}
			table.Render()
			return nil
		},
	}
}
