package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/vitrine-io/vitrine/cmd/vitrine-update-agent/app/options"
	"github.com/vitrine-io/vitrine/internal/updatecheck"
	"github.com/vitrine-io/vitrine/pkg/app"
)

const statusPath = "/v1/update/status"

func newStatusCommand(opts *options.AgentOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Print the update state of a running agent",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only the HTTP section matters here; the update settings may be absent.
			if err := app.BindOptions(cmd, opts); err != nil {
				return err
			}
			if err := utilerrors.NewAggregate(opts.HttpOptions.Validate()); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.HttpOptions.Timeout)
			defer cancel()

			st, err := fetchStatus(ctx, http.DefaultClient, agentURL(opts.HttpOptions.Addr))
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), st)
		},
	}
}

// agentURL turns a listen address into a URL reachable from the local host.
func agentURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + statusPath
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + statusPath
}

func fetchStatus(ctx context.Context, client *http.Client, url string) (updatecheck.Status, error) {
	var st updatecheck.Status

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return st, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return st, fmt.Errorf("query agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("query agent: unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decode agent status: %w", err)
	}
	return st, nil
}

func printStatus(w io.Writer, st updatecheck.Status) error {
	lastSeen := "-"
	if st.HasLastSeen {
		lastSeen = string(st.LastSeen)
	}

	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("STATE:", st.State)
	table.AddRow("LAST SEEN:", lastSeen)
	table.AddRow("UPDATE PENDING:", strconv.FormatBool(st.UpdatePending))
	table.AddRow("POLLING:", strconv.FormatBool(st.Polling))
	table.AddRow("REMINDING:", strconv.FormatBool(st.Reminding))

	_, err := fmt.Fprintln(w, table)
	return err
}
