package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

type backendInfo struct {
	ID      int32    `json:"id"`
	Name    string   `json:"name"`
	BuiltIn bool     `json:"built_in"`
	Plugin  string   `json:"plugin,omitempty"`
	Roles   []string `json:"roles"`
}

type backendList struct {
	role    string
	list    func() ([]videoio.API, error)
	version func(videoio.API) (videoio.PluginVersion, error)
}

var backendLists = []backendList{
	{"camera", videoio.CameraBackends, videoio.CameraBackendPluginVersion},
	{"stream", videoio.StreamBackends, videoio.StreamBackendPluginVersion},
	{"stream-buffered", videoio.StreamBufferedBackends, videoio.StreamBufferedBackendPluginVersion},
	{"writer", videoio.WriterBackends, videoio.WriterBackendPluginVersion},
}

func newBackendsCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List the available capture and writer backends",
		Example: `  videoio backends
  videoio backends --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			infos, err := collectBackends()
			if err != nil {
				return err
			}
			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			printBackends(cmd.OutOrStdout(), infos)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (json or text)")
	cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// collectBackends merges the registry lists, keeping registry order.
func collectBackends() ([]*backendInfo, error) {
	all, err := videoio.Backends()
	if err != nil {
		return nil, err
	}

	byID := make(map[videoio.API]*backendInfo, len(all))
	infos := make([]*backendInfo, 0, len(all))
	for _, api := range all {
		name, err := videoio.BackendName(api)
		if err != nil {
			return nil, err
		}
		builtIn, err := videoio.IsBackendBuiltIn(api)
		if err != nil {
			return nil, err
		}
		info := &backendInfo{ID: int32(api), Name: name, BuiltIn: builtIn, Roles: []string{}}
		byID[api] = info
		infos = append(infos, info)
	}

	for _, l := range backendLists {
		ids, err := l.list()
		if err != nil {
			return nil, err
		}
		for _, api := range ids {
			info, ok := byID[api]
			if !ok {
				continue
			}
			info.Roles = append(info.Roles, l.role)
			if info.BuiltIn || info.Plugin != "" {
				continue
			}
			if v, err := l.version(api); err == nil {
				info.Plugin = fmt.Sprintf("%s (abi %d, api %d)", v.Description, v.ABI, v.API)
			}
		}
	}
	return infos, nil
}

func printBackends(w io.Writer, infos []*backendInfo) {
	if len(infos) == 0 {
		color.New(color.Faint).Fprintln(w, "No video backends available.")
		return
	}
	for _, info := range infos {
		kind := color.GreenString("built-in")
		if !info.BuiltIn {
			kind = color.YellowString("plugin")
		}
		fmt.Fprintf(w, "%-12s %5d  %-8s  %v\n", color.CyanString(info.Name), info.ID, kind, info.Roles)
		if info.Plugin != "" {
			color.New(color.Faint).Fprintf(w, "             %s\n", info.Plugin)
		}
	}
}
