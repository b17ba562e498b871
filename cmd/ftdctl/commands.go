package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charlesren/ftd_cliconf/cliconf"
	"github.com/charlesren/ftd_cliconf/inventory"
	"github.com/charlesren/ftd_cliconf/report"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func getConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get-config [flags...]",
		Short: "Fetch running or startup configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			format, _ := cmd.Flags().GetString("format")
			defaults, _ := cmd.Flags().GetBool("defaults")
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				flags := args
				if defaults {
					flag, err := c.GetDefaultsFlag(ctx)
					if err != nil {
						return err
					}
					flags = append(flags, flag)
				}
				out, err := c.GetConfig(ctx, source, flags, format)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().String("source", "running", "configuration source (running, startup)")
	cmd.Flags().String("format", "", "output format")
	cmd.Flags().Bool("defaults", false, "include default values")
	return cmd
}

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <candidate.yml|->",
		Short: "Push configuration lines from a YAML candidate file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkMode, _ := cmd.Flags().GetBool("check")
			candidate, err := readCandidate(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				resp, err := c.EditConfig(ctx, candidate, !checkMode, false, "")
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().Bool("check", false, "dry run (not supported by the device)")
	return cmd
}

func macroCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "macro <line>...",
		Short: "Send lines as a send-only batch and flush",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				resp, err := c.EditMacro(ctx, args, true, false, "")
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <command>",
		Short: "Run one command, optionally answering a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := cliconf.CommandSpec{Command: args[0]}
			spec.Prompt, _ = cmd.Flags().GetString("prompt")
			spec.Answer, _ = cmd.Flags().GetString("answer")
			spec.SendOnly, _ = cmd.Flags().GetBool("sendonly")
			spec.CheckAll, _ = cmd.Flags().GetBool("check-all")
			if cmd.Flags().Changed("newline") {
				newline, _ := cmd.Flags().GetBool("newline")
				spec.Newline = &newline
			}
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				out, err := c.Get(ctx, spec)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().String("prompt", "", "sub-prompt pattern to answer")
	cmd.Flags().String("answer", "", "answer sent when the prompt appears")
	cmd.Flags().Bool("sendonly", false, "do not wait for output")
	cmd.Flags().Bool("newline", true, "append a newline")
	cmd.Flags().Bool("check-all", false, "fail when the prompt is not seen")
	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command>...",
		Short: "Run commands and print each result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			checkRC, _ := cmd.Flags().GetBool("check-rc")
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				out, err := c.RunCommands(ctx, cliconf.Lines(args...), checkRC)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().Bool("check-rc", true, "stop at the first failed command")
	return cmd
}

func deviceInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "device-info",
		Short: "Show network OS and version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				info, err := c.GetDeviceInfo(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), info)
			})
		},
	}
}

func capabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Print the capabilities document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				out, err := c.GetCapabilities(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func defaultsFlagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults-flag",
		Short: "Print the flag that includes defaults in get-config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				flag, err := c.GetDefaultsFlag(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), flag)
				return nil
			})
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Send device info to zabbix trapper items",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := appConfig.Zabbix.Sender
			if deviceName != "" && sc.Host == "" {
				sc.Host = deviceName
			}
			reporter, err := report.NewZabbixReporter(sc)
			if err != nil {
				return err
			}
			return withCliconf(cmd, func(ctx context.Context, c *cliconf.Cliconf) error {
				info, err := c.GetDeviceInfo(ctx)
				if err != nil {
					return err
				}
				return reporter.Report(info, sessionMetrics.GetMetrics(), time.Now())
			})
		},
	}
}

func inventoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory",
		Short: "List devices from the workbook and zabbix",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []inventoryRow
			if wb := appConfig.Inventory.Workbook; wb != "" {
				devices, err := inventory.LoadWorkbook(wb, appConfig.Inventory.Sheet, appConfig.DeviceDefaults())
				if err != nil {
					return err
				}
				for _, d := range devices {
					rows = append(rows, newInventoryRow(d))
				}
			}
			if appConfig.Zabbix.APIURL != "" {
				inv, err := zabbixInventory()
				if err != nil {
					return err
				}
				events, err := inv.Sync()
				if err != nil {
					return err
				}
				for _, e := range events {
					rows = append(rows, newInventoryRow(e.Device))
				}
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
}

type inventoryRow struct {
	Source   string `json:"source"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Protocol string `json:"protocol"`
}

func newInventoryRow(d inventory.Device) inventoryRow {
	return inventoryRow{
		Source:   d.Source(),
		Name:     d.Name,
		Address:  d.Config.Address(),
		Protocol: string(d.Config.Protocol),
	}
}

// readCandidate 读取 YAML 候选配置，"-" 表示标准输入
func readCandidate(stdin io.Reader, path string) ([]cliconf.CommandSpec, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read candidate: %w", err)
	}

	var candidate []cliconf.CommandSpec
	if err := yaml.Unmarshal(data, &candidate); err != nil {
		return nil, fmt.Errorf("decode candidate %s: %w", path, err)
	}
	return candidate, nil
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
