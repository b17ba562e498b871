package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charlesren/ftd_cliconf/cliconf"
	"github.com/charlesren/ftd_cliconf/connection"
	"github.com/charlesren/ftd_cliconf/internal/config"
	"github.com/charlesren/ftd_cliconf/inventory"
	"github.com/charlesren/ylog"
	"github.com/charlesren/zapix"
	"github.com/spf13/cobra"
)

var (
	confPath   string
	deviceName string
	timeout     time.Duration
	showMetrics bool
	appConfig   *config.Config
	// sessionMetrics 本次运行所有会话的命令统计
	sessionMetrics = connection.NewDefaultMetricsCollector()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ftdctl",
		Short: "Cisco FTD command line adapter",
		Long: `ftdctl drives the CLI of a Cisco Firepower Threat Defense device:
fetch and push configuration, run commands and report device facts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(confPath)
			if err != nil {
				return err
			}
			appConfig = cfg
			initLog(cfg.Log)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&confPath, "config", "c", "", "ConfigPath")
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", "", "device name from the workbook or zabbix inventory")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall operation timeout")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "print session command statistics to stderr")

	rootCmd.AddCommand(getConfigCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(macroCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(deviceInfoCmd())
	rootCmd.AddCommand(capabilitiesCmd())
	rootCmd.AddCommand(defaultsFlagCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(inventoryCmd())
	return rootCmd
}

func initLog(c config.LogConfig) {
	logger := ylog.NewYLog(
		ylog.WithLogFile(c.File),
		ylog.WithMaxAge(c.MaxAge),
		ylog.WithMaxSize(c.MaxSize),
		ylog.WithMaxBackups(c.MaxBackups),
		ylog.WithLevel(c.Level),
	)
	ylog.InitLogger(logger)
}

// resolveDevice 未指定 --device 时使用配置文件中的 device 段
func resolveDevice() (*connection.EnhancedConnectionConfig, error) {
	if deviceName == "" {
		return appConfig.ConnectionConfig()
	}

	defaults := appConfig.DeviceDefaults()
	if wb := appConfig.Inventory.Workbook; wb != "" {
		devices, err := inventory.LoadWorkbook(wb, appConfig.Inventory.Sheet, defaults)
		if err != nil {
			return nil, err
		}
		for _, d := range devices {
			if d.Name == deviceName {
				return &d.Config, nil
			}
		}
	}

	if appConfig.Zabbix.APIURL != "" {
		inv, err := zabbixInventory()
		if err != nil {
			return nil, err
		}
		if _, err := inv.Sync(); err != nil {
			return nil, err
		}
		if d, ok := inv.Lookup(deviceName); ok {
			return &d.Config, nil
		}
	}
	return nil, fmt.Errorf("device %s not found in inventory", deviceName)
}

func zabbixInventory() (*inventory.ZabbixInventory, error) {
	zc := zapix.NewZabbixClient()
	if os.Getenv("DEBUG") == "on" {
		zc.SetDebug(true)
	}
	zc.Client.SetBaseURL(appConfig.Zabbix.APIURL)
	if err := zc.Login(appConfig.Zabbix.APIURL, appConfig.Zabbix.Username, appConfig.Zabbix.Password); err != nil {
		ylog.Errorf("Zabbix", "login err: %v", err)
		return nil, fmt.Errorf("zabbix login failed: %w", err)
	}
	ylog.Infof("Zabbix", "login success")
	return inventory.NewZabbixInventory(zc, appConfig.DeviceDefaults()), nil
}

// withCliconf 打开会话，执行 fn 后关闭
func withCliconf(cmd *cobra.Command, fn func(ctx context.Context, c *cliconf.Cliconf) error) error {
	cfg, err := resolveDevice()
	if err != nil {
		return err
	}
	driver, err := connection.Open(*cfg, sessionMetrics)
	if err != nil {
		return err
	}
	if showMetrics {
		defer dumpMetrics(os.Stderr, sessionMetrics)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			ylog.Warnf("Main", "close session to %s failed: %v", cfg.Address(), err)
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return fn(ctx, cliconf.New(driver))
}

// dumpMetrics 输出会话统计，失败时也输出
func dumpMetrics(w io.Writer, collector connection.MetricsCollector) {
	snapshot := collector.GetMetrics()
	count, errs := snapshot.Totals()
	ylog.Infof("Main", "session finished: %d commands, %d failed", count, errs)
	if err := printJSON(w, snapshot); err != nil {
		ylog.Warnf("Main", "print metrics failed: %v", err)
	}
}
